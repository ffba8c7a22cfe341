package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. Record helpers are safe on a nil
// receiver so metrics stay optional for callers.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Ledger metrics
	LedgerEntriesTotal       *prometheus.CounterVec
	LedgerCreditsTotal       *prometheus.CounterVec
	InsufficientBalanceTotal prometheus.Counter

	// Refill sweep metrics
	SweepRunsTotal            *prometheus.CounterVec
	SweepDuration             prometheus.Histogram
	SweepResultsTotal         *prometheus.CounterVec
	PartialDisbursementsTotal *prometheus.CounterVec
	LapsedActivationsTotal    *prometheus.CounterVec
	SweepLastSuccess          prometheus.Gauge

	// Cache metrics
	BalanceCacheTotal *prometheus.CounterVec
}

// New registers all metrics on reg (prometheus.DefaultRegisterer when nil).
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "pixelmuse"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		LedgerEntriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "entries_total",
				Help:      "Total number of credit ledger entries written",
			},
			[]string{"type"},
		),
		LedgerCreditsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "credits_total",
				Help:      "Absolute credit amount written to the ledger",
			},
			[]string{"type"},
		),
		InsufficientBalanceTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "insufficient_balance_total",
				Help:      "Consumption attempts rejected for insufficient balance",
			},
		),

		SweepRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refill",
				Name:      "sweeps_total",
				Help:      "Total number of refill sweeps",
			},
			[]string{"outcome"}, // completed, failed
		),
		SweepDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "refill",
				Name:      "sweep_duration_seconds",
				Help:      "Refill sweep duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		SweepResultsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refill",
				Name:      "results_total",
				Help:      "Per-subscription sweep results",
			},
			[]string{"phase", "status", "reason"},
		),
		PartialDisbursementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refill",
				Name:      "partial_disbursements_total",
				Help:      "Grants found without a matching schedule update",
			},
			[]string{"phase", "outcome"}, // reconciled, failed
		),
		LapsedActivationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refill",
				Name:      "lapsed_activations_total",
				Help:      "Carry-over grants re-anchored after coverage lapsed",
			},
			[]string{"phase"},
		),
		SweepLastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "refill",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last completed sweep",
			},
		),

		BalanceCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "balance_requests_total",
				Help:      "Balance cache lookups by result",
			},
			[]string{"result"}, // hit, miss, error
		),
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLedgerEntry records a committed ledger entry.
func (m *Metrics) RecordLedgerEntry(txType string, amount int64) {
	if m == nil {
		return
	}
	if amount < 0 {
		amount = -amount
	}
	m.LedgerEntriesTotal.WithLabelValues(txType).Inc()
	m.LedgerCreditsTotal.WithLabelValues(txType).Add(float64(amount))
}

// RecordInsufficientBalance records a rejected consumption.
func (m *Metrics) RecordInsufficientBalance() {
	if m == nil {
		return
	}
	m.InsufficientBalanceTotal.Inc()
}

// RecordSweep records a finished sweep.
func (m *Metrics) RecordSweep(completed bool, duration time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(duration.Seconds())
	if !completed {
		m.SweepRunsTotal.WithLabelValues("failed").Inc()
		return
	}
	m.SweepRunsTotal.WithLabelValues("completed").Inc()
	m.SweepLastSuccess.Set(float64(finishedAt.Unix()))
}

// RecordSweepResult records one per-subscription result.
func (m *Metrics) RecordSweepResult(phase, status, reason string) {
	if m == nil {
		return
	}
	m.SweepResultsTotal.WithLabelValues(phase, status, reason).Inc()
}

// RecordPartialDisbursement records a detected partial disbursement.
func (m *Metrics) RecordPartialDisbursement(phase string, reconciled bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if reconciled {
		outcome = "reconciled"
	}
	m.PartialDisbursementsTotal.WithLabelValues(phase, outcome).Inc()
}

// RecordLapsedActivation records a carry-over grant re-anchored at sweep time.
func (m *Metrics) RecordLapsedActivation(phase string) {
	if m == nil {
		return
	}
	m.LapsedActivationsTotal.WithLabelValues(phase).Inc()
}

// RecordBalanceCache records a cache lookup result: hit, miss or error.
func (m *Metrics) RecordBalanceCache(result string) {
	if m == nil {
		return
	}
	m.BalanceCacheTotal.WithLabelValues(result).Inc()
}
