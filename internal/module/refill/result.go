package refill

import (
	"time"

	"github.com/google/uuid"
	"github.com/pixelmuse/server/internal/module/credit"
	"github.com/pixelmuse/server/internal/module/subscription"
)

// Phase identifies the sweep pass that produced a result.
type Phase string

const (
	PhaseAnnualRefill      Phase = "annual_refill"
	PhaseMonthlyActivation Phase = "monthly_activation"
)

// Status is the outcome of one subscription in a sweep.
type Status string

const (
	StatusActivated Status = "activated"
	StatusSkipped   Status = "skipped"
	StatusError     Status = "error"
)

// SkipReason explains a skipped result.
type SkipReason string

const (
	ReasonNotDue           SkipReason = "not_due"
	ReasonNoRefillGrant    SkipReason = "no_refill_grant"
	ReasonInactive         SkipReason = "inactive"
	ReasonNothingOwed      SkipReason = "nothing_owed"
	ReasonNotFound         SkipReason = "not_found"
	ReasonConcurrentUpdate SkipReason = "concurrent_update"
)

// Result is the per-subscription outcome: activated, skipped with a reason,
// or error with a message. Counter fields hold the values after the step.
type Result struct {
	Phase          Phase     `json:"phase"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	UserID         uuid.UUID `json:"user_id"`
	Status         Status    `json:"status"`

	Reason    SkipReason `json:"reason,omitempty"`
	Error     string     `json:"error,omitempty"`
	Retryable bool       `json:"retryable,omitempty"`

	EntryID           *uuid.UUID `json:"entry_id,omitempty"`
	CreditsAdded      int64      `json:"credits_added,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	DaysUntilExpiry   *int       `json:"days_until_expiry,omitempty"`
	UnactivatedMonths *int       `json:"unactivated_months,omitempty"`
	RemainingRefills  *int       `json:"remaining_refills,omitempty"`
	NextRefillDate    *time.Time `json:"next_refill_date,omitempty"`
	Reconciled        bool       `json:"reconciled,omitempty"`
	// Reanchored marks a carry-over grant started at the sweep time because
	// the previous grant had lapsed.
	Reanchored bool `json:"reanchored,omitempty"`
}

func newResult(phase Phase, sub *subscription.Subscription) Result {
	return Result{Phase: phase, SubscriptionID: sub.ID, UserID: sub.UserID}
}

func (r Result) activated(entry *credit.CreditEntry, sub *subscription.Subscription) Result {
	r.Status = StatusActivated
	id := entry.ID
	r.EntryID = &id
	r.CreditsAdded = entry.Amount
	r.ExpiresAt = entry.ExpiresAt
	months, remaining := sub.UnactivatedMonths, sub.RemainingRefills
	r.UnactivatedMonths = &months
	r.RemainingRefills = &remaining
	r.NextRefillDate = sub.NextRefillDate
	return r
}

func (r Result) skipped(reason SkipReason) Result {
	r.Status = StatusSkipped
	r.Reason = reason
	return r
}

func (r Result) failed(err error, retryable bool) Result {
	r.Status = StatusError
	r.Error = err.Error()
	r.Retryable = retryable
	return r
}

func (r Result) withDays(days int) Result {
	r.DaysUntilExpiry = &days
	return r
}

// Report summarises one sweep.
type Report struct {
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	RefillCount    int       `json:"refill_count"`
	ActivatedCount int       `json:"activated_count"`
	SkippedCount   int       `json:"skipped_count"`
	ErrorCount     int       `json:"error_count"`
	Results        []Result  `json:"results"`
}

func (r *Report) finish(at time.Time) {
	r.FinishedAt = at
	r.RefillCount, r.ActivatedCount, r.SkippedCount, r.ErrorCount = 0, 0, 0, 0
	for _, res := range r.Results {
		switch res.Status {
		case StatusActivated:
			if res.Phase == PhaseAnnualRefill {
				r.RefillCount++
			} else {
				r.ActivatedCount++
			}
		case StatusSkipped:
			r.SkippedCount++
		case StatusError:
			r.ErrorCount++
		}
	}
}

// ResultFor returns the first result for a subscription in the given phase.
func (r *Report) ResultFor(phase Phase, subscriptionID uuid.UUID) (Result, bool) {
	for _, res := range r.Results {
		if res.Phase == phase && res.SubscriptionID == subscriptionID {
			return res, true
		}
	}
	return Result{}, false
}
