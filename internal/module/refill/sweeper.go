// Package refill disburses subscription credits on schedule.
//
// A sweep runs two phases. The annual phase grants one month of credits to
// every active annual subscription whose refill date has passed. The monthly
// phase releases carried-over months: when a subscription's latest refill
// grant is within the activation window of expiring, a new grant is chained
// onto its expiry. Each grant and its schedule update commit in one
// transaction, keyed by the subscription's disbursement sequence so that
// overlapping sweeps disburse at most once per cycle.
package refill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pixelmuse/server/internal/module/credit"
	"github.com/pixelmuse/server/internal/module/subscription"
	"github.com/pixelmuse/server/internal/shared/events"
	"github.com/pixelmuse/server/internal/shared/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const day = 24 * time.Hour

// Config tunes the sweep.
type Config struct {
	// GrantValidity is how long a refill grant stays usable.
	GrantValidity time.Duration
	// ActivationDays is how close to expiry the latest grant must be before
	// the next carried-over month is released.
	ActivationDays int
	// Concurrency bounds subscriptions processed in parallel.
	Concurrency int
}

// DefaultConfig returns the production schedule: 30-day grants released
// within 3 days of expiry.
func DefaultConfig() Config {
	return Config{
		GrantValidity:  30 * day,
		ActivationDays: 3,
		Concurrency:    8,
	}
}

// Sweeper runs refill sweeps.
type Sweeper struct {
	store     Store
	cfg       Config
	publisher events.Publisher
	archiver  ReportArchiver
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewSweeper creates a Sweeper. publisher, archiver and m may be nil.
func NewSweeper(store Store, cfg Config, publisher events.Publisher, archiver ReportArchiver, m *metrics.Metrics, logger *zap.Logger) *Sweeper {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		store:     store,
		cfg:       cfg,
		publisher: publisher,
		archiver:  archiver,
		metrics:   m,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Sweep runs both phases against a single "now". Per-subscription failures
// are reported as error results; only a failed selection query returns an
// error, together with whatever was processed before it.
func (s *Sweeper) Sweep(ctx context.Context) (*Report, error) {
	now := s.now()
	report := &Report{StartedAt: now, Results: []Result{}}

	annual, err := s.store.Subscriptions().ListDueAnnual(ctx, now)
	if err != nil {
		return nil, s.abort(report, fmt.Errorf("%w: annual: %w", ErrSelection, err))
	}
	report.Results = append(report.Results, s.fanOut(ctx, annual, func(ctx context.Context, sub *subscription.Subscription) Result {
		return s.refillAnnual(ctx, sub, now)
	})...)

	owing, err := s.store.Subscriptions().ListOwingCarryOver(ctx)
	if err != nil {
		return report, s.abort(report, fmt.Errorf("%w: carry-over: %w", ErrSelection, err))
	}
	report.Results = append(report.Results, s.fanOut(ctx, owing, func(ctx context.Context, sub *subscription.Subscription) Result {
		return s.activateCarryOver(ctx, sub, now)
	})...)

	report.finish(s.now())
	s.metrics.RecordSweep(true, report.FinishedAt.Sub(report.StartedAt), report.FinishedAt)
	s.logger.Info("refill sweep completed",
		zap.Int("refill_count", report.RefillCount),
		zap.Int("activated_count", report.ActivatedCount),
		zap.Int("skipped_count", report.SkippedCount),
		zap.Int("error_count", report.ErrorCount),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)
	s.archive(ctx, report)

	return report, nil
}

func (s *Sweeper) abort(report *Report, err error) error {
	report.finish(s.now())
	s.metrics.RecordSweep(false, report.FinishedAt.Sub(report.StartedAt), report.FinishedAt)
	s.logger.Error("refill sweep failed", zap.Error(err), zap.Int("processed", len(report.Results)))
	return err
}

func (s *Sweeper) archive(ctx context.Context, report *Report) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.Archive(ctx, report); err != nil {
		s.logger.Warn("archive sweep report", zap.Error(err))
	}
}

func (s *Sweeper) fanOut(ctx context.Context, subs []*subscription.Subscription, process func(context.Context, *subscription.Subscription) Result) []Result {
	results := make([]Result, len(subs))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, sub := range subs {
		g.Go(func() error {
			results[i] = process(ctx, sub)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// refillAnnual grants one month of credits to a due annual subscription.
// The next refill date is anchored on the new grant's expiry.
func (s *Sweeper) refillAnnual(ctx context.Context, snapshot *subscription.Subscription, now time.Time) Result {
	base := newResult(PhaseAnnualRefill, snapshot)
	var out txOutcome

	err := s.store.Transaction(ctx, func(tx Store) error {
		sub, skip, err := s.reload(ctx, tx, snapshot)
		if err != nil || skip != "" {
			out.result = base.skipped(skip)
			return err
		}
		if done, err := s.reconcile(ctx, tx, sub, now, &out); done || err != nil {
			return err
		}
		if !sub.AnnualRefillDue(now) {
			out.result = base.skipped(ReasonNotDue)
			return nil
		}

		expiresAt := now.Add(s.cfg.GrantValidity)
		entry, err := s.grant(ctx, tx, sub, PhaseAnnualRefill, expiresAt, now)
		if err != nil {
			return err
		}
		if err := tx.Subscriptions().AdvanceAnnual(ctx, sub, expiresAt, now); err != nil {
			return err
		}
		out.result = base.activated(entry, sub)
		out.grant = entry
		return nil
	})

	return s.settle(base, out, err, now)
}

// activateCarryOver releases one unactivated month when the latest refill
// grant is about to expire, chaining the new grant onto its expiry.
func (s *Sweeper) activateCarryOver(ctx context.Context, snapshot *subscription.Subscription, now time.Time) Result {
	base := newResult(PhaseMonthlyActivation, snapshot)
	var out txOutcome

	err := s.store.Transaction(ctx, func(tx Store) error {
		sub, skip, err := s.reload(ctx, tx, snapshot)
		if err != nil || skip != "" {
			out.result = base.skipped(skip)
			return err
		}
		if done, err := s.reconcile(ctx, tx, sub, now, &out); done || err != nil {
			return err
		}
		if !sub.OwesCarryOver() {
			out.result = base.skipped(ReasonNothingOwed)
			return nil
		}

		latest, err := tx.Ledger().LatestRefillGrant(ctx, sub.UserID, sub.ID)
		if errors.Is(err, credit.ErrEntryNotFound) {
			out.result = base.skipped(ReasonNoRefillGrant)
			return nil
		}
		if err != nil {
			return err
		}

		days := daysUntil(*latest.ExpiresAt, now)
		if days > s.cfg.ActivationDays {
			out.result = base.skipped(ReasonNotDue).withDays(days)
			return nil
		}

		expiresAt := latest.ExpiresAt.Add(s.cfg.GrantValidity)
		reanchored := false
		if daysUntil(expiresAt, now) <= s.cfg.ActivationDays {
			// Coverage lapsed for most of a cycle. The chained grant would
			// expire on arrival, so the month starts a fresh cycle at now.
			expiresAt = now.Add(s.cfg.GrantValidity)
			reanchored = true
		}

		entry, err := s.grant(ctx, tx, sub, PhaseMonthlyActivation, expiresAt, now)
		if err != nil {
			return err
		}
		if err := tx.Subscriptions().ConsumeCarryOver(ctx, sub, now); err != nil {
			return err
		}
		out.result = base.activated(entry, sub).withDays(days)
		out.result.Reanchored = reanchored
		out.grant = entry
		return nil
	})

	return s.settle(base, out, err, now)
}

// txOutcome carries what a committed transaction produced.
type txOutcome struct {
	result     Result
	grant      *credit.CreditEntry
	reconciled bool
}

// reload re-reads the subscription inside the transaction. A non-empty skip
// reason means the row is no longer eligible for any phase.
func (s *Sweeper) reload(ctx context.Context, tx Store, snapshot *subscription.Subscription) (*subscription.Subscription, SkipReason, error) {
	sub, err := tx.Subscriptions().GetByID(ctx, snapshot.ID)
	if errors.Is(err, subscription.ErrSubscriptionNotFound) {
		return nil, ReasonNotFound, nil
	}
	if err != nil {
		return nil, "", err
	}
	if !sub.IsActive() {
		return nil, ReasonInactive, nil
	}
	return sub, "", nil
}

// reconcile looks for a grant already keyed to the subscription's next
// sequence value. Such a grant was written without its schedule update; the
// update is applied now and no second grant is written.
func (s *Sweeper) reconcile(ctx context.Context, tx Store, sub *subscription.Subscription, now time.Time, out *txOutcome) (bool, error) {
	pending, err := tx.Ledger().FindByIdempotencyKey(ctx, credit.RefillKey(sub.ID, sub.DisbursementSeq+1))
	if errors.Is(err, credit.ErrEntryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	out.reconciled = true
	phase := Phase(pending.Metadata)
	if pending.ExpiresAt == nil {
		return true, fmt.Errorf("%w: grant %s has no expiry", ErrPartialDisbursement, pending.ID)
	}

	switch phase {
	case PhaseAnnualRefill:
		err = tx.Subscriptions().AdvanceAnnual(ctx, sub, *pending.ExpiresAt, now)
	case PhaseMonthlyActivation:
		err = tx.Subscriptions().ConsumeCarryOver(ctx, sub, now)
	default:
		return true, fmt.Errorf("%w: grant %s has unknown phase %q", ErrPartialDisbursement, pending.ID, pending.Metadata)
	}
	if err != nil {
		return true, err
	}

	out.result = newResult(phase, sub).activated(pending, sub)
	out.result.Reconciled = true
	out.grant = pending
	return true, nil
}

func (s *Sweeper) grant(ctx context.Context, tx Store, sub *subscription.Subscription, phase Phase, expiresAt, now time.Time) (*credit.CreditEntry, error) {
	subID := sub.ID
	entry, err := credit.NewEntry(credit.EntryInput{
		UserID:          sub.UserID,
		Amount:          sub.PlanTier.MonthlyCredits(),
		Type:            credit.TransactionTypeSubscriptionRefill,
		ExpiresAt:       &expiresAt,
		RelatedEntityID: &subID,
		IdempotencyKey:  credit.RefillKey(sub.ID, sub.DisbursementSeq+1),
		Description:     fmt.Sprintf("%s plan monthly credits", sub.PlanTier),
		Metadata:        string(phase),
	}, now)
	if err != nil {
		return nil, err
	}
	if err := tx.Ledger().Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// settle turns a transaction outcome into the reported result and runs the
// post-commit side effects.
func (s *Sweeper) settle(base Result, out txOutcome, err error, now time.Time) Result {
	res := out.result
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrConcurrentUpdate), errors.Is(err, credit.ErrDuplicateEntry):
			res = base.skipped(ReasonConcurrentUpdate)
		case out.reconciled:
			s.metrics.RecordPartialDisbursement(string(base.Phase), false)
			if !errors.Is(err, ErrPartialDisbursement) {
				err = fmt.Errorf("%w: %w", ErrPartialDisbursement, err)
			}
			res = base.failed(err, true)
		default:
			res = base.failed(err, true)
		}
	}

	fields := []zap.Field{
		zap.String("phase", string(res.Phase)),
		zap.String("subscription_id", res.SubscriptionID.String()),
		zap.String("user_id", res.UserID.String()),
		zap.String("status", string(res.Status)),
	}
	switch {
	case res.Status == StatusError:
		s.logger.Error("refill failed", append(fields, zap.Error(err))...)
	case res.Reconciled:
		s.metrics.RecordPartialDisbursement(string(res.Phase), true)
		s.logger.Warn("partial disbursement reconciled", append(fields, zap.String("entry_id", out.grant.ID.String()))...)
	case res.Reanchored:
		s.metrics.RecordLapsedActivation(string(res.Phase))
		s.logger.Warn("carry-over coverage lapsed, grant re-anchored",
			append(fields, zap.Int("days_until_expiry", *res.DaysUntilExpiry))...)
	default:
		s.logger.Debug("refill processed", append(fields, zap.String("reason", string(res.Reason)))...)
	}

	s.metrics.RecordSweepResult(string(res.Phase), string(res.Status), string(res.Reason))
	if res.Status == StatusActivated {
		s.metrics.RecordLedgerEntry(string(out.grant.TransactionType), out.grant.Amount)
		if s.publisher != nil {
			s.publisher.Publish(events.NewCreditsGrantedEvent(
				out.grant.UserID, res.SubscriptionID, out.grant.ID, out.grant.Amount,
				*out.grant.ExpiresAt, string(res.Phase), now,
			))
		}
	}
	return res
}

// daysUntil returns the whole days from now until t, rounded up. Past
// instants give zero or negative values.
func daysUntil(t, now time.Time) int {
	d := t.Sub(now)
	days := int(d / day)
	if d%day > 0 {
		days++
	}
	return days
}
