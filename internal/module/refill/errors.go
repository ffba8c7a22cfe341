package refill

import "errors"

var (
	// ErrSelection means a subscription query failed and the sweep could not run.
	ErrSelection = errors.New("select subscriptions for refill")

	// ErrPartialDisbursement marks a grant whose schedule update could not be
	// reconciled. The next sweep retries it.
	ErrPartialDisbursement = errors.New("partial disbursement")

	ErrSweepInProgress = errors.New("refill sweep already running")
)
