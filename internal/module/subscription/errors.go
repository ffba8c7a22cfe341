package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUnknownPlanTier      = errors.New("unknown plan tier")
	ErrInvalidSubscription  = errors.New("invalid subscription")

	// ErrConcurrentUpdate means the row changed since it was read; the
	// caller's transaction must roll back.
	ErrConcurrentUpdate = errors.New("subscription modified concurrently")
)
