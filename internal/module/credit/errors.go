package credit

import "errors"

var (
	// ErrValidation wraps every rejected ledger entry; the message carries the reason.
	ErrValidation = errors.New("invalid credit entry")

	ErrInsufficientBalance = errors.New("insufficient credit balance")
	ErrEntryNotFound       = errors.New("credit entry not found")

	// ErrDuplicateEntry is returned when an idempotency key is already taken.
	ErrDuplicateEntry = errors.New("credit entry already recorded")

	ErrCacheMiss = errors.New("balance cache miss")
)
