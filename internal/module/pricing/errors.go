package pricing

import "errors"

var (
	ErrInvalidCombination = errors.New("invalid model, resolution or mode combination")
	ErrInvalidBatchCount  = errors.New("batch count must be at least 1")
)
