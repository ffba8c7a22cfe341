// Package pricing computes the credit cost of image generation requests.
package pricing

import (
	"fmt"
	"strings"
)

// CreditCost returns the credits charged for batchCount images generated with
// the given model, resolution and mode.
func CreditCost(model Model, resolution Resolution, mode Mode, batchCount int) (int64, error) {
	q, err := QuoteCost(model, resolution, mode, batchCount)
	if err != nil {
		return 0, err
	}
	return q.Total, nil
}

// Quote is a priced generation request.
type Quote struct {
	Unit  int64
	Total int64
}

// QuoteCost prices a request per image and in total.
func QuoteCost(model Model, resolution Resolution, mode Mode, batchCount int) (Quote, error) {
	perImage, err := UnitCost(model, resolution, mode)
	if err != nil {
		return Quote{}, err
	}
	if batchCount < 1 {
		return Quote{}, fmt.Errorf("%w: got %d", ErrInvalidBatchCount, batchCount)
	}
	return Quote{Unit: perImage, Total: perImage * int64(batchCount)}, nil
}

// UnitCost returns the credits charged for a single image.
func UnitCost(model Model, resolution Resolution, mode Mode) (int64, error) {
	entry, ok := catalog[model]
	if !ok {
		return 0, fmt.Errorf("%w: unknown model %q", ErrInvalidCombination, model)
	}
	if !mode.IsValid() {
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidCombination, mode)
	}
	p, ok := entry.prices[resolution]
	if !ok {
		return 0, fmt.Errorf("%w: model %q does not support resolution %q", ErrInvalidCombination, model, resolution)
	}
	return p.forMode(mode), nil
}

// NormalizeResolution returns resolution when the model supports it, otherwise
// the model's default. Clients use it after a model switch.
func NormalizeResolution(model Model, resolution Resolution) (Resolution, error) {
	entry, ok := catalog[model]
	if !ok {
		return "", fmt.Errorf("%w: unknown model %q", ErrInvalidCombination, model)
	}
	if _, ok := entry.prices[resolution]; ok {
		return resolution, nil
	}
	return entry.resolutions[0], nil
}

// Models lists the catalog in display order.
func Models() []ModelInfo {
	out := make([]ModelInfo, 0, len(modelOrder))
	for _, id := range modelOrder {
		entry := catalog[id]
		info := ModelInfo{
			ID:                id,
			DisplayName:       entry.displayName,
			Resolutions:       append([]Resolution(nil), entry.resolutions...),
			DefaultResolution: entry.resolutions[0],
		}
		for _, r := range entry.resolutions {
			p := entry.prices[r]
			info.Costs = append(info.Costs, ResolutionCosts{
				Resolution:   r,
				TextToImage:  p.textToImage,
				ImageToImage: p.imageToImage,
			})
		}
		out = append(out, info)
	}
	return out
}

// ParseResolution accepts "2k" as well as "2K".
func ParseResolution(s string) Resolution {
	return Resolution(strings.ToLower(strings.TrimSpace(s)))
}
