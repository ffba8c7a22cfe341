package subscription

import (
	"database/sql/driver"
	"fmt"
)

// PlanTier is a closed set of subscription plans.
type PlanTier uint8

const (
	PlanTierBasic PlanTier = iota + 1
	PlanTierPro
	PlanTierMax

	planTierEnd
)

type planTierInfo struct {
	name           string
	monthlyCredits int64
}

// planTiers must have an entry for every tier; the assertion below fails to
// compile when a tier is added without one.
var planTiers = [...]planTierInfo{
	PlanTierBasic: {name: "basic", monthlyCredits: 150},
	PlanTierPro:   {name: "pro", monthlyCredits: 800},
	PlanTierMax:   {name: "max", monthlyCredits: 2000},
}

var _ = [1]struct{}{}[len(planTiers)-int(planTierEnd)]

// AllPlanTiers lists every tier in ascending order.
func AllPlanTiers() []PlanTier {
	tiers := make([]PlanTier, 0, planTierEnd-1)
	for t := PlanTierBasic; t < planTierEnd; t++ {
		tiers = append(tiers, t)
	}
	return tiers
}

// IsValid reports whether t is a known tier.
func (t PlanTier) IsValid() bool {
	return t >= PlanTierBasic && t < planTierEnd
}

// MonthlyCredits is the number of credits granted per monthly cycle.
func (t PlanTier) MonthlyCredits() int64 {
	if !t.IsValid() {
		return 0
	}
	return planTiers[t].monthlyCredits
}

func (t PlanTier) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("PlanTier(%d)", uint8(t))
	}
	return planTiers[t].name
}

// ParsePlanTier parses a stored tier name.
func ParsePlanTier(s string) (PlanTier, error) {
	for t := PlanTierBasic; t < planTierEnd; t++ {
		if planTiers[t].name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPlanTier, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t PlanTier) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlanTier, uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PlanTier) UnmarshalText(b []byte) error {
	parsed, err := ParsePlanTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the tier by name.
func (t PlanTier) Value() (driver.Value, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlanTier, uint8(t))
	}
	return t.String(), nil
}

// Scan reads a tier name.
func (t *PlanTier) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	default:
		return fmt.Errorf("scan plan tier: unsupported type %T", src)
	}
}
