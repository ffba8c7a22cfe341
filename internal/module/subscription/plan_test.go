package subscription

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanTier_MonthlyCredits(t *testing.T) {
	assert.Equal(t, int64(150), PlanTierBasic.MonthlyCredits())
	assert.Equal(t, int64(800), PlanTierPro.MonthlyCredits())
	assert.Equal(t, int64(2000), PlanTierMax.MonthlyCredits())
	assert.Equal(t, int64(0), PlanTier(0).MonthlyCredits())
}

func TestPlanTier_EveryTierHasCredits(t *testing.T) {
	tiers := AllPlanTiers()
	require.Len(t, tiers, 3)
	for _, tier := range tiers {
		assert.Positive(t, tier.MonthlyCredits(), tier.String())
	}
}

func TestParsePlanTier(t *testing.T) {
	for _, tier := range AllPlanTiers() {
		parsed, err := ParsePlanTier(tier.String())
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)
	}

	_, err := ParsePlanTier("enterprise")
	assert.ErrorIs(t, err, ErrUnknownPlanTier)
}

func TestPlanTier_ScanValue(t *testing.T) {
	v, err := PlanTierPro.Value()
	require.NoError(t, err)
	assert.Equal(t, "pro", v)

	var tier PlanTier
	require.NoError(t, tier.Scan([]byte("max")))
	assert.Equal(t, PlanTierMax, tier)

	assert.Error(t, tier.Scan(int64(2)))
	_, err = PlanTier(9).Value()
	assert.ErrorIs(t, err, ErrUnknownPlanTier)
}

func TestPlanTier_JSON(t *testing.T) {
	b, err := json.Marshal(map[string]PlanTier{"tier": PlanTierBasic})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tier":"basic"}`, string(b))

	var out struct {
		Tier PlanTier `json:"tier"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tier":"pro"}`), &out))
	assert.Equal(t, PlanTierPro, out.Tier)
	assert.Error(t, json.Unmarshal([]byte(`{"tier":"gold"}`), &out))
}
