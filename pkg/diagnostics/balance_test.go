package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/bmslink/pkg/types"
)

func TestComputeBalance(t *testing.T) {
	b := ComputeBalance([]float64{4.20, 4.10, 4.15, 4.18, 4.12}, 0.10, nil)

	assert.True(t, b.Active)
	assert.Equal(t, BadgeWarn, b.Badge)
	assert.InDelta(t, 4.15, b.Average, 1e-9)
	require.Len(t, b.Recommendations, 4)

	first := b.Recommendations[0]
	assert.Equal(t, 0, first.Cell)
	assert.Equal(t, ActionDischarge, first.Action)
	assert.InDelta(t, 25, first.MAh, 1e-6)

	second := b.Recommendations[1]
	assert.Equal(t, 1, second.Cell)
	assert.Equal(t, ActionCharge, second.Action)
	assert.InDelta(t, 25, second.MAh, 1e-6)

	for _, r := range b.Recommendations {
		assert.NotEqual(t, 2, r.Cell, "cell at the average must not get advice")
	}
}

func TestComputeBalanceInactive(t *testing.T) {
	b := ComputeBalance([]float64{3.7, 3.7, 3.7, 3.7, 3.7}, 0.0, nil)
	assert.False(t, b.Active)
	assert.Equal(t, BadgeOK, b.Badge)
	assert.Empty(t, b.Recommendations)
}

func TestComputeBalanceNoCells(t *testing.T) {
	b := ComputeBalance(nil, 0.2, nil)
	assert.True(t, b.Active)
	assert.Equal(t, BadgeCrit, b.Badge)
	assert.Empty(t, b.Recommendations)
	assert.Zero(t, b.Average)
}

type fixedEstimator float64

func (f fixedEstimator) EstimateMAh(float64) float64 { return float64(f) }

func TestComputeBalanceCustomEstimator(t *testing.T) {
	b := ComputeBalance([]float64{4.0, 3.9}, 0.1, fixedEstimator(42))
	require.Len(t, b.Recommendations, 2)
	for _, r := range b.Recommendations {
		assert.Equal(t, 42.0, r.MAh)
	}
}

func TestBalanceBadge(t *testing.T) {
	assert.Equal(t, BadgeOK, BalanceBadge(0.049))
	assert.Equal(t, BadgeWarn, BalanceBadge(0.05))
	assert.Equal(t, BadgeWarn, BalanceBadge(0.149))
	assert.Equal(t, BadgeCrit, BalanceBadge(0.15))
}

func TestComputeEndToEnd(t *testing.T) {
	r := Compute(&types.BatterySnapshot{
		ChargeCycles: 50,
		CellVoltages: []float64{3.7, 3.7, 3.7, 3.7, 3.7},
		CellDiff:     0.0,
	})
	require.NotNil(t, r)
	assert.Equal(t, 95, r.SOH)
	assert.Equal(t, BandGood, r.Health)
	assert.Equal(t, FatigueLow, r.Fatigue)
	assert.Equal(t, BadgeOK, r.Balance.Badge)
	assert.False(t, r.Balance.Active)
	assert.Len(t, r.HUD, 5)
}

func TestComputeNil(t *testing.T) {
	assert.Nil(t, Compute(nil))
}
