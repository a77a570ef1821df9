package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSOH(t *testing.T) {
	assert.Equal(t, 100, ComputeSOH(0, 0))
	assert.Equal(t, 0, ComputeSOH(1000, 0))
	assert.Equal(t, 0, ComputeSOH(5000, 1.5))
	assert.Equal(t, 86, ComputeSOH(100, 0.1))
	assert.Equal(t, 95, ComputeSOH(50, 0))
	// 100 - 4.5 - 0 = 95.5 rounds up
	assert.Equal(t, 96, ComputeSOH(45, 0))
}

func TestHealthBand(t *testing.T) {
	tests := []struct {
		soh  int
		want Band
	}{
		{100, BandGood},
		{81, BandGood},
		{80, BandFair},
		{51, BandFair},
		{50, BandPoor},
		{21, BandPoor},
		{20, BandDead},
		{0, BandDead},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HealthBand(tt.soh), "soh=%d", tt.soh)
	}
}

func TestComputeFatigue(t *testing.T) {
	tests := []struct {
		name   string
		cycles int
		diff   float64
		want   Fatigue
	}{
		{"new pack", 10, 0.01, FatigueLow},
		{"boundary cycles", 150, 0.15, FatigueLow},
		{"medium by cycles", 151, 0, FatigueMedium},
		{"medium by diff", 0, 0.16, FatigueMedium},
		{"high by cycles", 301, 0, FatigueHigh},
		{"high by diff", 0, 0.26, FatigueHigh},
		{"both medium and high match", 200, 0.3, FatigueHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeFatigue(tt.cycles, tt.diff))
		})
	}
}
