package diagnostics

import "math"

// Band is the qualitative class of an SOH score.
type Band string

const (
	BandGood Band = "good"
	BandFair Band = "fair"
	BandPoor Band = "poor"
	BandDead Band = "dead"
)

// Fatigue is the wear level of a pack.
type Fatigue string

const (
	FatigueLow    Fatigue = "low"
	FatigueMedium Fatigue = "medium"
	FatigueHigh   Fatigue = "high"
)

// ComputeSOH returns round(clamp(100 - cycles/10 - cellDiff*40, 0, 100)).
func ComputeSOH(cycles int, cellDiff float64) int {
	health := 100 - float64(cycles)/10 - cellDiff*40
	health = math.Max(0, math.Min(100, health))
	return int(math.Round(health))
}

// HealthBand classifies an already rounded SOH score.
func HealthBand(soh int) Band {
	switch {
	case soh > 80:
		return BandGood
	case soh > 50:
		return BandFair
	case soh > 20:
		return BandPoor
	default:
		return BandDead
	}
}

// ComputeFatigue checks the high thresholds first; a pack can match both
// sets and high wins.
func ComputeFatigue(cycles int, cellDiff float64) Fatigue {
	if cycles > 300 || cellDiff > 0.25 {
		return FatigueHigh
	}
	if cycles > 150 || cellDiff > 0.15 {
		return FatigueMedium
	}
	return FatigueLow
}
