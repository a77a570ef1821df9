package diagnostics

import "github.com/charlie0129/bmslink/pkg/types"

// Result bundles every diagnostic derived from one snapshot.
type Result struct {
	SOH     int         `json:"soh"`
	Health  Band        `json:"health"`
	Fatigue Fatigue     `json:"fatigue"`
	Balance Balance     `json:"balance"`
	HUD     []Deviation `json:"hud"`
}

// Engine computes diagnostics with a configurable mAh estimator.
type Engine struct {
	Estimator Estimator
}

// Compute derives all diagnostics from s. s must not be mutated while
// Compute runs; callers pass a private copy.
func (e *Engine) Compute(s *types.BatterySnapshot) *Result {
	if s == nil {
		return nil
	}
	est := DefaultEstimator
	if e != nil && e.Estimator != nil {
		est = e.Estimator
	}

	soh := ComputeSOH(s.ChargeCycles, s.CellDiff)
	return &Result{
		SOH:     soh,
		Health:  HealthBand(soh),
		Fatigue: ComputeFatigue(s.ChargeCycles, s.CellDiff),
		Balance: ComputeBalance(s.CellVoltages, s.CellDiff, est),
		HUD:     ImbalanceHUD(s.CellVoltages),
	}
}

// Compute uses the default estimator.
func Compute(s *types.BatterySnapshot) *Result {
	return (&Engine{}).Compute(s)
}
