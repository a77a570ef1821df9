package diagnostics

import "math"

const (
	// BalanceActiveThreshold is the reported cell spread above which
	// balancing advice is shown.
	BalanceActiveThreshold = 0.05
	// CellDeviationThreshold is the distance from the average above which a
	// cell gets a recommendation.
	CellDeviationThreshold = 0.02

	badgeWarnThreshold = 0.05
	badgeCritThreshold = 0.15
)

// Action is what to do with a single cell to bring it to the average.
type Action string

const (
	ActionCharge    Action = "charge"
	ActionDischarge Action = "discharge"
)

// Badge is the overall balance state of the pack.
type Badge string

const (
	BadgeOK   Badge = "ok"
	BadgeWarn Badge = "warn"
	BadgeCrit Badge = "crit"
)

// Estimator converts a voltage deviation into a charge amount in mAh.
type Estimator interface {
	EstimateMAh(deviation float64) float64
}

// LinearEstimator scales the absolute deviation by a fixed factor. It is a
// rough rule of thumb and ignores the actual cell capacity.
type LinearEstimator struct {
	MAhPerVolt float64
}

func (e LinearEstimator) EstimateMAh(deviation float64) float64 {
	return math.Abs(deviation) * e.MAhPerVolt
}

// DefaultEstimator is used when no estimator is configured.
var DefaultEstimator Estimator = LinearEstimator{MAhPerVolt: 500}

// Recommendation is the balancing advice for one cell. Cell is 0-based.
type Recommendation struct {
	Cell      int     `json:"cell"`
	Deviation float64 `json:"deviation"`
	Action    Action  `json:"action"`
	MAh       float64 `json:"mah"`
}

// Balance is the result of ComputeBalance.
type Balance struct {
	Average         float64          `json:"average"`
	Active          bool             `json:"active"`
	Badge           Badge            `json:"badge"`
	Recommendations []Recommendation `json:"recommendations"`
}

// ComputeBalance builds per-cell advice around the mean of cells. Whether
// the advice is active and the badge both depend on the device-reported
// cellDiff, not on the spread of cells.
func ComputeBalance(cells []float64, cellDiff float64, est Estimator) Balance {
	if est == nil {
		est = DefaultEstimator
	}

	b := Balance{
		Active:          cellDiff > BalanceActiveThreshold,
		Badge:           BalanceBadge(cellDiff),
		Recommendations: []Recommendation{},
	}
	if len(cells) == 0 {
		return b
	}

	b.Average = mean(cells)
	for i, v := range cells {
		diff := v - b.Average
		if math.Abs(diff) <= CellDeviationThreshold {
			continue
		}
		action := ActionCharge
		if diff > 0 {
			action = ActionDischarge
		}
		b.Recommendations = append(b.Recommendations, Recommendation{
			Cell:      i,
			Deviation: diff,
			Action:    action,
			MAh:       est.EstimateMAh(diff),
		})
	}

	return b
}

// BalanceBadge classifies the reported cell spread.
func BalanceBadge(cellDiff float64) Badge {
	switch {
	case cellDiff < badgeWarnThreshold:
		return BadgeOK
	case cellDiff < badgeCritThreshold:
		return BadgeWarn
	default:
		return BadgeCrit
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
