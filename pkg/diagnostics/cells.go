package diagnostics

import "math"

// Level is the charge class of a single cell voltage.
type Level string

const (
	LevelDead     Level = "dead"
	LevelCritical Level = "critical"
	LevelLow      Level = "low"
	LevelWarning  Level = "warning"
	LevelOK       Level = "ok"
)

const (
	cellEmptyVoltage = 2.5
	cellFullVoltage  = 4.2
)

// CellLevel classifies a cell voltage.
func CellLevel(v float64) Level {
	switch {
	case v < 0.5:
		return LevelDead
	case v < 3.0:
		return LevelCritical
	case v < 3.3:
		return LevelLow
	case v < 3.6:
		return LevelWarning
	default:
		return LevelOK
	}
}

// CellPercent maps a cell voltage linearly onto 0-100 between 2.5V and 4.2V.
func CellPercent(v float64) float64 {
	pct := (v - cellEmptyVoltage) / (cellFullVoltage - cellEmptyVoltage) * 100
	return math.Min(100, math.Max(0, pct))
}

// Severity of a cell's deviation from the pack average.
type Severity string

const (
	SeverityOK   Severity = "ok"
	SeverityWarn Severity = "warn"
	SeverityCrit Severity = "crit"
)

// Deviation is one row of the imbalance HUD.
type Deviation struct {
	Cell     int      `json:"cell"`
	Diff     float64  `json:"diff"`
	Percent  float64  `json:"percent"`
	Severity Severity `json:"severity"`
}

// hudFullScale is the deviation, in volts, drawn as a full bar.
const hudFullScale = 0.2

// ImbalanceHUD reports every cell's signed distance from the average.
func ImbalanceHUD(cells []float64) []Deviation {
	if len(cells) == 0 {
		return nil
	}
	avg := mean(cells)
	rows := make([]Deviation, 0, len(cells))
	for i, v := range cells {
		diff := v - avg
		abs := math.Abs(diff)
		sev := SeverityOK
		if abs > 0.1 {
			sev = SeverityCrit
		} else if abs > 0.05 {
			sev = SeverityWarn
		}
		rows = append(rows, Deviation{
			Cell:     i,
			Diff:     diff,
			Percent:  math.Min(100, abs/hudFullScale*100),
			Severity: sev,
		})
	}
	return rows
}
