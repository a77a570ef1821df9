package types

import (
	"slices"
	"time"
)

// LockStatus is the lock state reported by the pack controller.
type LockStatus string

const (
	Locked   LockStatus = "LOCKED"
	Unlocked LockStatus = "UNLOCKED"
)

// BatterySnapshot is the last known good telemetry record of the pack
// currently seated on the adapter. CellDiff is reported by the device and
// is not guaranteed to match the spread of CellVoltages.
type BatterySnapshot struct {
	Model        string     `json:"model"`
	RomID        string     `json:"rom_id"`
	ChargeCycles int        `json:"charge_cycles"`
	LockStatus   LockStatus `json:"lock_status"`
	Capacity     string     `json:"capacity"`
	MfgDate      string     `json:"mfg_date"`
	PackVoltage  float64    `json:"pack_voltage"`
	CellVoltages []float64  `json:"cell_voltages"`
	CellDiff     float64    `json:"cell_diff"`
	Temp1        *float64   `json:"temp1,omitempty"`
	Temp2        *float64   `json:"temp2,omitempty"`
	StatusCode   string     `json:"status_code,omitempty"`
	BatteryType  string     `json:"battery_type,omitempty"`
}

// Clone returns a deep copy of s.
func (s *BatterySnapshot) Clone() *BatterySnapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.CellVoltages = slices.Clone(s.CellVoltages)
	if s.Temp1 != nil {
		t := *s.Temp1
		c.Temp1 = &t
	}
	if s.Temp2 != nil {
		t := *s.Temp2
		c.Temp2 = &t
	}
	return &c
}

// SnapshotPatch is a partial snapshot as carried by dynamic_data. Nil
// fields are left untouched when merged.
type SnapshotPatch struct {
	Model        *string     `json:"model,omitempty"`
	RomID        *string     `json:"rom_id,omitempty"`
	ChargeCycles *int        `json:"charge_cycles,omitempty"`
	LockStatus   *LockStatus `json:"lock_status,omitempty"`
	Capacity     *string     `json:"capacity,omitempty"`
	MfgDate      *string     `json:"mfg_date,omitempty"`
	PackVoltage  *float64    `json:"pack_voltage,omitempty"`
	CellVoltages []float64   `json:"cell_voltages,omitempty"`
	CellDiff     *float64    `json:"cell_diff,omitempty"`
	Temp1        *float64    `json:"temp1,omitempty"`
	Temp2        *float64    `json:"temp2,omitempty"`
	StatusCode   *string     `json:"status_code,omitempty"`
	BatteryType  *string     `json:"battery_type,omitempty"`
}

// MergeInto copies every field set in p into s.
func (p *SnapshotPatch) MergeInto(s *BatterySnapshot) {
	if p == nil || s == nil {
		return
	}
	if p.Model != nil {
		s.Model = *p.Model
	}
	if p.RomID != nil {
		s.RomID = *p.RomID
	}
	if p.ChargeCycles != nil {
		s.ChargeCycles = *p.ChargeCycles
	}
	if p.LockStatus != nil {
		s.LockStatus = *p.LockStatus
	}
	if p.Capacity != nil {
		s.Capacity = *p.Capacity
	}
	if p.MfgDate != nil {
		s.MfgDate = *p.MfgDate
	}
	if p.PackVoltage != nil {
		s.PackVoltage = *p.PackVoltage
	}
	if p.CellVoltages != nil {
		s.CellVoltages = slices.Clone(p.CellVoltages)
	}
	if p.CellDiff != nil {
		s.CellDiff = *p.CellDiff
	}
	if p.Temp1 != nil {
		t := *p.Temp1
		s.Temp1 = &t
	}
	if p.Temp2 != nil {
		t := *p.Temp2
		s.Temp2 = &t
	}
	if p.StatusCode != nil {
		s.StatusCode = *p.StatusCode
	}
	if p.BatteryType != nil {
		s.BatteryType = *p.BatteryType
	}
}

// Features lists the operations the seated pack supports.
type Features struct {
	ReadDynamic bool `json:"read_dynamic"`
	LedTest     bool `json:"led_test"`
	ClearErrors bool `json:"clear_errors"`
}

// HistorySample is one point of the live cell voltage chart.
type HistorySample struct {
	Timestamp    time.Time `json:"timestamp"`
	CellVoltages []float64 `json:"cell_voltages"`
}
