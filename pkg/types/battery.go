package types

// BatteryListEntry summarises one pack the adapter has seen. Optional
// fields are nil when the device has no reading for them.
type BatteryListEntry struct {
	RomID       string   `json:"rom_id"`
	Model       *string  `json:"model,omitempty"`
	Readings    int      `json:"readings"`
	LastSeen    *int64   `json:"last_seen,omitempty"`
	LastVoltage *float64 `json:"last_voltage,omitempty"`
	LastCycles  *int     `json:"last_cycles,omitempty"`
	LastDiff    *float64 `json:"last_diff,omitempty"`
}

// LongTermRecord is one device-persisted reading. Voltages are in mV.
type LongTermRecord struct {
	Ts     int64 `json:"ts"`
	PackMV int   `json:"pack_mv"`
	Cells  []int `json:"cells"`
	Cycles *int  `json:"cycles,omitempty"`
	Diff   *int  `json:"diff,omitempty"`
}

// LongTermHistory is the full record set the device returned for one pack.
type LongTermHistory struct {
	RomID     string           `json:"rom_id"`
	Model     *string          `json:"model,omitempty"`
	CellCount *int             `json:"cell_count,omitempty"`
	Records   []LongTermRecord `json:"data"`
}
