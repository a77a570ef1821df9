package diagnostics

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/bmslink/pkg/types"
	"github.com/charlie0129/bmslink/pkg/utils/ptr"
)

func TestCellLevel(t *testing.T) {
	assert.Equal(t, LevelDead, CellLevel(0))
	assert.Equal(t, LevelCritical, CellLevel(2.9))
	assert.Equal(t, LevelLow, CellLevel(3.2))
	assert.Equal(t, LevelWarning, CellLevel(3.5))
	assert.Equal(t, LevelOK, CellLevel(3.6))
}

func TestCellPercent(t *testing.T) {
	assert.Equal(t, 0.0, CellPercent(2.0))
	assert.Equal(t, 100.0, CellPercent(4.3))
	assert.InDelta(t, 50, CellPercent(3.35), 1e-9)
}

func TestImbalanceHUD(t *testing.T) {
	rows := ImbalanceHUD([]float64{3.88, 3.68, 3.8, 3.8, 3.84})
	require.Len(t, rows, 5)
	assert.Equal(t, SeverityWarn, rows[0].Severity)
	assert.InDelta(t, 0.08, rows[0].Diff, 1e-9)
	assert.InDelta(t, 40, rows[0].Percent, 1e-6)
	assert.Equal(t, SeverityCrit, rows[1].Severity)
	assert.Equal(t, SeverityOK, rows[2].Severity)
	assert.Equal(t, SeverityOK, rows[4].Severity)
	assert.Nil(t, ImbalanceHUD(nil))
}

func TestLookupModel(t *testing.T) {
	m, ok := LookupModel("BL1850B/5.0Ah")
	require.True(t, ok)
	assert.Equal(t, "5S2P", m.Config)

	m, ok = LookupModel("BL1415 old")
	require.True(t, ok)
	assert.Equal(t, "14.4V", m.NominalVoltage)

	// Only the first word counts, so a leading space leaves an empty key.
	_, ok = LookupModel(" BL1415 old")
	assert.False(t, ok)

	_, ok = LookupModel("XYZ")
	assert.False(t, ok)
}

func TestWriteReport(t *testing.T) {
	s := &types.BatterySnapshot{
		Model:        "BL1830",
		RomID:        "AA BB",
		ChargeCycles: 120,
		LockStatus:   types.Unlocked,
		PackVoltage:  18.3,
		CellVoltages: []float64{3.66, 3.67},
		CellDiff:     0.01,
		Temp1:        ptr.To(21.0),
		Temp2:        ptr.To(22.5),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, s, Compute(s), time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))

	out := buf.String()
	assert.Contains(t, out, "MODEL: BL1830")
	assert.Contains(t, out, "Cell 2: 3.670V")
	assert.Contains(t, out, "CYCLES: 120")
	assert.Contains(t, out, "SOH: 88% (good)")
	assert.Contains(t, out, "TEMPS: 21.0°C | 22.5°C")

	assert.Error(t, WriteReport(&buf, nil, nil, time.Now()))
}
