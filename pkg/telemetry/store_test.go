package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/bmslink/pkg/types"
	"github.com/charlie0129/bmslink/pkg/utils/ptr"
)

func baseSnapshot() *types.BatterySnapshot {
	return &types.BatterySnapshot{
		Model:        "BL1850B",
		RomID:        "28 3A 1F 00 00 00 00 9C",
		ChargeCycles: 50,
		LockStatus:   types.Unlocked,
		Capacity:     "5.0Ah",
		MfgDate:      "12/03/2021",
		PackVoltage:  18.5,
		CellVoltages: []float64{3.7, 3.7, 3.7, 3.7, 3.7},
		CellDiff:     0,
	}
}

func TestStoreApplyDynamicBeforeStatic(t *testing.T) {
	s := NewStore()
	calls := 0
	s.Subscribe(func(*types.BatterySnapshot) { calls++ })

	err := s.ApplyDynamic(&types.SnapshotPatch{PackVoltage: ptr.To(18.0)})
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.Nil(t, s.Snapshot())
	assert.Equal(t, 0, calls)
}

func TestStoreMergesDynamic(t *testing.T) {
	s := NewStore()
	s.ApplyStatic(baseSnapshot())

	err := s.ApplyDynamic(&types.SnapshotPatch{
		PackVoltage:  ptr.To(18.2),
		CellVoltages: []float64{3.6, 3.65, 3.64, 3.62, 3.61},
		CellDiff:     ptr.To(0.05),
		Temp1:        ptr.To(24.5),
	})
	require.NoError(t, err)

	got := s.Snapshot()
	require.NotNil(t, got)
	assert.Equal(t, "BL1850B", got.Model)
	assert.Equal(t, 50, got.ChargeCycles)
	assert.Equal(t, 18.2, got.PackVoltage)
	assert.Equal(t, []float64{3.6, 3.65, 3.64, 3.62, 3.61}, got.CellVoltages)
	assert.Equal(t, 0.05, got.CellDiff)
	require.NotNil(t, got.Temp1)
	assert.Equal(t, 24.5, *got.Temp1)
	assert.Nil(t, got.Temp2)
}

func TestStoreRejectsOutOfRange(t *testing.T) {
	s := NewStore()
	s.ApplyStatic(baseSnapshot())
	calls := 0
	s.Subscribe(func(*types.BatterySnapshot) { calls++ })

	err := s.ApplyDynamic(&types.SnapshotPatch{PackVoltage: ptr.To(25.1)})
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, baseSnapshot(), s.Snapshot())
	assert.Equal(t, 0, calls)
}

func TestStoreIdempotentDynamic(t *testing.T) {
	s := NewStore()
	s.ApplyStatic(baseSnapshot())
	calls := 0
	s.Subscribe(func(*types.BatterySnapshot) { calls++ })

	patch := &types.SnapshotPatch{
		PackVoltage:  ptr.To(18.4),
		CellVoltages: []float64{3.68, 3.69, 3.7, 3.66, 3.67},
	}
	require.NoError(t, s.ApplyDynamic(patch))
	first := s.Snapshot()
	require.NoError(t, s.ApplyDynamic(patch))

	assert.Equal(t, first, s.Snapshot())
	assert.Equal(t, 2, calls)
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.ApplyStatic(baseSnapshot())

	got := s.Snapshot()
	got.CellVoltages[0] = 0
	got.Model = "changed"

	again := s.Snapshot()
	assert.Equal(t, 3.7, again.CellVoltages[0])
	assert.Equal(t, "BL1850B", again.Model)
}

func TestStoreClear(t *testing.T) {
	s := NewStore()
	s.ApplyStatic(baseSnapshot())
	s.Clear()
	assert.Nil(t, s.Snapshot())

	err := s.ApplyDynamic(&types.SnapshotPatch{PackVoltage: ptr.To(18.0)})
	assert.ErrorIs(t, err, ErrNoSnapshot)
}
