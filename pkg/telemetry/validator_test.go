package telemetry

import (
	"errors"
	"testing"

	"github.com/charlie0129/bmslink/pkg/types"
	"github.com/charlie0129/bmslink/pkg/utils/ptr"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		patch   *types.SnapshotPatch
		wantErr bool
	}{
		{
			name:    "pack voltage above limit",
			patch:   &types.SnapshotPatch{PackVoltage: ptr.To(25.1)},
			wantErr: true,
		},
		{
			name:  "pack voltage at limit",
			patch: &types.SnapshotPatch{PackVoltage: ptr.To(25.0)},
		},
		{
			name:    "one cell above limit",
			patch:   &types.SnapshotPatch{CellVoltages: []float64{3.9, 3.9, 5.01, 3.9, 3.9}},
			wantErr: true,
		},
		{
			name: "all cells below limit",
			patch: &types.SnapshotPatch{
				PackVoltage:  ptr.To(24.9),
				CellVoltages: []float64{4.99, 4.99, 4.99, 4.99, 4.99},
			},
		},
		{
			name:  "dead cell is valid",
			patch: &types.SnapshotPatch{CellVoltages: []float64{0, 3.7, 3.7}},
		},
		{
			name:  "empty patch",
			patch: &types.SnapshotPatch{},
		},
		{
			name: "nil patch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.patch)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Validate() error = %v, want ErrOutOfRange", err)
			}
		})
	}
}
