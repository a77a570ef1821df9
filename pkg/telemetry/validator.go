package telemetry

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/bmslink/pkg/types"
)

const (
	// MaxPackVoltage is the highest plausible pack voltage, in volts.
	MaxPackVoltage = 25.0
	// MaxCellVoltage is the highest plausible cell voltage, in volts.
	MaxCellVoltage = 5.0
)

// Validate rejects partial updates carrying corrupted readings. There is
// no lower bound: a dead cell reading 0V is real data.
func Validate(p *types.SnapshotPatch) error {
	if p == nil {
		return nil
	}
	if p.PackVoltage != nil && *p.PackVoltage > MaxPackVoltage {
		return pkgerrors.Wrapf(ErrOutOfRange, "pack voltage %.3fV above %.1fV", *p.PackVoltage, MaxPackVoltage)
	}
	for i, v := range p.CellVoltages {
		if v > MaxCellVoltage {
			return pkgerrors.Wrapf(ErrOutOfRange, "cell %d voltage %.3fV above %.1fV", i+1, v, MaxCellVoltage)
		}
	}
	return nil
}
