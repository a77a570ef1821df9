package diagnostics

import (
	"fmt"
	"io"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/bmslink/pkg/types"
)

const reportRule = "=========================================="

// WriteReport writes a plain-text technical report of s to w.
func WriteReport(w io.Writer, s *types.BatterySnapshot, r *Result, now time.Time) error {
	if s == nil || r == nil {
		return pkgerrors.New("no battery data")
	}

	var b strings.Builder
	sep := strings.Repeat("-", len(reportRule))

	fmt.Fprintf(&b, "%s\n   BATTERY TECHNICAL REPORT\n%s\n\n", reportRule, reportRule)
	fmt.Fprintf(&b, "DATE: %s\nMODEL: %s\nROM ID: %s\nSTATUS: %s\n\n",
		now.Format(time.DateTime), s.Model, s.RomID, s.LockStatus)
	fmt.Fprintf(&b, "%s\nCELL DIAGNOSTICS\n%s\n", sep, sep)
	for i, v := range s.CellVoltages {
		fmt.Fprintf(&b, "Cell %d: %.3fV\n", i+1, v)
	}
	fmt.Fprintf(&b, "\nPACK VOLTAGE: %.2fV\nIMBALANCE: %.3fV\nCYCLES: %d\n\n",
		s.PackVoltage, s.CellDiff, s.ChargeCycles)
	fmt.Fprintf(&b, "%s\n", sep)
	fmt.Fprintf(&b, "SOH: %d%% (%s)\nFATIGUE: %s\n", r.SOH, r.Health, r.Fatigue)
	if s.Temp1 != nil && s.Temp2 != nil {
		fmt.Fprintf(&b, "TEMPS: %.1f°C | %.1f°C\n", *s.Temp1, *s.Temp2)
	}
	fmt.Fprintf(&b, "%s\n", reportRule)

	_, err := io.WriteString(w, b.String())
	return err
}
