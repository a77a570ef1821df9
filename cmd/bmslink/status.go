package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/charlie0129/bmslink/pkg/client"
	"github.com/charlie0129/bmslink/pkg/diagnostics"
	"github.com/charlie0129/bmslink/pkg/monitor"
	"github.com/charlie0129/bmslink/pkg/session"
	"github.com/charlie0129/bmslink/pkg/types"
)

type statusData struct {
	State       *monitor.Status        `json:"state"`
	Snapshot    *types.BatterySnapshot `json:"snapshot,omitempty"`
	Diagnostics *diagnostics.Result    `json:"diagnostics,omitempty"`
}

// fetchStatusData gathers everything the status command shows. A missing
// snapshot is not an error.
func fetchStatusData() (*statusData, error) {
	state, err := apiClient.GetState()
	if err != nil {
		return nil, fmt.Errorf("failed to get session state: %w", err)
	}

	data := &statusData{State: state}

	snapshot, err := apiClient.GetSnapshot()
	switch {
	case errors.Is(err, client.ErrNotFound):
		return data, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get battery snapshot: %w", err)
	}
	data.Snapshot = snapshot

	diag, err := apiClient.GetDiagnostics()
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		return nil, fmt.Errorf("failed to get diagnostics: %w", err)
	}
	data.Diagnostics = diag

	return data, nil
}

func NewStatusCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the connection state and the seated battery",
		Long:    `Get the session state, the last known good battery snapshot and its diagnostics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			if asJSON {
				b, err := json.MarshalIndent(data, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(b))
				return nil
			}

			printSession(cmd, data.State)
			cmd.Println()

			if data.Snapshot == nil {
				cmd.Println(bold("Battery:"))
				if data.State.Present {
					cmd.Println("  Waiting for battery data.")
				} else {
					cmd.Println("  No battery on the adapter.")
				}
				return nil
			}

			printSnapshot(cmd, data.Snapshot)
			if data.Diagnostics != nil {
				cmd.Println()
				printDiagnostics(cmd, data.Diagnostics)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print status as JSON")

	return cmd
}

func printSession(cmd *cobra.Command, s *monitor.Status) {
	cmd.Println(bold("Session:"))
	cmd.Printf("  Device: %s\n", bold("%s", s.URL))

	state := s.State.String()
	switch s.State {
	case session.Connected:
		state = color.GreenString(state)
	case session.Connecting:
		state = color.YellowString(state)
	case session.GivenUp:
		state = color.RedString(state)
	}
	cmd.Printf("  State: %s\n", bold("%s", state))
	if s.Attempts > 0 {
		cmd.Printf("  Reconnect attempts: %s\n", bold("%d/%d", s.Attempts, session.MaxAttempts))
	}
	if s.State == session.GivenUp {
		cmd.Println("    Reconnecting was given up. Run 'bmslink connect' to try again.")
	}
	cmd.Printf("  Battery present: %s\n", bool2Text(s.Present))
	cmd.Printf("  Auto poll: %s\n", bool2Text(s.AutoPoll))
	if s.AutoPoll && s.Poller.Running && !s.Poller.NextRun.IsZero() {
		cmd.Printf("    Next poll: %s\n", s.Poller.NextRun.Format("15:04:05"))
	}
	if s.Features != nil {
		cmd.Printf("  Live reads: %s  LED test: %s  Clear errors: %s\n",
			bool2Text(s.Features.ReadDynamic), bool2Text(s.Features.LedTest), bool2Text(s.Features.ClearErrors))
	}
}

func printSnapshot(cmd *cobra.Command, s *types.BatterySnapshot) {
	cmd.Println(bold("Battery:"))
	cmd.Printf("  Model: %s\n", bold("%s", s.Model))
	cmd.Printf("  ROM ID: %s\n", s.RomID)
	cmd.Printf("  Capacity: %s\n", s.Capacity)
	cmd.Printf("  Manufactured: %s\n", s.MfgDate)
	cmd.Printf("  Charge cycles: %s\n", bold("%d", s.ChargeCycles))

	lock := color.GreenString(string(s.LockStatus))
	if s.LockStatus == types.Locked {
		lock = color.RedString(string(s.LockStatus))
	}
	cmd.Printf("  Lock: %s\n", bold("%s", lock))
	cmd.Printf("  Pack voltage: %s\n", bold("%.2f V", s.PackVoltage))
	cmd.Printf("  Cell diff: %s\n", bold("%.3f V", s.CellDiff))
	cmd.Printf("  Temperatures: %s / %s\n", optional(s.Temp1, "%.1f °C"), optional(s.Temp2, "%.1f °C"))

	cells := make([]string, 0, len(s.CellVoltages))
	for _, v := range s.CellVoltages {
		cells = append(cells, levelColor(diagnostics.CellLevel(v)).Sprintf("%.3f", v))
	}
	cmd.Printf("  Cells: %s\n", strings.Join(cells, " "))
}

func printDiagnostics(cmd *cobra.Command, r *diagnostics.Result) {
	cmd.Println(bold("Diagnostics:"))

	soh := fmt.Sprintf("%d%% (%s)", r.SOH, r.Health)
	switch r.Health {
	case diagnostics.BandGood:
		soh = color.GreenString(soh)
	case diagnostics.BandFair:
		soh = color.YellowString(soh)
	default:
		soh = color.RedString(soh)
	}
	cmd.Printf("  State of health: %s\n", bold("%s", soh))
	cmd.Printf("  Fatigue: %s\n", bold("%s", r.Fatigue))
	cmd.Printf("  Balance: %s\n", bold("%s", r.Balance.Badge))
	if !r.Balance.Active {
		return
	}
	for _, rec := range r.Balance.Recommendations {
		cmd.Printf("    Cell %d: %s %s\n", rec.Cell+1, rec.Action, bold("~%.0f mAh", rec.MAh))
	}
}

func levelColor(l diagnostics.Level) *color.Color {
	switch l {
	case diagnostics.LevelOK:
		return color.New(color.FgGreen)
	case diagnostics.LevelWarning, diagnostics.LevelLow:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
