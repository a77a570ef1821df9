package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/bmslink/pkg/client"
	"github.com/charlie0129/bmslink/pkg/protocol"
	"github.com/charlie0129/bmslink/pkg/types"
)

func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		GroupID: gBasic,
		Short:   "Show the live cell voltage history",
		Long: `Show the rolling cell voltage history kept by the session.

Use 'history long-term <rom id>' to fetch the readings the device stored for one pack.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			samples, err := apiClient.GetSamples()
			if err != nil {
				return err
			}
			if len(samples) == 0 {
				cmd.Println("No samples yet.")
				return nil
			}
			for _, s := range samples {
				cells := make([]string, 0, len(s.CellVoltages))
				for _, v := range s.CellVoltages {
					cells = append(cells, fmt.Sprintf("%.3f", v))
				}
				cmd.Printf("%s  %s\n", bold("%s", s.Timestamp.Local().Format("15:04:05")), strings.Join(cells, " "))
			}
			return nil
		},
	}

	cmd.AddCommand(
		newLongTermCommand(),
		&cobra.Command{
			Use:   "clear <rom id>",
			Short: "Erase the readings the device stored for a pack",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return sendCommand(protocol.ClearHistory(args[0]))
			},
		},
	)

	return cmd
}

func newLongTermCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "long-term <rom id>",
		Short: "Fetch the readings the device stored for a pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			romID := args[0]
			if _, err := apiClient.SendCommand(protocol.GetHistory(romID)); err != nil {
				return err
			}

			h, err := waitLongTerm(romID, timeout)
			if err != nil {
				return err
			}

			model := optional(h.Model, "%s")
			cmd.Printf("%s  model %s, %d records\n", bold("%s", h.RomID), model, len(h.Records))
			for _, r := range h.Records {
				cmd.Printf("  %s  %6.2f V  cycles %s  diff %s mV\n",
					time.Unix(r.Ts, 0).Format(time.DateTime),
					float64(r.PackMV)/1000,
					optional(r.Cycles, "%d"),
					optional(r.Diff, "%d"),
				)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait for the device to answer")

	return cmd
}

// waitLongTerm polls the session until it holds the record set of romID.
func waitLongTerm(romID string, timeout time.Duration) (*types.LongTermHistory, error) {
	deadline := time.Now().Add(timeout)
	for {
		h, err := apiClient.GetLongTerm()
		if err != nil && !errors.Is(err, client.ErrNotFound) {
			return nil, err
		}
		if h != nil && h.RomID == romID {
			return h, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("no history for %s after %s", romID, timeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
