package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/bmslink/pkg/protocol"
)

func NewBatteriesCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:     "batteries",
		GroupID: gBasic,
		Short:   "List the packs the adapter has seen",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if refresh {
				if _, err := apiClient.SendCommand(protocol.ListBatteries()); err != nil {
					return err
				}
				time.Sleep(time.Second)
			}

			list, err := apiClient.GetBatteries()
			if err != nil {
				return err
			}
			if len(list) == 0 {
				cmd.Println("No batteries recorded.")
				return nil
			}

			for _, b := range list {
				lastSeen := "-"
				if b.LastSeen != nil {
					lastSeen = time.Unix(*b.LastSeen, 0).Format(time.DateTime)
				}
				cmd.Printf("%s  %s\n", bold("%s", b.RomID), optional(b.Model, "%s"))
				cmd.Printf("  Readings: %d  Last seen: %s\n", b.Readings, lastSeen)
				cmd.Printf("  Voltage: %s  Cycles: %s  Diff: %s\n",
					optional(b.LastVoltage, "%.2f V"),
					optional(b.LastCycles, "%d"),
					optional(b.LastDiff, "%.3f V"),
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "ask the device for a fresh list first")

	return cmd
}
