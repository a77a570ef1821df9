package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/bmslink/pkg/version"
)

func getVersion() (clientVersion, sessionVersion string, err error) {
	sessionVersion, err = apiClient.GetVersion()
	return version.Version, sessionVersion, err
}

// NewVersionCommand .
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print version",
		GroupID: gBasic,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewReportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "report",
		GroupID: gBasic,
		Short:   "Export a plain-text diagnostic report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := apiClient.GetReport()
			if err != nil {
				return err
			}

			if output == "" {
				cmd.Print(report)
				return nil
			}
			if output == "auto" {
				output = fmt.Sprintf("bms-report-%s.txt", time.Now().Format("20060102-150405"))
			}
			if err := os.WriteFile(output, []byte(report), 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			cmd.Printf("Report written to %s\n", bold("%s", output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file ('auto' picks a timestamped name)")

	return cmd
}
