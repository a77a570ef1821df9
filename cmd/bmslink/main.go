package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/bmslink/pkg/client"
	"github.com/charlie0129/bmslink/pkg/dashboard"
)

var (
	logLevel       = "info"
	unixSocketPath = dashboard.DefaultSocketPath
	configPath     = defaultConfigPath()
)

var (
	gBasic        = "Basic:"
	gDevice       = "Device:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gDevice,
		gAdvanced,
	}
)

var apiClient *client.Client

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "bmslink.json"
	}
	return filepath.Join(dir, "bmslink", "config.json")
}

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	switch {
	case errors.Is(err, client.ErrDaemonNotRunning):
		fmt.Fprintln(os.Stderr, "\nError: bmslink is not running")
		fmt.Fprintln(os.Stderr, "Start a session first with 'bmslink run --host <device address>'")
	case errors.Is(err, client.ErrPermissionDenied):
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or restart the session with '--allow-non-root-access'")
	case errors.Is(err, client.ErrNotConnected):
		fmt.Fprintln(os.Stderr, "\nError: the device is not connected, the command was dropped")
		fmt.Fprintln(os.Stderr, "Check 'bmslink status', or force a reconnect with 'bmslink connect'")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bmslink",
		Short: "bmslink keeps a live session with a battery BMS adapter",
		Long: `bmslink keeps a live session with a battery management system (BMS) adapter over
WebSocket, validates its telemetry, derives health and balance diagnostics and keeps a
rolling history. 'bmslink run' starts the session; the other commands talk to it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			apiClient = client.NewClient(unixSocketPath)

			if cmd.Name() == "run" || cmd.Name() == "flash" {
				return nil
			}
			if clientVersion, sessionVersion, err := getVersion(); err == nil && sessionVersion != clientVersion {
				logrus.WithFields(logrus.Fields{
					"clientVersion":  clientVersion,
					"sessionVersion": sessionVersion,
				}).Warn("version mismatch between client and running session")
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "socket", unixSocketPath, "session unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewRunCommand(),
		NewVersionCommand(),
		NewStatusCommand(),
		NewHistoryCommand(),
		NewBatteriesCommand(),
		NewReportCommand(),
		NewConnectCommand(),
		NewSendCommand(),
		NewReadCommand(),
		NewClearErrorsCommand(),
		NewLEDCommand(),
		NewWifiCommand(),
		NewDeviceLoggingCommand(),
		NewAutoPollCommand(),
		NewAutoDetectCommand(),
		NewPreferencesCommand(),
		NewFlashCommand(),
	)

	return cmd
}
