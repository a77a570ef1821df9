package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/bmslink/pkg/protocol"
)

func sendCommand(c protocol.Command) error {
	ret, err := apiClient.SendCommand(c)
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", c.Name, err)
	}
	logrus.WithField("command", c.Name).Infof("session responded: %s", ret)
	return nil
}

func NewConnectCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "connect",
		GroupID: gBasic,
		Short:   "Reconnect to the device now",
		Long:    `Start a connection attempt now. This also resumes a session that gave up reconnecting.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := apiClient.Connect()
			if err != nil {
				return err
			}
			logrus.Infof("session responded: %s", ret)
			return nil
		},
	}
}

func NewSendCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "send <command> [key=value...]",
		GroupID: gAdvanced,
		Short:   "Send a raw command to the device",
		Long: `Send any command to the device, e.g.

  bmslink send set_time epoch=1700000000
  bmslink send set_wifi ssid=home pass=secret`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			return sendCommand(protocol.NewCommand(args[0], params))
		},
	}
}

func NewReadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "read",
		GroupID: gDevice,
		Short:   "Ask the device to read the seated pack",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "static",
			Short: "Read the full pack record",
			RunE: func(_ *cobra.Command, _ []string) error {
				return sendCommand(protocol.ReadStatic())
			},
		},
		&cobra.Command{
			Use:   "dynamic",
			Short: "Read live voltages",
			RunE: func(_ *cobra.Command, _ []string) error {
				return sendCommand(protocol.ReadDynamic())
			},
		},
	)

	return cmd
}

func NewClearErrorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "clear-errors",
		GroupID: gDevice,
		Short:   "Clear the error flags of the seated pack",
		RunE: func(_ *cobra.Command, _ []string) error {
			return sendCommand(protocol.ClearErrors())
		},
	}
}

func NewLEDCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "led",
		GroupID: gDevice,
		Short:   "Toggle the pack LEDs for a test",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "on",
			Short: "Turn the LEDs on",
			RunE: func(_ *cobra.Command, _ []string) error {
				return sendCommand(protocol.Led(true))
			},
		},
		&cobra.Command{
			Use:   "off",
			Short: "Turn the LEDs off",
			RunE: func(_ *cobra.Command, _ []string) error {
				return sendCommand(protocol.Led(false))
			},
		},
	)

	return cmd
}

func NewWifiCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wifi",
		GroupID: gDevice,
		Short:   "Show or change the adapter network",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := apiClient.GetWifi()
			if err != nil {
				return err
			}

			if s := w.Status; s != nil {
				cmd.Println(bold("Station:"))
				cmd.Printf("  Connected: %s\n", bool2Text(s.StaConnected))
				if s.StaConnected {
					cmd.Printf("  SSID: %s  IP: %s  RSSI: %d dBm\n", s.StaSSID, s.StaIP, s.StaRSSI)
				}
				cmd.Println(bold("Access point:"))
				cmd.Printf("  IP: %s  Clients: %d\n", s.ApIP, s.ApClients)
				cmd.Printf("  Clock set: %s\n", bool2Text(s.HasTime))
			} else {
				cmd.Println("No network status yet, run 'bmslink wifi status'.")
			}

			if len(w.Networks) > 0 {
				cmd.Println(bold("Networks:"))
				for _, n := range w.Networks {
					lock := ""
					if n.Secure {
						lock = " (secure)"
					}
					cmd.Printf("  %-32s %4d dBm%s\n", n.SSID, n.RSSI, lock)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Ask the device for its network status",
			RunE: func(_ *cobra.Command, _ []string) error {
				return sendCommand(protocol.GetWifiStatus())
			},
		},
		&cobra.Command{
			Use:   "scan",
			Short: "Ask the device to scan for networks",
			RunE: func(_ *cobra.Command, _ []string) error {
				return sendCommand(protocol.ScanWifi())
			},
		},
		&cobra.Command{
			Use:   "set <ssid> [password]",
			Short: "Join a network",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(_ *cobra.Command, args []string) error {
				pass := ""
				if len(args) == 2 {
					pass = args[1]
				}
				return sendCommand(protocol.SetWifi(args[0], pass))
			},
		},
	)

	return cmd
}

func NewDeviceLoggingCommand() *cobra.Command {
	return newEnableDisableCommand(
		"device-logging",
		"device debug logging",
		"Toggle the debug messages the device streams to the session.",
		func() (string, error) { return apiClient.SendCommand(protocol.SetLogging(true)) },
		func() (string, error) { return apiClient.SendCommand(protocol.SetLogging(false)) },
	)
}

func NewAutoPollCommand() *cobra.Command {
	return newEnableDisableCommand(
		"auto-poll",
		"automatic live reads",
		`Periodically request live voltages while connected, if the seated pack supports it.

The schedule is set by pollSchedule in the config file.`,
		func() (string, error) { return apiClient.SetAutoPoll(true) },
		func() (string, error) { return apiClient.SetAutoPoll(false) },
	)
}

func NewAutoDetectCommand() *cobra.Command {
	return newEnableDisableCommand(
		"auto-detect",
		"automatic pack detection",
		`Let the device read a pack as soon as it is seated.

The preference is saved and sent again on every reconnect.`,
		func() (string, error) { return apiClient.SetAutoDetect(true) },
		func() (string, error) { return apiClient.SetAutoDetect(false) },
	)
}

func NewPreferencesCommand() *cobra.Command {
	var lang, theme string

	cmd := &cobra.Command{
		Use:     "preferences",
		GroupID: gDevice,
		Short:   "Set the UI language and theme stored on the device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if lang == "" && theme == "" {
				conf, err := apiClient.GetConfig()
				if err != nil {
					return err
				}
				cmd.Printf("Language: %s\n", bold("%s", optional(conf.Lang, "%s")))
				cmd.Printf("Theme: %s\n", bold("%s", optional(conf.Theme, "%s")))
				return nil
			}

			ret, err := apiClient.SetPreferences(lang, theme)
			if err != nil {
				return fmt.Errorf("failed to set preferences: %w", err)
			}
			logrus.Infof("session responded: %s", ret)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "UI language (en, es)")
	cmd.Flags().StringVar(&theme, "theme", "", "UI theme (light, dark)")

	return cmd
}
