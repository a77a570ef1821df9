package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/bmslink/pkg/config"
	"github.com/charlie0129/bmslink/pkg/firmware"
)

func NewFlashCommand() *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:     "flash <firmware.bin>",
		GroupID: gAdvanced,
		Short:   "Upload a firmware image to the adapter",
		Long: `Upload a firmware image to the adapter's HTTP updater.

The adapter reboots after a successful upload; a running session reconnects on its own.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if host == "" {
				conf, err := config.NewFile(configPath)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				host = conf.Host()
			}

			u := &firmware.Uploader{Host: host}
			logrus.WithField("url", u.URL()).Info("uploading firmware")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := u.UploadFile(ctx, args[0], newProgressPrinter()); err != nil {
				return err
			}

			cmd.Println("Firmware uploaded, the adapter is rebooting.")
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "device address, defaults to the host in the config file")

	return cmd
}

// newProgressPrinter draws a bar on a terminal and logs every 10% otherwise.
func newProgressPrinter() firmware.ProgressFunc {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		last := -1
		return func(sent, total int64) {
			if total <= 0 {
				return
			}
			pct := int(sent * 100 / total)
			if pct/10 != last/10 {
				last = pct
				logrus.Infof("uploaded %d%%", pct)
			}
		}
	}

	width := 40
	if w, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && w-20 < width {
		width = max(w-20, 10)
	}
	return func(sent, total int64) {
		if total <= 0 {
			return
		}
		filled := int(int64(width) * sent / total)
		fmt.Fprintf(os.Stderr, "\r[%s%s] %3d%%", strings.Repeat("=", filled), strings.Repeat(" ", width-filled), sent*100/total)
		if sent >= total {
			fmt.Fprintln(os.Stderr)
		}
	}
}
