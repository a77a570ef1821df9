package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/bmslink/pkg/config"
	"github.com/charlie0129/bmslink/pkg/dashboard"
	"github.com/charlie0129/bmslink/pkg/events"
	"github.com/charlie0129/bmslink/pkg/monitor"
	"github.com/charlie0129/bmslink/pkg/transport"
	"github.com/charlie0129/bmslink/pkg/version"
)

// NewRunCommand runs the session in the foreground.
func NewRunCommand() *cobra.Command {
	var (
		host            string
		allowNonRoot    bool
		historyCapacity int
	)

	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the device session in the foreground",
		GroupID: gBasic,
		Long: `Connect to the BMS adapter and keep the session alive, reconnecting with backoff.

The session state is served on a unix socket for the other bmslink commands and for any
render layer (see --socket).`,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("bmslink starting")

			conf, err := config.NewFile(configPath)
			if err != nil {
				logrus.Fatalf("failed to parse config during startup: %v", err)
			}
			if host != "" {
				conf.SetHost(host)
			}
			logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

			return runSession(conf, allowNonRoot, historyCapacity)
		},
	}

	f := cmd.Flags()
	f.StringVar(&host, "host", "", "device address, overrides the config file")
	f.BoolVar(&allowNonRoot, "allow-non-root-access", false, "allow non-root users to access the session socket")
	f.IntVar(&historyCapacity, "history-capacity", 0, "number of samples kept for the live chart (default 40)")

	return cmd
}

func runSession(conf *config.File, allowNonRoot bool, historyCapacity int) error {
	hub := events.NewHub()
	m := monitor.New(monitor.Options{
		URL:             transport.URL(conf.Host()),
		Dialer:          &transport.Dialer{},
		Config:          conf,
		Hub:             hub,
		HistoryCapacity: historyCapacity,
	})

	l, err := dashboard.ListenUnix(unixSocketPath, allowNonRoot)
	if err != nil {
		return err
	}
	defer os.Remove(unixSocketPath)

	srv := dashboard.New(m, hub)
	go func() {
		if err := srv.Serve(l); err != nil {
			logrus.Fatal(err)
		}
	}()

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			if err := m.ReloadConfig(); err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = m.Run(ctx)
	logrus.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}

	logrus.Info("exiting")
	return err
}
