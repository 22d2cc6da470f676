// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/telekom/hoptrace/internal/logger"
	"github.com/telekom/hoptrace/pkg/api"
	"github.com/telekom/hoptrace/pkg/config"
	"github.com/telekom/hoptrace/pkg/daemon"
	"github.com/telekom/hoptrace/pkg/watch"
)

// NewCmdWatch creates a new watch command
func NewCmdWatch() *cobra.Command {
	b := bindings{}
	cmd := &cobra.Command{
		Use:   "watch [host]",
		Short: "Trace the route to a host on a schedule and serve the results",
		Long: "Repeats the traceroute on a cron schedule. The latest result, a websocket stream of the hops,\n" +
			"the OpenAPI document and Prometheus metrics are served via HTTP.",
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return b.bind(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			return runWatch(cmd, cfg)
		},
	}

	addTraceFlags(cmd, b)
	addTelemetryFlags(cmd, b)
	cmd.Flags().String("schedule", watch.DefaultSchedule, "cron expression or descriptor like @every 30s")
	cmd.Flags().String("listen", api.DefaultListeningAddress, "address the API listens on")
	cmd.Flags().Bool("tls", false, "serve the API via https")
	cmd.Flags().String("tls-cert", "", "path to the certificate of the API")
	cmd.Flags().String("tls-key", "", "path to the private key of the API")
	cmd.Flags().String("report-url", "", "url every result is POSTed to")
	cmd.Flags().String("report-token", "", "bearer token for the report url")
	cmd.Flags().Duration("report-timeout", 0, "timeout of a single report request (default 10s)")
	cmd.Flags().Int("report-retries", 3, "retries of a failed report")

	b["schedule"] = "watch.schedule"
	b["listen"] = "api.address"
	b["tls"] = "api.tls.enabled"
	b["tls-cert"] = "api.tls.certPath"
	b["tls-key"] = "api.tls.keyPath"
	b["report-url"] = "report.url"
	b["report-token"] = "report.token"
	b["report-timeout"] = "report.timeout"
	b["report-retries"] = "report.retry.count"

	return cmd
}

// runWatch starts the daemon and blocks until it is stopped
func runWatch(cmd *cobra.Command, cfg *config.Config) error {
	ctx, cancel := logger.NewContextWithLogger(cmd.Context())
	defer cancel()
	log := logger.FromContext(ctx)

	if err := cfg.ValidateWatch(ctx); err != nil {
		return err
	}

	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "Running hoptrace watch", "target", cfg.Target.Address, "schedule", cfg.Watch.Schedule)
	err = d.Run(ctx)
	// A signal is a regular way to stop watching
	if errors.Is(err, daemon.ErrFinalShutdown) && cmd.Context().Err() != nil {
		return nil
	}
	return err
}
