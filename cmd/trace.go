// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"
	"github.com/telekom/hoptrace/internal/helper"
	"github.com/telekom/hoptrace/internal/logger"
	"github.com/telekom/hoptrace/internal/traceroute"
	"github.com/telekom/hoptrace/pkg/config"
	"github.com/telekom/hoptrace/pkg/output"
	"github.com/telekom/hoptrace/pkg/telemetry"
	"go.opentelemetry.io/otel"
)

var (
	// newClient creates the traceroute client of the trace command
	newClient = traceroute.NewClient
	// resolveTarget looks up the address that is printed and probed
	resolveTarget = func(ctx context.Context, t traceroute.Target, rc helper.RetryConfig) (netip.Addr, error) {
		return t.Resolve(ctx, rc)
	}
)

// NewCmdTrace creates a new trace command
func NewCmdTrace() *cobra.Command {
	b := bindings{}
	cmd := &cobra.Command{
		Use:   "trace [host]",
		Short: "Trace the route to a host once",
		Long: "Sends ICMP Echo Requests with increasing TTL to the host and prints every hop as soon as it answered\n" +
			"or the timeout passed. Requires the privilege to open raw sockets (root or CAP_NET_RAW).",
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return b.bind(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			return runTrace(cmd, cfg)
		},
	}

	addTraceFlags(cmd, b)
	addTelemetryFlags(cmd, b)
	cmd.Flags().StringP("output", "o", string(output.Text), "output format: text, json or yaml")
	b["output"] = "output"

	return cmd
}

// runTrace runs a single traceroute and prints it
func runTrace(cmd *cobra.Command, cfg *config.Config) error {
	ctx, cancel := logger.NewContextWithLogger(cmd.Context())
	defer cancel()
	log := logger.FromContext(ctx)

	if err := cfg.Validate(ctx); err != nil {
		return err
	}
	// Both are validated above
	mode, _ := traceroute.ParseHeaderMode(cfg.HeaderMode)
	format, _ := output.ParseFormat(cfg.Output)

	tel := telemetry.New(cfg.Telemetry)
	if err := tel.InitTracing(ctx); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.WarnContext(ctx, "Failed to flush traces", "error", err)
		}
	}()

	ctx, span := otel.Tracer("hoptrace").Start(ctx, "trace")
	defer span.End()

	addr, err := resolveTarget(ctx, cfg.Target, cfg.Trace.Retry)
	if err != nil {
		return err
	}

	printer := output.New(format, cmd.OutOrStdout(), cmd.ErrOrStderr())
	printer.Header(cfg.Target.Address, addr.String(), cfg.Trace)

	client := newClient(
		traceroute.WithHeaderMode(mode),
		traceroute.WithHopHandler(printer.Hop),
		traceroute.WithResolvedAddr(addr),
	)
	res, err := client.Run(ctx, cfg.Target, &cfg.Trace)
	if err != nil {
		return err
	}
	return printer.Result(res)
}
