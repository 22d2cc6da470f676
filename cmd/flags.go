// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/telekom/hoptrace/internal/traceroute"
	"github.com/telekom/hoptrace/pkg/config"
)

// bindings maps flag names to the configuration keys they set
type bindings map[string]string

// bind binds the flags of cmd to their configuration keys.
// It must run once the command to execute is known, as trace and watch share keys.
func (b bindings) bind(cmd *cobra.Command) error {
	for flag, key := range b {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("flag %q is not defined on command %s", flag, cmd.Name())
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", flag, err)
		}
	}
	return nil
}

// addTraceFlags adds the probing flags shared by trace and watch
func addTraceFlags(cmd *cobra.Command, b bindings) {
	def := traceroute.DefaultOptions()
	cmd.Flags().StringP("target", "t", "", "host to trace to, overridden by the positional argument")
	cmd.Flags().Int("start-ttl", def.StartTTL, "TTL of the first probe")
	cmd.Flags().IntP("max-ttl", "m", def.MaxTTL, "TTL of the last probe")
	cmd.Flags().DurationP("timeout", "w", def.Timeout, "time to wait for a response per hop")
	cmd.Flags().Int("packet-size", def.PacketSize, "size of the probe in bytes including the IP and ICMP headers")
	cmd.Flags().Int("recv-buffer", def.ReceiveBufferSize, "size of the buffer responses are read into")
	cmd.Flags().BoolP("resolve-names", "r", def.ResolveNames, "look up the host names of the hops")
	cmd.Flags().Int("dns-retries", def.Retry.Count, "retries of temporary DNS failures")
	cmd.Flags().String("header-mode", traceroute.HeaderKernel.String(), "who completes the IP header of the probes: kernel or self")

	b["target"] = "target.address"
	b["start-ttl"] = "trace.startTTL"
	b["max-ttl"] = "trace.maxHops"
	b["timeout"] = "trace.timeout"
	b["packet-size"] = "trace.packetSize"
	b["recv-buffer"] = "trace.receiveBufferSize"
	b["resolve-names"] = "trace.resolveNames"
	b["dns-retries"] = "trace.retry.count"
	b["header-mode"] = "headerMode"
}

// addTelemetryFlags adds the OpenTelemetry flags
func addTelemetryFlags(cmd *cobra.Command, b bindings) {
	cmd.Flags().Bool("telemetry-enabled", false, "export traces of the runs")
	cmd.Flags().String("telemetry-exporter", "noop", "span exporter: grpc, http, stdout or noop")
	cmd.Flags().String("telemetry-url", "", "url of the otlp collector")
	cmd.Flags().String("telemetry-token", "", "bearer token for the otlp collector")

	b["telemetry-enabled"] = "telemetry.enabled"
	b["telemetry-exporter"] = "telemetry.exporter"
	b["telemetry-url"] = "telemetry.url"
	b["telemetry-token"] = "telemetry.token"
}

// loadConfig builds the configuration from the defaults, the config file,
// the environment and the flags. A positional target wins over all of them.
func loadConfig(args []string) (*config.Config, error) {
	if len(args) > 0 {
		viper.Set("target.address", args[0])
	}

	cfg := config.New()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
