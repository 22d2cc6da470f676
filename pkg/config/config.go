// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"

	"github.com/telekom/hoptrace/internal/helper"
	"github.com/telekom/hoptrace/internal/traceroute"
	"github.com/telekom/hoptrace/pkg/api"
	"github.com/telekom/hoptrace/pkg/report"
	"github.com/telekom/hoptrace/pkg/telemetry"
	"github.com/telekom/hoptrace/pkg/watch"
)

// Config is the startup configuration of hoptrace.
// It is filled from flags, environment variables and the config file.
type Config struct {
	// Target is the destination to trace to
	Target traceroute.Target `yaml:"target" mapstructure:"target"`
	// Trace holds the probing options
	Trace traceroute.Options `yaml:"trace" mapstructure:"trace"`
	// HeaderMode selects who completes the IP header of the probes (kernel, self)
	HeaderMode string `yaml:"headerMode" mapstructure:"headerMode"`
	// Output is the output format of the trace command (text, json, yaml)
	Output string `yaml:"output" mapstructure:"output"`
	// Watch is the configuration of the watch command
	Watch WatchConfig `yaml:"watch" mapstructure:"watch"`
	// Api is the configuration for the api server
	Api api.Config `yaml:"api" mapstructure:"api"`
	// Telemetry is the configuration for the telemetry
	Telemetry telemetry.Config `yaml:"telemetry" mapstructure:"telemetry"`
	// Report is the configuration of the result publisher
	Report report.Config `yaml:"report" mapstructure:"report"`
}

// WatchConfig is the configuration of the repeated traceroute
type WatchConfig struct {
	// Schedule is a cron expression or descriptor like "@every 1m"
	Schedule string `yaml:"schedule" mapstructure:"schedule"`
}

// New returns a configuration with all defaults set
func New() *Config {
	return &Config{
		Trace:      traceroute.DefaultOptions(),
		HeaderMode: traceroute.HeaderKernel.String(),
		Output:     "text",
		Watch:      WatchConfig{Schedule: watch.DefaultSchedule},
		Api:        api.Config{ListeningAddress: api.DefaultListeningAddress},
		Telemetry:  telemetry.Config{Exporter: telemetry.NOOP},
		Report: report.Config{
			Retry: helper.RetryConfig{Count: 3, Delay: time.Second},
		},
	}
}

// WatchConfig returns the configuration of the watcher
func (c *Config) WatchConfig() watch.Config {
	return watch.Config{
		Target:   c.Target,
		Schedule: c.Watch.Schedule,
		Options:  c.Trace,
	}
}

// HasTelemetry returns true if the config has telemetry enabled
func (c *Config) HasTelemetry() bool {
	return c.Telemetry.Enabled
}

// HasReport returns true if results are published
func (c *Config) HasReport() bool {
	return c.Report.Enabled()
}
