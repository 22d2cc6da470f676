// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/telekom/hoptrace/internal/traceroute"
)

// DefaultSchedule runs a traceroute once a minute.
const DefaultSchedule = "@every 1m"

// Config is the configuration of a [Watcher]
type Config struct {
	// Target is the host to trace.
	Target traceroute.Target `json:"target" yaml:"target" mapstructure:"target"`
	// Schedule is a cron expression or descriptor like "@every 30s".
	Schedule string `json:"schedule" yaml:"schedule" mapstructure:"schedule"`
	// Options are the options of every run.
	Options traceroute.Options `json:"options" yaml:"options" mapstructure:"options"`
}

func (c *Config) Validate() error {
	var err error
	if c.Schedule == "" {
		err = errors.Join(err, ErrInvalidConfig{Field: "watch.schedule", Reason: "must not be empty"})
	} else if _, pErr := cron.ParseStandard(c.Schedule); pErr != nil {
		err = errors.Join(err, ErrInvalidConfig{Field: "watch.schedule", Reason: pErr.Error()})
	}

	if tErr := c.Target.Validate(); tErr != nil {
		err = errors.Join(err, ErrInvalidConfig{Field: "target.address", Reason: tErr.Error()})
	}

	if oErr := c.Options.Validate(); oErr != nil {
		err = errors.Join(err, fmt.Errorf("invalid trace options: %w", oErr))
	}
	return err
}
