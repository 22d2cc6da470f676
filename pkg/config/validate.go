// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/telekom/hoptrace/internal/logger"
	"github.com/telekom/hoptrace/internal/traceroute"
	"github.com/telekom/hoptrace/pkg/output"
)

// Validate validates the configuration of a single traceroute
func (c *Config) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)

	if vErr := c.Target.Validate(); vErr != nil {
		log.Error("The target is invalid", "target", c.Target.Address)
		err = errors.Join(err, vErr)
	}

	if vErr := c.Trace.Validate(); vErr != nil {
		log.Error("The trace options are invalid")
		err = errors.Join(err, vErr)
	}

	if _, pErr := output.ParseFormat(c.Output); pErr != nil {
		log.Error("The output format is invalid", "output", c.Output)
		err = errors.Join(err, fmt.Errorf("%w: %w", ErrInvalidOutput, pErr))
	}

	err = errors.Join(err, c.validateShared(ctx))
	if err != nil {
		return fmt.Errorf("validation of configuration failed: %w", err)
	}
	return nil
}

// ValidateWatch validates the configuration of the watch daemon
func (c *Config) ValidateWatch(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)

	wc := c.WatchConfig()
	if vErr := wc.Validate(); vErr != nil {
		log.Error("The watch configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if vErr := c.Api.Validate(); vErr != nil {
		log.Error("The api configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if vErr := c.Report.Validate(); vErr != nil {
		log.Error("The report configuration is invalid")
		err = errors.Join(err, vErr)
	}

	err = errors.Join(err, c.validateShared(ctx))
	if err != nil {
		return fmt.Errorf("validation of watch configuration failed: %w", err)
	}
	return nil
}

// validateShared checks the settings both commands use.
func (c *Config) validateShared(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)

	if _, pErr := traceroute.ParseHeaderMode(c.HeaderMode); pErr != nil {
		log.Error("The header mode is invalid", "headerMode", c.HeaderMode)
		err = errors.Join(err, fmt.Errorf("%w: %w", ErrInvalidHeaderMode, pErr))
	}

	if c.HasTelemetry() {
		if vErr := c.Telemetry.Validate(ctx); vErr != nil {
			log.Error("The telemetry configuration is invalid")
			err = errors.Join(err, vErr)
		}
	}
	return err
}
