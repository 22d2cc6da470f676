// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/telekom/hoptrace/internal/helper"
)

const defaultTimeout = 10 * time.Second

// Config configures where results are published to
type Config struct {
	// URL the results are POSTed to. Publishing is disabled if empty.
	URL string `yaml:"url" mapstructure:"url"`
	// Token is sent as bearer token if set
	Token   string             `yaml:"token" mapstructure:"token"`
	Timeout time.Duration      `yaml:"timeout" mapstructure:"timeout"`
	Retry   helper.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// Enabled reports whether a URL is configured
func (c *Config) Enabled() bool {
	return c.URL != ""
}

// Validate checks the configuration if publishing is enabled
func (c *Config) Validate() error {
	if !c.Enabled() {
		return nil
	}

	var err error
	u, pErr := url.Parse(c.URL)
	if pErr != nil {
		err = errors.Join(err, fmt.Errorf("invalid report url: %w", pErr))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		err = errors.Join(err, fmt.Errorf("invalid report url %q: must be an absolute http(s) url", c.URL))
	}
	if c.Timeout < 0 {
		err = errors.Join(err, fmt.Errorf("report timeout must not be negative, got %s", c.Timeout))
	}
	if c.Retry.Count < 0 || c.Retry.Delay < 0 {
		err = errors.Join(err, errors.New("report retry count and delay must not be negative"))
	}
	return err
}
