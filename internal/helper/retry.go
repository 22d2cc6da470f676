// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package helper

import (
	"context"
	"time"

	"github.com/telekom/hoptrace/internal/logger"
)

// RetryConfig configures how often and how patiently a failing call is repeated.
type RetryConfig struct {
	// Count is the number of retries after the first attempt.
	Count int `json:"count" yaml:"count" mapstructure:"count"`
	// Delay is the initial backoff, doubled on every further retry.
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
}

// Effector is the call guarded by [Retry].
type Effector func(context.Context) error

// Retry wraps the effector so that every error is retried with exponential backoff.
func Retry(effector Effector, rc RetryConfig) Effector {
	return RetryIf(effector, rc, func(error) bool { return true })
}

// RetryIf wraps the effector so that only errors accepted by retryable are retried.
// Other errors, and the last error once the retries are used up, are returned as is.
func RetryIf(effector Effector, rc RetryConfig, retryable func(error) bool) Effector {
	return func(ctx context.Context) error {
		log := logger.FromContext(ctx)
		for attempt := 1; ; attempt++ {
			err := effector(ctx)
			if err == nil || attempt > rc.Count || !retryable(err) {
				return err
			}

			delay := backoff(rc.Delay, attempt)
			log.WarnContext(ctx, "Call failed, retrying", "attempt", attempt, "delay", delay, "error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
}

// maxBackoff caps the delay between two attempts
const maxBackoff = 10 * time.Minute

// backoff returns initial * 2^(attempt-1) capped at maxBackoff;
// the first attempt waits the initial delay.
func backoff(initial time.Duration, attempt int) time.Duration {
	if attempt <= 1 || initial <= 0 {
		return initial
	}
	delay := initial
	for range attempt - 1 {
		if delay >= maxBackoff/2 {
			return maxBackoff
		}
		delay *= 2
	}
	return min(delay, maxBackoff)
}
