// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/telekom/hoptrace/internal/helper"
	"github.com/telekom/hoptrace/internal/logger"
	"github.com/telekom/hoptrace/internal/traceroute"
	"github.com/telekom/hoptrace/pkg"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Publisher sends traceroute results to a remote endpoint
//
//go:generate go tool moq -out report_moq.go . Publisher
type Publisher interface {
	// Publish sends the result. Server errors and failed requests are retried.
	Publish(ctx context.Context, res *traceroute.Result) error
}

// ErrUnexpectedStatus is returned when the endpoint answers with a non 2xx status
type ErrUnexpectedStatus struct {
	StatusCode int
}

func (e *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("unexpected response status %d", e.StatusCode)
}

type publisher struct {
	config Config
	client *http.Client
	tracer trace.Tracer
}

// New creates a publisher for the configured endpoint
func New(cfg Config) Publisher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &publisher{
		config: cfg,
		client: &http.Client{Timeout: timeout},
		tracer: otel.Tracer("report"),
	}
}

func (p *publisher) Publish(ctx context.Context, res *traceroute.Result) error {
	log := logger.FromContext(ctx).With("url", p.config.URL, "run", res.ID)
	ctx, span := p.tracer.Start(ctx, "report.publish", trace.WithAttributes(
		attribute.String("report.url", p.config.URL),
	))
	defer span.End()

	body, err := json.Marshal(res)
	if err != nil {
		span.SetStatus(codes.Error, "failed to marshal result")
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	post := helper.RetryIf(func(ctx context.Context) error {
		return p.post(ctx, body)
	}, p.config.Retry, retryable)

	if err = post(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to publish result", "error", err)
		span.SetStatus(codes.Error, "failed to publish result")
		span.RecordError(err)
		return err
	}
	log.DebugContext(ctx, "Published result")
	return nil
}

func (p *publisher) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "hoptrace/"+pkg.Version)
	if p.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.Token)
	}

	resp, err := p.client.Do(req) //nolint:bodyclose // closed below
	if err != nil {
		return fmt.Errorf("failed to post result: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ErrUnexpectedStatus{StatusCode: resp.StatusCode}
	}
	return nil
}

// retryable reports whether a failed post is worth repeating.
// Client errors are final, everything else may be transient.
func retryable(err error) bool {
	var sErr *ErrUnexpectedStatus
	if errors.As(err, &sErr) {
		return sErr.StatusCode >= 500 || sErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}
