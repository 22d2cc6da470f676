// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/telekom/hoptrace/internal/logger"
	"github.com/telekom/hoptrace/internal/traceroute"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Watcher traces one target on a schedule and keeps the latest result.
type Watcher struct {
	config  Config
	client  traceroute.Client
	metrics metrics
	tracer  trace.Tracer
	cron    *cron.Cron
	done    chan struct{}
	latest  atomic.Pointer[traceroute.Result]
}

// New creates a watcher running the traceroutes with client.
// A run that is due while the previous one is still probing is skipped.
func New(cfg Config, client traceroute.Client) *Watcher {
	return &Watcher{
		config:  cfg,
		client:  client,
		metrics: newMetrics(),
		tracer:  otel.Tracer("watch"),
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		done: make(chan struct{}, 1),
	}
}

// Run traces the target once right away and then on every tick of the schedule,
// sending each result to cResult. It returns when the context is canceled
// or [Watcher.Shutdown] is called, after the run in flight has finished.
func (w *Watcher) Run(ctx context.Context, cResult chan<- *traceroute.Result) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx).With("target", w.config.Target.Address)

	id, err := w.cron.AddFunc(w.config.Schedule, func() {
		res := w.check(ctx)
		if res == nil {
			return
		}
		select {
		case cResult <- res:
		case <-ctx.Done():
		}
	})
	if err != nil {
		log.ErrorContext(ctx, "Invalid schedule", "schedule", w.config.Schedule, "error", err)
		return fmt.Errorf("failed to schedule traceroute: %w", err)
	}

	log.InfoContext(ctx, "Starting traceroute watch", "schedule", w.config.Schedule)
	w.cron.Start()

	// The first run is not started by the scheduler, so Stop does not wait for it.
	var first sync.WaitGroup
	first.Add(1)
	go func() {
		defer first.Done()
		w.cron.Entry(id).WrappedJob.Run()
	}()

	select {
	case <-ctx.Done():
		log.InfoContext(ctx, "Context canceled, stopping traceroute watch", "error", ctx.Err())
		<-w.cron.Stop().Done()
		first.Wait()
		return ctx.Err()
	case <-w.done:
		cancel()
		<-w.cron.Stop().Done()
		first.Wait()
		log.InfoContext(ctx, "Traceroute watch stopped")
		return nil
	}
}

// check runs a single traceroute and records it.
// It returns nil if the run was aborted.
func (w *Watcher) check(ctx context.Context) *traceroute.Result {
	log := logger.FromContext(ctx)
	ctx, span := w.tracer.Start(ctx, "watch.check", trace.WithAttributes(
		attribute.String("watch.target", w.config.Target.Address),
	))
	defer span.End()

	target := w.config.Target.Address
	res, err := w.client.Run(ctx, w.config.Target, &w.config.Options)
	if err != nil {
		log.ErrorContext(ctx, "Failed to run traceroute", "error", err)
		span.SetStatus(codes.Error, "Failed to run traceroute")
		span.RecordError(err)
		w.metrics.Failed(target)
		return nil
	}

	w.metrics.Set(target, res)
	w.latest.Store(res)
	log.DebugContext(ctx, "Successfully finished traceroute run", "run", res.ID, "state", res.State, "hops", len(res.Hops))
	return res
}

// Latest returns the result of the last successful run.
func (w *Watcher) Latest() (*traceroute.Result, bool) {
	res := w.latest.Load()
	return res, res != nil
}

// Shutdown stops the watcher
func (w *Watcher) Shutdown() {
	select {
	case w.done <- struct{}{}:
	default:
	}
}

// GetMetricCollectors returns the prometheus collectors of the watcher
func (w *Watcher) GetMetricCollectors() []prometheus.Collector {
	return w.metrics.GetCollectors()
}

// Target returns the traced target
func (w *Watcher) Target() traceroute.Target {
	return w.config.Target
}
