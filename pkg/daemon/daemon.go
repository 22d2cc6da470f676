// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/telekom/hoptrace/internal/logger"
	"github.com/telekom/hoptrace/internal/traceroute"
	"github.com/telekom/hoptrace/pkg/api"
	"github.com/telekom/hoptrace/pkg/config"
	"github.com/telekom/hoptrace/pkg/report"
	"github.com/telekom/hoptrace/pkg/telemetry"
	"github.com/telekom/hoptrace/pkg/watch"
)

const shutdownTimeout = time.Second * 90

// Daemon repeats a traceroute and serves its results
type Daemon struct {
	// config is the startup configuration
	config *config.Config
	// api serves the results, the stream and the metrics
	api api.API
	// hub streams hops and results to websocket clients
	hub *api.Hub
	// telemetry provides the metrics registry and tracing
	telemetry telemetry.Provider
	// watcher runs the traceroutes on schedule
	watcher *watch.Watcher
	// publisher sends results to a remote endpoint, nil if not configured
	publisher report.Publisher
	// cResult receives every finished traceroute
	cResult chan *traceroute.Result
	// cErr is used to handle non-recoverable errors of the components,
	// it has room for one error per component
	cErr chan error
	// cDone is used to signal that the daemon was shut down
	cDone chan struct{}
	// shutOnce is used to ensure that the shutdown function is only called once
	shutOnce sync.Once
	// publishing tracks results that are still being published
	publishing sync.WaitGroup
	// components tracks the running api and watcher
	components sync.WaitGroup
}

// components is the number of components reporting to cErr
const components = 2

// New creates a daemon from a validated configuration
func New(cfg *config.Config) (*Daemon, error) {
	mode, err := traceroute.ParseHeaderMode(cfg.HeaderMode)
	if err != nil {
		return nil, err
	}

	hub := api.NewHub()
	client := traceroute.NewClient(
		traceroute.WithHeaderMode(mode),
		traceroute.WithHopHandler(func(h traceroute.Hop) {
			hub.Broadcast(context.Background(), "hop", h)
		}),
	)

	d := &Daemon{
		config:    cfg,
		api:       api.New(cfg.Api),
		hub:       hub,
		telemetry: telemetry.New(cfg.Telemetry),
		watcher:   watch.New(cfg.WatchConfig(), client),
		cResult:   make(chan *traceroute.Result, 1),
		cErr:      make(chan error, components),
		cDone:     make(chan struct{}, 1),
		shutOnce:  sync.Once{},
	}
	if cfg.HasReport() {
		d.publisher = report.New(cfg.Report)
	}

	if err = d.registerMetrics(); err != nil {
		return nil, err
	}
	return d, nil
}

// registerMetrics adds the watcher's collectors and the instance info to the registry.
func (d *Daemon) registerMetrics() error {
	registry := d.telemetry.GetRegistry()
	for _, c := range d.watcher.GetMetricCollectors() {
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("failed to register watch metrics: %w", err)
		}
	}
	if err := telemetry.RegisterInstanceInfo(registry, d.config.Target.Address, d.config.Watch.Schedule); err != nil {
		return fmt.Errorf("failed to register instance info: %w", err)
	}
	return nil
}

// Run starts the daemon and blocks until it was shut down
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	log := logger.FromContext(ctx)
	defer cancel()

	err := d.telemetry.InitTracing(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	d.components.Add(components)
	go func() {
		defer d.components.Done()
		d.cErr <- d.startupAPI(ctx)
	}()

	go func() {
		defer d.components.Done()
		d.cErr <- d.watcher.Run(ctx, d.cResult)
	}()

	for {
		select {
		case res := <-d.cResult:
			d.handleResult(ctx, res)
		case <-ctx.Done():
			d.shutdown(ctx)
		case err := <-d.cErr:
			if err != nil {
				log.Error("Non-recoverable error in hoptrace component", "error", err)
				d.shutdown(ctx)
			}
		case <-d.cDone:
			d.components.Wait()
			log.InfoContext(ctx, "Hoptrace was shut down")
			return ErrFinalShutdown
		}
	}
}

// handleResult streams the result and publishes it in the background
func (d *Daemon) handleResult(ctx context.Context, res *traceroute.Result) {
	d.hub.Broadcast(ctx, "result", res)
	if d.publisher == nil {
		return
	}

	d.publishing.Add(1)
	go func() {
		defer d.publishing.Done()
		if err := d.publisher.Publish(ctx, res); err != nil {
			logger.FromContext(ctx).WarnContext(ctx, "Result was not published", "run", res.ID, "error", err)
		}
	}()
}

// startupAPI registers the routes and serves the API
func (d *Daemon) startupAPI(ctx context.Context) error {
	routes, err := d.routes()
	if err != nil {
		return fmt.Errorf("failed to create routes: %w", err)
	}
	if err = d.api.RegisterRoutes(ctx, routes...); err != nil {
		return fmt.Errorf("failed to register routes: %w", err)
	}
	return d.api.Run(ctx)
}

// shutdown shuts down the daemon and all managed components gracefully.
func (d *Daemon) shutdown(ctx context.Context) {
	errC := ctx.Err()
	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	d.shutOnce.Do(func() {
		log.InfoContext(ctx, "Shutting down hoptrace")
		var sErrs ErrShutdown
		d.watcher.Shutdown()
		d.hub.Close()
		sErrs.errAPI = d.api.Shutdown(ctx)
		d.publishing.Wait()
		sErrs.errTelemetry = d.telemetry.Shutdown(ctx)

		if sErrs.HasError() {
			log.ErrorContext(ctx, "Failed to shutdown gracefully", "contextError", errC, "errors", sErrs)
		}

		// Signal that shutdown is complete
		d.cDone <- struct{}{}
	})
}
