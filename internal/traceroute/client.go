// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/telekom/hoptrace/internal/helper"
	"github.com/telekom/hoptrace/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	_ Client = (*genericClient)(nil)
	_ Client = (*icmpClient)(nil)
)

// Client is able to run a traceroute to a target.
//
//go:generate go tool moq -out client_moq.go . Client
type Client interface {
	// Run executes the traceroute for the given target with the specified options.
	// Returns the Result of the run, or an error if the run had to be aborted.
	Run(ctx context.Context, target Target, opts *Options) (*Result, error)
}

// ClientOption configures the [Client] returned by [NewClient].
type ClientOption func(*icmpClient)

// WithHopHandler registers fn to be called with every hop as soon as it is probed.
// fn is called from the goroutine executing [Client.Run].
func WithHopHandler(fn func(Hop)) ClientOption {
	return func(c *icmpClient) {
		c.onHop = fn
	}
}

// WithHeaderMode selects who completes the IP header of the probes.
func WithHeaderMode(mode HeaderMode) ClientOption {
	return func(c *icmpClient) {
		c.headerMode = mode
	}
}

// WithResolvedAddr makes the client probe addr instead of resolving the target on every run.
// addr must be the IPv4 address of the target.
func WithResolvedAddr(addr netip.Addr) ClientOption {
	return func(c *icmpClient) {
		c.addr = addr
	}
}

type genericClient struct {
	// icmp is the [icmpClient] that implements the traceroute using ICMP Echo Requests.
	icmp Client
}

// NewClient returns a [Client] tracing with ICMP Echo Requests over raw sockets.
func NewClient(opts ...ClientOption) Client {
	c := newICMPClient()
	for _, opt := range opts {
		opt(c)
	}
	return &genericClient{icmp: c}
}

func (c *genericClient) Run(ctx context.Context, target Target, opts *Options) (*Result, error) {
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("invalid target %s: %w", target, err)
	}
	if opts == nil {
		o := DefaultOptions()
		opts = &o
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return c.icmp.Run(ctx, target, opts)
}

type icmpClient struct {
	// id is the ICMP identifier shared by all probes of this client.
	id         uint16
	headerMode HeaderMode
	// addr is the pre-resolved target address, if any.
	addr       netip.Addr
	onHop      func(Hop)
	newSocket  func() (socket, error)
	resolve    func(ctx context.Context, target Target, rc helper.RetryConfig) (netip.Addr, error)
	lookupName func(netip.Addr) string
}

// newICMPClient creates a new ICMP client for performing traceroutes.
func newICMPClient() *icmpClient {
	return &icmpClient{
		id:         processID(),
		headerMode: HeaderKernel,
		newSocket:  newRawSocket,
		resolve: func(ctx context.Context, target Target, rc helper.RetryConfig) (netip.Addr, error) {
			return target.Resolve(ctx, rc)
		},
		lookupName: resolveName,
	}
}

// Run resolves the target, opens the sockets and probes hop by hop.
// The sockets are closed before Run returns, on every path.
func (c *icmpClient) Run(ctx context.Context, target Target, opts *Options) (*Result, error) {
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer("traceroute.icmpClient")
	ctx, sp := tracer.Start(ctx, "Run", trace.WithAttributes(
		attribute.Stringer("traceroute.target", target),
		attribute.Int("traceroute.options.start_ttl", opts.StartTTL),
		attribute.Int("traceroute.options.max_hops", opts.MaxTTL),
		attribute.Stringer("traceroute.options.timeout", opts.Timeout),
	))
	defer sp.End()

	res := &Result{ID: uuid.New(), Target: target.Address}
	ctx = logger.IntoContext(ctx, logger.FromContext(ctx).With("run", res.ID.String(), "target", target.Address))
	log := logger.FromContext(ctx)
	sp.SetAttributes(attribute.String("traceroute.run.id", res.ID.String()))

	dst := c.addr
	if !dst.IsValid() {
		var err error
		dst, err = c.resolve(ctx, target, opts.Retry)
		if err != nil {
			return nil, wrapError(ctx, err, "failed to resolve target %s", target)
		}
	}
	res.Addr = dst.String()

	builder, err := newProbeBuilder(c.id, dst, opts.PacketSize, c.headerMode)
	if err != nil {
		return nil, wrapError(ctx, err, "failed to prepare probe")
	}

	sock, err := c.newSocket()
	if err != nil {
		return nil, wrapError(ctx, err, "failed to open raw sockets")
	}
	defer func() {
		if cErr := sock.Close(); cErr != nil {
			log.WarnContext(ctx, "Failed to close raw sockets", "error", cErr)
		}
	}()

	h := &hopper{
		sock:       sock,
		builder:    builder,
		otelTracer: tracer,
		opts:       *opts,
		id:         c.id,
		dst:        dst,
		recvBuf:    make([]byte, opts.ReceiveBufferSize),
		report:     c.onHop,
		lookupName: c.lookupName,
	}

	log.DebugContext(ctx, "Starting ICMP traceroute", "addr", dst, "id", c.id)
	res.Started = time.Now()
	res.Hops, res.State, err = h.run(ctx)
	res.Duration = time.Since(res.Started)
	if err != nil {
		return nil, fmt.Errorf("traceroute to %s aborted: %w", target, err)
	}

	logHops(ctx, res.Hops)
	sp.SetAttributes(
		attribute.Stringer("traceroute.run.state", res.State),
		attribute.Int("traceroute.run.hops", len(res.Hops)),
	)
	return res, nil
}
