// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"net/netip"
	"time"

	"github.com/telekom/hoptrace/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxPollInterval caps a single wait so that context cancellation
// is noticed while a long hop timeout is running.
const maxPollInterval = 250 * time.Millisecond

// hopper probes one TTL after the other until the destination answers
// or the max TTL has been probed. It owns the socket for the whole run.
type hopper struct {
	sock       socket
	builder    *probeBuilder
	otelTracer trace.Tracer
	opts       Options
	// id is the ICMP identifier of every probe of the run.
	id uint16
	// dst is the resolved destination.
	dst netip.Addr
	// recvBuf is reused for every received packet.
	recvBuf []byte
	// report is called with every hop as soon as it is known.
	report func(Hop)
	// lookupName resolves responder names when enabled.
	lookupName func(netip.Addr) string
}

// reply is a classified response to the probe in flight.
type reply struct {
	from    netip.Addr
	reached bool
	at      time.Time
}

// run executes the hop loop and returns the probed hops in TTL order.
// Any transport error aborts the run immediately.
func (h *hopper) run(ctx context.Context) ([]Hop, State, error) {
	hops := make([]Hop, 0, h.opts.MaxTTL-h.opts.StartTTL+1)
	for ttl := h.opts.StartTTL; ttl <= h.opts.MaxTTL; ttl++ {
		hop, err := h.probe(ctx, ttl)
		if err != nil {
			return hops, 0, err
		}

		hops = append(hops, hop)
		if h.report != nil {
			h.report(hop)
		}
		if hop.Reached {
			return hops, StateDone, nil
		}
	}
	return hops, StateExhausted, nil
}

// probe sends the probe for ttl and waits for its answer.
func (h *hopper) probe(ctx context.Context, ttl int) (Hop, error) {
	ctx, span := h.otelTracer.Start(ctx, "hop", trace.WithAttributes(
		attribute.Stringer("traceroute.target.address", h.dst),
		attribute.Int("traceroute.target.ttl", ttl),
	))
	defer span.End()
	log := logger.FromContext(ctx).With("ttl", ttl)

	pkt, err := h.builder.build(ttl)
	if err != nil {
		return Hop{}, wrapError(ctx, err, "failed to build probe with ttl %d", ttl)
	}

	start := time.Now()
	if _, err = h.sock.Send(pkt, h.dst); err != nil {
		return Hop{}, wrapError(ctx, err, "failed to send probe with ttl %d", ttl)
	}
	log.DebugContext(ctx, "Probe sent", "size", len(pkt))

	rep, ok, err := h.await(ctx, uint16(ttl), start.Add(h.opts.Timeout)) // #nosec G115 // ttl is validated to fit
	if err != nil {
		return Hop{}, wrapError(ctx, err, "failed to receive response for ttl %d", ttl)
	}

	// Timeout: nobody answered this probe, which is expected
	// for routers that do not send Time Exceeded messages.
	if !ok {
		hop := Hop{Latency: time.Since(start), TTL: ttl}
		log.DebugContext(ctx, "No response before timeout", "timeout", h.opts.Timeout)
		span.AddEvent("Hop timed out", trace.WithAttributes(
			attribute.Stringer("traceroute.target.hop", hop),
		))
		return hop, nil
	}

	hop := Hop{
		Latency:   rep.at.Sub(start),
		Addr:      rep.from.String(),
		TTL:       ttl,
		Responded: true,
		Reached:   rep.reached,
	}
	if h.opts.ResolveNames && h.lookupName != nil {
		hop.Name = h.lookupName(rep.from)
	}
	log.DebugContext(ctx, "Response received", "from", hop.Addr, "reached", hop.Reached, "latency", hop.Latency)
	span.AddEvent("Response received", trace.WithAttributes(
		attribute.Bool("traceroute.target.reached", hop.Reached),
		attribute.Stringer("traceroute.target.hop", hop),
	))
	return hop, nil
}

// await reads packets until one matches seq or the deadline passes.
// It reports false without an error if the deadline passed.
// Packets that do not match are dropped and the wait is re-armed
// with whatever is left of the budget.
func (h *hopper) await(ctx context.Context, seq uint16, deadline time.Time) (reply, bool, error) {
	log := logger.FromContext(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return reply{}, false, err
		}

		// poll(2) counts in whole milliseconds, less than that is spent
		remaining := time.Until(deadline)
		if remaining < time.Millisecond {
			return reply{}, false, nil
		}

		ready, err := h.sock.WaitReadable(min(remaining, maxPollInterval))
		if err != nil {
			return reply{}, false, err
		}
		if !ready {
			continue
		}

		n, from, err := h.sock.Recv(h.recvBuf)
		if err != nil {
			return reply{}, false, err
		}

		n = min(max(n, 0), len(h.recvBuf))
		c := classify(h.recvBuf[:n], h.id, seq, h.dst)
		if !c.matches {
			log.DebugContext(ctx, "Ignoring unrelated packet", "from", from, "size", n)
			continue
		}
		return reply{from: from, reached: c.reachedDestination, at: time.Now()}, true, nil
	}
}
