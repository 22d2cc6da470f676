// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"encoding/binary"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

const testID uint16 = 0x4242

// fakeNetwork is a socket backed by a simulated path to targetAddr.
// Every probe sent is answered as the routers and the destination
// configured on the path would answer it.
type fakeNetwork struct {
	t testing.TB
	// routers maps a ttl to the router that expires the probe.
	// TTLs without a router stay silent.
	routers map[int]netip.Addr
	// destTTL is the first ttl reaching the destination, 0 if it is unreachable.
	destTTL int
	// noise is delivered before every answer.
	noise [][]byte

	queue  []packet
	sent   []int
	waits  []time.Duration
	closed int
}

type packet struct {
	data []byte
	from netip.Addr
}

var _ socket = (*fakeNetwork)(nil)

func (n *fakeNetwork) Send(b []byte, dst netip.Addr) (int, error) {
	ttl := int(b[8])
	id := binary.BigEndian.Uint16(b[24:26])
	seq := binary.BigEndian.Uint16(b[26:28])
	n.sent = append(n.sent, ttl)

	for _, pkt := range n.noise {
		n.queue = append(n.queue, packet{data: pkt, from: netip.MustParseAddr("203.0.113.200")})
	}

	switch r, ok := n.routers[ttl]; {
	case n.destTTL > 0 && ttl >= n.destTTL:
		n.queue = append(n.queue, packet{data: echoReplyPacket(n.t, dst, id, seq), from: dst})
	case ok:
		quoted := append([]byte(nil), b[:minPacketSize]...)
		n.queue = append(n.queue, packet{data: timeExceededPacket(n.t, r, 0, quoted), from: r})
	}
	return len(b), nil
}

func (n *fakeNetwork) WaitReadable(timeout time.Duration) (bool, error) {
	n.waits = append(n.waits, timeout)
	if len(n.queue) == 0 {
		time.Sleep(timeout)
		return false, nil
	}
	return true, nil
}

func (n *fakeNetwork) Recv(b []byte) (int, netip.Addr, error) {
	if len(n.queue) == 0 {
		return 0, netip.Addr{}, nil
	}
	pkt := n.queue[0]
	n.queue = n.queue[1:]
	return copy(b, pkt.data), pkt.from, nil
}

func (n *fakeNetwork) Close() error {
	n.closed++
	return nil
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Timeout = 30 * time.Millisecond
	return opts
}

func newTestHopper(t *testing.T, sock socket, opts Options) *hopper {
	t.Helper()
	b, err := newProbeBuilder(testID, targetAddr, opts.PacketSize, HeaderKernel)
	require.NoError(t, err)
	return &hopper{
		sock:       sock,
		builder:    b,
		otelTracer: noop.NewTracerProvider().Tracer("test"),
		opts:       opts,
		id:         testID,
		dst:        targetAddr,
		recvBuf:    make([]byte, opts.ReceiveBufferSize),
	}
}

func router(n int) netip.Addr {
	return netip.AddrFrom4([4]byte{10, 0, 0, byte(n)})
}

func responded(ttl int, addr netip.Addr) Hop {
	return Hop{TTL: ttl, Addr: addr.String(), Responded: true}
}

func reached(ttl int) Hop {
	return Hop{TTL: ttl, Addr: targetAddr.String(), Responded: true, Reached: true}
}

var ignoreLatency = cmpopts.IgnoreFields(Hop{}, "Latency")

func TestHopper_run(t *testing.T) {
	unrelated := [][]byte{
		echoReplyPacket(t, targetAddr, testID+1, 1),
		timeExceededPacket(t, router(9), 0, echoRequestPacket(t, targetAddr, testID+1, 2)),
		destUnreachablePacket(t, router(9), echoRequestPacket(t, targetAddr, testID, 2)),
		{0x45, 0x00, 0x00},
	}

	tests := []struct {
		name      string
		startTTL  int
		maxTTL    int
		routers   map[int]netip.Addr
		destTTL   int
		noise     [][]byte
		wantHops  []Hop
		wantState State
	}{
		{
			name:      "destination is the first hop probed",
			startTTL:  2,
			maxTTL:    DefaultMaxTTL,
			destTTL:   2,
			wantHops:  []Hop{reached(2)},
			wantState: StateDone,
		},
		{
			name:     "three routers before the destination",
			startTTL: 2,
			maxTTL:   DefaultMaxTTL,
			routers:  map[int]netip.Addr{2: router(2), 3: router(3), 4: router(4)},
			destTTL:  5,
			wantHops: []Hop{
				responded(2, router(2)),
				responded(3, router(3)),
				responded(4, router(4)),
				reached(5),
			},
			wantState: StateDone,
		},
		{
			name:     "silent router",
			startTTL: 1,
			maxTTL:   DefaultMaxTTL,
			routers:  map[int]netip.Addr{1: router(1)},
			destTTL:  3,
			wantHops: []Hop{
				responded(1, router(1)),
				{TTL: 2},
				reached(3),
			},
			wantState: StateDone,
		},
		{
			name:     "destination never answers",
			startTTL: 1,
			maxTTL:   3,
			routers:  map[int]netip.Addr{1: router(1), 2: router(2), 3: router(3)},
			wantHops: []Hop{
				responded(1, router(1)),
				responded(2, router(2)),
				responded(3, router(3)),
			},
			wantState: StateExhausted,
		},
		{
			name:     "unrelated traffic is ignored",
			startTTL: 2,
			maxTTL:   DefaultMaxTTL,
			routers:  map[int]netip.Addr{2: router(2), 3: router(3), 4: router(4)},
			destTTL:  5,
			noise:    unrelated,
			wantHops: []Hop{
				responded(2, router(2)),
				responded(3, router(3)),
				responded(4, router(4)),
				reached(5),
			},
			wantState: StateDone,
		},
		{
			name:      "start equals max",
			startTTL:  4,
			maxTTL:    4,
			wantHops:  []Hop{{TTL: 4}},
			wantState: StateExhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nw := &fakeNetwork{t: t, routers: tt.routers, destTTL: tt.destTTL, noise: tt.noise}
			opts := testOptions()
			opts.StartTTL, opts.MaxTTL = tt.startTTL, tt.maxTTL

			h := newTestHopper(t, nw, opts)
			var reported []Hop
			h.report = func(hop Hop) { reported = append(reported, hop) }

			hops, state, err := h.run(t.Context())
			require.NoError(t, err)

			assert.Equal(t, tt.wantState, state)
			if diff := cmp.Diff(tt.wantHops, hops, ignoreLatency); diff != "" {
				t.Errorf("hops mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(hops, reported); diff != "" {
				t.Errorf("reported hops differ from returned hops (-returned +reported):\n%s", diff)
			}

			wantSent := make([]int, 0, len(tt.wantHops))
			for _, hop := range tt.wantHops {
				wantSent = append(wantSent, hop.TTL)
			}
			assert.Equal(t, wantSent, nw.sent, "one probe per ttl in ascending order")
			for _, hop := range hops {
				assert.GreaterOrEqual(t, hop.Latency, time.Duration(0))
			}
		})
	}
}

func TestHopper_run_output(t *testing.T) {
	nw := &fakeNetwork{t: t, routers: map[int]netip.Addr{1: router(1)}, destTTL: 3}
	h := newTestHopper(t, nw, testOptions())

	hops, _, err := h.run(t.Context())
	require.NoError(t, err)

	var lines []string
	for _, hop := range hops {
		lines = append(lines, hop.String())
	}
	assert.Equal(t, []string{
		"1\t10.0.0.1",
		"2\tNo response with TTL of 2",
		"3\t198.51.100.7\t(Destination Reached)",
	}, lines)
}

func TestHopper_run_resolveNames(t *testing.T) {
	nw := &fakeNetwork{t: t, routers: map[int]netip.Addr{1: router(1)}, destTTL: 3}
	opts := testOptions()
	opts.ResolveNames = true

	h := newTestHopper(t, nw, opts)
	var lookups []netip.Addr
	h.lookupName = func(addr netip.Addr) string {
		lookups = append(lookups, addr)
		if addr == router(1) {
			return "gw.example.net."
		}
		return ""
	}

	hops, state, err := h.run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, StateDone, state)
	require.Len(t, hops, 3)

	assert.Equal(t, "gw.example.net.", hops[0].Name)
	assert.Equal(t, "1\tgw.example.net. (10.0.0.1)", hops[0].String())
	assert.Empty(t, hops[1].Name, "silent hops are never looked up")
	assert.Equal(t, []netip.Addr{router(1), targetAddr}, lookups)
}

func TestHopper_await_rearmsWithRemainingBudget(t *testing.T) {
	noise := echoReplyPacket(t, targetAddr, testID+1, 1)
	sock := &socketMock{
		WaitReadableFunc: func(time.Duration) (bool, error) { return true, nil },
		RecvFunc: func(b []byte) (int, netip.Addr, error) {
			time.Sleep(time.Millisecond)
			return copy(b, noise), targetAddr, nil
		},
		SendFunc: func(b []byte, _ netip.Addr) (int, error) { return len(b), nil },
	}
	opts := testOptions()
	opts.MaxTTL = 1

	h := newTestHopper(t, sock, opts)
	start := time.Now()
	hops, state, err := h.run(t.Context())
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Equal(t, StateExhausted, state)
	if diff := cmp.Diff([]Hop{{TTL: 1}}, hops, ignoreLatency); diff != "" {
		t.Errorf("hops mismatch (-want +got):\n%s", diff)
	}
	// The last sub-millisecond of the budget cannot be polled.
	assert.GreaterOrEqual(t, elapsed, opts.Timeout-time.Millisecond, "a stream of unrelated packets must not end the wait early")
	assert.GreaterOrEqual(t, hops[0].Latency, opts.Timeout-time.Millisecond)

	waits := sock.WaitReadableCalls()
	require.Greater(t, len(waits), 1, "the wait must be re-armed after every unrelated packet")
	for i, w := range waits {
		assert.LessOrEqual(t, w.Timeout, opts.Timeout, "wait %d exceeds the hop timeout", i)
		if i > 0 {
			assert.LessOrEqual(t, w.Timeout, waits[i-1].Timeout, "wait %d is longer than its predecessor", i)
		}
	}
}

func TestHopper_await_subMillisecondBudget(t *testing.T) {
	sock := &socketMock{
		WaitReadableFunc: func(time.Duration) (bool, error) { return false, nil },
	}
	h := newTestHopper(t, sock, testOptions())

	_, ok, err := h.await(t.Context(), 1, time.Now().Add(500*time.Microsecond))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, sock.WaitReadableCalls(), "a budget below one millisecond must not be polled")
}

func TestHopper_await_pollIntervalCapped(t *testing.T) {
	nw := &fakeNetwork{t: t}
	opts := testOptions()
	opts.MaxTTL = 1
	opts.Timeout = maxPollInterval + 50*time.Millisecond

	h := newTestHopper(t, nw, opts)
	_, _, err := h.run(t.Context())
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(nw.waits), 2)
	for _, w := range nw.waits {
		assert.LessOrEqual(t, w, maxPollInterval)
	}
}

func TestHopper_run_fatalErrors(t *testing.T) {
	errNetwork := errors.New("network is unreachable")

	tests := []struct {
		name    string
		sock    *socketMock
		wantErr error
	}{
		{
			name: "send fails",
			sock: &socketMock{
				SendFunc: func([]byte, netip.Addr) (int, error) { return 0, errNetwork },
			},
			wantErr: errNetwork,
		},
		{
			name: "poll fails",
			sock: &socketMock{
				SendFunc:         func(b []byte, _ netip.Addr) (int, error) { return len(b), nil },
				WaitReadableFunc: func(time.Duration) (bool, error) { return false, errNetwork },
			},
			wantErr: errNetwork,
		},
		{
			name: "receive fails",
			sock: &socketMock{
				SendFunc:         func(b []byte, _ netip.Addr) (int, error) { return len(b), nil },
				WaitReadableFunc: func(time.Duration) (bool, error) { return true, nil },
				RecvFunc: func([]byte) (int, netip.Addr, error) {
					return 0, netip.Addr{}, errNetwork
				},
			},
			wantErr: errNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHopper(t, tt.sock, testOptions())
			var reported int
			h.report = func(Hop) { reported++ }

			hops, state, err := h.run(t.Context())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, hops)
			assert.Zero(t, state)
			assert.Zero(t, reported)
			assert.Len(t, tt.sock.SendCalls(), 1, "no further probes after a transport error")
		})
	}
}

func TestHopper_run_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	nw := &fakeNetwork{t: t, routers: map[int]netip.Addr{1: router(1)}}
	opts := testOptions()
	opts.MaxTTL = 5

	h := newTestHopper(t, nw, opts)
	h.report = func(Hop) { cancel() }

	hops, _, err := h.run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	if diff := cmp.Diff([]Hop{responded(1, router(1))}, hops, ignoreLatency); diff != "" {
		t.Errorf("hops mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{1, 2}, nw.sent)
}

func TestHopper_await_clampsReceivedLength(t *testing.T) {
	reply := echoReplyPacket(t, targetAddr, testID, 1)
	sock := &socketMock{
		SendFunc:         func(b []byte, _ netip.Addr) (int, error) { return len(b), nil },
		WaitReadableFunc: func(time.Duration) (bool, error) { return true, nil },
		RecvFunc: func(b []byte) (int, netip.Addr, error) {
			copy(b, reply)
			// A misbehaving socket claims more bytes than the buffer holds.
			return len(b) + 100, targetAddr, nil
		},
	}
	opts := testOptions()
	opts.MaxTTL = 1

	h := newTestHopper(t, sock, opts)
	assert.NotPanics(t, func() {
		hops, state, err := h.run(t.Context())
		require.NoError(t, err)
		assert.Equal(t, StateDone, state)
		assert.Len(t, hops, 1)
	})
}
