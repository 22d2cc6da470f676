// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"math/rand/v2"
	"net/netip"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"golang.org/x/net/ipv4"
)

func TestClassify(t *testing.T) {
	const (
		id  uint16 = 0x1234
		seq uint16 = 5
	)
	router := netip.MustParseAddr("203.0.113.1")
	probe := echoRequestPacket(t, targetAddr, id, seq)

	withOptions := func(pkt []byte) []byte {
		// Grow the outer header to 24 bytes with a NOP option word.
		out := make([]byte, 0, len(pkt)+4)
		out = append(out, pkt[:ipv4.HeaderLen]...)
		out = append(out, 0x01, 0x01, 0x01, 0x00)
		out = append(out, pkt[ipv4.HeaderLen:]...)
		out[0] = 0x46
		return out
	}

	tests := []struct {
		name string
		pkt  []byte
		dst  netip.Addr
		want classification
	}{
		{
			name: "echo reply for our probe",
			pkt:  echoReplyPacket(t, targetAddr, id, seq),
			dst:  targetAddr,
			want: classification{matches: true, reachedDestination: true},
		},
		{
			name: "echo reply with other id",
			pkt:  echoReplyPacket(t, targetAddr, id+1, seq),
			dst:  targetAddr,
		},
		{
			name: "echo reply for an earlier hop",
			pkt:  echoReplyPacket(t, targetAddr, id, seq-1),
			dst:  targetAddr,
		},
		{
			name: "time exceeded quoting our probe",
			pkt:  timeExceededPacket(t, router, 0, probe),
			dst:  targetAddr,
			want: classification{matches: true},
		},
		{
			name: "time exceeded quoting our probe, destination unknown",
			pkt:  timeExceededPacket(t, router, 0, probe),
			dst:  netip.Addr{},
			want: classification{matches: true},
		},
		{
			name: "time exceeded with outer header options",
			pkt:  withOptions(timeExceededPacket(t, router, 0, probe)),
			dst:  targetAddr,
			want: classification{matches: true},
		},
		{
			name: "time exceeded quoting another id",
			pkt:  timeExceededPacket(t, router, 0, echoRequestPacket(t, targetAddr, id+1, seq)),
			dst:  targetAddr,
		},
		{
			name: "time exceeded quoting another sequence",
			pkt:  timeExceededPacket(t, router, 0, echoRequestPacket(t, targetAddr, id, seq+1)),
			dst:  targetAddr,
		},
		{
			name: "time exceeded quoting a probe to another destination",
			pkt:  timeExceededPacket(t, router, 0, echoRequestPacket(t, netip.MustParseAddr("192.0.2.99"), id, seq)),
			dst:  targetAddr,
		},
		{
			name: "fragment reassembly time exceeded",
			pkt:  timeExceededPacket(t, router, 1, probe),
			dst:  targetAddr,
		},
		{
			name: "time exceeded quoting an echo reply",
			pkt:  timeExceededPacket(t, router, 0, echoReplyPacket(t, targetAddr, id, seq)[:minPacketSize]),
			dst:  netip.Addr{},
		},
		{
			name: "destination unreachable quoting our probe",
			pkt:  destUnreachablePacket(t, router, probe),
			dst:  targetAddr,
		},
		{
			name: "our own echo request looped back",
			pkt:  echoRequestPacket(t, targetAddr, id, seq),
			dst:  targetAddr,
		},
		{
			name: "time exceeded with quoted icmp header cut short",
			pkt:  timeExceededPacket(t, router, 0, probe[:ipv4.HeaderLen+4]),
			dst:  targetAddr,
		},
		{
			name: "time exceeded with quoted ip header cut short",
			pkt:  timeExceededPacket(t, router, 0, probe[:ipv4.HeaderLen-1]),
			dst:  targetAddr,
		},
		{
			name: "time exceeded without quote",
			pkt:  timeExceededPacket(t, router, 0, nil),
			dst:  targetAddr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.pkt, id, seq, tt.dst))
		})
	}
}

func TestClassify_malformed(t *testing.T) {
	const (
		id  uint16 = 7
		seq uint16 = 3
	)
	reply := echoReplyPacket(t, targetAddr, id, seq)
	exceeded := timeExceededPacket(t, netip.MustParseAddr("203.0.113.1"), 0, echoRequestPacket(t, targetAddr, id, seq))

	mutate := func(pkt []byte, fn func([]byte)) []byte {
		out := append([]byte(nil), pkt...)
		fn(out)
		return out
	}

	tests := []struct {
		name string
		pkt  []byte
	}{
		{name: "nil", pkt: nil},
		{name: "empty", pkt: []byte{}},
		{name: "shorter than an ip header", pkt: reply[:ipv4.HeaderLen-1]},
		{name: "ip header only", pkt: reply[:ipv4.HeaderLen]},
		{name: "truncated icmp header", pkt: reply[:ipv4.HeaderLen+icmpHeaderLen-1]},
		{name: "ihl beyond buffer", pkt: mutate(reply, func(b []byte) { b[0] = 0x4f })},
		{name: "ihl below minimum", pkt: mutate(reply, func(b []byte) { b[0] = 0x44 })},
		{name: "ipv6 version nibble", pkt: mutate(reply, func(b []byte) { b[0] = 0x65 })},
		{name: "quoted ihl beyond buffer", pkt: mutate(exceeded, func(b []byte) { b[28] = 0x4f })},
		{name: "quoted ihl below minimum", pkt: mutate(exceeded, func(b []byte) { b[28] = 0x40 })},
		{name: "quoted header truncated", pkt: exceeded[:len(exceeded)-1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, classification{}, classify(tt.pkt, id, seq, targetAddr))
			})
		})
	}
}

func TestClassify_neverReadsPastBuffer(t *testing.T) {
	const (
		id  uint16 = 99
		seq uint16 = 9
	)
	full := timeExceededPacket(t, netip.MustParseAddr("203.0.113.1"), 0, echoRequestPacket(t, targetAddr, id, seq))

	// Every prefix shorter than the complete message must be rejected,
	// and capacity beyond the length must never be looked at.
	for n := range len(full) {
		assert.Equal(t, classification{}, classify(full[:n:n], id, seq, targetAddr), "prefix of %d bytes", n)
	}
	assert.Equal(t, classification{matches: true}, classify(full, id, seq, targetAddr))
}

func TestClassify_randomBytes(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11)) // #nosec G404 // deterministic test data
	buf := make([]byte, DefaultReceiveBufferSize)
	for range 2000 {
		n := rng.IntN(len(buf))
		for i := range n {
			buf[i] = byte(rng.UintN(256))
		}
		if n > 0 {
			// Keep most packets plausible IPv4 so the deeper checks are exercised.
			buf[0] = 0x40 | buf[0]&0x0f
		}
		if n > ipv4.HeaderLen {
			buf[ipv4.HeaderLen] = byte(layers.ICMPv4TypeTimeExceeded)
		}
		assert.NotPanics(t, func() { classify(buf[:n:n], 1, 1, targetAddr) })
	}
}
