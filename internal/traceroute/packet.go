// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"
)

const (
	// icmpHeaderLen is the length of an ICMP echo header.
	icmpHeaderLen = 8
	// minPacketSize is an IP header plus an ICMP header without payload.
	minPacketSize = ipv4.HeaderLen + icmpHeaderLen
	// maxPacketSize is the largest value of the IPv4 total length field.
	maxPacketSize = 0xffff
	// payloadFill is the byte the probe payload is padded with.
	payloadFill = 'S'
	// protocolICMP is the IANA protocol number of ICMP.
	protocolICMP = 1
)

// HeaderMode selects who completes the IP header of a probe.
type HeaderMode int

const (
	// HeaderKernel leaves identification and checksum zero so that the kernel
	// fills them in. This is what an IPPROTO_RAW socket on Linux does.
	HeaderKernel HeaderMode = iota
	// HeaderSelf fills identification and checksum in user space.
	HeaderSelf
)

func (m HeaderMode) String() string {
	switch m {
	case HeaderKernel:
		return "kernel"
	case HeaderSelf:
		return "self"
	default:
		return fmt.Sprintf("HeaderMode(%d)", int(m))
	}
}

// ParseHeaderMode returns the [HeaderMode] named s.
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch s {
	case "", "kernel":
		return HeaderKernel, nil
	case "self":
		return HeaderSelf, nil
	default:
		return 0, fmt.Errorf("unknown header mode %q, must be kernel or self", s)
	}
}

// probeBuilder owns the outbound buffer of a run and rewrites it for every TTL.
type probeBuilder struct {
	id   uint16
	dst  netip.Addr
	mode HeaderMode
	buf  []byte
}

// newProbeBuilder allocates a probe buffer of size bytes and pads its payload.
func newProbeBuilder(id uint16, dst netip.Addr, size int, mode HeaderMode) (*probeBuilder, error) {
	if !dst.Is4() {
		return nil, fmt.Errorf("%w: %s", ErrNoIPv4Address, dst)
	}
	if size < minPacketSize || size > maxPacketSize {
		return nil, fmt.Errorf("packet size %d out of range [%d, %d]", size, minPacketSize, maxPacketSize)
	}

	buf := make([]byte, size)
	for i := minPacketSize; i < size; i++ {
		buf[i] = payloadFill
	}
	return &probeBuilder{id: id, dst: dst, mode: mode, buf: buf}, nil
}

// build fills both headers for ttl and returns the probe.
// The returned slice is reused by the next call.
func (b *probeBuilder) build(ttl int) ([]byte, error) {
	if err := fillIPHeader(b.buf, b.dst, ttl, b.id, b.mode); err != nil {
		return nil, err
	}
	fillICMPHeader(b.buf[ipv4.HeaderLen:], b.id, uint16(ttl)) // #nosec G115 // ttl is validated to fit
	return b.buf, nil
}

// fillIPHeader writes a 20 byte IPv4 header for a packet of len(pkt) bytes.
func fillIPHeader(pkt []byte, dst netip.Addr, ttl int, id uint16, mode HeaderMode) error {
	if len(pkt) < ipv4.HeaderLen {
		return fmt.Errorf("packet of %d bytes cannot hold an IP header", len(pkt))
	}

	h := &ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4.HeaderLen,
		TotalLen: len(pkt),
		TTL:      ttl,
		Protocol: protocolICMP,
		Dst:      net.IP(dst.AsSlice()),
	}
	if mode == HeaderSelf {
		h.ID = int(id)
	}

	raw, err := h.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal IP header: %w", err)
	}
	copy(pkt, raw)

	if mode == HeaderSelf {
		binary.BigEndian.PutUint16(pkt[10:12], 0)
		binary.BigEndian.PutUint16(pkt[10:12], Checksum(pkt[:ipv4.HeaderLen]))
	}
	return nil
}

// fillICMPHeader writes an Echo Request header at the start of msg and
// checksums it together with the payload that follows.
func fillICMPHeader(msg []byte, id, seq uint16) {
	msg[0] = byte(ipv4.ICMPTypeEcho)
	msg[1] = 0
	binary.BigEndian.PutUint16(msg[2:4], 0)
	binary.BigEndian.PutUint16(msg[4:6], id)
	binary.BigEndian.PutUint16(msg[6:8], seq)
	binary.BigEndian.PutUint16(msg[2:4], Checksum(msg))
}
