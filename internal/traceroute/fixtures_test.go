// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"net"
	"net/netip"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"
)

var (
	localAddr  = netip.MustParseAddr("192.0.2.10")
	targetAddr = netip.MustParseAddr("198.51.100.7")
)

// serialize encodes the given layers with gopacket, computing lengths and checksums.
func serialize(t testing.TB, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ls...))
	return buf.Bytes()
}

func ipLayer(src, dst netip.Addr, ttl uint8) *layers.IPv4 {
	return &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      ttl,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    net.IP(src.AsSlice()),
		DstIP:    net.IP(dst.AsSlice()),
	}
}

// echoRequestPacket is a probe as it left this host, truncated to what routers quote.
func echoRequestPacket(t testing.TB, dst netip.Addr, id, seq uint16) []byte {
	t.Helper()
	pkt := serialize(t,
		ipLayer(localAddr, dst, 1),
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0), Id: id, Seq: seq},
		gopacket.Payload([]byte("SSSSSSSS")),
	)
	return pkt[:minPacketSize]
}

// echoReplyPacket is the destination's answer to a probe.
func echoReplyPacket(t testing.TB, from netip.Addr, id, seq uint16) []byte {
	t.Helper()
	return serialize(t,
		ipLayer(from, localAddr, 64),
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoReply, 0), Id: id, Seq: seq},
		gopacket.Payload([]byte("SSSSSSSS")),
	)
}

// timeExceededPacket is a router's Time Exceeded message quoting the given packet.
func timeExceededPacket(t testing.TB, router netip.Addr, code uint8, quoted []byte) []byte {
	t.Helper()
	return serialize(t,
		ipLayer(router, localAddr, 250),
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeTimeExceeded, code)},
		gopacket.Payload(quoted),
	)
}

// destUnreachablePacket is a Destination Unreachable message quoting the given packet.
func destUnreachablePacket(t testing.TB, router netip.Addr, quoted []byte) []byte {
	t.Helper()
	return serialize(t,
		ipLayer(router, localAddr, 250),
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeDestinationUnreachable, layers.ICMPv4CodeHost)},
		gopacket.Payload(quoted),
	)
}
