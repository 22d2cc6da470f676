// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"encoding/binary"
	"net/netip"

	"golang.org/x/net/ipv4"
)

// icmpCodeTTLExceeded is the Time Exceeded code for "TTL exceeded in transit".
// For more information, see:
// https://www.iana.org/assignments/icmp-parameters/icmp-parameters.xhtml#icmp-parameters-codes-11
const icmpCodeTTLExceeded = 0

// classification is the verdict on a packet read from the receive socket.
type classification struct {
	// matches is true if the packet answers the probe currently in flight.
	matches bool
	// reachedDestination is true if the destination itself answered.
	reachedDestination bool
}

// classify decides whether pkt, a full IPv4 packet read from a raw ICMP socket,
// answers the probe identified by id and seq.
//
// The socket sees every ICMP packet delivered to the host, so pkt is untrusted:
// every header is bounds-checked before any field of it is read.
// If dst is valid, a quoted probe must also have been addressed to dst.
func classify(pkt []byte, id, seq uint16, dst netip.Addr) classification {
	msg, ok := ipPayload(pkt)
	if !ok || len(msg) < icmpHeaderLen {
		return classification{}
	}

	switch ipv4.ICMPType(msg[0]) {
	case ipv4.ICMPTypeEchoReply:
		if echoMatches(msg, id, seq) {
			return classification{matches: true, reachedDestination: true}
		}
	case ipv4.ICMPTypeTimeExceeded:
		if msg[1] != icmpCodeTTLExceeded {
			return classification{}
		}
		quoted := msg[icmpHeaderLen:]
		inner, ok := ipPayload(quoted)
		if !ok || len(inner) < icmpHeaderLen {
			return classification{}
		}
		if dst.IsValid() && netip.AddrFrom4([4]byte(quoted[16:20])) != dst {
			return classification{}
		}
		if ipv4.ICMPType(inner[0]) == ipv4.ICMPTypeEcho && echoMatches(inner, id, seq) {
			return classification{matches: true}
		}
	}
	return classification{}
}

// ipPayload returns the bytes following the IPv4 header at the start of b.
// It reports false if b is too short for the header it declares.
func ipPayload(b []byte) ([]byte, bool) {
	if len(b) < ipv4.HeaderLen {
		return nil, false
	}
	if b[0]>>4 != ipv4.Version {
		return nil, false
	}
	hdrLen := int(b[0]&0x0f) * 4
	if hdrLen < ipv4.HeaderLen || hdrLen > len(b) {
		return nil, false
	}
	return b[hdrLen:], true
}

// echoMatches compares the identifier and sequence number of an echo header.
// msg must hold at least icmpHeaderLen bytes.
func echoMatches(msg []byte, id, seq uint16) bool {
	return binary.BigEndian.Uint16(msg[4:6]) == id &&
		binary.BigEndian.Uint16(msg[6:8]) == seq
}
