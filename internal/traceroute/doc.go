// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package traceroute provides an ICMP Echo traceroute over raw IPv4 sockets.
//
// It exposes a [Client] for running a traceroute against a [Target] with
// configurable [Options]. A run sends one Echo Request per TTL, starting at
// [Options.StartTTL], with the TTL doubling as the ICMP sequence number and the
// process id as the ICMP identifier. Every ICMP packet the host receives is
// classified against that identity: a Time Exceeded message quoting the probe
// names the router at that TTL, an Echo Reply ends the run at the destination,
// and anything else is ignored while the per-hop timeout keeps running.
//
// Key features:
//   - Hand-built probes: IPv4 header on an IPPROTO_RAW socket (the kernel fills
//     identification and checksum) and a checksummed ICMP header
//   - Bounds-checked parsing of every nested header of untrusted packets
//   - Strictly sequential probing with a bounded wait per hop
//   - Built-in OpenTelemetry spans and events for the run and each hop
//   - Fully mockable internals (socket, Client) for unit testing
//
// Typical usage:
//
//	client := traceroute.NewClient(traceroute.WithHopHandler(func(h traceroute.Hop) { fmt.Println(h) }))
//	opts   := traceroute.DefaultOptions()
//	res, err := client.Run(ctx, traceroute.Target{Address: "8.8.8.8"}, &opts)
//
// Opening raw sockets requires root or the NET_RAW capability; without them
// [Client.Run] fails with [ErrPermission].
package traceroute
