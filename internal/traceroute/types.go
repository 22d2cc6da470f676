// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/telekom/hoptrace/internal/helper"
)

// Default values of [Options].
const (
	DefaultStartTTL          = 1
	DefaultMaxTTL            = 30
	DefaultTimeout           = 3 * time.Second
	DefaultPacketSize        = 64
	DefaultReceiveBufferSize = 1000
)

// Options contains the configuration of a single traceroute run.
type Options struct {
	// StartTTL is the TTL of the first probe.
	StartTTL int `json:"startTTL" yaml:"startTTL" mapstructure:"startTTL"`
	// MaxTTL is the highest TTL probed before the run gives up.
	MaxTTL int `json:"maxHops" yaml:"maxHops" mapstructure:"maxHops"`
	// Timeout is how long to wait for a response to each probe.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// PacketSize is the total size of a probe including the IP header.
	PacketSize int `json:"packetSize" yaml:"packetSize" mapstructure:"packetSize"`
	// ReceiveBufferSize is the capacity of the buffer inbound packets are read into.
	ReceiveBufferSize int `json:"receiveBufferSize" yaml:"receiveBufferSize" mapstructure:"receiveBufferSize"`
	// ResolveNames enables reverse DNS lookups of responding hops.
	ResolveNames bool `json:"resolveNames" yaml:"resolveNames" mapstructure:"resolveNames"`
	// Retry is the retry configuration for resolving the target.
	Retry helper.RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

// DefaultOptions returns the options used when nothing else is configured.
func DefaultOptions() Options {
	return Options{
		StartTTL:          DefaultStartTTL,
		MaxTTL:            DefaultMaxTTL,
		Timeout:           DefaultTimeout,
		PacketSize:        DefaultPacketSize,
		ReceiveBufferSize: DefaultReceiveBufferSize,
		Retry:             helper.RetryConfig{Count: 2, Delay: 100 * time.Millisecond},
	}
}

// minReceiveBufferSize fits an outer IP and ICMP header plus the quoted IP and ICMP headers.
const minReceiveBufferSize = 2 * minPacketSize

// maxTTL is the largest value the IPv4 TTL field can hold.
const maxTTL = 255

func (o *Options) Validate() error {
	var err error
	if o.StartTTL < 1 || o.StartTTL > maxTTL {
		err = errors.Join(err, fmt.Errorf("start ttl %d must be between 1 and %d", o.StartTTL, maxTTL))
	}
	if o.MaxTTL < o.StartTTL || o.MaxTTL > maxTTL {
		err = errors.Join(err, fmt.Errorf("max ttl %d must be between the start ttl %d and %d", o.MaxTTL, o.StartTTL, maxTTL))
	}
	if o.Timeout <= 0 {
		err = errors.Join(err, fmt.Errorf("timeout %s must be greater than 0", o.Timeout))
	}
	if o.PacketSize < minPacketSize || o.PacketSize > maxPacketSize {
		err = errors.Join(err, fmt.Errorf("packet size %d must be between %d and %d", o.PacketSize, minPacketSize, maxPacketSize))
	}
	if o.ReceiveBufferSize < minReceiveBufferSize {
		err = errors.Join(err, fmt.Errorf("receive buffer size %d must be at least %d", o.ReceiveBufferSize, minReceiveBufferSize))
	}
	if o.Retry.Count < 0 {
		err = errors.Join(err, fmt.Errorf("retry count %d must not be negative", o.Retry.Count))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

// Target represents a target for the traceroute.
type Target struct {
	// Address is the hostname or IPv4 address to trace to.
	Address string `json:"address" yaml:"address" mapstructure:"address"`
}

func (t Target) String() string {
	return t.Address
}

func (t Target) Validate() error {
	if t.Address == "" {
		return errors.New("target address cannot be empty")
	}
	if ip, err := netip.ParseAddr(t.Address); err == nil && !ip.Unmap().Is4() {
		return fmt.Errorf("%w: %s", ErrNoIPv4Address, t.Address)
	}
	return nil
}

// Resolve returns the IPv4 address of the target.
// Temporary resolver failures are retried as configured by rc.
func (t Target) Resolve(ctx context.Context, rc helper.RetryConfig) (netip.Addr, error) {
	if ip, err := netip.ParseAddr(t.Address); err == nil {
		if ip = ip.Unmap(); !ip.Is4() {
			return netip.Addr{}, fmt.Errorf("%w: %s", ErrNoIPv4Address, t.Address)
		}
		return ip, nil
	}

	var addrs []netip.Addr
	lookup := helper.RetryIf(func(ctx context.Context) (err error) {
		addrs, err = net.DefaultResolver.LookupNetIP(ctx, "ip4", t.Address)
		return err
	}, rc, isTemporaryDNSError)

	if err := lookup(ctx); err != nil {
		return netip.Addr{}, fmt.Errorf("failed to resolve %s: %w", t.Address, err)
	}
	for _, a := range addrs {
		if a = a.Unmap(); a.Is4() {
			return a, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("%w: %s", ErrNoIPv4Address, t.Address)
}

// Hop is the outcome of probing a single TTL.
type Hop struct {
	// Latency is the time between sending the probe and receiving the matching response.
	Latency time.Duration `json:"-" yaml:"latency"`
	// Addr is the address of the responder, empty if nobody responded.
	Addr string `json:"addr" yaml:"addr"`
	// Name is the reverse DNS name of the responder, if resolved.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	TTL  int    `json:"ttl" yaml:"ttl"`
	// Responded reports whether a matching response arrived before the timeout.
	Responded bool `json:"responded" yaml:"responded"`
	// Reached reports whether the responder was the destination itself.
	Reached bool `json:"reached" yaml:"reached"`
}

func (h Hop) MarshalJSON() ([]byte, error) {
	type alias Hop
	return json.Marshal(&struct {
		Latency string `json:"latency"`
		alias
	}{
		Latency: h.Latency.String(),
		alias:   alias(h),
	})
}

// String renders the hop as one line of traceroute output.
func (h Hop) String() string {
	if !h.Responded {
		return fmt.Sprintf("%d\tNo response with TTL of %d", h.TTL, h.TTL)
	}

	responder := h.Addr
	if h.Name != "" {
		responder = fmt.Sprintf("%s (%s)", h.Name, h.Addr)
	}
	if h.Reached {
		return fmt.Sprintf("%d\t%s\t(Destination Reached)", h.TTL, responder)
	}
	return fmt.Sprintf("%d\t%s", h.TTL, responder)
}

// State is the terminal state of a traceroute run.
type State int

const (
	// StateDone means the destination answered.
	StateDone State = iota + 1
	// StateExhausted means the max TTL was probed without reaching the destination.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateDone:
		return "done"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "done":
		*s = StateDone
	case "exhausted":
		*s = StateExhausted
	default:
		return fmt.Errorf("unknown state %q", b)
	}
	return nil
}

// Result is the outcome of a traceroute run.
type Result struct {
	// ID identifies the run in logs, traces and reports.
	ID uuid.UUID `json:"id" yaml:"id"`
	// Target is the address the run was started for.
	Target string `json:"target" yaml:"target"`
	// Addr is the resolved IPv4 address of the target.
	Addr string `json:"addr" yaml:"addr"`
	// Hops holds one entry per probed TTL in ascending order.
	Hops []Hop `json:"hops" yaml:"hops"`
	// State is how the run ended.
	State State `json:"state" yaml:"state"`
	// Started is when the first probe was sent.
	Started time.Time `json:"started" yaml:"started"`
	// Duration is the wall time of the whole run.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Reached reports whether the destination answered.
func (r *Result) Reached() bool {
	return r.State == StateDone
}
