// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package output renders traceroute runs for the command line.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/telekom/hoptrace/internal/traceroute"
	"gopkg.in/yaml.v3"
)

// Format is the output format of the trace command
type Format string

const (
	// Text streams one line per hop while probing
	Text Format = "text"
	// JSON prints the final result as indented JSON
	JSON Format = "json"
	// YAML prints the final result as YAML
	YAML Format = "yaml"
)

// ParseFormat returns the format named s
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case Text, JSON, YAML:
		return f, nil
	case "":
		return Text, nil
	default:
		return "", fmt.Errorf("unknown output format %q, must be one of text, json, yaml", s)
	}
}

// Printer writes the progress and the result of a run
type Printer interface {
	// Header announces the run before the first probe
	Header(target string, addr string, opts traceroute.Options)
	// Hop is called for every hop as soon as it is known
	Hop(hop traceroute.Hop)
	// Result is called once with the final result
	Result(res *traceroute.Result) error
}

// New returns a printer writing results to out and progress
// that is not part of the result to info
func New(f Format, out, info io.Writer) Printer {
	switch f {
	case JSON:
		return &encoderPrinter{info: info, encode: func(v any) error {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}}
	case YAML:
		return &encoderPrinter{info: info, encode: func(v any) error {
			enc := yaml.NewEncoder(out)
			defer func() { _ = enc.Close() }()
			return enc.Encode(v)
		}}
	default:
		return &textPrinter{out: out, info: info}
	}
}

type textPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	info io.Writer
	// printed is the number of hops already written
	printed int
}

func (p *textPrinter) Header(target, addr string, opts traceroute.Options) {
	writeHeader(p.info, target, addr, opts)
}

func (p *textPrinter) Hop(hop traceroute.Hop) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.out, hop.String())
	p.printed++
}

// Result prints the hops that were not streamed.
func (p *textPrinter) Result(res *traceroute.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, hop := range res.Hops[min(p.printed, len(res.Hops)):] {
		if _, err := fmt.Fprintln(p.out, hop.String()); err != nil {
			return fmt.Errorf("failed to write hop: %w", err)
		}
	}
	p.printed = len(res.Hops)
	return nil
}

type encoderPrinter struct {
	info   io.Writer
	encode func(v any) error
}

func (p *encoderPrinter) Header(target, addr string, opts traceroute.Options) {
	writeHeader(p.info, target, addr, opts)
}

func (p *encoderPrinter) Hop(traceroute.Hop) {}

func (p *encoderPrinter) Result(res *traceroute.Result) error {
	if err := p.encode(res); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func writeHeader(w io.Writer, target, addr string, opts traceroute.Options) {
	if w == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "traceroute to %s (%s), %d hops max, %d byte packets\n", target, addr, opts.MaxTTL, opts.PacketSize)
}
