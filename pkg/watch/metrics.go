// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/telekom/hoptrace/internal/traceroute"
)

// statusFailed labels runs that were aborted by an error.
const statusFailed = "failed"

// metrics defines the metric collectors of the watcher
type metrics struct {
	hops     *prometheus.GaugeVec
	reached  *prometheus.GaugeVec
	rtt      *prometheus.HistogramVec
	timeouts *prometheus.CounterVec
	runs     *prometheus.CounterVec
}

// newMetrics initializes metric collectors of the watcher
func newMetrics() metrics {
	return metrics{
		hops: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hoptrace_hops",
				Help: "Number of hops probed by the last traceroute to the target.",
			},
			[]string{"target"},
		),
		reached: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hoptrace_reached",
				Help: "Specifies if the last traceroute reached the target.",
			},
			[]string{"target"},
		),
		rtt: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hoptrace_hop_rtt_seconds",
				Help:    "Round trip time of answered probes in seconds.",
				Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"target", "ttl"},
		),
		timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoptrace_hop_timeouts_total",
				Help: "Total number of probes nobody answered before the timeout.",
			},
			[]string{"target"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoptrace_runs_total",
				Help: "Total number of traceroute runs by how they ended.",
			},
			[]string{"target", "status"},
		),
	}
}

// GetCollectors returns all metric collectors
func (m *metrics) GetCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.hops,
		m.reached,
		m.rtt,
		m.timeouts,
		m.runs,
	}
}

// Set records the result of one run
func (m *metrics) Set(target string, res *traceroute.Result) {
	m.hops.WithLabelValues(target).Set(float64(len(res.Hops)))

	reached := 0.0
	if res.Reached() {
		reached = 1
	}
	m.reached.WithLabelValues(target).Set(reached)

	for _, hop := range res.Hops {
		if !hop.Responded {
			m.timeouts.WithLabelValues(target).Inc()
			continue
		}
		m.rtt.WithLabelValues(target, strconv.Itoa(hop.TTL)).Observe(hop.Latency.Seconds())
	}
	m.runs.WithLabelValues(target, res.State.String()).Inc()
}

// Failed records a run that was aborted
func (m *metrics) Failed(target string) {
	m.runs.WithLabelValues(target, statusFailed).Inc()
}
