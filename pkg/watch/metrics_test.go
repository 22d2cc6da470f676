// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/hoptrace/internal/traceroute"
)

func TestMetrics_Set(t *testing.T) {
	m := newMetrics()
	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(m.hops))
	registry.MustRegister(m.reached, m.rtt, m.timeouts, m.runs)

	m.Set("example.net", &traceroute.Result{
		State: traceroute.StateDone,
		Hops: []traceroute.Hop{
			{TTL: 1, Addr: "10.0.0.1", Responded: true, Latency: 2 * time.Millisecond},
			{TTL: 2},
			{TTL: 3},
			{TTL: 4, Addr: "198.51.100.7", Responded: true, Reached: true, Latency: 20 * time.Millisecond},
		},
	})
	m.Set("example.net", &traceroute.Result{
		State: traceroute.StateExhausted,
		Hops:  []traceroute.Hop{{TTL: 1}},
	})
	m.Failed("example.net")

	assert.InDelta(t, 1, testutil.ToFloat64(m.hops.WithLabelValues("example.net")), 0, "last run wins")
	assert.InDelta(t, 0, testutil.ToFloat64(m.reached.WithLabelValues("example.net")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.timeouts.WithLabelValues("example.net")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("example.net", "done")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("example.net", "exhausted")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("example.net", statusFailed)), 0)

	// One histogram series per answered ttl.
	assert.Equal(t, 2, testutil.CollectAndCount(m.rtt, "hoptrace_hop_rtt_seconds"))
}

func TestMetrics_GetCollectors(t *testing.T) {
	m := newMetrics()
	registry := prometheus.NewRegistry()
	for _, c := range m.GetCollectors() {
		assert.NoError(t, registry.Register(c))
	}
}
