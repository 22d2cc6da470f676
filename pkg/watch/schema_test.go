// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/hoptrace/internal/traceroute"
)

func TestSchema(t *testing.T) {
	ref, err := Schema()
	require.NoError(t, err)
	require.NotNil(t, ref.Value)

	props := ref.Value.Properties
	for _, name := range []string{"id", "target", "addr", "hops", "state", "started", "duration"} {
		assert.Contains(t, props, name)
	}
	assert.Equal(t, "uuid", props["id"].Value.Format)
	assert.Equal(t, []any{"done", "exhausted"}, props["state"].Value.Enum)

	hop := props["hops"].Value.Items.Value
	for _, name := range []string{"latency", "addr", "ttl", "responded", "reached"} {
		assert.Contains(t, hop.Properties, name)
	}

	t.Run("a marshaled result satisfies the schema", func(t *testing.T) {
		res := traceroute.Result{
			ID:      uuid.New(),
			Target:  "example.net",
			Addr:    "198.51.100.7",
			State:   traceroute.StateDone,
			Started: time.Now().UTC(),
			Hops:    []traceroute.Hop{{TTL: 1, Addr: "198.51.100.7", Responded: true, Reached: true, Latency: time.Millisecond}},
		}
		b, err := json.Marshal(res)
		require.NoError(t, err)

		var v any
		require.NoError(t, json.Unmarshal(b, &v))
		assert.NoError(t, ref.Value.VisitJSON(v))
	})
}
