package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/huntgraph/finding"
	"github.com/zero-day-ai/huntgraph/graph"
)

func TestNew_RegistersWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveCache(true)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["huntgraph_cache_hits_total"])
}

func TestNew_NilRegistryIsIsolated(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil)
		New(nil)
	})
}

func TestObserveGraph(t *testing.T) {
	m := New(nil)
	g := graph.Build([]finding.Finding{{
		ID:            "f1",
		Title:         "X",
		Severity:      finding.SeverityHigh,
		AffectedHosts: []string{"h1", "h2"},
		Details:       finding.Details{finding.DetailUser: "alice"},
	}})

	m.ObserveGraph("http", 1, g, 0.002)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GraphsBuilt.WithLabelValues("http")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FindingsProcessed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodesEmitted.WithLabelValues("host")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodesEmitted.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodesEmitted.WithLabelValues("finding")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EdgesEmitted))
}

func TestCountersAndNilReceiver(t *testing.T) {
	m := New(nil)
	m.IncrementInvalid("nats")
	m.ObserveCache(false)
	m.ObserveJob(false)
	m.ObserveJob(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvalidInputs.WithLabelValues("nats")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.JobsProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsFailed))

	var none *Metrics
	assert.NotPanics(t, func() {
		none.ObserveCache(true)
		none.ObserveJob(true)
		none.IncrementInvalid("http")
		none.ObserveGraph("job", 0, graph.Graph{}, 0)
	})
}
