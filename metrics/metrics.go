// Package metrics holds the Prometheus metrics of the huntgraph service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zero-day-ai/huntgraph/graph"
)

const namespace = "huntgraph"

// Metrics holds all the Prometheus metrics for the service.
type Metrics struct {
	GraphsBuilt       *prometheus.CounterVec
	FindingsProcessed prometheus.Counter
	NodesEmitted      *prometheus.CounterVec
	EdgesEmitted      prometheus.Counter
	InvalidInputs     *prometheus.CounterVec
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	JobsProcessed     prometheus.Counter
	JobsFailed        prometheus.Counter
	BuildDuration     prometheus.Histogram
}

// New registers the metrics with reg. A nil reg uses a fresh private
// registry, which keeps repeated construction in tests from colliding.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		GraphsBuilt: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphs_built_total",
			Help:      "Total number of graphs built, by source",
		}, []string{"source"}),
		FindingsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_processed_total",
			Help:      "Total number of findings turned into graphs",
		}),
		NodesEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_emitted_total",
			Help:      "Total number of graph nodes emitted, by kind",
		}, []string{"kind"}),
		EdgesEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_emitted_total",
			Help:      "Total number of graph edges emitted",
		}),
		InvalidInputs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_inputs_total",
			Help:      "Total number of rejected build requests, by source",
		}, []string{"source"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of graph cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of graph cache misses",
		}),
		JobsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Total number of queue jobs processed",
		}),
		JobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Total number of queue jobs that failed",
		}),
		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent building a graph",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
}

// ObserveGraph records a built graph. source is http, job or nats.
func (m *Metrics) ObserveGraph(source string, findings int, g graph.Graph, seconds float64) {
	if m == nil {
		return
	}
	s := g.Stats()
	m.GraphsBuilt.WithLabelValues(source).Inc()
	m.FindingsProcessed.Add(float64(findings))
	m.NodesEmitted.WithLabelValues(string(graph.KindHost)).Add(float64(s.Hosts))
	m.NodesEmitted.WithLabelValues(string(graph.KindUser)).Add(float64(s.Users))
	m.NodesEmitted.WithLabelValues(string(graph.KindProcess)).Add(float64(s.Processes))
	m.NodesEmitted.WithLabelValues(string(graph.KindFinding)).Add(float64(s.Findings))
	m.EdgesEmitted.Add(float64(s.Edges))
	m.BuildDuration.Observe(seconds)
}

// IncrementInvalid counts a rejected request from source.
func (m *Metrics) IncrementInvalid(source string) {
	if m == nil {
		return
	}
	m.InvalidInputs.WithLabelValues(source).Inc()
}

// ObserveCache counts a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// ObserveJob counts a processed queue job.
func (m *Metrics) ObserveJob(failed bool) {
	if m == nil {
		return
	}
	m.JobsProcessed.Inc()
	if failed {
		m.JobsFailed.Inc()
	}
}
