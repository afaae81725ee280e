// Package pipeline runs the steps shared by every graph build entry point:
// validation, filtering, the cached build itself, tracing and metrics.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/huntgraph"
	"github.com/zero-day-ai/huntgraph/cache"
	"github.com/zero-day-ai/huntgraph/finding"
	"github.com/zero-day-ai/huntgraph/graph"
	"github.com/zero-day-ai/huntgraph/metrics"
	"github.com/zero-day-ai/huntgraph/telemetry"
)

// Sources label where a build request came from.
const (
	SourceHTTP = "http"
	SourceJob  = "job"
	SourceNATS = "nats"
	SourceCLI  = "cli"
)

// Builder builds graphs. Every field is optional; the zero value builds
// without caching, metrics or tracing.
type Builder struct {
	Cache   *cache.GraphCache
	Metrics *metrics.Metrics
	Tracer  trace.Tracer
	Logger  *slog.Logger
}

// Output is a built graph with the numbers callers report alongside it.
type Output struct {
	Graph    graph.Graph
	Stats    graph.Stats
	Findings int
	Cached   bool
}

// Build validates findings, applies filter (if non-nil) and builds the graph.
// Invalid findings yield a validation *huntgraph.Error matching
// huntgraph.ErrInvalidInput.
func (b *Builder) Build(ctx context.Context, source string, findings []finding.Finding, filter *finding.Filter) (Output, error) {
	tracer := b.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer(nil)
	}

	ctx, span := tracer.Start(ctx, "pipeline.Build", trace.WithAttributes(
		attribute.String("huntgraph.source", source),
		attribute.Int("huntgraph.findings.input", len(findings)),
	))
	defer span.End()

	err := finding.ValidateAll(findings)
	if err == nil && filter != nil {
		err = filter.Validate()
	}
	if err != nil {
		b.Metrics.IncrementInvalid(source)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid findings")
		return Output{}, huntgraph.NewValidationError("pipeline.Build", err)
	}

	if filter != nil && !filter.IsZero() {
		findings = filter.Apply(findings)
	}

	start := time.Now()
	g, hit := b.Cache.GetOrBuild(findings, graph.Build)
	elapsed := time.Since(start)

	if b.Cache.Enabled() {
		b.Metrics.ObserveCache(hit)
	}
	b.Metrics.ObserveGraph(source, len(findings), g, elapsed.Seconds())

	stats := g.Stats()
	span.SetAttributes(
		attribute.Int("huntgraph.findings.built", len(findings)),
		attribute.Int("huntgraph.nodes", stats.Nodes()),
		attribute.Int("huntgraph.edges", stats.Edges),
		attribute.Bool("huntgraph.cache_hit", hit),
	)

	if b.Logger != nil {
		b.Logger.DebugContext(ctx, "graph built",
			"source", source,
			"findings", len(findings),
			"nodes", stats.Nodes(),
			"edges", stats.Edges,
			"cache_hit", hit,
			"duration_ms", elapsed.Milliseconds(),
		)
	}

	return Output{
		Graph:    g,
		Stats:    stats,
		Findings: len(findings),
		Cached:   hit,
	}, nil
}
