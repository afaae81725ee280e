// Package huntgraph builds attack path graphs from threat hunt findings.
//
// A hunt produces findings: detected observations with a severity, the
// hosts they touched and backend-specific details such as the user or
// process involved. huntgraph turns a list of findings into a graph of
// hosts, users, processes and findings that a visualization widget can
// render directly.
//
// # Packages
//
//   - finding: the Finding type, severities, details coercion, filtering
//   - graph: the pure graph builder (graph.Build) and its node/edge types
//   - pipeline: validation, filtering, caching, tracing and metrics around graph.Build
//   - cache: an LRU of built graphs keyed by a digest of the findings
//   - api: the HTTP API and the gRPC health service
//   - queue, worker: Redis-backed build jobs and the worker pool that runs them
//   - bus: a NATS subscriber that answers build requests
//   - discovery: etcd registration of running API servers and workers
//   - config, telemetry, metrics, health: the service plumbing
//
// # Getting Started
//
// Building a graph needs nothing but the findings:
//
//	g := graph.Build(findings)
//	fmt.Printf("%d nodes, %d edges\n", len(g.Nodes), len(g.Edges))
//
// The huntgraph binary (cmd/huntgraph) serves the same builder over HTTP,
// a Redis job queue and NATS.
//
// # Errors
//
// Boundary failures are reported as *Error values carrying the operation
// and an error kind; sentinels such as ErrInvalidInput work with errors.Is.
package huntgraph
