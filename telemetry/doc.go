// Package telemetry sets up the structured logger and the OpenTelemetry
// tracer provider used across huntgraph, and carries trace context through
// build jobs.
package telemetry
