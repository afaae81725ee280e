package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zero-day-ai/huntgraph/finding"
	"github.com/zero-day-ai/huntgraph/graph"
)

const keyPrefix = "huntgraph"

// QueueKey returns the list key for the named queue.
func QueueKey(name string) string {
	return formatKeyName(keyPrefix, name, "queue")
}

// HealthKey returns the heartbeat key for the named queue.
func HealthKey(name string) string {
	return formatKeyName(keyPrefix, name, "health")
}

// WorkersKey returns the worker counter key for the named queue.
func WorkersKey(name string) string {
	return formatKeyName(keyPrefix, name, "workers")
}

// ResultChannel returns the pub/sub channel a job's result is published on.
func ResultChannel(jobID string) string {
	return formatKeyName("results", jobID)
}

// Job is a request to build a graph, submitted to a queue.
type Job struct {
	// JobID is a UUID identifying the job and its result channel
	JobID string `json:"job_id"`

	// Findings are the hunt findings to build the graph from
	Findings []finding.Finding `json:"findings"`

	// Filter is applied to Findings before building, if set
	Filter *finding.Filter `json:"filter,omitempty"`

	// TraceID is the distributed tracing trace ID of the submitter
	TraceID string `json:"trace_id,omitempty"`

	// SpanID is the distributed tracing span ID of the submitter
	SpanID string `json:"span_id,omitempty"`

	// SubmittedAt is the Unix timestamp in milliseconds when the job was submitted
	SubmittedAt int64 `json:"submitted_at"`
}

// NewJob creates a job with a fresh ID, stamped with the current time.
// The findings are validated.
func NewJob(findings []finding.Finding, filter *finding.Filter) (*Job, error) {
	job := &Job{
		JobID:       uuid.New().String(),
		Findings:    findings,
		Filter:      filter,
		SubmittedAt: time.Now().UnixMilli(),
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// Validate checks the job envelope and every finding it carries.
func (j *Job) Validate() error {
	if j.JobID == "" {
		return fmt.Errorf("job_id is required")
	}
	if j.SubmittedAt <= 0 {
		return fmt.Errorf("submitted_at must be positive, got %d", j.SubmittedAt)
	}
	return finding.ValidateAll(j.Findings)
}

// Age returns the duration since this job was submitted.
func (j *Job) Age() time.Duration {
	if j.SubmittedAt <= 0 {
		return 0
	}
	return time.Duration(time.Now().UnixMilli()-j.SubmittedAt) * time.Millisecond
}

// Result is the outcome of a Job, published to ResultChannel(JobID).
type Result struct {
	// JobID correlates this result with its job
	JobID string `json:"job_id"`

	// Graph is the built graph. Nil if Error is set
	Graph *graph.Graph `json:"graph,omitempty"`

	// Stats summarizes Graph. Nil if Error is set
	Stats *graph.Stats `json:"stats,omitempty"`

	// Error is the error message if the build failed
	Error string `json:"error,omitempty"`

	// WorkerID is the unique identifier of the worker that processed the job
	WorkerID string `json:"worker_id"`

	// StartedAt is the Unix timestamp in milliseconds when processing started
	StartedAt int64 `json:"started_at"`

	// CompletedAt is the Unix timestamp in milliseconds when processing completed
	CompletedAt int64 `json:"completed_at"`
}

// HasError returns true if the result represents a failed build.
func (r *Result) HasError() bool {
	return r.Error != ""
}

// Duration returns the wall-clock time the worker spent on the job.
func (r *Result) Duration() time.Duration {
	if r.StartedAt <= 0 || r.CompletedAt <= 0 {
		return 0
	}
	return time.Duration(r.CompletedAt-r.StartedAt) * time.Millisecond
}
