// Package worker runs the pool that pops graph build jobs from the Redis
// queue and publishes their results.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zero-day-ai/huntgraph/pipeline"
	"github.com/zero-day-ai/huntgraph/queue"
	"github.com/zero-day-ai/huntgraph/telemetry"
)

// Options configures the worker behavior.
type Options struct {
	// Queue is the queue name (huntgraph:<Queue>:queue). Default: graph
	Queue string

	// Concurrency is the number of worker goroutines to start. Default: 4
	Concurrency int

	// ShutdownTimeout is the time to wait for in-flight jobs once ctx is
	// cancelled. Default: 30s
	ShutdownTimeout time.Duration

	// HeartbeatInterval is the interval between heartbeats. The health key
	// lives for three intervals. Default: 10s
	HeartbeatInterval time.Duration

	// WorkerID identifies this process in results. Generated if empty.
	WorkerID string

	// Builder builds the graphs. The zero value is used if nil.
	Builder *pipeline.Builder

	// Logger is the structured logger for worker operations.
	// If nil, a default logger will be created.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Queue == "" {
		o.Queue = "graph"
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 30 * time.Second
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 10 * time.Second
	}
	if o.WorkerID == "" {
		o.WorkerID = generateWorkerID()
	}
	if o.Builder == nil {
		o.Builder = &pipeline.Builder{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return o
}

// Run starts Concurrency goroutines that pop jobs from the queue, build
// graphs and publish results to each job's result channel. It registers the
// process in the worker count and keeps a heartbeat while running.
//
// Run blocks until ctx is cancelled, then waits up to ShutdownTimeout for
// in-flight jobs. Jobs already popped are finished and published even after
// cancellation.
func Run(ctx context.Context, client queue.Client, opts Options) error {
	if client == nil {
		return fmt.Errorf("worker: queue client is required")
	}
	opts = opts.withDefaults()

	logger := opts.Logger.With(
		"queue", opts.Queue,
		"worker_id", opts.WorkerID,
	)

	logger.Info("worker starting", "concurrency", opts.Concurrency)

	if err := client.IncrementWorkerCount(ctx, opts.Queue); err != nil {
		logger.Error("failed to increment worker count", "error", err)
	}

	// Ensure worker count is decremented on exit
	defer func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()
		if err := client.DecrementWorkerCount(cleanupCtx, opts.Queue); err != nil {
			logger.Error("failed to decrement worker count", "error", err)
		}
	}()

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go runHeartbeat(heartbeatCtx, client, opts.Queue, opts.HeartbeatInterval, logger)

	var wg sync.WaitGroup
	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func(workerNum int) {
			defer wg.Done()
			workerLoop(ctx, workerNum, client, opts, logger)
		}(i)
	}

	logger.Info("worker started", "workers", opts.Concurrency)

	<-ctx.Done()
	logger.Info("context cancelled, initiating graceful shutdown")

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		logger.Info("worker shutdown complete")
	case <-time.After(opts.ShutdownTimeout):
		logger.Warn("worker shutdown timeout exceeded", "timeout", opts.ShutdownTimeout)
	}

	return nil
}

// runHeartbeat refreshes the queue health key until ctx is cancelled.
func runHeartbeat(ctx context.Context, client queue.Client, name string, interval time.Duration, logger *slog.Logger) {
	ttl := 3 * interval
	beat := func() {
		if err := client.Heartbeat(ctx, name, ttl); err != nil && ctx.Err() == nil {
			// heartbeat failures are transient
			logger.Debug("heartbeat failed", "error", err)
		}
	}

	beat()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("heartbeat goroutine stopped")
			return
		case <-ticker.C:
			beat()
		}
	}
}

// workerLoop pops and processes jobs until ctx is cancelled.
func workerLoop(ctx context.Context, workerNum int, client queue.Client, opts Options, logger *slog.Logger) {
	logger = logger.With("worker_num", workerNum)
	logger.Debug("worker loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker loop stopped", "reason", "context_cancelled")
			return
		default:
		}

		job, err := client.Pop(ctx, opts.Queue)
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("worker loop stopped", "reason", "context_error")
				return
			}
			logger.Error("failed to pop job", "error", err)
			// back off so a broken connection does not spin
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		// Pop timed out with an empty queue
		if job == nil {
			continue
		}

		// In-flight jobs outlive cancellation so their results are published.
		jobCtx := context.WithoutCancel(ctx)

		result := ProcessJob(jobCtx, *job, opts.WorkerID, opts.Builder, logger)

		if err := client.Publish(jobCtx, queue.ResultChannel(job.JobID), result); err != nil {
			logger.Error("failed to publish result", "job_id", job.JobID, "error", err)
		}
	}
}

// ProcessJob builds the graph for a job and returns its result. It always
// returns a Result; failures are reported in Result.Error.
func ProcessJob(ctx context.Context, job queue.Job, workerID string, builder *pipeline.Builder, logger *slog.Logger) queue.Result {
	if builder == nil {
		builder = &pipeline.Builder{}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	logger = logger.With("job_id", job.JobID)

	result := queue.Result{
		JobID:     job.JobID,
		WorkerID:  workerID,
		StartedAt: time.Now().UnixMilli(),
	}

	logger.Info("received job",
		"findings", len(job.Findings),
		"queue_wait_ms", job.Age().Milliseconds(),
	)

	if job.JobID == "" {
		result.Error = "job_id is required"
		result.CompletedAt = time.Now().UnixMilli()
		builder.Metrics.ObserveJob(true)
		logger.Error("invalid job", "error", result.Error)
		return result
	}

	ctx = telemetry.ContextWithParent(ctx, job.TraceID, job.SpanID)

	out, err := builder.Build(ctx, pipeline.SourceJob, job.Findings, job.Filter)
	if err != nil {
		result.Error = err.Error()
		result.CompletedAt = time.Now().UnixMilli()
		builder.Metrics.ObserveJob(true)
		logger.Error("graph build failed", "error", err)
		return result
	}

	result.Graph = &out.Graph
	result.Stats = &out.Stats
	result.CompletedAt = time.Now().UnixMilli()
	builder.Metrics.ObserveJob(false)

	logger.Info("job completed",
		"nodes", out.Stats.Nodes(),
		"edges", out.Stats.Edges,
		"cache_hit", out.Cached,
		"duration_ms", result.CompletedAt-result.StartedAt,
	)

	return result
}

// generateWorkerID creates a unique identifier for this worker instance.
// Uses hostname + PID + UUID for uniqueness.
func generateWorkerID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	pid := os.Getpid()

	id := uuid.New().String()[:8]

	return fmt.Sprintf("%s-%d-%s", hostname, pid, id)
}
