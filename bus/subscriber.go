// Package bus answers graph build requests arriving over NATS.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/zero-day-ai/huntgraph"
	"github.com/zero-day-ai/huntgraph/pipeline"
	"github.com/zero-day-ai/huntgraph/queue"
	"github.com/zero-day-ai/huntgraph/telemetry"
)

// Default subjects and queue group.
const (
	DefaultSubject       = "hunt.findings"
	DefaultResultSubject = "hunt.graphs"
	DefaultQueueGroup    = "huntgraph"
)

// Connect opens a NATS connection that keeps reconnecting in the background.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("huntgraph"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, huntgraph.NewNetworkError("bus.Connect", fmt.Errorf("failed to connect to NATS: %w", err))
	}
	return nc, nil
}

// Ping returns a health ping for nc: an error unless the connection is up
// and a round trip to the server succeeds.
func Ping(nc *nats.Conn) func(context.Context) error {
	return func(ctx context.Context) error {
		if nc == nil {
			return errors.New("no connection")
		}
		if status := nc.Status(); status != nats.CONNECTED {
			return fmt.Errorf("connection %s", status)
		}
		return nc.FlushWithContext(ctx)
	}
}

// publisher is the part of *nats.Conn the subscriber writes through.
type publisher interface {
	Publish(subject string, data []byte) error
}

// Options configures a Subscriber.
type Options struct {
	// Subject carries build requests. Default: hunt.findings
	Subject string

	// ResultSubject receives results of requests without a reply subject.
	// Default: hunt.graphs
	ResultSubject string

	// QueueGroup load-balances requests across replicas. Default: huntgraph
	QueueGroup string

	// WorkerID identifies this process in results. Generated if empty.
	WorkerID string

	// Builder builds the graphs. The zero value is used if nil.
	Builder *pipeline.Builder

	// Logger is the structured logger for message handling.
	Logger *slog.Logger
}

// Subscriber handles build requests published to a NATS subject.
type Subscriber struct {
	nc            *nats.Conn
	pub           publisher
	subject       string
	resultSubject string
	queueGroup    string
	workerID      string
	builder       *pipeline.Builder
	logger        *slog.Logger
}

// NewSubscriber creates a subscriber on nc.
func NewSubscriber(nc *nats.Conn, opts Options) *Subscriber {
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	if opts.ResultSubject == "" {
		opts.ResultSubject = DefaultResultSubject
	}
	if opts.QueueGroup == "" {
		opts.QueueGroup = DefaultQueueGroup
	}
	if opts.WorkerID == "" {
		opts.WorkerID = "nats-" + uuid.New().String()[:8]
	}
	if opts.Builder == nil {
		opts.Builder = &pipeline.Builder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	s := &Subscriber{
		nc:            nc,
		subject:       opts.Subject,
		resultSubject: opts.ResultSubject,
		queueGroup:    opts.QueueGroup,
		workerID:      opts.WorkerID,
		builder:       opts.Builder,
		logger:        opts.Logger.With("subject", opts.Subject, "queue_group", opts.QueueGroup),
	}
	if nc != nil {
		s.pub = nc
	}
	return s
}

// Subscribe joins the queue group and handles requests until ctx is
// cancelled, then drains the subscription.
func (s *Subscriber) Subscribe(ctx context.Context) error {
	if s.nc == nil {
		return errors.New("bus: NATS connection is required")
	}

	sub, err := s.nc.QueueSubscribe(s.subject, s.queueGroup, func(msg *nats.Msg) {
		s.handleMsg(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.subject, err)
	}
	s.logger.Info("subscribed to build requests")

	<-ctx.Done()

	s.logger.Info("draining subscription")
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("failed to drain subscription: %w", err)
	}
	return nil
}

func (s *Subscriber) handleMsg(ctx context.Context, msg *nats.Msg) {
	// requests already received are answered during drain
	result := s.HandleMessage(context.WithoutCancel(ctx), msg.Data)
	if err := s.respond(msg.Reply, result); err != nil {
		s.logger.Error("failed to publish result", "job_id", result.JobID, "error", err)
	}
}

// respond publishes result to reply, or to the result subject when the
// request carried no reply subject.
func (s *Subscriber) respond(reply string, result queue.Result) error {
	if s.pub == nil {
		return errors.New("bus: no publisher")
	}

	subject := reply
	if subject == "" {
		subject = s.resultSubject
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := s.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// HandleMessage decodes a build request and returns its result. The
// payload is a queue.Job; a bare {"findings": [...]} object is accepted and
// given a fresh job ID. It always returns a Result; failures are reported in
// Result.Error.
func (s *Subscriber) HandleMessage(ctx context.Context, data []byte) queue.Result {
	result := queue.Result{
		WorkerID:  s.workerID,
		StartedAt: time.Now().UnixMilli(),
	}

	var job queue.Job
	if err := json.Unmarshal(data, &job); err != nil {
		s.builder.Metrics.IncrementInvalid(pipeline.SourceNATS)
		result.Error = fmt.Sprintf("invalid request: %v", err)
		result.CompletedAt = time.Now().UnixMilli()
		s.logger.Warn("invalid request", "error", err, "data_length", len(data))
		return result
	}
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	result.JobID = job.JobID

	logger := s.logger.With("job_id", job.JobID)
	ctx = telemetry.ContextWithParent(ctx, job.TraceID, job.SpanID)

	out, err := s.builder.Build(ctx, pipeline.SourceNATS, job.Findings, job.Filter)
	result.CompletedAt = time.Now().UnixMilli()
	if err != nil {
		result.Error = err.Error()
		logger.Warn("graph build failed", "error", err)
		return result
	}

	result.Graph = &out.Graph
	result.Stats = &out.Stats

	logger.Info("request handled",
		"findings", out.Findings,
		"nodes", out.Stats.Nodes(),
		"edges", out.Stats.Edges,
		"cache_hit", out.Cached,
	)
	return result
}
