package bus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/huntgraph/metrics"
	"github.com/zero-day-ai/huntgraph/pipeline"
	"github.com/zero-day-ai/huntgraph/queue"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	return nil
}

func newTestSubscriber(m *metrics.Metrics) (*Subscriber, *fakePublisher) {
	s := NewSubscriber(nil, Options{
		WorkerID: "nats-test",
		Builder:  &pipeline.Builder{Metrics: m},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	pub := &fakePublisher{}
	s.pub = pub
	return s, pub
}

const request = `{
  "job_id": "job-1",
  "submitted_at": 1700000000000,
  "findings": [{
    "id": "f1",
    "title": "Lateral movement",
    "severity": "high",
    "confidence": 0.8,
    "affected_hosts": ["WS-01", "ws-02"],
    "details": {"user": "alice", "command": "psexec \\\\ws-02 cmd"}
  }]
}`

func TestHandleMessage(t *testing.T) {
	m := metrics.New(nil)
	s, _ := newTestSubscriber(m)

	result := s.HandleMessage(context.Background(), []byte(request))

	assert.Equal(t, "job-1", result.JobID)
	assert.Equal(t, "nats-test", result.WorkerID)
	assert.False(t, result.HasError())
	require.NotNil(t, result.Graph)
	require.NotNil(t, result.Stats)
	assert.Equal(t, 2, result.Stats.Hosts)
	assert.Equal(t, 1, result.Stats.Users)
	assert.Equal(t, 1, result.Stats.Processes)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GraphsBuilt.WithLabelValues(pipeline.SourceNATS)))
}

func TestHandleMessage_BareFindings(t *testing.T) {
	s, _ := newTestSubscriber(nil)

	result := s.HandleMessage(context.Background(), []byte(`{"findings": []}`))
	assert.False(t, result.HasError())
	assert.Len(t, result.JobID, 36)
	require.NotNil(t, result.Graph)
	assert.Empty(t, result.Graph.Nodes)
}

func TestHandleMessage_Invalid(t *testing.T) {
	m := metrics.New(nil)
	s, _ := newTestSubscriber(m)

	t.Run("malformed JSON", func(t *testing.T) {
		result := s.HandleMessage(context.Background(), []byte(`{"findings": [`))
		assert.True(t, result.HasError())
		assert.Contains(t, result.Error, "invalid request")
		assert.Empty(t, result.JobID)
	})

	t.Run("invalid finding", func(t *testing.T) {
		result := s.HandleMessage(context.Background(), []byte(`{"job_id": "j2", "findings": [{"id": "f1"}]}`))
		assert.True(t, result.HasError())
		assert.Equal(t, "j2", result.JobID)
		assert.Contains(t, result.Error, "title is required")
		assert.Nil(t, result.Graph)
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InvalidInputs.WithLabelValues(pipeline.SourceNATS)))
}

func TestRespond(t *testing.T) {
	s, pub := newTestSubscriber(nil)
	result := queue.Result{JobID: "job-1", WorkerID: "nats-test"}

	require.NoError(t, s.respond("_INBOX.abc", result))
	require.NoError(t, s.respond("", result))

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, "_INBOX.abc", pub.msgs[0].subject)
	assert.Equal(t, DefaultResultSubject, pub.msgs[1].subject)

	var decoded queue.Result
	require.NoError(t, json.Unmarshal(pub.msgs[1].data, &decoded))
	assert.Equal(t, "job-1", decoded.JobID)
}

func TestRespond_PublishError(t *testing.T) {
	s, pub := newTestSubscriber(nil)
	pub.err = errors.New("nats: connection closed")

	err := s.respond("", queue.Result{JobID: "job-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hunt.graphs")
}

func TestNewSubscriber_Defaults(t *testing.T) {
	s := NewSubscriber(nil, Options{})
	assert.Equal(t, DefaultSubject, s.subject)
	assert.Equal(t, DefaultResultSubject, s.resultSubject)
	assert.Equal(t, DefaultQueueGroup, s.queueGroup)
	assert.NotEmpty(t, s.workerID)

	assert.Error(t, s.Subscribe(context.Background()))
	assert.Error(t, s.respond("", queue.Result{}))
}

func TestPing_NilConnection(t *testing.T) {
	assert.Error(t, Ping(nil)(context.Background()))
}
