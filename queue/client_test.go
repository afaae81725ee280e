package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/huntgraph/finding"
	"github.com/zero-day-ai/huntgraph/graph"
)

// setupTestClient creates a miniredis instance and returns a connected RedisClient.
func setupTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(RedisOptions{
		URL:            fmt.Sprintf("redis://%s", mr.Addr()),
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		PopTimeout:     100 * time.Millisecond,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return client, mr
}

func testJob(t *testing.T) Job {
	t.Helper()
	job, err := NewJob([]finding.Finding{{
		ID:            "f1",
		Title:         "Credential dumping",
		Severity:      finding.SeverityCritical,
		Confidence:    0.9,
		AffectedHosts: []string{"DC01"},
		Details:       finding.Details{"user": "CORP\\admin"},
	}}, &finding.Filter{MinConfidence: 0.5})
	require.NoError(t, err)
	return *job
}

func TestNewRedisClient(t *testing.T) {
	t.Run("successful connection", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := NewRedisClient(RedisOptions{
			URL: fmt.Sprintf("redis://%s", mr.Addr()),
		})
		require.NoError(t, err)
		require.NotNil(t, client)
		defer client.Close()

		assert.NoError(t, client.Ping(context.Background()))
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := NewRedisClient(RedisOptions{
			URL:            "redis://localhost:99999",
			ConnectTimeout: 100 * time.Millisecond,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedisClient(RedisOptions{
			URL: "invalid://url",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse Redis URL")
	})
}

func TestPushPop(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		client, mr := setupTestClient(t)
		ctx := context.Background()
		job := testJob(t)

		require.NoError(t, client.Push(ctx, "graph", job))
		assert.True(t, mr.Exists("huntgraph:graph:queue"))

		got, err := client.Pop(ctx, "graph")
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, job.JobID, got.JobID)
		assert.Equal(t, job.SubmittedAt, got.SubmittedAt)
		require.Len(t, got.Findings, 1)
		assert.Equal(t, "f1", got.Findings[0].ID)
		assert.Equal(t, "CORP\\admin", got.Findings[0].Details["user"])
		require.NotNil(t, got.Filter)
		assert.Equal(t, 0.5, got.Filter.MinConfidence)
	})

	t.Run("FIFO order", func(t *testing.T) {
		client, _ := setupTestClient(t)
		ctx := context.Background()

		first, second := testJob(t), testJob(t)
		require.NoError(t, client.Push(ctx, "graph", first))
		require.NoError(t, client.Push(ctx, "graph", second))

		got, err := client.Pop(ctx, "graph")
		require.NoError(t, err)
		assert.Equal(t, first.JobID, got.JobID)

		got, err = client.Pop(ctx, "graph")
		require.NoError(t, err)
		assert.Equal(t, second.JobID, got.JobID)
	})

	t.Run("empty queue times out", func(t *testing.T) {
		client, _ := setupTestClient(t)

		got, err := client.Pop(context.Background(), "graph")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("malformed payload", func(t *testing.T) {
		client, mr := setupTestClient(t)
		_, err := mr.Lpush("huntgraph:graph:queue", "{not json")
		require.NoError(t, err)

		_, err = client.Pop(context.Background(), "graph")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal job")
	})
}

func TestPublishSubscribe(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	channel := ResultChannel("job-123")
	resultChan, err := client.Subscribe(ctx, channel)
	require.NoError(t, err)

	g := graph.Build(testJob(t).Findings)
	stats := g.Stats()
	result := Result{
		JobID:       "job-123",
		Graph:       &g,
		Stats:       &stats,
		WorkerID:    "worker-1",
		StartedAt:   time.Now().UnixMilli(),
		CompletedAt: time.Now().UnixMilli() + 5,
	}
	require.NoError(t, client.Publish(ctx, channel, result))

	select {
	case received := <-resultChan:
		assert.Equal(t, "job-123", received.JobID)
		assert.Equal(t, "worker-1", received.WorkerID)
		require.NotNil(t, received.Graph)
		assert.Len(t, received.Graph.Nodes, len(g.Nodes))
		assert.Equal(t, stats, *received.Stats)
		assert.False(t, received.HasError())
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for result")
	}
}

func TestSubscribe_ClosesOnCancel(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())

	resultChan, err := client.Subscribe(ctx, ResultChannel("job-1"))
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-resultChan:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription channel was not closed")
	}
}

func TestHeartbeat(t *testing.T) {
	t.Run("sets TTL", func(t *testing.T) {
		client, mr := setupTestClient(t)
		ctx := context.Background()

		require.NoError(t, client.Heartbeat(ctx, "graph", 20*time.Second))

		assert.True(t, mr.Exists("huntgraph:graph:health"))
		ttl := mr.TTL("huntgraph:graph:health")
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, 20*time.Second)

		alive, err := client.Alive(ctx, "graph")
		require.NoError(t, err)
		assert.True(t, alive)
	})

	t.Run("expires", func(t *testing.T) {
		client, mr := setupTestClient(t)
		ctx := context.Background()

		require.NoError(t, client.Heartbeat(ctx, "graph", 0))
		mr.FastForward(31 * time.Second)

		alive, err := client.Alive(ctx, "graph")
		require.NoError(t, err)
		assert.False(t, alive)
	})
}

func TestWorkerCount(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	count, err := client.GetWorkerCount(ctx, "graph")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, client.IncrementWorkerCount(ctx, "graph"))
	require.NoError(t, client.IncrementWorkerCount(ctx, "graph"))
	require.NoError(t, client.DecrementWorkerCount(ctx, "graph"))

	count, err = client.GetWorkerCount(ctx, "graph")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, mr.Set("huntgraph:graph:workers", "many"))
	_, err = client.GetWorkerCount(ctx, "graph")
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	client, _ := setupTestClient(t)
	require.NoError(t, client.Close())

	err := client.Push(context.Background(), "graph", testJob(t))
	assert.Error(t, err)
}
