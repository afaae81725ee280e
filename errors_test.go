package huntgraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/huntgraph/finding"
)

// TestSentinelErrors verifies that all sentinel errors are defined correctly.
func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrInvalidConfig", ErrInvalidConfig, "invalid configuration"},
		{"ErrQueueUnavailable", ErrQueueUnavailable, "job queue unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Error(t *testing.T) {
	err := NewError("worker.ProcessJob", KindInternal, errors.New("boom"))
	assert.Equal(t, "huntgraph: worker.ProcessJob (internal): boom", err.Error())

	bare := &Error{Op: "api.Health", Kind: KindNetwork}
	assert.Equal(t, "huntgraph: api.Health: network", bare.Error())
}

func TestNewValidationError(t *testing.T) {
	cause := fmt.Errorf("findings[0]: %w", finding.ErrInvalidFinding)
	err := NewValidationError("api.BuildGraph", cause)

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, finding.ErrInvalidFinding)
	assert.True(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(err, KindNetwork))
}

func TestNewConfigurationError(t *testing.T) {
	err := NewConfigurationError("config.Load", errors.New("http.addr is required"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "http.addr is required")
}

func TestError_IsMatchesKind(t *testing.T) {
	err := NewNetworkError("queue.Push", errors.New("connection refused"))
	wrapped := fmt.Errorf("enqueue: %w", err)

	assert.True(t, errors.Is(wrapped, &Error{Kind: KindNetwork}))
	assert.True(t, errors.Is(wrapped, &Error{Kind: KindNetwork, Op: "queue.Push"}))
	assert.False(t, errors.Is(wrapped, &Error{Kind: KindNetwork, Op: "queue.Pop"}))
	assert.False(t, errors.Is(wrapped, &Error{Kind: KindValidation}))

	var target *Error
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "queue.Push", target.Op)
}
