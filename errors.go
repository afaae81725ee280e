package huntgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for common huntgraph error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrInvalidInput indicates a request, job or message did not satisfy the
	// findings input contract.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates the provided configuration is invalid or incomplete.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrQueueUnavailable indicates an operation needed the Redis job queue
	// but none is configured or reachable.
	ErrQueueUnavailable = errors.New("job queue unavailable")
)

// Error kinds categorize errors by their type.
const (
	// KindValidation represents errors related to input validation.
	KindValidation = "validation"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"

	// KindNetwork represents errors talking to Redis, NATS or etcd.
	KindNetwork = "network"

	// KindInternal represents internal errors.
	KindInternal = "internal"
)

// Error wraps an underlying error with the operation that failed and the
// category of failure. It supports errors.Is and errors.As.
//
// Example usage:
//
//	err := &huntgraph.Error{
//		Op:   "api.BuildGraph",
//		Kind: huntgraph.KindValidation,
//		Err:  huntgraph.ErrInvalidInput,
//	}
type Error struct {
	// Op is the operation that failed (e.g., "worker.ProcessJob").
	Op string

	// Kind categorizes the error (e.g., KindValidation).
	Kind string

	// Err is the underlying error that caused this error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("huntgraph: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("huntgraph: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind (and Op, when the target sets one),
// then falls back to the wrapped error.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	return errors.Is(e.Err, target)
}

// NewError creates an Error of the given kind.
func NewError(op, kind string, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewValidationError creates an Error with KindValidation that also matches
// ErrInvalidInput.
func NewValidationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindValidation,
		Err:  fmt.Errorf("%w: %w", ErrInvalidInput, err),
	}
}

// NewConfigurationError creates an Error with KindConfiguration that also
// matches ErrInvalidConfig.
func NewConfigurationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindConfiguration,
		Err:  fmt.Errorf("%w: %w", ErrInvalidConfig, err),
	}
}

// NewNetworkError creates an Error with KindNetwork.
func NewNetworkError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindNetwork, Err: err}
}

// IsKind reports whether err is an *Error of the given kind anywhere in its chain.
func IsKind(err error, kind string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
