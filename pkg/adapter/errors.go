package adapter

import (
	"errors"
	"fmt"

	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

// Standard adapter errors. Callers distinguish transient conditions
// (ErrConnectFailed, ErrPoolTimeout) from permanent-for-this-input ones
// (ErrQueryFailed, ErrUnsupportedFeature) with errors.Is; nothing in this
// layer retries automatically.
var (
	// ErrNotConnected is returned when an operation requires a pool that was
	// never established or was already closed. Caller error, always reported.
	ErrNotConnected = errors.New("adapter is not connected")

	// ErrConnectFailed marks a network or auth failure during Connect.
	ErrConnectFailed = errors.New("connection failed")

	// ErrPoolTimeout is returned when no pooled connection became available
	// within the call's acquire timeout.
	ErrPoolTimeout = errors.New("timed out waiting for a pooled connection")

	// ErrUnsupportedFeature is returned before any network call when the
	// requested capability is absent from the engine's capability entry.
	ErrUnsupportedFeature = errors.New("feature not supported by this engine")

	// ErrQueryFailed wraps an engine-side rejection or runtime failure. The
	// native error text is preserved, never swallowed.
	ErrQueryFailed = errors.New("query failed")

	// ErrReadOnlyViolation is returned when a statement is not a read.
	ErrReadOnlyViolation = errors.New("statement is not read-only")

	// ErrDriverNotFound is returned when no driver is registered for an
	// engine type.
	ErrDriverNotFound = errors.New("no driver registered for engine")
)

// ConnectionError wraps a failure to establish or keep a connection.
type ConnectionError struct {
	Engine dbcapabilities.EngineType
	Target string // host:port or file path, for logs
	Cause  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s at %s: %v", e.Engine, e.Target, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// Is matches ErrConnectFailed as well as the wrapped cause.
func (e *ConnectionError) Is(target error) bool {
	if errors.Is(target, ErrConnectFailed) {
		return true
	}
	return errors.Is(e.Cause, target)
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(engine dbcapabilities.EngineType, target string, cause error) *ConnectionError {
	return &ConnectionError{Engine: engine, Target: target, Cause: cause}
}

// QueryError wraps an engine-side statement failure with the operation that
// triggered it. The engine's own message stays available through Unwrap.
type QueryError struct {
	Engine    dbcapabilities.EngineType
	Operation string // "execute", "explain", "statistics", ...
	Query     string
	Cause     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Engine, e.Operation, e.Cause)
}

func (e *QueryError) Unwrap() error { return e.Cause }

// Is matches ErrQueryFailed as well as the wrapped cause.
func (e *QueryError) Is(target error) bool {
	if errors.Is(target, ErrQueryFailed) {
		return true
	}
	return errors.Is(e.Cause, target)
}

// NewQueryError creates a new QueryError.
func NewQueryError(engine dbcapabilities.EngineType, operation, query string, cause error) *QueryError {
	return &QueryError{Engine: engine, Operation: operation, Query: query, Cause: cause}
}

// UnsupportedFeatureError is returned when a caller requests a capability
// the engine's capability entry marks absent. It is raised before any
// network call so the caller can react programmatically instead of decoding
// a generic engine syntax error.
type UnsupportedFeatureError struct {
	Engine  dbcapabilities.EngineType
	Feature dbcapabilities.Feature
	Reason  string
}

func (e *UnsupportedFeatureError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s does not support %s: %s", e.Engine, e.Feature, e.Reason)
	}
	return fmt.Sprintf("%s does not support %s", e.Engine, e.Feature)
}

func (e *UnsupportedFeatureError) Is(target error) bool {
	return errors.Is(target, ErrUnsupportedFeature)
}

// NewUnsupportedFeatureError creates a new UnsupportedFeatureError.
func NewUnsupportedFeatureError(engine dbcapabilities.EngineType, feature dbcapabilities.Feature, reason string) *UnsupportedFeatureError {
	return &UnsupportedFeatureError{Engine: engine, Feature: feature, Reason: reason}
}

// RequireFeature returns an UnsupportedFeatureError when the engine's
// capability entry does not flag the feature. Adapters call it before
// dispatching feature-gated operations.
func RequireFeature(engine dbcapabilities.EngineType, feature dbcapabilities.Feature) error {
	if !dbcapabilities.Supports(engine, feature) {
		return NewUnsupportedFeatureError(engine, feature, "")
	}
	return nil
}
