package adapter

import (
	"context"

	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

// Adapter is the uniform contract every engine implementation satisfies.
// One Adapter owns zero or one live connection pool for one data source.
//
// Methods that hit the network suspend on their context; everything else is
// immediate. Connect, TestConnection, and ValidateQuery report expected
// failures as values rather than errors so higher layers can present
// "connection unhealthy" or "SQL invalid" states without special casing.
type Adapter interface {
	// Type returns the engine type. Always available, even before Connect.
	Type() dbcapabilities.EngineType

	// Capabilities returns the capability record for this engine.
	Capabilities() dbcapabilities.Capability

	// ID returns the logical connection identifier.
	ID() string

	// IsConnected reports whether the pool is established.
	IsConnected() bool

	// Connect establishes the connection pool. It returns false on failure
	// (logging a structured reason) instead of an error so callers can
	// degrade gracefully. Connecting an already-connected adapter is a no-op
	// returning true.
	Connect(ctx context.Context) bool

	// Disconnect drains and closes the pool. Idempotent: disconnecting an
	// adapter that never connected is a no-op.
	Disconnect(ctx context.Context) error

	// TestConnection connects first if needed, then issues a trivial
	// round-trip query. It returns false on any failure and never exposes
	// the underlying error type.
	TestConnection(ctx context.Context) bool

	// ExecuteQuery runs one read-only statement with optional positional
	// arguments ('?' placeholders, rewritten to the engine's native style).
	// Fails with ErrNotConnected before a successful Connect. The column
	// list and row values come from the driver's result metadata, converted
	// to the common type set.
	ExecuteQuery(ctx context.Context, sqlText string, args ...any) (*QueryResult, error)

	// ValidateQuery performs the cheapest engine-native check that does not
	// execute or mutate anything (prepare/compile or a non-executing
	// EXPLAIN). It reports problems as (false, message) and never returns an
	// error.
	ValidateQuery(ctx context.Context, sqlText string) (bool, string)

	// GetTableSample returns up to limit rows from a table. On a
	// non-connected adapter it returns an empty slice, not an error, because
	// this call serves optimistic UI previews.
	GetTableSample(ctx context.Context, table string, limit int) ([]Row, error)

	// GetTableStatistics reads engine-native catalog statistics for a table.
	// Statistics the engine cannot produce are absent from the result.
	GetTableStatistics(ctx context.Context, table string) (*TableStatistics, error)

	// ExplainQuery runs the engine-native EXPLAIN form named in the dialect
	// spec and wraps the opaque plan in a normalized envelope.
	ExplainQuery(ctx context.Context, sqlText string) (*QueryPlan, error)

	// ExplainAnalyzeQuery runs the executing explain variant. Gated on
	// FeatureExplainAnalyze: engines without it fail with
	// ErrUnsupportedFeature before any network call.
	ExplainAnalyzeQuery(ctx context.Context, sqlText string) (*QueryPlan, error)

	// ListTables names the tables visible to this connection. Gated on
	// FeatureSchemaDiscovery.
	ListTables(ctx context.Context) ([]string, error)

	// Version reports the engine's version banner.
	Version(ctx context.Context) (string, error)
}

// Driver constructs Adapters for one engine type. Engine packages register a
// Driver with the package registry from their init function.
type Driver interface {
	// Type returns the engine this driver serves.
	Type() dbcapabilities.EngineType

	// Capabilities returns the capability record for the engine.
	Capabilities() dbcapabilities.Capability

	// New builds an unconnected Adapter for the given configuration.
	// Construction is cheap and side-effect-free; callers connect explicitly.
	New(cfg ConnectionConfig) Adapter
}
