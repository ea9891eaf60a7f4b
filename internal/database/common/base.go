package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

// Adapter lifecycle states. Transitions are Uninitialized -> Connected ->
// Disconnected, with Connect legal again from Disconnected. There is no
// implicit reconnect: any operation in a non-Connected state reports
// ErrNotConnected.
const (
	stateUninitialized int32 = iota
	stateConnected
	stateDisconnected
)

// EngineHooks supplies the dialect-specific pieces of a database/sql-backed
// adapter. Everything lifecycle- and pool-related lives in SQLAdapter; hooks
// receive an already-acquired connection and never manage pooling themselves.
type EngineHooks interface {
	// DriverName is the registered database/sql driver name.
	DriverName() string

	// BuildDSN converts the connection config into the driver's DSN form.
	BuildDSN(cfg adapter.ConnectionConfig) (string, error)

	// PingQuery is the trivial round-trip statement for health checks.
	PingQuery() string

	// VersionQuery returns the engine's version banner statement.
	VersionQuery() string

	// ListTablesQuery returns the catalog statement naming visible tables.
	ListTablesQuery(cfg adapter.ConnectionConfig) (string, []any)

	// Validate performs the engine's cheapest non-executing syntax check on
	// an acquired connection.
	Validate(ctx context.Context, conn *sql.Conn, sqlText string) error

	// Statistics runs the engine-native catalog queries for one table.
	// Fields the engine cannot supply stay nil.
	Statistics(ctx context.Context, conn *sql.Conn, cfg adapter.ConnectionConfig, table string) (*adapter.TableStatistics, error)

	// Explain produces the engine-native plan text for a statement. The
	// analyze form is only requested for engines whose capability entry
	// flags FeatureExplainAnalyze.
	Explain(ctx context.Context, conn *sql.Conn, sqlText string, analyze bool) (string, error)

	// AfterConnect runs once after the pool is established, for per-engine
	// session setup such as read-only pragmas or view registration.
	AfterConnect(ctx context.Context, db *sql.DB, cfg adapter.ConnectionConfig) error
}

// SQLAdapter implements adapter.Adapter for every engine whose native driver
// speaks database/sql. The pool is the driver's, but with explicit capacity
// and an explicit acquire step around each call so lifetime and concurrency
// limits stay visible.
type SQLAdapter struct {
	engine dbcapabilities.EngineType
	cfg    adapter.ConnectionConfig
	hooks  EngineHooks
	log    *slog.Logger

	mu    sync.Mutex // guards db and state transitions
	db    *sql.DB
	state int32
}

// NewSQLAdapter builds an unconnected adapter. Construction performs no I/O.
func NewSQLAdapter(engine dbcapabilities.EngineType, hooks EngineHooks, cfg adapter.ConnectionConfig, log *slog.Logger) *SQLAdapter {
	if log == nil {
		log = slog.Default()
	}
	return &SQLAdapter{
		engine: engine,
		cfg:    cfg,
		hooks:  hooks,
		log: log.With(
			slog.String("engine", string(engine)),
			slog.String("connection_id", cfg.ConnectionID),
			slog.String("tenant_id", cfg.TenantID),
		),
	}
}

// Type returns the engine type.
func (a *SQLAdapter) Type() dbcapabilities.EngineType { return a.engine }

// Capabilities returns the engine's capability record.
func (a *SQLAdapter) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(a.engine)
}

// ID returns the logical connection identifier.
func (a *SQLAdapter) ID() string { return a.cfg.ConnectionID }

// Config returns the adapter's connection configuration.
func (a *SQLAdapter) Config() adapter.ConnectionConfig { return a.cfg }

// IsConnected reports whether the pool is established.
func (a *SQLAdapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == stateConnected
}

// Connect establishes the connection pool. Returns false with a logged
// reason on failure. Connecting an already-connected adapter is a no-op.
func (a *SQLAdapter) Connect(ctx context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == stateConnected {
		return true
	}

	dsn, err := a.hooks.BuildDSN(a.cfg)
	if err != nil {
		a.log.Error("connect failed", slog.String("reason", "building DSN"), slog.Any("error", err))
		return false
	}

	db, err := sql.Open(a.hooks.DriverName(), dsn)
	if err != nil {
		a.log.Error("connect failed", slog.String("reason", "opening driver"), slog.Any("error", err))
		return false
	}

	db.SetMaxOpenConns(a.cfg.PoolSize)
	db.SetMaxIdleConns(a.cfg.PoolSize)

	pingCtx, cancel := context.WithTimeout(ctx, a.cfg.QueryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		a.log.Error("connect failed", slog.String("reason", "ping"), slog.Any("error", err))
		return false
	}

	if err := a.hooks.AfterConnect(ctx, db, a.cfg); err != nil {
		db.Close()
		a.log.Error("connect failed", slog.String("reason", "session setup"), slog.Any("error", err))
		return false
	}

	a.db = db
	a.state = stateConnected
	a.log.Info("connected", slog.Int("pool_size", a.cfg.PoolSize))
	return true
}

// Disconnect drains and closes the pool. Idempotent.
func (a *SQLAdapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != stateConnected {
		return nil
	}

	err := a.db.Close()
	a.db = nil
	a.state = stateDisconnected
	if err != nil {
		return adapter.NewConnectionError(a.engine, a.cfg.ConnectionString, err)
	}
	a.log.Info("disconnected")
	return nil
}

// TestConnection connects first if needed, then round-trips the engine's
// ping query. Never returns an error; any failure is false.
func (a *SQLAdapter) TestConnection(ctx context.Context) bool {
	if !a.IsConnected() && !a.Connect(ctx) {
		return false
	}

	conn, err := a.acquire(ctx)
	if err != nil {
		a.log.Warn("connection test failed", slog.Any("error", err))
		return false
	}
	defer conn.Close()

	var probe int
	if err := conn.QueryRowContext(ctx, a.hooks.PingQuery()).Scan(&probe); err != nil {
		a.log.Warn("connection test failed", slog.Any("error", err))
		return false
	}
	return true
}

// ExecuteQuery runs one read-only statement on a pooled connection held for
// the duration of this call only.
func (a *SQLAdapter) ExecuteQuery(ctx context.Context, sqlText string, args ...any) (*adapter.QueryResult, error) {
	if !a.IsConnected() {
		return nil, adapter.ErrNotConnected
	}
	if err := adapter.EnsureReadOnly(sqlText); err != nil {
		return nil, err
	}

	bound := Rebind(sqlText, a.Capabilities().Dialect.Placeholder)

	conn, err := a.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	queryCtx, cancel := a.callContext(ctx)
	defer cancel()

	rows, err := conn.QueryContext(queryCtx, bound, args...)
	if err != nil {
		return nil, adapter.NewQueryError(a.engine, "execute", sqlText, err)
	}
	defer rows.Close()

	result, err := ScanRows(rows)
	if err != nil {
		return nil, adapter.NewQueryError(a.engine, "execute", sqlText, err)
	}
	return result, nil
}

// ValidateQuery reports whether the statement would be accepted, using the
// engine's non-executing check. It never returns an error.
func (a *SQLAdapter) ValidateQuery(ctx context.Context, sqlText string) (bool, string) {
	if err := adapter.EnsureReadOnly(sqlText); err != nil {
		return false, err.Error()
	}
	if !a.IsConnected() {
		return false, adapter.ErrNotConnected.Error()
	}

	conn, err := a.acquire(ctx)
	if err != nil {
		return false, err.Error()
	}
	defer conn.Close()

	validateCtx, cancel := a.callContext(ctx)
	defer cancel()

	if err := a.hooks.Validate(validateCtx, conn, sqlText); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// GetTableSample returns up to limit rows of a table, or an empty slice on a
// non-connected adapter, because previews must not fail hard.
func (a *SQLAdapter) GetTableSample(ctx context.Context, table string, limit int) ([]adapter.Row, error) {
	if !a.IsConnected() {
		return []adapter.Row{}, nil
	}
	if limit <= 0 {
		limit = a.cfg.SampleLimit
	}

	dialect := a.Capabilities().Dialect
	quoted, err := QuoteQualified(table, dialect.QuoteIdent)
	if err != nil {
		return nil, adapter.NewQueryError(a.engine, "sample", table, err)
	}
	stmt := fmt.Sprintf("SELECT * FROM %s %s", quoted, fmt.Sprintf(dialect.LimitClause, limit))

	result, err := a.ExecuteQuery(ctx, stmt)
	if err != nil {
		return nil, err
	}
	return result.Rows, nil
}

// GetTableStatistics reads engine-native catalog statistics for one table.
func (a *SQLAdapter) GetTableStatistics(ctx context.Context, table string) (*adapter.TableStatistics, error) {
	if !a.IsConnected() {
		return nil, adapter.ErrNotConnected
	}

	conn, err := a.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	statsCtx, cancel := a.callContext(ctx)
	defer cancel()

	stats, err := a.hooks.Statistics(statsCtx, conn, a.cfg, table)
	if err != nil {
		return nil, adapter.NewQueryError(a.engine, "statistics", table, err)
	}
	if stats.SizeBytes != nil {
		stats.SizeHuman = adapter.FormatByteSize(*stats.SizeBytes)
	}
	return stats, nil
}

// ExplainQuery wraps the engine-native plan in a normalized envelope. The
// plan identifier is generated here, not by the engine, so it is consistent
// across dialects.
func (a *SQLAdapter) ExplainQuery(ctx context.Context, sqlText string) (*adapter.QueryPlan, error) {
	return a.explain(ctx, sqlText, false)
}

// ExplainAnalyzeQuery runs the executing explain variant where the engine
// has one.
func (a *SQLAdapter) ExplainAnalyzeQuery(ctx context.Context, sqlText string) (*adapter.QueryPlan, error) {
	if err := adapter.RequireFeature(a.engine, dbcapabilities.FeatureExplainAnalyze); err != nil {
		return nil, err
	}
	return a.explain(ctx, sqlText, true)
}

func (a *SQLAdapter) explain(ctx context.Context, sqlText string, analyze bool) (*adapter.QueryPlan, error) {
	if !a.IsConnected() {
		return nil, adapter.ErrNotConnected
	}
	if err := adapter.EnsureReadOnly(sqlText); err != nil {
		return nil, err
	}

	conn, err := a.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	explainCtx, cancel := a.callContext(ctx)
	defer cancel()

	plan, err := a.hooks.Explain(explainCtx, conn, sqlText, analyze)
	if err != nil {
		return nil, adapter.NewQueryError(a.engine, "explain", sqlText, err)
	}

	return &adapter.QueryPlan{
		PlanID: uuid.NewString(),
		Engine: a.engine,
		Query:  sqlText,
		Plan:   plan,
		Format: a.Capabilities().Dialect.ExplainFormat,
	}, nil
}

// ListTables names the tables visible to this connection.
func (a *SQLAdapter) ListTables(ctx context.Context) ([]string, error) {
	if err := adapter.RequireFeature(a.engine, dbcapabilities.FeatureSchemaDiscovery); err != nil {
		return nil, err
	}
	if !a.IsConnected() {
		return nil, adapter.ErrNotConnected
	}

	query, args := a.hooks.ListTablesQuery(a.cfg)

	conn, err := a.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	listCtx, cancel := a.callContext(ctx)
	defer cancel()

	rows, err := conn.QueryContext(listCtx, query, args...)
	if err != nil {
		return nil, adapter.NewQueryError(a.engine, "list_tables", query, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, adapter.NewQueryError(a.engine, "list_tables", query, err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, adapter.NewQueryError(a.engine, "list_tables", query, err)
	}
	return tables, nil
}

// Version reports the engine's version banner.
func (a *SQLAdapter) Version(ctx context.Context) (string, error) {
	if !a.IsConnected() {
		return "", adapter.ErrNotConnected
	}

	conn, err := a.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	versionCtx, cancel := a.callContext(ctx)
	defer cancel()

	var version string
	if err := conn.QueryRowContext(versionCtx, a.hooks.VersionQuery()).Scan(&version); err != nil {
		return "", adapter.NewQueryError(a.engine, "version", a.hooks.VersionQuery(), err)
	}
	return version, nil
}

// Logger exposes the adapter-scoped structured logger to engine hooks.
func (a *SQLAdapter) Logger() *slog.Logger { return a.log }

// acquire checks out one pooled connection, waiting at most AcquireTimeout.
// Exhausted-pool waits surface as ErrPoolTimeout so callers can distinguish
// them from query failures.
func (a *SQLAdapter) acquire(ctx context.Context) (*sql.Conn, error) {
	a.mu.Lock()
	db := a.db
	a.mu.Unlock()
	if db == nil {
		return nil, adapter.ErrNotConnected
	}

	acquireCtx, cancel := context.WithTimeout(ctx, a.cfg.AcquireTimeout)
	defer cancel()

	conn, err := db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s", adapter.ErrPoolTimeout, a.cfg.AcquireTimeout)
		}
		return nil, adapter.NewConnectionError(a.engine, a.cfg.ConnectionString, err)
	}
	return conn, nil
}

// callContext bounds a statement with QueryTimeout when the caller's context
// carries no deadline of its own.
func (a *SQLAdapter) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.cfg.QueryTimeout)
}
