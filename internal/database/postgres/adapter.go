// Package postgres implements the PostgreSQL adapter on pgx/v5, using its
// native pool instead of database/sql so acquire behavior and type decoding
// stay under the driver's control.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dbweave/dbweave/internal/database/common"
	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

func init() {
	adapter.Register(&Driver{})
}

// Driver builds PostgreSQL adapters.
type Driver struct{}

func (d *Driver) Type() dbcapabilities.EngineType { return dbcapabilities.PostgreSQL }

func (d *Driver) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.PostgreSQL)
}

func (d *Driver) New(cfg adapter.ConnectionConfig) adapter.Adapter {
	return NewAdapter(cfg, nil)
}

const (
	stateUninitialized int32 = iota
	stateConnected
	stateDisconnected
)

// Adapter is the PostgreSQL implementation of adapter.Adapter.
type Adapter struct {
	cfg adapter.ConnectionConfig
	log *slog.Logger

	mu    sync.Mutex // guards pool and state transitions
	pool  *pgxpool.Pool
	state int32
}

// NewAdapter builds an unconnected adapter. Construction performs no I/O.
func NewAdapter(cfg adapter.ConnectionConfig, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		cfg: cfg,
		log: log.With(
			slog.String("engine", string(dbcapabilities.PostgreSQL)),
			slog.String("connection_id", cfg.ConnectionID),
			slog.String("tenant_id", cfg.TenantID),
		),
	}
}

func (a *Adapter) Type() dbcapabilities.EngineType { return dbcapabilities.PostgreSQL }

func (a *Adapter) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.PostgreSQL)
}

func (a *Adapter) ID() string { return a.cfg.ConnectionID }

func (a *Adapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == stateConnected
}

// normalizeConnString strips a driver qualifier ("postgresql+asyncpg://")
// so pgx sees a scheme it understands.
func normalizeConnString(s string) string {
	if plus := strings.Index(s, "+"); plus > 0 {
		if proto := strings.Index(s, "://"); proto > plus {
			return s[:plus] + s[proto:]
		}
	}
	return s
}

// poolConfig parses the connection string and applies pool sizing plus the
// read-only session guard. default_transaction_read_only is a startup
// parameter, so it holds on every connection the pool opens.
func poolConfig(cfg adapter.ConnectionConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(normalizeConnString(cfg.ConnectionString))
	if err != nil {
		return nil, err
	}
	pc.MaxConns = int32(cfg.PoolSize)
	pc.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"
	return pc, nil
}

// Connect establishes the pool. Returns false with a logged reason on
// failure. Connecting an already-connected adapter is a no-op.
func (a *Adapter) Connect(ctx context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == stateConnected {
		return true
	}

	pc, err := poolConfig(a.cfg)
	if err != nil {
		a.log.Error("connect failed", slog.String("reason", "parsing connection string"), slog.Any("error", err))
		return false
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		a.log.Error("connect failed", slog.String("reason", "building pool"), slog.Any("error", err))
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, a.cfg.QueryTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		a.log.Error("connect failed", slog.String("reason", "ping"), slog.Any("error", err))
		return false
	}

	a.pool = pool
	a.state = stateConnected
	a.log.Info("connected", slog.Int("pool_size", a.cfg.PoolSize))
	return true
}

// Disconnect drains and closes the pool. Idempotent.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != stateConnected {
		return nil
	}

	a.pool.Close()
	a.pool = nil
	a.state = stateDisconnected
	a.log.Info("disconnected")
	return nil
}

// TestConnection connects first if needed, then round-trips SELECT 1.
func (a *Adapter) TestConnection(ctx context.Context) bool {
	if !a.IsConnected() && !a.Connect(ctx) {
		return false
	}

	conn, err := a.acquire(ctx)
	if err != nil {
		a.log.Warn("connection test failed", slog.Any("error", err))
		return false
	}
	defer conn.Release()

	var probe int
	if err := conn.QueryRow(ctx, "SELECT 1").Scan(&probe); err != nil {
		a.log.Warn("connection test failed", slog.Any("error", err))
		return false
	}
	return true
}

// GetTableSample returns up to limit rows, or an empty slice on a
// non-connected adapter, because previews must not fail hard.
func (a *Adapter) GetTableSample(ctx context.Context, table string, limit int) ([]adapter.Row, error) {
	if !a.IsConnected() {
		return []adapter.Row{}, nil
	}
	if limit <= 0 {
		limit = a.cfg.SampleLimit
	}

	quoted, err := common.QuoteQualified(table, `"`)
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "sample", table, err)
	}

	result, err := a.ExecuteQuery(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoted, limit))
	if err != nil {
		return nil, err
	}
	return result.Rows, nil
}

// acquire checks out one pooled connection, waiting at most AcquireTimeout.
// Exhausted-pool waits surface as ErrPoolTimeout so callers can distinguish
// them from query failures.
func (a *Adapter) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	a.mu.Lock()
	pool := a.pool
	a.mu.Unlock()
	if pool == nil {
		return nil, adapter.ErrNotConnected
	}

	acquireCtx, cancel := context.WithTimeout(ctx, a.cfg.AcquireTimeout)
	defer cancel()

	conn, err := pool.Acquire(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s", adapter.ErrPoolTimeout, a.cfg.AcquireTimeout)
		}
		return nil, adapter.NewConnectionError(dbcapabilities.PostgreSQL, a.cfg.ConnectionString, err)
	}
	return conn, nil
}

// callContext bounds a statement with QueryTimeout when the caller's context
// carries no deadline of its own.
func (a *Adapter) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.cfg.QueryTimeout)
}
