package common

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dbweave/dbweave/pkg/adapter"
)

// probeDriver is an in-process database/sql driver that records every open
// and every statement, so lifecycle tests can assert that a failed gate
// never reached the wire.
type probeDriver struct {
	mu         sync.Mutex
	opens      int
	inUse      int
	highWater  int
	statements []string

	failOpen   bool
	queryDelay time.Duration
}

var probeSeq atomic.Int64

// registerProbe registers a fresh probe driver under a unique name, because
// database/sql forbids re-registering a name within one process.
func registerProbe(d *probeDriver) string {
	name := fmt.Sprintf("probe-%d", probeSeq.Add(1))
	sql.Register(name, d)
	return name
}

func (d *probeDriver) Open(string) (driver.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failOpen {
		return nil, errors.New("probe: open refused")
	}
	d.opens++
	d.inUse++
	if d.inUse > d.highWater {
		d.highWater = d.inUse
	}
	return &probeConn{driver: d}, nil
}

func (d *probeDriver) openCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

func (d *probeDriver) statementCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.statements)
}

func (d *probeDriver) lastStatement() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.statements) == 0 {
		return ""
	}
	return d.statements[len(d.statements)-1]
}

func (d *probeDriver) peakConns() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.highWater
}

type probeConn struct {
	driver *probeDriver
}

func (c *probeConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("probe: prepare not supported")
}

func (c *probeConn) Begin() (driver.Tx, error) {
	return nil, errors.New("probe: transactions not supported")
}

func (c *probeConn) Close() error {
	c.driver.mu.Lock()
	c.driver.inUse--
	c.driver.mu.Unlock()
	return nil
}

func (c *probeConn) QueryContext(ctx context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.driver.mu.Lock()
	c.driver.statements = append(c.driver.statements, query)
	delay := c.driver.queryDelay
	c.driver.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	switch {
	case strings.Contains(query, "version"):
		return &probeRows{cols: []string{"version"}, data: [][]driver.Value{{"probe-1.0"}}}, nil
	case strings.Contains(query, "FROM tables"):
		return &probeRows{cols: []string{"name"}, data: [][]driver.Value{{"orders"}, {"users"}}}, nil
	default:
		return &probeRows{cols: []string{"probe"}, data: [][]driver.Value{{int64(1)}}}, nil
	}
}

type probeRows struct {
	cols []string
	data [][]driver.Value
	pos  int
}

func (r *probeRows) Columns() []string { return r.cols }
func (r *probeRows) Close() error      { return nil }

func (r *probeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.pos])
	r.pos++
	return nil
}

// probeHooks is the minimal EngineHooks implementation backing the probe
// driver in lifecycle tests.
type probeHooks struct {
	name string
}

func (h *probeHooks) DriverName() string { return h.name }

func (h *probeHooks) BuildDSN(adapter.ConnectionConfig) (string, error) {
	return "probe://", nil
}

func (h *probeHooks) PingQuery() string    { return "SELECT 1" }
func (h *probeHooks) VersionQuery() string { return "SELECT version()" }

func (h *probeHooks) ListTablesQuery(adapter.ConnectionConfig) (string, []any) {
	return "SELECT name FROM tables", nil
}

func (h *probeHooks) Validate(_ context.Context, _ *sql.Conn, sqlText string) error {
	if strings.Contains(sqlText, "SYNTAX") {
		return errors.New("probe: syntax error")
	}
	return nil
}

func (h *probeHooks) Statistics(_ context.Context, _ *sql.Conn, _ adapter.ConnectionConfig, table string) (*adapter.TableStatistics, error) {
	return &adapter.TableStatistics{
		Table:       table,
		RowEstimate: adapter.Int64Ptr(42),
		SizeBytes:   adapter.Int64Ptr(2048),
	}, nil
}

func (h *probeHooks) Explain(_ context.Context, _ *sql.Conn, sqlText string, analyze bool) (string, error) {
	if analyze {
		return "PLAN WITH RUNTIME for " + sqlText, nil
	}
	return "PLAN for " + sqlText, nil
}

func (h *probeHooks) AfterConnect(context.Context, *sql.DB, adapter.ConnectionConfig) error {
	return nil
}
