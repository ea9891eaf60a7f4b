// Package sqlite implements the SQLite adapter on modernc.org/sqlite, the
// CGo-free driver, so file-backed sources work in cross-compiled builds.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/dbweave/dbweave/internal/database/common"
	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

func init() {
	adapter.Register(&Driver{})
}

// Driver builds SQLite adapters.
type Driver struct{}

func (d *Driver) Type() dbcapabilities.EngineType { return dbcapabilities.SQLite }

func (d *Driver) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.SQLite)
}

func (d *Driver) New(cfg adapter.ConnectionConfig) adapter.Adapter {
	return common.NewSQLAdapter(dbcapabilities.SQLite, &hooks{}, cfg, nil)
}

type hooks struct{}

func (h *hooks) DriverName() string { return "sqlite" }

// BuildDSN resolves the file path out of path or sqlite:// forms. File-backed
// sources get the query_only pragma on every pooled connection, so writes are
// refused by the engine itself, not just by statement screening.
func (h *hooks) BuildDSN(cfg adapter.ConnectionConfig) (string, error) {
	details, err := dbcapabilities.ParseConnection(cfg.ConnectionString)
	if err != nil {
		return "", err
	}
	if details.FilePath == "" {
		return "", fmt.Errorf("sqlite connection string %q has no file path", cfg.ConnectionString)
	}
	if details.FilePath == ":memory:" {
		return ":memory:", nil
	}
	return fmt.Sprintf("file:%s?_pragma=query_only(1)&_pragma=busy_timeout(5000)", details.FilePath), nil
}

func (h *hooks) PingQuery() string    { return "SELECT 1" }
func (h *hooks) VersionQuery() string { return "SELECT sqlite_version()" }

func (h *hooks) ListTablesQuery(adapter.ConnectionConfig) (string, []any) {
	return "SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name", nil
}

// Validate prepares without executing. SQLite compiles the full statement at
// prepare time, so syntax and unknown names both surface here.
func (h *hooks) Validate(ctx context.Context, conn *sql.Conn, sqlText string) error {
	stmt, err := conn.PrepareContext(ctx, sqlText)
	if err != nil {
		return err
	}
	return stmt.Close()
}

// Explain renders EXPLAIN QUERY PLAN output, one detail line per plan node.
func (h *hooks) Explain(ctx context.Context, conn *sql.Conn, sqlText string, _ bool) (string, error) {
	rows, err := conn.QueryContext(ctx, "EXPLAIN QUERY PLAN "+sqlText)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	result, err := common.ScanRows(rows)
	if err != nil {
		return "", err
	}

	plan := ""
	for _, row := range result.Rows {
		detail, _ := row["detail"].(string)
		if plan != "" {
			plan += "\n"
		}
		plan += detail
	}
	return plan, nil
}

func (h *hooks) AfterConnect(context.Context, *sql.DB, adapter.ConnectionConfig) error {
	return nil
}
