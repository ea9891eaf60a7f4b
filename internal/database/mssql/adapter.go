// Package mssql implements the SQL Server adapter on microsoft/go-mssqldb.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/dbweave/dbweave/internal/database/common"
	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

func init() {
	adapter.Register(&Driver{})
}

// Driver builds SQL Server adapters.
type Driver struct{}

func (d *Driver) Type() dbcapabilities.EngineType { return dbcapabilities.SQLServer }

func (d *Driver) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.SQLServer)
}

func (d *Driver) New(cfg adapter.ConnectionConfig) adapter.Adapter {
	return common.NewSQLAdapter(dbcapabilities.SQLServer, &hooks{}, cfg, nil)
}

type hooks struct{}

func (h *hooks) DriverName() string { return "sqlserver" }

// BuildDSN normalizes mssql:// and sqlserver:// URLs into the driver's
// sqlserver:// form, moving a path-style database name into the query
// parameter the driver reads.
func (h *hooks) BuildDSN(cfg adapter.ConnectionConfig) (string, error) {
	raw := strings.TrimSpace(cfg.ConnectionString)
	if !strings.Contains(raw, "://") {
		return "", fmt.Errorf("sql server connection string %q is not a URL", raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing sql server URL: %w", err)
	}
	u.Scheme = "sqlserver"

	if db := strings.Trim(u.Path, "/"); db != "" {
		q := u.Query()
		if q.Get("database") == "" {
			q.Set("database", db)
		}
		u.RawQuery = q.Encode()
		u.Path = ""
	}
	return u.String(), nil
}

func (h *hooks) PingQuery() string    { return "SELECT 1" }
func (h *hooks) VersionQuery() string { return "SELECT @@VERSION" }

func (h *hooks) ListTablesQuery(adapter.ConnectionConfig) (string, []any) {
	return "SELECT name FROM sys.tables ORDER BY name", nil
}

// Validate asks the server to parse without executing. PARSEONLY is scoped
// to the session, so it is switched back off on the same connection before
// the pool reuses it.
func (h *hooks) Validate(ctx context.Context, conn *sql.Conn, sqlText string) error {
	if _, err := conn.ExecContext(ctx, "SET PARSEONLY ON"); err != nil {
		return err
	}
	_, parseErr := conn.ExecContext(ctx, sqlText)
	if _, err := conn.ExecContext(ctx, "SET PARSEONLY OFF"); err != nil {
		return err
	}
	return parseErr
}

// Explain captures the estimated plan through SHOWPLAN_ALL. The statement is
// compiled but not executed while the option is on.
func (h *hooks) Explain(ctx context.Context, conn *sql.Conn, sqlText string, _ bool) (string, error) {
	if _, err := conn.ExecContext(ctx, "SET SHOWPLAN_ALL ON"); err != nil {
		return "", err
	}
	defer conn.ExecContext(ctx, "SET SHOWPLAN_ALL OFF")

	rows, err := conn.QueryContext(ctx, sqlText)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	result, err := common.ScanRows(rows)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, row := range result.Rows {
		if stmt, ok := row["StmtText"].(string); ok {
			lines = append(lines, stmt)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (h *hooks) AfterConnect(context.Context, *sql.DB, adapter.ConnectionConfig) error {
	return nil
}
