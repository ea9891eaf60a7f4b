// Package oracle implements the Oracle adapter on godror.
package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/godror/godror"

	"github.com/dbweave/dbweave/internal/database/common"
	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

func init() {
	adapter.Register(&Driver{})
}

// Driver builds Oracle adapters.
type Driver struct{}

func (d *Driver) Type() dbcapabilities.EngineType { return dbcapabilities.Oracle }

func (d *Driver) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.Oracle)
}

func (d *Driver) New(cfg adapter.ConnectionConfig) adapter.Adapter {
	return common.NewSQLAdapter(dbcapabilities.Oracle, &hooks{}, cfg, nil)
}

type hooks struct{}

func (h *hooks) DriverName() string { return "godror" }

// BuildDSN converts oracle:// URLs into godror's logfmt connection string.
// Anything that is not a URL is assumed to already be in a form the driver
// accepts (logfmt or EZConnect) and passes through.
func (h *hooks) BuildDSN(cfg adapter.ConnectionConfig) (string, error) {
	raw := strings.TrimSpace(cfg.ConnectionString)
	if !strings.Contains(raw, "://") {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing oracle URL: %w", err)
	}

	service := strings.Trim(u.Path, "/")
	if service == "" {
		return "", fmt.Errorf("oracle connection string %q names no service", raw)
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = fmt.Sprint(dbcapabilities.MustGet(dbcapabilities.Oracle).DefaultPort)
	}

	var user, password string
	if u.User != nil {
		user = u.User.Username()
		password, _ = u.User.Password()
	}

	return fmt.Sprintf(`user=%q password=%q connectString=%q`,
		user, password, fmt.Sprintf("%s:%s/%s", host, port, service)), nil
}

func (h *hooks) PingQuery() string { return "SELECT 1 FROM DUAL" }

func (h *hooks) VersionQuery() string {
	return "SELECT banner FROM v$version WHERE ROWNUM = 1"
}

func (h *hooks) ListTablesQuery(adapter.ConnectionConfig) (string, []any) {
	return "SELECT table_name FROM user_tables ORDER BY table_name", nil
}

// Validate parses through EXPLAIN PLAN, which compiles the statement without
// running it. Plan rows land in the session's PLAN_TABLE and are left for
// Oracle to age out.
func (h *hooks) Validate(ctx context.Context, conn *sql.Conn, sqlText string) error {
	_, err := conn.ExecContext(ctx, "EXPLAIN PLAN FOR "+sqlText)
	return err
}

// Explain renders the plan with DBMS_XPLAN. The statement id keeps
// concurrent explains on shared plan tables apart.
func (h *hooks) Explain(ctx context.Context, conn *sql.Conn, sqlText string, _ bool) (string, error) {
	stmtID := common.ShortID()
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("EXPLAIN PLAN SET STATEMENT_ID = '%s' FOR %s", stmtID, sqlText)); err != nil {
		return "", err
	}

	rows, err := conn.QueryContext(ctx, "SELECT plan_table_output FROM TABLE(DBMS_XPLAN.DISPLAY(NULL, :1))", stmtID)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line sql.NullString
		if err := rows.Scan(&line); err != nil {
			return "", err
		}
		lines = append(lines, line.String)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (h *hooks) AfterConnect(context.Context, *sql.DB, adapter.ConnectionConfig) error {
	return nil
}
