// Package mysql implements the MySQL adapter on go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/dbweave/dbweave/internal/database/common"
	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

func init() {
	adapter.Register(&Driver{})
}

// Driver builds MySQL adapters.
type Driver struct{}

func (d *Driver) Type() dbcapabilities.EngineType { return dbcapabilities.MySQL }

func (d *Driver) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.MySQL)
}

func (d *Driver) New(cfg adapter.ConnectionConfig) adapter.Adapter {
	return common.NewSQLAdapter(dbcapabilities.MySQL, &hooks{}, cfg, nil)
}

type hooks struct{}

func (h *hooks) DriverName() string { return "mysql" }

// BuildDSN accepts either the driver's native "user:pass@tcp(host)/db" form
// or a mysql:// URL and produces a native DSN with ParseTime enabled, so
// UPDATE_TIME and friends scan into time.Time. Every connection also gets
// transaction_read_only=1; the driver forwards unknown params as session
// system variables, so the server enforces it on each pooled connection.
func (h *hooks) BuildDSN(cfg adapter.ConnectionConfig) (string, error) {
	raw := strings.TrimSpace(cfg.ConnectionString)

	if !strings.Contains(raw, "://") {
		mc, err := mysql.ParseDSN(raw)
		if err != nil {
			return "", fmt.Errorf("parsing mysql DSN: %w", err)
		}
		mc.ParseTime = true
		forceReadOnly(mc)
		return mc.FormatDSN(), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing mysql URL: %w", err)
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = u.Host
	if u.Port() == "" {
		mc.Addr = fmt.Sprintf("%s:%d", u.Hostname(), dbcapabilities.MustGet(dbcapabilities.MySQL).DefaultPort)
	}
	if u.User != nil {
		mc.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			mc.Passwd = pw
		}
	}
	mc.DBName = strings.Trim(u.Path, "/")
	mc.ParseTime = true
	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if mc.Params == nil {
			mc.Params = make(map[string]string)
		}
		mc.Params[key] = values[0]
	}
	forceReadOnly(mc)
	return mc.FormatDSN(), nil
}

func forceReadOnly(mc *mysql.Config) {
	if mc.Params == nil {
		mc.Params = make(map[string]string)
	}
	mc.Params["transaction_read_only"] = "1"
}

func (h *hooks) PingQuery() string    { return "SELECT 1" }
func (h *hooks) VersionQuery() string { return "SELECT VERSION()" }

func (h *hooks) ListTablesQuery(adapter.ConnectionConfig) (string, []any) {
	return "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME", nil
}

// Validate prepares the statement without executing it. MySQL parses and
// resolves names at prepare time.
func (h *hooks) Validate(ctx context.Context, conn *sql.Conn, sqlText string) error {
	stmt, err := conn.PrepareContext(ctx, sqlText)
	if err != nil {
		return err
	}
	return stmt.Close()
}

func (h *hooks) AfterConnect(context.Context, *sql.DB, adapter.ConnectionConfig) error {
	return nil
}
