// Package duckdb implements the analytical file adapter on marcboeker's
// DuckDB bindings. Native .duckdb files open directly; bare data files
// (CSV, Parquet, Excel) open an in-memory instance with the file exposed
// as a view named after it.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/dbweave/dbweave/internal/database/common"
	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

func init() {
	adapter.Register(&Driver{})
}

// Driver builds DuckDB adapters.
type Driver struct{}

func (d *Driver) Type() dbcapabilities.EngineType { return dbcapabilities.DuckDB }

func (d *Driver) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.DuckDB)
}

func (d *Driver) New(cfg adapter.ConnectionConfig) adapter.Adapter {
	return common.NewSQLAdapter(dbcapabilities.DuckDB, &hooks{}, cfg, nil)
}

type hooks struct{}

func (h *hooks) DriverName() string { return "duckdb" }

// BuildDSN opens native database files read-only and everything else in
// memory. Data files are attached later, in AfterConnect.
func (h *hooks) BuildDSN(cfg adapter.ConnectionConfig) (string, error) {
	details, err := dbcapabilities.ParseConnection(cfg.ConnectionString)
	if err != nil {
		return "", err
	}
	path := details.FilePath
	if path == "" || path == ":memory:" {
		return "", nil
	}
	if isNativeFile(path) {
		return path + "?access_mode=read_only", nil
	}
	return "", nil
}

func (h *hooks) PingQuery() string    { return "SELECT 1" }
func (h *hooks) VersionQuery() string { return "SELECT version()" }

func (h *hooks) ListTablesQuery(adapter.ConnectionConfig) (string, []any) {
	// information_schema covers both base tables and the views that
	// AfterConnect registers for bare data files.
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = 'main' ORDER BY table_name", nil
}

func (h *hooks) Validate(ctx context.Context, conn *sql.Conn, sqlText string) error {
	stmt, err := conn.PrepareContext(ctx, sqlText)
	if err != nil {
		return err
	}
	return stmt.Close()
}

// Explain joins the key/value plan rows DuckDB emits into one plan text.
func (h *hooks) Explain(ctx context.Context, conn *sql.Conn, sqlText string, analyze bool) (string, error) {
	prefix := "EXPLAIN "
	if analyze {
		prefix = "EXPLAIN ANALYZE "
	}

	rows, err := conn.QueryContext(ctx, prefix+sqlText)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var key, value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return "", err
		}
		if value.Valid {
			parts = append(parts, value.String)
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return strings.Join(parts, "\n"), nil
}

// AfterConnect exposes a bare data file as a view so the rest of the
// contract (sample, statistics, explain) sees an ordinary relation.
func (h *hooks) AfterConnect(ctx context.Context, db *sql.DB, cfg adapter.ConnectionConfig) error {
	details, err := dbcapabilities.ParseConnection(cfg.ConnectionString)
	if err != nil {
		return err
	}
	path := details.FilePath
	if path == "" || path == ":memory:" || isNativeFile(path) {
		return nil
	}

	stmts, err := attachStatements(path)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("attaching %s: %w", path, err)
		}
	}
	return nil
}

// attachStatements builds the statement sequence that exposes a data file
// as a view. Readers that live in an extension (st_read comes from the
// spatial extension) get INSTALL/LOAD statements ahead of the view.
func attachStatements(path string) ([]string, error) {
	reader, err := readerFor(path)
	if err != nil {
		return nil, err
	}

	var stmts []string
	if ext := extensionFor(path); ext != "" {
		stmts = append(stmts, "INSTALL "+ext, "LOAD "+ext)
	}

	view := viewNameFor(path)
	stmts = append(stmts, fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM %s", common.QuoteIdent(view, `"`), reader))
	return stmts, nil
}

// extensionFor names the DuckDB extension a file's reader function ships in,
// or "" for readers built into the core. st_read scans spreadsheets through
// GDAL, which covers both .xlsx and legacy .xls.
func extensionFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return "spatial"
	}
	return ""
}

func isNativeFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".duckdb", ".ddb":
		return true
	}
	return false
}

// readerFor picks the table function that can scan the file. Paths are
// embedded as escaped string literals, never interpolated raw.
func readerFor(path string) (string, error) {
	literal := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return "read_csv_auto(" + literal + ")", nil
	case ".parquet":
		return "read_parquet(" + literal + ")", nil
	case ".json", ".ndjson":
		return "read_json_auto(" + literal + ")", nil
	case ".xlsx", ".xls":
		return "st_read(" + literal + ")", nil
	default:
		return "", fmt.Errorf("no reader for file type %q", filepath.Ext(path))
	}
}

var nonIdentChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// viewNameFor derives a stable identifier from the file name, so
// "sales-2024.csv" is queryable as sales_2024.
func viewNameFor(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := nonIdentChars.ReplaceAllString(base, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "t_" + name
	}
	return name
}
