package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dbweave/dbweave/internal/database/common"
	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

// ExecuteQuery runs one read-only statement on a pooled connection held for
// the duration of this call only.
func (a *Adapter) ExecuteQuery(ctx context.Context, sqlText string, args ...any) (*adapter.QueryResult, error) {
	if !a.IsConnected() {
		return nil, adapter.ErrNotConnected
	}
	if err := adapter.EnsureReadOnly(sqlText); err != nil {
		return nil, err
	}

	bound := common.Rebind(sqlText, dbcapabilities.PlaceholderDollar)

	conn, err := a.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	queryCtx, cancel := a.callContext(ctx)
	defer cancel()

	rows, err := conn.Query(queryCtx, bound, args...)
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "execute", sqlText, err)
	}
	defer rows.Close()

	result, err := collectRows(rows)
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "execute", sqlText, err)
	}
	return result, nil
}

// collectRows drains a pgx result set into the normalized shape.
func collectRows(rows pgx.Rows) (*adapter.QueryResult, error) {
	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	result := &adapter.QueryResult{Columns: columns, Rows: []adapter.Row{}}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(adapter.Row, len(columns))
		for i, col := range columns {
			row[col] = adapter.NormalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result.RowCount = len(result.Rows)
	return result, nil
}

// ValidateQuery prepares the statement on the server without executing it.
// It never returns an error.
func (a *Adapter) ValidateQuery(ctx context.Context, sqlText string) (bool, string) {
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
	defer conn.Release()

	validateCtx, cancel := a.callContext(ctx)
	defer cancel()

	name := "validate_" + common.ShortID()
	bound := common.Rebind(sqlText, dbcapabilities.PlaceholderDollar)
	if _, err := conn.Conn().Prepare(validateCtx, name, bound); err != nil {
		return false, err.Error()
	}
	if err := conn.Conn().Deallocate(validateCtx, name); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// ExplainQuery returns the JSON plan without executing the statement.
func (a *Adapter) ExplainQuery(ctx context.Context, sqlText string) (*adapter.QueryPlan, error) {
	return a.explain(ctx, sqlText, false)
}

// ExplainAnalyzeQuery executes the statement and returns the plan with
// observed row counts and timings.
func (a *Adapter) ExplainAnalyzeQuery(ctx context.Context, sqlText string) (*adapter.QueryPlan, error) {
	if err := adapter.RequireFeature(dbcapabilities.PostgreSQL, dbcapabilities.FeatureExplainAnalyze); err != nil {
		return nil, err
	}
	return a.explain(ctx, sqlText, true)
}

func (a *Adapter) explain(ctx context.Context, sqlText string, analyze bool) (*adapter.QueryPlan, error) {
	if !a.IsConnected() {
		return nil, adapter.ErrNotConnected
	}
	if err := adapter.EnsureReadOnly(sqlText); err != nil {
		return nil, err
	}

	dialect := a.Capabilities().Dialect
	template := dialect.Explain
	if analyze {
		template = dialect.ExplainAnalyze
	}

	conn, err := a.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	explainCtx, cancel := a.callContext(ctx)
	defer cancel()

	rows, err := conn.Query(explainCtx, fmt.Sprintf(template, sqlText))
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "explain", sqlText, err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "explain", sqlText, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "explain", sqlText, err)
	}

	return &adapter.QueryPlan{
		PlanID: uuid.NewString(),
		Engine: dbcapabilities.PostgreSQL,
		Query:  sqlText,
		Plan:   strings.Join(lines, "\n"),
		Format: dialect.ExplainFormat,
	}, nil
}

// ListTables names the tables visible to this connection outside the
// system schemas.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if err := adapter.RequireFeature(dbcapabilities.PostgreSQL, dbcapabilities.FeatureSchemaDiscovery); err != nil {
		return nil, err
	}
	if !a.IsConnected() {
		return nil, adapter.ErrNotConnected
	}

	const query = `
SELECT schemaname || '.' || tablename
FROM pg_tables
WHERE schemaname NOT IN ('pg_catalog', 'information_schema')
ORDER BY 1`

	conn, err := a.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	listCtx, cancel := a.callContext(ctx)
	defer cancel()

	rows, err := conn.Query(listCtx, query)
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "list_tables", query, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "list_tables", query, err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "list_tables", query, err)
	}
	return tables, nil
}

// Version reports the server version banner.
func (a *Adapter) Version(ctx context.Context) (string, error) {
	if !a.IsConnected() {
		return "", adapter.ErrNotConnected
	}

	conn, err := a.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Release()

	versionCtx, cancel := a.callContext(ctx)
	defer cancel()

	var version string
	if err := conn.QueryRow(versionCtx, "SELECT version()").Scan(&version); err != nil {
		return "", adapter.NewQueryError(dbcapabilities.PostgreSQL, "version", "SELECT version()", err)
	}
	return version, nil
}
