package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

// newFixture writes a small database through a separate writable handle. The
// adapter under test only ever sees it read-only.
func newFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT)`,
		`CREATE UNIQUE INDEX idx_users_email ON users(email)`,
		`INSERT INTO users (id, name, email) VALUES (1, 'ada', 'ada@example.com')`,
		`INSERT INTO users (id, name, email) VALUES (2, 'grace', 'grace@example.com')`,
		`INSERT INTO users (id, name, email) VALUES (3, 'edsger', NULL)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func TestBuildDSN(t *testing.T) {
	h := &hooks{}

	got, err := h.BuildDSN(adapter.ConnectionConfig{ConnectionString: "/data/app.db"})
	require.NoError(t, err)
	assert.Equal(t, "file:/data/app.db?_pragma=query_only(1)&_pragma=busy_timeout(5000)", got)

	got, err = h.BuildDSN(adapter.ConnectionConfig{ConnectionString: "sqlite:///data/app.db"})
	require.NoError(t, err)
	assert.Contains(t, got, "data/app.db")

	got, err = h.BuildDSN(adapter.ConnectionConfig{ConnectionString: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, ":memory:", got)
}

func TestAdapterEndToEnd(t *testing.T) {
	path := newFixture(t)
	ctx := context.Background()

	a, err := adapter.New(adapter.ConnectionConfig{ConnectionString: path})
	require.NoError(t, err)
	assert.Equal(t, dbcapabilities.SQLite, a.Type())

	require.True(t, a.Connect(ctx))
	defer a.Disconnect(ctx)

	t.Run("execute", func(t *testing.T) {
		result, err := a.ExecuteQuery(ctx, "SELECT name FROM users WHERE email IS NOT NULL ORDER BY id")
		require.NoError(t, err)
		assert.Equal(t, []string{"name"}, result.Columns)
		require.Equal(t, 2, result.RowCount)
		assert.Equal(t, "ada", result.Rows[0]["name"])
		assert.Equal(t, "grace", result.Rows[1]["name"])
	})

	t.Run("parameters", func(t *testing.T) {
		result, err := a.ExecuteQuery(ctx, "SELECT id FROM users WHERE name = ?", "grace")
		require.NoError(t, err)
		require.Equal(t, 1, result.RowCount)
		assert.Equal(t, int64(2), result.Rows[0]["id"])
	})

	t.Run("write rejected", func(t *testing.T) {
		_, err := a.ExecuteQuery(ctx, "DELETE FROM users")
		assert.ErrorIs(t, err, adapter.ErrReadOnlyViolation)
	})

	t.Run("list tables", func(t *testing.T) {
		tables, err := a.ListTables(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"users"}, tables)
	})

	t.Run("sample", func(t *testing.T) {
		rows, err := a.GetTableSample(ctx, "users", 2)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("statistics", func(t *testing.T) {
		stats, err := a.GetTableStatistics(ctx, "users")
		require.NoError(t, err)
		require.NotNil(t, stats.RowEstimate)
		assert.Equal(t, int64(3), *stats.RowEstimate)
		require.NotNil(t, stats.SizeBytes)
		assert.Positive(t, *stats.SizeBytes)
		assert.NotEmpty(t, stats.SizeHuman)
		require.Len(t, stats.Indexes, 1)
		assert.Equal(t, "idx_users_email", stats.Indexes[0].Name)
		assert.True(t, stats.Indexes[0].Unique)
		assert.Equal(t, []string{"email"}, stats.Indexes[0].Columns)
	})

	t.Run("validate", func(t *testing.T) {
		ok, msg := a.ValidateQuery(ctx, "SELECT id FROM users")
		assert.True(t, ok)
		assert.Empty(t, msg)

		ok, msg = a.ValidateQuery(ctx, "SELECT FROM WHERE")
		assert.False(t, ok)
		assert.NotEmpty(t, msg)

		ok, _ = a.ValidateQuery(ctx, "SELECT id FROM no_such_table")
		assert.False(t, ok)
	})

	t.Run("explain", func(t *testing.T) {
		plan, err := a.ExplainQuery(ctx, "SELECT * FROM users WHERE email = 'ada@example.com'")
		require.NoError(t, err)
		assert.NotEmpty(t, plan.PlanID)
		assert.Contains(t, plan.Plan, "users")
	})

	t.Run("explain analyze unsupported", func(t *testing.T) {
		_, err := a.ExplainAnalyzeQuery(ctx, "SELECT * FROM users")
		assert.ErrorIs(t, err, adapter.ErrUnsupportedFeature)
	})

	t.Run("version", func(t *testing.T) {
		version, err := a.Version(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, version)
	})
}

func TestQueryOnlyEnforcedByEngine(t *testing.T) {
	path := newFixture(t)
	ctx := context.Background()

	a, err := adapter.New(adapter.ConnectionConfig{ConnectionString: path})
	require.NoError(t, err)
	require.True(t, a.Connect(ctx))
	defer a.Disconnect(ctx)

	// PRAGMA statements pass the statement screen, but query_only makes the
	// engine refuse anything that would change the file.
	_, err = a.ExecuteQuery(ctx, "PRAGMA user_version = 7")
	assert.Error(t, err)
}
