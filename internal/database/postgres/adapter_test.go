package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

func TestDriverRegistration(t *testing.T) {
	a, err := adapter.New(adapter.ConnectionConfig{ConnectionString: "postgres://app@db.example.com:5432/shop"})
	require.NoError(t, err)
	assert.Equal(t, dbcapabilities.PostgreSQL, a.Type())
	assert.False(t, a.IsConnected())
	assert.True(t, a.Capabilities().HasFeature(dbcapabilities.FeatureExplainAnalyze))
}

func TestNormalizeConnString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u@h/db", "postgres://u@h/db"},
		{"postgresql+asyncpg://u@h/db", "postgresql://u@h/db"},
		{"postgresql+psycopg2://u:p+q@h/db", "postgresql://u:p+q@h/db"},
		{"host=localhost dbname=shop", "host=localhost dbname=shop"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeConnString(tt.in))
	}
}

func TestOperationsBeforeConnect(t *testing.T) {
	cfg := adapter.ConnectionConfig{
		ConnectionString: "postgres://app@db.example.com:5432/shop",
	}.WithDefaults()
	a := NewAdapter(cfg, nil)
	ctx := context.Background()

	_, err := a.ExecuteQuery(ctx, "SELECT 1")
	assert.ErrorIs(t, err, adapter.ErrNotConnected)

	_, err = a.GetTableStatistics(ctx, "users")
	assert.ErrorIs(t, err, adapter.ErrNotConnected)

	_, err = a.ExplainQuery(ctx, "SELECT 1")
	assert.ErrorIs(t, err, adapter.ErrNotConnected)

	_, err = a.ListTables(ctx)
	assert.ErrorIs(t, err, adapter.ErrNotConnected)

	_, err = a.Version(ctx)
	assert.ErrorIs(t, err, adapter.ErrNotConnected)

	rows, err := a.GetTableSample(ctx, "users", 5)
	require.NoError(t, err)
	assert.Empty(t, rows)

	ok, msg := a.ValidateQuery(ctx, "SELECT 1")
	assert.False(t, ok)
	assert.Contains(t, msg, adapter.ErrNotConnected.Error())

	// The statement screen fires before the connection check.
	_, err = a.ExecuteQuery(ctx, "TRUNCATE users")
	assert.ErrorIs(t, err, adapter.ErrReadOnlyViolation)

	// Disconnecting an adapter that never connected is a no-op.
	assert.NoError(t, a.Disconnect(ctx))
}

func TestPoolConfigForcesReadOnlySession(t *testing.T) {
	cfg := adapter.ConnectionConfig{
		ConnectionString: "postgres://app@db.example.com:5432/shop",
		PoolSize:         3,
	}.WithDefaults()

	pc, err := poolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(3), pc.MaxConns)
	assert.Equal(t, "on", pc.ConnConfig.RuntimeParams["default_transaction_read_only"])
}

func TestConnectFailsOnBadConnString(t *testing.T) {
	cfg := adapter.ConnectionConfig{
		ConnectionString: "postgres://app@db.example.com:not-a-port/shop",
		Engine:           dbcapabilities.PostgreSQL,
	}.WithDefaults()
	a := NewAdapter(cfg, nil)

	assert.False(t, a.Connect(context.Background()))
	assert.False(t, a.IsConnected())
}
