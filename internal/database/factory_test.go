package database

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

func TestCreateResolvesEngineFromConnectionString(t *testing.T) {
	tests := []struct {
		connString string
		engine     dbcapabilities.EngineType
	}{
		{"postgres://app@localhost:5432/shop", dbcapabilities.PostgreSQL},
		{"mysql://root@localhost:3306/shop", dbcapabilities.MySQL},
		{"/data/app.sqlite", dbcapabilities.SQLite},
		{"/data/sales.parquet", dbcapabilities.DuckDB},
		{"mssql://sa@localhost:1433/master", dbcapabilities.SQLServer},
		{"oracle://scott@localhost:1521/ORCL", dbcapabilities.Oracle},
	}

	for _, tt := range tests {
		t.Run(tt.connString, func(t *testing.T) {
			a, err := Create(adapter.ConnectionConfig{ConnectionString: tt.connString})
			require.NoError(t, err)
			assert.Equal(t, tt.engine, a.Type())
			assert.False(t, a.IsConnected(), "Create must not connect")
			assert.NotEmpty(t, a.ID(), "Create must assign a connection id")
		})
	}
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, dbcapabilities.PostgreSQL, DetectType("postgresql://h/db"))
	assert.Equal(t, dbcapabilities.DuckDB, DetectType("report.xlsx"))
	assert.Equal(t, dbcapabilities.PostgreSQL, DetectType("something-unrecognizable"))
}

func TestListSupportedEngines(t *testing.T) {
	infos := ListSupportedEngines()
	require.Len(t, infos, len(dbcapabilities.IDs()))

	byEngine := make(map[dbcapabilities.EngineType]adapter.EngineInfo, len(infos))
	for _, info := range infos {
		byEngine[info.Engine] = info
	}

	for _, id := range dbcapabilities.IDs() {
		info, ok := byEngine[id]
		require.True(t, ok, "missing entry for %s", id)
		assert.Equal(t, "available", info.Status, "%s ships a driver", id)
		assert.NotEmpty(t, info.Name)
		assert.NotEmpty(t, info.Features)
	}

	pg := byEngine[dbcapabilities.PostgreSQL]
	assert.Contains(t, pg.Features, dbcapabilities.FeatureExplainAnalyze)

	lite := byEngine[dbcapabilities.SQLite]
	assert.NotContains(t, lite.Features, dbcapabilities.FeatureExplainAnalyze)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "info", "json")

	log.Debug("hidden")
	log.Info("shown", slog.String("engine", "postgres"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"engine":"postgres"`)
}
