package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "explicit missing file is an error")

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, dbcapabilities.PostgreSQL, cfg.Engine())
	assert.Equal(t, adapter.DefaultPoolSize, cfg.PoolSize)
	assert.Equal(t, adapter.DefaultAcquireTimeout, cfg.AcquireTimeout)
	assert.Equal(t, adapter.DefaultQueryTimeout, cfg.QueryTimeout)
	assert.Equal(t, adapter.DefaultSampleLimit, cfg.SampleLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
default_engine: sqlite
pool_size: 12
acquire_timeout: 2s
query_timeout: 1m
sample_limit: 25
log_level: debug
log_format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dbcapabilities.SQLite, cfg.Engine())
	assert.Equal(t, 12, cfg.PoolSize)
	assert.Equal(t, 2*time.Second, cfg.AcquireTimeout)
	assert.Equal(t, time.Minute, cfg.QueryTimeout)
	assert.Equal(t, 25, cfg.SampleLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "pool_size: 12\n")
	t.Setenv("DBWEAVE_POOL_SIZE", "3")
	t.Setenv("DBWEAVE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.PoolSize)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "default_engine: db2\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "pool_size: -1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "query_timeout: 0s\n"))
	assert.Error(t, err)
}

func TestApplyTo(t *testing.T) {
	cfg := &Config{
		DefaultEngine:  "duckdb",
		PoolSize:       7,
		AcquireTimeout: 3 * time.Second,
		QueryTimeout:   45 * time.Second,
		SampleLimit:    50,
	}

	out := cfg.ApplyTo(adapter.ConnectionConfig{ConnectionString: "unrecognized"})
	assert.Equal(t, dbcapabilities.DuckDB, out.Engine, "fallback engine comes from config")
	assert.Equal(t, 7, out.PoolSize)
	assert.Equal(t, 3*time.Second, out.AcquireTimeout)
	assert.Equal(t, 45*time.Second, out.QueryTimeout)
	assert.Equal(t, 50, out.SampleLimit)
	assert.NotEmpty(t, out.ConnectionID)

	// Explicit per-connection values are not overwritten.
	out = cfg.ApplyTo(adapter.ConnectionConfig{
		ConnectionString: "postgres://h/db",
		PoolSize:         2,
	})
	assert.Equal(t, dbcapabilities.PostgreSQL, out.Engine, "recognizable strings ignore the fallback")
	assert.Equal(t, 2, out.PoolSize)
}
