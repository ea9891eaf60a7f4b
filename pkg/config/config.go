// Package config loads the process-wide settings shared by the CLI and by
// embedding services. Precedence, lowest to highest: built-in defaults, a
// dbweave.yaml file, DBWEAVE_ environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

// Config file names, probed in order.
const (
	ConfigFileName    = "dbweave.yaml"
	ConfigFileNameAlt = "dbweave.yml"
)

// EnvPrefix namespaces the environment variables this package reads.
const EnvPrefix = "DBWEAVE_"

// Config holds the tunables that apply across connections. Per-connection
// values still win: ApplyTo only fills fields the caller left empty.
type Config struct {
	// DefaultEngine is the classification fallback for connection strings
	// nothing else matches.
	DefaultEngine string `koanf:"default_engine"`

	// PoolSize caps live connections per adapter.
	PoolSize int `koanf:"pool_size"`

	// AcquireTimeout bounds the wait for a pooled connection.
	AcquireTimeout time.Duration `koanf:"acquire_timeout"`

	// QueryTimeout bounds statement execution when the caller sets no
	// deadline.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// SampleLimit is the default row cap for table previews.
	SampleLimit int `koanf:"sample_limit"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"default_engine":  string(dbcapabilities.DefaultEngine),
		"pool_size":       adapter.DefaultPoolSize,
		"acquire_timeout": adapter.DefaultAcquireTimeout.String(),
		"query_timeout":   adapter.DefaultQueryTimeout.String(),
		"sample_limit":    adapter.DefaultSampleLimit,
		"log_level":       "info",
		"log_format":      "text",
	}
}

// Load reads the configuration. An empty path probes the working directory
// for dbweave.yaml / dbweave.yml; a missing file is not an error, the
// defaults and environment still apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile(".")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	// DBWEAVE_POOL_SIZE -> pool_size
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, ok := dbcapabilities.ParseID(c.DefaultEngine); !ok {
		return fmt.Errorf("unknown default engine %q", c.DefaultEngine)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be positive, got %d", c.PoolSize)
	}
	if c.AcquireTimeout <= 0 {
		return fmt.Errorf("acquire_timeout must be positive, got %s", c.AcquireTimeout)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive, got %s", c.QueryTimeout)
	}
	if c.SampleLimit <= 0 {
		return fmt.Errorf("sample_limit must be positive, got %d", c.SampleLimit)
	}
	return nil
}

// Engine returns the resolved default engine.
func (c *Config) Engine() dbcapabilities.EngineType {
	engine, _ := dbcapabilities.ParseID(c.DefaultEngine)
	return engine
}

// ApplyTo fills the connection config's empty fields from the loaded
// settings. Explicit per-connection values are left alone.
func (c *Config) ApplyTo(cfg adapter.ConnectionConfig) adapter.ConnectionConfig {
	if cfg.Engine == "" {
		cfg.Engine = dbcapabilities.ClassifyDefault(cfg.ConnectionString, c.Engine())
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = c.PoolSize
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = c.AcquireTimeout
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = c.QueryTimeout
	}
	if cfg.SampleLimit <= 0 {
		cfg.SampleLimit = c.SampleLimit
	}
	return cfg.WithDefaults()
}

func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
