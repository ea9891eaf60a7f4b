package adapter

import (
	"time"

	"github.com/google/uuid"

	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

// Default resource limits applied by ConnectionConfig.WithDefaults.
const (
	DefaultPoolSize       = 5
	DefaultAcquireTimeout = 5 * time.Second
	DefaultQueryTimeout   = 30 * time.Second
	DefaultSampleLimit    = 100
)

// ConnectionConfig describes one logical data source. It pairs the opaque
// connection string with a resolved engine type and the logical identity
// (tenant, connection id) used for logging and pool keying.
type ConnectionConfig struct {
	// ConnectionID identifies this data source in logs and pool keys.
	// Generated when empty.
	ConnectionID string `json:"connection_id,omitempty"`

	// TenantID identifies the owning tenant, for logging only.
	TenantID string `json:"tenant_id,omitempty"`

	// ConnectionString is the raw DSN/URI/path handed to the native driver.
	ConnectionString string `json:"connection_string"`

	// Engine is the resolved engine type. Left empty, it is classified from
	// ConnectionString.
	Engine dbcapabilities.EngineType `json:"engine,omitempty"`

	// PoolSize caps the number of live connections the adapter keeps.
	PoolSize int `json:"pool_size,omitempty"`

	// AcquireTimeout bounds how long one call may wait for a pooled
	// connection before failing with ErrPoolTimeout.
	AcquireTimeout time.Duration `json:"acquire_timeout,omitempty"`

	// QueryTimeout bounds statement execution when the caller's context
	// carries no deadline of its own.
	QueryTimeout time.Duration `json:"query_timeout,omitempty"`

	// SampleLimit is the row cap used by GetTableSample when the caller
	// passes limit <= 0.
	SampleLimit int `json:"sample_limit,omitempty"`
}

// WithDefaults returns a copy with empty fields resolved: the engine is
// classified from the connection string, missing limits take the package
// defaults, and a missing connection id is generated.
func (c ConnectionConfig) WithDefaults() ConnectionConfig {
	out := c
	if out.Engine == "" {
		out.Engine = dbcapabilities.Classify(out.ConnectionString)
	}
	if out.ConnectionID == "" {
		out.ConnectionID = uuid.NewString()
	}
	if out.PoolSize <= 0 {
		out.PoolSize = DefaultPoolSize
	}
	if out.AcquireTimeout <= 0 {
		out.AcquireTimeout = DefaultAcquireTimeout
	}
	if out.QueryTimeout <= 0 {
		out.QueryTimeout = DefaultQueryTimeout
	}
	if out.SampleLimit <= 0 {
		out.SampleLimit = DefaultSampleLimit
	}
	return out
}
