package adapter

import (
	"database/sql"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeValue(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"bool", true, true},
		{"int", int(7), int64(7)},
		{"int32", int32(-3), int64(-3)},
		{"int64", int64(42), int64(42)},
		{"uint16", uint16(9), int64(9)},
		{"uint64 in range", uint64(10), int64(10)},
		{"uint64 overflow", uint64(1) << 63, "9223372036854775808"},
		{"float32", float32(1.5), float64(1.5)},
		{"float64", 2.25, 2.25},
		{"string", "ok", "ok"},
		{"bytes", []byte("raw"), "raw"},
		{"time", ts, ts},
		{"big int small", big.NewInt(99), int64(99)},
		{"null string valid", sql.NullString{String: "x", Valid: true}, "x"},
		{"null string invalid", sql.NullString{}, nil},
		{"null int64", sql.NullInt64{Int64: 5, Valid: true}, int64(5)},
		{"null time invalid", sql.NullTime{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeValue(tt.in))
		})
	}
}

func TestConnectionConfigWithDefaults(t *testing.T) {
	cfg := ConnectionConfig{ConnectionString: "mysql://root@localhost/shop"}.WithDefaults()

	assert.Equal(t, "mysql", string(cfg.Engine), "engine classified from the connection string")
	assert.NotEmpty(t, cfg.ConnectionID, "connection id generated")
	assert.Equal(t, DefaultPoolSize, cfg.PoolSize)
	assert.Equal(t, DefaultAcquireTimeout, cfg.AcquireTimeout)
	assert.Equal(t, DefaultQueryTimeout, cfg.QueryTimeout)
	assert.Equal(t, DefaultSampleLimit, cfg.SampleLimit)
}

func TestConnectionConfigKeepsExplicitValues(t *testing.T) {
	cfg := ConnectionConfig{
		ConnectionID:     "conn-1",
		ConnectionString: "notes.txt",
		Engine:           "sqlite",
		PoolSize:         12,
		AcquireTimeout:   time.Second,
	}.WithDefaults()

	assert.Equal(t, "conn-1", cfg.ConnectionID)
	assert.Equal(t, "sqlite", string(cfg.Engine), "explicit engine wins over classification")
	assert.Equal(t, 12, cfg.PoolSize)
	assert.Equal(t, time.Second, cfg.AcquireTimeout)
}
