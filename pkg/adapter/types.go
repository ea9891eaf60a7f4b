package adapter

import (
	"database/sql"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

// Row is one result row, keyed by column name. Values are restricted to the
// common type set: string, int64, float64, bool, time.Time, or nil.
type Row map[string]any

// QueryResult is the normalized, engine-independent output of a read query.
// Column order in Columns matches the driver's result metadata; Rows share
// that order through the column list, not through map iteration.
type QueryResult struct {
	Columns      []string `json:"columns"`
	Rows         []Row    `json:"rows"`
	RowCount     int      `json:"row_count"`
	AffectedRows int64    `json:"affected_rows,omitempty"`
}

// QueryPlan is the normalized envelope around an engine's native EXPLAIN
// output. PlanID is generated by the adapter, not by the engine, so it is
// consistent across dialects for logging and correlation. The Plan body is
// opaque: callers may log or display it but must not parse it for control
// decisions.
type QueryPlan struct {
	PlanID string                    `json:"plan_id"`
	Engine dbcapabilities.EngineType `json:"engine"`
	Query  string                    `json:"query"`
	Plan   string                    `json:"plan"`
	Format string                    `json:"format"` // "json" or "text"
}

// IndexInfo describes one index on a table.
type IndexInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns,omitempty"`
	Unique  bool     `json:"unique,omitempty"`
}

// TableStatistics holds engine-reported statistics for one table. Statistics
// the engine cannot produce are nil, never zero, so absence cannot be
// mistaken for real data.
type TableStatistics struct {
	Table        string      `json:"table"`
	RowEstimate  *int64      `json:"row_estimate,omitempty"`
	SizeBytes    *int64      `json:"size_bytes,omitempty"`
	SizeHuman    string      `json:"size_human,omitempty"`
	Indexes      []IndexInfo `json:"indexes,omitempty"`
	LastModified *time.Time  `json:"last_modified,omitempty"`
}

// EngineInfo is one entry in the factory's discovery directory.
type EngineInfo struct {
	Name     string                    `json:"name"`
	Engine   dbcapabilities.EngineType `json:"engine"`
	Status   string                    `json:"status"` // "available" or "unregistered"
	Features []dbcapabilities.Feature  `json:"features"`
}

// Int64Ptr returns a pointer to v. Statistics builders use it to mark a
// value as actually present.
func Int64Ptr(v int64) *int64 { return &v }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }

// NormalizeValue converts a driver-specific value into the common type set.
// Integers widen to int64, floats to float64, byte slices and decimal types
// become strings, and driver Null* wrappers collapse to nil or their value.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool, int64, float64, string, time.Time:
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		if val > 1<<63-1 {
			return strconv.FormatUint(val, 10)
		}
		return int64(val)
	case float32:
		return float64(val)
	case []byte:
		return string(val)
	case *big.Int:
		if val == nil {
			return nil
		}
		if val.IsInt64() {
			return val.Int64()
		}
		return val.String()
	case *big.Float:
		if val == nil {
			return nil
		}
		f, _ := val.Float64()
		return f
	case sql.NullString:
		if !val.Valid {
			return nil
		}
		return val.String
	case sql.NullInt64:
		if !val.Valid {
			return nil
		}
		return val.Int64
	case sql.NullFloat64:
		if !val.Valid {
			return nil
		}
		return val.Float64
	case sql.NullBool:
		if !val.Valid {
			return nil
		}
		return val.Bool
	case sql.NullTime:
		if !val.Valid {
			return nil
		}
		return val.Time
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
