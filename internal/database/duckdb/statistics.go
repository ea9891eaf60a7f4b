package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbweave/dbweave/internal/database/common"
	"github.com/dbweave/dbweave/pkg/adapter"
)

const tableStatsQuery = `
SELECT estimated_size
FROM duckdb_tables()
WHERE schema_name = 'main' AND table_name = ?`

const indexStatsQuery = `
SELECT index_name, is_unique
FROM duckdb_indexes()
WHERE schema_name = 'main' AND table_name = ?
ORDER BY index_name`

// Statistics takes the optimizer estimate from duckdb_tables() for base
// tables. Registered file views have no catalog entry, so those get an
// exact COUNT(*) instead. File size is not attributed per table; SizeBytes
// stays nil.
func (h *hooks) Statistics(ctx context.Context, conn *sql.Conn, _ adapter.ConnectionConfig, table string) (*adapter.TableStatistics, error) {
	stats := &adapter.TableStatistics{Table: table}

	var estimated sql.NullInt64
	err := conn.QueryRowContext(ctx, tableStatsQuery, table).Scan(&estimated)
	switch {
	case err == sql.ErrNoRows:
		quoted, qerr := common.QuoteQualified(table, `"`)
		if qerr != nil {
			return nil, qerr
		}
		var count int64
		if err := conn.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&count); err != nil {
			return nil, err
		}
		stats.RowEstimate = adapter.Int64Ptr(count)
		return stats, nil
	case err != nil:
		return nil, err
	}

	if estimated.Valid {
		stats.RowEstimate = adapter.Int64Ptr(estimated.Int64)
	}

	rows, err := conn.QueryContext(ctx, indexStatsQuery, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name   string
			unique bool
		)
		if err := rows.Scan(&name, &unique); err != nil {
			return nil, err
		}
		stats.Indexes = append(stats.Indexes, adapter.IndexInfo{Name: name, Unique: unique})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
