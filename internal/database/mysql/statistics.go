package mysql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dbweave/dbweave/pkg/adapter"
)

const tableStatsQuery = `
SELECT TABLE_ROWS, DATA_LENGTH + INDEX_LENGTH, UPDATE_TIME
FROM information_schema.TABLES
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`

const indexStatsQuery = `
SELECT INDEX_NAME, MIN(NON_UNIQUE), GROUP_CONCAT(COLUMN_NAME ORDER BY SEQ_IN_INDEX)
FROM information_schema.STATISTICS
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
GROUP BY INDEX_NAME
ORDER BY INDEX_NAME`

// Statistics reads information_schema. TABLE_ROWS is the optimizer estimate,
// not an exact count, and UPDATE_TIME is NULL on InnoDB unless the server
// tracks it, so both stay nil when the catalog has nothing.
func (h *hooks) Statistics(ctx context.Context, conn *sql.Conn, _ adapter.ConnectionConfig, table string) (*adapter.TableStatistics, error) {
	stats := &adapter.TableStatistics{Table: table}

	var (
		rowEstimate sql.NullInt64
		sizeBytes   sql.NullInt64
		updated     sql.NullTime
	)
	err := conn.QueryRowContext(ctx, tableStatsQuery, table).Scan(&rowEstimate, &sizeBytes, &updated)
	if err != nil {
		return nil, err
	}
	if rowEstimate.Valid {
		stats.RowEstimate = adapter.Int64Ptr(rowEstimate.Int64)
	}
	if sizeBytes.Valid {
		stats.SizeBytes = adapter.Int64Ptr(sizeBytes.Int64)
	}
	if updated.Valid {
		stats.LastModified = adapter.TimePtr(updated.Time)
	}

	rows, err := conn.QueryContext(ctx, indexStatsQuery, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name      string
			nonUnique int
			columns   sql.NullString
		)
		if err := rows.Scan(&name, &nonUnique, &columns); err != nil {
			return nil, err
		}
		idx := adapter.IndexInfo{Name: name, Unique: nonUnique == 0}
		if columns.Valid && columns.String != "" {
			idx.Columns = strings.Split(columns.String, ",")
		}
		stats.Indexes = append(stats.Indexes, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
