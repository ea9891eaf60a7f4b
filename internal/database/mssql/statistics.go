package mssql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dbweave/dbweave/pkg/adapter"
)

const tableStatsQuery = `
SELECT SUM(p.row_count), SUM(p.used_page_count) * 8192
FROM sys.dm_db_partition_stats p
JOIN sys.objects o ON o.object_id = p.object_id
WHERE o.name = @p1 AND p.index_id IN (0, 1)`

const indexStatsQuery = `
SELECT i.name, i.is_unique,
       STRING_AGG(c.name, ',') WITHIN GROUP (ORDER BY ic.key_ordinal)
FROM sys.indexes i
JOIN sys.objects o ON o.object_id = i.object_id
JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
WHERE o.name = @p1 AND i.name IS NOT NULL
GROUP BY i.name, i.is_unique
ORDER BY i.name`

// Statistics reads sys.dm_db_partition_stats, which is maintained and cheap,
// instead of counting rows. Pages are 8 KB.
func (h *hooks) Statistics(ctx context.Context, conn *sql.Conn, _ adapter.ConnectionConfig, table string) (*adapter.TableStatistics, error) {
	stats := &adapter.TableStatistics{Table: table}

	var (
		rowCount  sql.NullInt64
		sizeBytes sql.NullInt64
	)
	if err := conn.QueryRowContext(ctx, tableStatsQuery, table).Scan(&rowCount, &sizeBytes); err != nil {
		return nil, err
	}
	if rowCount.Valid {
		stats.RowEstimate = adapter.Int64Ptr(rowCount.Int64)
	}
	if sizeBytes.Valid {
		stats.SizeBytes = adapter.Int64Ptr(sizeBytes.Int64)
	}

	rows, err := conn.QueryContext(ctx, indexStatsQuery, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name    string
			unique  bool
			columns sql.NullString
		)
		if err := rows.Scan(&name, &unique, &columns); err != nil {
			return nil, err
		}
		idx := adapter.IndexInfo{Name: name, Unique: unique}
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
