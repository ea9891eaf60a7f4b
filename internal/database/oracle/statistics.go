package oracle

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dbweave/dbweave/pkg/adapter"
)

const tableStatsQuery = `
SELECT num_rows, last_analyzed FROM user_tables WHERE table_name = UPPER(:1)`

const segmentSizeQuery = `
SELECT SUM(bytes) FROM user_segments WHERE segment_name = UPPER(:1)`

const indexStatsQuery = `
SELECT i.index_name, i.uniqueness,
       LISTAGG(ic.column_name, ',') WITHIN GROUP (ORDER BY ic.column_position)
FROM user_indexes i
JOIN user_ind_columns ic ON ic.index_name = i.index_name
WHERE i.table_name = UPPER(:1)
GROUP BY i.index_name, i.uniqueness
ORDER BY i.index_name`

// Statistics reads the optimizer's gathered statistics. NUM_ROWS and
// LAST_ANALYZED are NULL until DBMS_STATS has run, so both stay nil on an
// unanalyzed table rather than reporting zero.
func (h *hooks) Statistics(ctx context.Context, conn *sql.Conn, _ adapter.ConnectionConfig, table string) (*adapter.TableStatistics, error) {
	stats := &adapter.TableStatistics{Table: table}

	var (
		numRows  sql.NullInt64
		analyzed sql.NullTime
	)
	if err := conn.QueryRowContext(ctx, tableStatsQuery, table).Scan(&numRows, &analyzed); err != nil {
		return nil, err
	}
	if numRows.Valid {
		stats.RowEstimate = adapter.Int64Ptr(numRows.Int64)
	}
	if analyzed.Valid {
		stats.LastModified = adapter.TimePtr(analyzed.Time)
	}

	var sizeBytes sql.NullInt64
	if err := conn.QueryRowContext(ctx, segmentSizeQuery, table).Scan(&sizeBytes); err != nil {
		return nil, err
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
			name       string
			uniqueness string
			columns    sql.NullString
		)
		if err := rows.Scan(&name, &uniqueness, &columns); err != nil {
			return nil, err
		}
		idx := adapter.IndexInfo{Name: name, Unique: uniqueness == "UNIQUE"}
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
