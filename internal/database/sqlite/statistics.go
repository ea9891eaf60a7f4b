package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbweave/dbweave/internal/database/common"
	"github.com/dbweave/dbweave/pkg/adapter"
)

// Statistics counts rows exactly and sizes the database file from the page
// pragmas. SQLite has no per-table size accounting without the dbstat
// extension, so SizeBytes covers the whole file.
func (h *hooks) Statistics(ctx context.Context, conn *sql.Conn, _ adapter.ConnectionConfig, table string) (*adapter.TableStatistics, error) {
	stats := &adapter.TableStatistics{Table: table}

	quoted, err := common.QuoteQualified(table, `"`)
	if err != nil {
		return nil, err
	}

	var rowCount int64
	if err := conn.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&rowCount); err != nil {
		return nil, err
	}
	stats.RowEstimate = adapter.Int64Ptr(rowCount)

	var pageCount, pageSize int64
	if err := conn.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, err
	}
	if err := conn.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, err
	}
	stats.SizeBytes = adapter.Int64Ptr(pageCount * pageSize)

	indexes, err := h.tableIndexes(ctx, conn, table)
	if err != nil {
		return nil, err
	}
	stats.Indexes = indexes
	return stats, nil
}

func (h *hooks) tableIndexes(ctx context.Context, conn *sql.Conn, table string) ([]adapter.IndexInfo, error) {
	rows, err := conn.QueryContext(ctx, "SELECT name, \"unique\" FROM pragma_index_list(?) ORDER BY name", table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []adapter.IndexInfo
	for rows.Next() {
		var (
			name   string
			unique int
		)
		if err := rows.Scan(&name, &unique); err != nil {
			return nil, err
		}
		indexes = append(indexes, adapter.IndexInfo{Name: name, Unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range indexes {
		cols, err := h.indexColumns(ctx, conn, indexes[i].Name)
		if err != nil {
			return nil, err
		}
		indexes[i].Columns = cols
	}
	return indexes, nil
}

func (h *hooks) indexColumns(ctx context.Context, conn *sql.Conn, index string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, "SELECT name FROM pragma_index_info(?) ORDER BY seqno", index)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	return cols, rows.Err()
}
