package postgres

import (
	"context"
	"strings"

	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

const tableStatsQuery = `
SELECT c.reltuples::bigint, pg_total_relation_size(c.oid)
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relname = $1 AND n.nspname = $2`

const indexStatsQuery = `
SELECT i.relname, ix.indisunique,
       array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum))
FROM pg_index ix
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
WHERE t.relname = $1 AND n.nspname = $2
GROUP BY i.relname, ix.indisunique
ORDER BY i.relname`

// GetTableStatistics reads the planner's statistics from pg_class. The
// reltuples estimate is -1 on a never-analyzed table; that reads as
// "unknown", so RowEstimate stays nil rather than reporting a count.
func (a *Adapter) GetTableStatistics(ctx context.Context, table string) (*adapter.TableStatistics, error) {
	if !a.IsConnected() {
		return nil, adapter.ErrNotConnected
	}

	schema := "public"
	name := table
	if idx := strings.Index(table, "."); idx > 0 {
		schema = table[:idx]
		name = table[idx+1:]
	}

	conn, err := a.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	statsCtx, cancel := a.callContext(ctx)
	defer cancel()

	stats := &adapter.TableStatistics{Table: table}

	var (
		relTuples int64
		sizeBytes int64
	)
	if err := conn.QueryRow(statsCtx, tableStatsQuery, name, schema).Scan(&relTuples, &sizeBytes); err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "statistics", table, err)
	}
	if relTuples >= 0 {
		stats.RowEstimate = adapter.Int64Ptr(relTuples)
	}
	stats.SizeBytes = adapter.Int64Ptr(sizeBytes)
	stats.SizeHuman = adapter.FormatByteSize(sizeBytes)

	rows, err := conn.Query(statsCtx, indexStatsQuery, name, schema)
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "statistics", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			idxName string
			unique  bool
			columns []string
		)
		if err := rows.Scan(&idxName, &unique, &columns); err != nil {
			return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "statistics", table, err)
		}
		stats.Indexes = append(stats.Indexes, adapter.IndexInfo{Name: idxName, Columns: columns, Unique: unique})
	}
	if err := rows.Err(); err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "statistics", table, err)
	}
	return stats, nil
}
