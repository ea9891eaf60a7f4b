package common

import (
	"database/sql"

	"github.com/dbweave/dbweave/pkg/adapter"
)

// ScanRows drains a database/sql result set into a normalized QueryResult.
// The column list comes from the driver's result metadata; every value is
// converted to the common type set before it reaches a caller.
func ScanRows(rows *sql.Rows) (*adapter.QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &adapter.QueryResult{
		Columns: columns,
		Rows:    []adapter.Row{},
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(adapter.Row, len(columns))
		for i, col := range columns {
			row[col] = adapter.NormalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.RowCount = len(result.Rows)
	return result, nil
}
