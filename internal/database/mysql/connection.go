package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

// Explain returns the JSON plan. The analyze form executes the statement and
// reports the tree-format runtime plan instead, matching what MySQL 8 emits.
func (h *hooks) Explain(ctx context.Context, conn *sql.Conn, sqlText string, analyze bool) (string, error) {
	dialect := dbcapabilities.MustGet(dbcapabilities.MySQL).Dialect

	template := dialect.Explain
	if analyze {
		template = dialect.ExplainAnalyze
	}

	rows, err := conn.QueryContext(ctx, fmt.Sprintf(template, sqlText))
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
