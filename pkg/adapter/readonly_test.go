package adapter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureReadOnlyAccepts(t *testing.T) {
	statements := []string{
		"SELECT 1",
		"select id, name from customers where region = 'EMEA'",
		"WITH t AS (SELECT 1 AS n) SELECT n FROM t",
		"SHOW TABLES",
		"DESCRIBE orders",
		"EXPLAIN SELECT * FROM orders",
		"PRAGMA table_info(orders)",
		"SELECT 'DROP TABLE users' AS payload",
		"SELECT 'INTO OUTFILE' AS payload",
		"SELECT * FROM audit -- trailing comment",
		"SELECT /* inline UPDATE note */ count(*) FROM logs",
		"SELECT 1;",
	}

	for _, s := range statements {
		assert.NoError(t, EnsureReadOnly(s), "statement: %s", s)
	}
}

func TestEnsureReadOnlyRejects(t *testing.T) {
	statements := []struct {
		sql    string
		reason string
	}{
		{"", "empty"},
		{"   ", "blank"},
		{"INSERT INTO t VALUES (1)", "insert"},
		{"UPDATE t SET x = 1", "update"},
		{"DELETE FROM t", "delete"},
		{"DROP TABLE t", "drop"},
		{"TRUNCATE t", "truncate"},
		{"GRANT ALL ON t TO public", "grant"},
		{"SELECT 1; DROP TABLE t", "piggybacked second statement"},
		{"SELECT * FROM t; DELETE FROM t", "piggybacked delete"},
		{"CREATE TABLE t (id INT)", "create"},
		{"MERGE INTO t USING s ON t.id = s.id", "merge"},
		{"SELECT * INTO backup_users FROM users", "select into creates a table"},
		{"SELECT id FROM users INTO OUTFILE '/tmp/u.csv'", "into outfile writes a file"},
	}

	for _, tt := range statements {
		err := EnsureReadOnly(tt.sql)
		assert.Error(t, err, "should reject %s: %s", tt.reason, tt.sql)
		assert.True(t, errors.Is(err, ErrReadOnlyViolation), "error kind for %s", tt.reason)
	}
}

func TestStripStringsAndComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"line comment", "SELECT 1 -- DROP TABLE t", "SELECT 1  "},
		{"block comment", "SELECT /* UPDATE */ 1", "SELECT   1"},
		{"single quotes", "SELECT 'DELETE FROM t'", "SELECT  "},
		{"escaped quote", "SELECT 'it''s fine'", "SELECT  "},
		{"double-quoted ident", `SELECT "INSERT" FROM t`, "SELECT   FROM t"},
		{"backtick ident", "SELECT `UPDATE` FROM t", "SELECT   FROM t"},
		{"plain", "SELECT a FROM b", "SELECT a FROM b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripStringsAndComments(tt.in))
		})
	}
}
