package mssql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

func TestDriverRegistration(t *testing.T) {
	a, err := adapter.New(adapter.ConnectionConfig{ConnectionString: "mssql://sa:pw@db.example.com:1433/master"})
	require.NoError(t, err)
	assert.Equal(t, dbcapabilities.SQLServer, a.Type())
}

func TestBuildDSN(t *testing.T) {
	h := &hooks{}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "mssql scheme normalized",
			in:   "mssql://sa:pw@db.example.com:1433/sales",
			want: "sqlserver://sa:pw@db.example.com:1433?database=sales",
		},
		{
			name: "sqlserver scheme with query database kept",
			in:   "sqlserver://sa:pw@db.example.com:1433?database=sales",
			want: "sqlserver://sa:pw@db.example.com:1433?database=sales",
		},
		{
			name: "path does not override explicit database parameter",
			in:   "mssql://sa:pw@db.example.com/ignored?database=sales",
			want: "sqlserver://sa:pw@db.example.com?database=sales",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.BuildDSN(adapter.ConnectionConfig{ConnectionString: tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := h.BuildDSN(adapter.ConnectionConfig{ConnectionString: "db.example.com:1433"})
	assert.Error(t, err)
}

func TestValidateTogglesParseOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("SET PARSEONLY ON")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SELECT * FROM orders")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SET PARSEONLY OFF")).WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, (&hooks{}).Validate(ctx, conn, "SELECT * FROM orders"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRestoresSessionOnParseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	parseErr := errors.New("incorrect syntax near 'FORM'")
	mock.ExpectExec(regexp.QuoteMeta("SET PARSEONLY ON")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SELECT * FORM orders")).WillReturnError(parseErr)
	mock.ExpectExec(regexp.QuoteMeta("SET PARSEONLY OFF")).WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	err = (&hooks{}).Validate(ctx, conn, "SELECT * FORM orders")
	assert.ErrorIs(t, err, parseErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatistics(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM sys.dm_db_partition_stats")).
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"rows", "bytes"}).AddRow(int64(5000), int64(409600)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM sys.indexes")).
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"name", "is_unique", "columns"}).
			AddRow("PK_orders", true, "id").
			AddRow("IX_orders_customer", false, "customer_id,placed_at"))

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	stats, err := (&hooks{}).Statistics(ctx, conn, adapter.ConnectionConfig{}, "orders")
	require.NoError(t, err)

	require.NotNil(t, stats.RowEstimate)
	assert.Equal(t, int64(5000), *stats.RowEstimate)
	require.NotNil(t, stats.SizeBytes)
	assert.Equal(t, int64(409600), *stats.SizeBytes)
	require.Len(t, stats.Indexes, 2)
	assert.Equal(t, []string{"customer_id", "placed_at"}, stats.Indexes[1].Columns)
}
