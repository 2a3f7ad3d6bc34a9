package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var positionCols = []string{"id", "title", "org"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        "positions",
		Columns:      positionCols,
		ConflictKeys: []string{"id"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_ConfigErrors(t *testing.T) {
	rows := [][]any{{"1", "Engineer", "Acme"}}

	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{Table: "positions", ConflictKeys: []string{"id"}}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")

	_, err = BulkUpsert(context.Background(), nil, UpsertConfig{Table: "positions", Columns: positionCols}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")

	_, err = BulkUpsert(context.Background(), nil, UpsertConfig{Table: "positions", Columns: positionCols, ConflictKeys: []string{"uuid"}}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `conflict key "uuid" is not a column`)
}

func TestBulkUpsert_Success(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_positions"}, positionCols).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "positions" .* ON CONFLICT \("id"\) DO UPDATE SET "title" = EXCLUDED."title", "org" = EXCLUDED."org"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "positions",
		Columns:      positionCols,
		ConflictKeys: []string{"id"},
	}, [][]any{{"1", "Engineer", "Acme"}, {"2", "Manager", "Globex"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CopyFailureRollsBack(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_positions"}, positionCols).WillReturnError(errors.New("copy failed"))
	mock.ExpectRollback()

	_, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "positions",
		Columns:      positionCols,
		ConflictKeys: []string{"id"},
	}, [][]any{{"1", "Engineer", "Acme"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into temp table for positions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLastByKey(t *testing.T) {
	rows := [][]any{
		{"1", "Engineer", "Acme"},
		{"2", "Manager", "Globex"},
		{"1", "Senior Engineer", "Acme"},
	}
	got := lastByKey(rows, []int{0})
	assert.Equal(t, [][]any{{"2", "Manager", "Globex"}, {"1", "Senior Engineer", "Acme"}}, got)

	unique := rows[:2]
	assert.Equal(t, unique, lastByKey(unique, []int{0}))
}

func TestSanitizeTable(t *testing.T) {
	assert.Equal(t, `"positions"`, sanitizeTable("positions"))
	assert.Equal(t, `"career"."positions"`, sanitizeTable("career.positions"))
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"id", "name", "value"`, quoteAndJoin([]string{"id", "name", "value"}))
}
