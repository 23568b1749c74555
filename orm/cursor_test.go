package orm

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor(t *testing.T) {
	var types []string
	db, mock := mockDB(t, DBWithMiddlewares(func(next Handler) Handler {
		return func(ctx context.Context, qc *QueryContext) *QueryResult {
			types = append(types, qc.Type)
			return next(ctx, qc)
		}
	}))
	users := sqlmock.NewRows([]string{"id", "first_name"}).
		AddRow(int64(1), "Tom").
		AddRow(int64(2), "Jack")
	total := sqlmock.NewRows([]string{"cnt"}).AddRow(int64(5))
	report := sqlmock.NewRows([]string{"name", "total"}).AddRow("Tom", int64(3))
	mock.ExpectQuery("SELECT .*").WithArgs(18).WillReturnRows(users, total, report)

	c, err := QueryMultiple(context.Background(), db,
		"SELECT id, first_name FROM test_model WHERE age > ?; SELECT COUNT(*) AS cnt FROM test_model; SELECT name, total FROM report", 18)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Position())
	assert.Equal(t, []string{"RAW"}, types)

	models, err := Extract[TestModel](c)
	require.NoError(t, err)
	assert.Equal(t, []*TestModel{
		{Id: 1, FirstName: "Tom"},
		{Id: 2, FirstName: "Jack"},
	}, models)
	assert.Equal(t, 1, c.Position())

	cnt, err := Scalar[int64](c)
	require.NoError(t, err)
	assert.Equal(t, int64(5), cnt)
	assert.Equal(t, 2, c.Position())

	recs, err := ExtractRecords(c)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]any{"name": "Tom", "total": int64(3)}, recs[0].Map())
	assert.True(t, c.Exhausted())
	assert.Equal(t, -1, c.Position())

	// 读完之后再读是使用错误
	_, err = Extract[TestModel](c)
	assert.ErrorIs(t, err, ErrCursorExhausted)
	assert.ErrorIs(t, c.NextResult(), ErrCursorExhausted)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	_, err = ExtractRecords(c)
	assert.Equal(t, ErrCursorClosed, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCursor_NoAdvance(t *testing.T) {
	db, mock := mockDB(t)
	first := sqlmock.NewRows([]string{"id"}).AddRow(int64(1))
	second := sqlmock.NewRows([]string{"id"}).AddRow(int64(2))
	mock.ExpectQuery("SELECT .*").WillReturnRows(first, second)

	c, err := QueryMultiple(context.Background(), db, "SELECT id FROM a; SELECT id FROM b")
	require.NoError(t, err)
	defer func() {
		_ = c.Close()
	}()

	id, err := Scalar[int64](c, NoAdvance())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, 0, c.Position())

	require.NoError(t, c.NextResult())
	assert.Equal(t, 1, c.Position())
	models, err := Extract[TestModel](c, NoAdvance())
	require.NoError(t, err)
	assert.Equal(t, []*TestModel{{Id: 2}}, models)
	assert.Equal(t, 1, c.Position())

	require.NoError(t, c.NextResult())
	assert.True(t, c.Exhausted())
}

func TestCursor_EmptyScalar(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery("SELECT .*").WillReturnRows(
		sqlmock.NewRows([]string{"name"}),
		sqlmock.NewRows([]string{"name", "extra"}).AddRow("Tom", 1),
	)

	c, err := QueryMultiple(context.Background(), db, "SELECT name FROM a; SELECT name, extra FROM b")
	require.NoError(t, err)
	defer func() {
		_ = c.Close()
	}()

	// 空的结果集返回零值
	name, err := Scalar[string](c)
	require.NoError(t, err)
	assert.Equal(t, "", name)

	// 多出来的列丢掉
	name, err = Scalar[string](c)
	require.NoError(t, err)
	assert.Equal(t, "Tom", name)
	assert.True(t, c.Exhausted())
}

func TestQueryMultiple_Error(t *testing.T) {
	db, mock := mockDB(t)
	queryErr := errors.New("query error")
	mock.ExpectQuery("SELECT .*").WillReturnError(queryErr)

	_, err := QueryMultiple(context.Background(), db, "SELECT 1")
	assert.Equal(t, queryErr, err)
}

func TestQueryScalar(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery("SELECT COUNT").WithArgs(18).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(int64(3)))

	cnt, err := QueryScalar[int64](context.Background(), db, "SELECT COUNT(*) FROM test_model WHERE age > ?", 18)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cnt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryScalar_SQLite(t *testing.T) {
	db := memoryDB(t)
	seedTestModel(t, db)

	maxAge, err := QueryScalar[int64](context.Background(), db, "SELECT MAX(age) FROM test_model")
	require.NoError(t, err)
	assert.Equal(t, int64(45), maxAge)
}
