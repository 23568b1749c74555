package orm

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startdusk/dbkit/orm/internal/errs"
)

func TestInserter_Build(t *testing.T) {
	db, _ := mockDB(t)
	tom := &TestModel{
		Id:        1,
		FirstName: "Tom",
		Age:       18,
		LastName:  &sql.NullString{String: "Jerry", Valid: true},
	}
	jack := &TestModel{
		Id:        2,
		FirstName: "Jack",
		Age:       20,
	}
	cases := []struct {
		name      string
		i         QueryBuilder
		wantErr   error
		wantQuery *Query
	}{
		{
			name:    "insert zero row",
			i:       NewInserter[TestModel](db).Values(),
			wantErr: errs.ErrInsertZeroRows,
		},
		{
			name: "insert single row",
			i:    NewInserter[TestModel](db).Values(tom),
			wantQuery: &Query{
				SQL:    "INSERT INTO `test_model` (`id`, `first_name`, `age`, `last_name`) VALUES (?, ?, ?, ?);",
				Args:   []any{int64(1), "Tom", int8(18), &sql.NullString{String: "Jerry", Valid: true}},
				Params: []string{"id", "first_name", "age", "last_name"},
			},
		},
		{
			name: "insert multiple rows",
			i:    NewInserter[TestModel](db).Values(tom, jack),
			wantQuery: &Query{
				SQL: "INSERT INTO `test_model` (`id`, `first_name`, `age`, `last_name`) VALUES (?, ?, ?, ?), (?, ?, ?, ?);",
				Args: []any{
					int64(1), "Tom", int8(18), &sql.NullString{String: "Jerry", Valid: true},
					int64(2), "Jack", int8(20), (*sql.NullString)(nil),
				},
				Params: []string{
					"id", "first_name", "age", "last_name",
					"id_1", "first_name_1", "age_1", "last_name_1",
				},
			},
		},
		{
			name: "insert columns",
			i:    NewInserter[TestModel](db).Values(tom, jack).Columns("FirstName", "age"),
			wantQuery: &Query{
				SQL:    "INSERT INTO `test_model` (`first_name`, `age`) VALUES (?, ?), (?, ?);",
				Args:   []any{"Tom", int8(18), "Jack", int8(20)},
				Params: []string{"first_name", "age", "first_name_1", "age_1"},
			},
		},
		{
			name:    "insert invalid column",
			i:       NewInserter[TestModel](db).Values(tom).Columns("FirstName", "Invalid"),
			wantErr: errs.NewErrUnknownField("Invalid"),
		},
		{
			name: "upsert",
			i:    NewInserter[TestModel](db).Values(tom).Columns("Id", "FirstName").Upsert(),
			wantQuery: &Query{
				SQL:    "INSERT INTO `test_model` (`id`, `first_name`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `first_name` = VALUES(`first_name`);",
				Args:   []any{int64(1), "Tom"},
				Params: []string{"id", "first_name"},
			},
		},
		{
			name: "upsert qualifiers",
			i:    NewInserter[TestModel](db).Values(tom).Columns("Id", "FirstName", "Age").Upsert("Id", "FirstName"),
			wantQuery: &Query{
				SQL:    "INSERT INTO `test_model` (`id`, `first_name`, `age`) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE `age` = VALUES(`age`);",
				Args:   []any{int64(1), "Tom", int8(18)},
				Params: []string{"id", "first_name", "age"},
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q, err := c.i.Build()
			assert.Equal(t, c.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, c.wantQuery, q)
		})
	}
}

func TestInserter_SQLite_Upsert(t *testing.T) {
	db := memoryDB(t, DBWithDialect(DialectSQLite))
	q, err := NewInserter[TestModel](db).Values(&TestModel{
		Id:        1,
		FirstName: "Tom",
		Age:       18,
	}).Columns("Id", "FirstName", "Age").Upsert().Build()
	require.NoError(t, err)
	assert.Equal(t, &Query{
		SQL: "INSERT INTO `test_model` (`id`, `first_name`, `age`) VALUES (@id, @first_name, @age) " +
			"ON CONFLICT (`id`) DO UPDATE SET `first_name` = excluded.`first_name`, `age` = excluded.`age`;",
		Args:   []any{sql.Named("id", int64(1)), sql.Named("first_name", "Tom"), sql.Named("age", int8(18))},
		Params: []string{"id", "first_name", "age"},
	}, q)
}

func TestInserter_Exec(t *testing.T) {
	cases := []struct {
		name         string
		mock         func(mock sqlmock.Sqlmock)
		i            func(db *DB) *Inserter[TestModel]
		wantErr      error
		wantAffected int64
	}{
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO .*").WillReturnError(errors.New("db error"))
			},
			i: func(db *DB) *Inserter[TestModel] {
				return NewInserter[TestModel](db).Values(&TestModel{Id: 1})
			},
			wantErr: errors.New("db error"),
		},
		{
			name: "query error",
			mock: func(mock sqlmock.Sqlmock) {},
			i: func(db *DB) *Inserter[TestModel] {
				return NewInserter[TestModel](db).Values(&TestModel{Id: 1}).Columns("Invalid")
			},
			wantErr: errs.NewErrUnknownField("Invalid"),
		},
		{
			name: "exec",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `test_model` (`id`, `first_name`) VALUES (?, ?), (?, ?);")).
					WithArgs(int64(1), "Tom", int64(2), "Jack").
					WillReturnResult(sqlmock.NewResult(2, 2))
			},
			i: func(db *DB) *Inserter[TestModel] {
				return NewInserter[TestModel](db).
					Values(&TestModel{Id: 1, FirstName: "Tom"}, &TestModel{Id: 2, FirstName: "Jack"}).
					Columns("Id", "FirstName")
			},
			wantAffected: 2,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			db, mock := mockDB(t)
			c.mock(mock)
			res := c.i(db).Exec(context.Background())
			assert.Equal(t, c.wantErr, res.Err())
			if res.Err() != nil {
				return
			}
			affected, err := res.RowsAffected()
			require.NoError(t, err)
			assert.Equal(t, c.wantAffected, affected)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInserter_SQLite(t *testing.T) {
	db := memoryDB(t, DBWithDialect(DialectSQLite))
	ctx := context.Background()
	_, err := db.db.ExecContext(ctx, TestModel{}.CreateSQL())
	require.NoError(t, err)

	res := NewInserter[TestModel](db).Values(
		&TestModel{Id: 1, FirstName: "Tom", Age: 18, LastName: &sql.NullString{String: "Cat", Valid: true}},
		&TestModel{Id: 2, FirstName: "Jack", Age: 20},
	).Exec(ctx)
	require.NoError(t, res.Err())
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	// 同样形状的语句命中缓存
	res = NewInserter[TestModel](db).Values(
		&TestModel{Id: 3, FirstName: "Lucy", Age: 15},
		&TestModel{Id: 4, FirstName: "Ben", Age: 45},
	).Exec(ctx)
	require.NoError(t, res.Err())
	assert.Equal(t, 1, db.stmts.len())

	// 主键冲突
	res = NewInserter[TestModel](db).Values(&TestModel{Id: 1, FirstName: "Tom"}).Exec(ctx)
	assert.Error(t, res.Err())

	// upsert 更新已有的数据
	res = NewInserter[TestModel](db).
		Values(&TestModel{Id: 1, FirstName: "Tommy", Age: 19}).
		Columns("Id", "FirstName", "Age").
		Upsert().Exec(ctx)
	require.NoError(t, res.Err())

	got, err := NewSelector[TestModel](db).Where(C("Id").Eq(1)).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Tommy", got.FirstName)
	assert.Equal(t, int8(19), got.Age)
	assert.Equal(t, &sql.NullString{String: "Cat", Valid: true}, got.LastName)

	cnt, err := NewSelector[TestModel](db).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), cnt)
}
