package querylog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/startdusk/dbkit/orm"

	_ "github.com/mattn/go-sqlite3"
)

func TestQueryLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var query string
	var args []any
	m := NewMiddlewareBuilder(zap.New(core)).LogFunc(func(q string, as []any) {
		query = q
		args = as
	})

	db, err := orm.Open("sqlite3", "file:test_orm_querylog.db?cache=shared&mode=memory", orm.DBWithMiddlewares(m.Build()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	// 表不存在, 查询失败也会记录
	_, _ = orm.NewSelector[TestModel](db).Where(orm.C("Id").Eq(12)).Get(context.Background())
	assert.Equal(t, "SELECT * FROM `test_model` WHERE `id` = ?;", query)
	assert.Equal(t, []any{12}, args)

	_ = orm.NewInserter[TestModel](db).Values(&TestModel{Id: 18}).Columns("Id").Exec(context.Background())
	assert.Equal(t, "INSERT INTO `test_model` (`id`) VALUES (?);", query)
	assert.Equal(t, []any{int64(18)}, args)

	entries := logs.FilterMessage("orm: query").All()
	require.Len(t, entries, 2)
	first := entries[0].ContextMap()
	assert.Equal(t, "SELECT", first["type"])
	assert.Equal(t, "test_model", first["table"])
	assert.NotEmpty(t, first["query_id"])
	// 默认不打印参数
	_, ok := first["args"]
	assert.False(t, ok)
	assert.Equal(t, "INSERT", entries[1].ContextMap()["type"])

	failed := logs.FilterMessage("orm: query failed").All()
	require.Len(t, failed, 2)
	assert.Equal(t, first["query_id"], failed[0].ContextMap()["query_id"])
}

func TestQueryLog_LogArgs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewMiddlewareBuilder(zap.New(core)).LogArgs()
	db, err := orm.Open("sqlite3", "file:test_orm_querylog_args.db?cache=shared&mode=memory", orm.DBWithMiddlewares(m.Build()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	_, _ = orm.NewSelector[TestModel](db).Where(orm.C("Age").Gt(18)).GetMulti(context.Background())
	entries := logs.FilterMessage("orm: query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, []any{18}, entries[0].ContextMap()["args"])

	// 构造 SQL 失败的时候不会发给数据库
	_, err = orm.NewSelector[TestModel](db).Where(orm.C("Invalid").Gt(18)).GetMulti(context.Background())
	assert.Error(t, err)
	assert.Len(t, logs.FilterMessage("orm: query").All(), 1)
}

type TestModel struct {
	Id        int64
	FirstName string
	Age       int8
	LastName  *sql.NullString
}
