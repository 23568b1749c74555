package orm

import (
	"context"
	"database/sql"

	"github.com/startdusk/dbkit/orm/mapping"
)

// RawQuerier 原生查询, SQL 由用户保证正确
type RawQuerier[T any] struct {
	core
	sess Session
	sql  string
	args []any
}

func RawQuery[T any](sess Session, query string, args ...any) *RawQuerier[T] {
	return &RawQuerier[T]{
		sql:  query,
		args: args,
		sess: sess,
		core: sess.getCore(),
	}
}

func (r *RawQuerier[T]) Build() (*Query, error) {
	return &Query{
		SQL:  r.sql,
		Args: r.args,
	}, nil
}

func (r *RawQuerier[T]) queryContext() *QueryContext {
	// T 不一定是注册过的结构体, 拿不到模型也不影响执行
	m, _ := r.r.Get(new(T))
	qc := &QueryContext{
		Type:    "RAW",
		Builder: r,
		Model:   m,
	}
	if m != nil {
		qc.Table = m.TableName
	}
	return qc
}

func (r *RawQuerier[T]) Get(ctx context.Context) (*T, error) {
	res := query(ctx, r.sess, r.core, r.queryContext(), scanOne[T](r.core))
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.(*T), nil
}

func (r *RawQuerier[T]) GetMulti(ctx context.Context) ([]*T, error) {
	res := query(ctx, r.sess, r.core, r.queryContext(), scanAll[T](r.core))
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.([]*T), nil
}

// Records 每一行转换成 Record, 不需要 T 是结构体
func (r *RawQuerier[T]) Records(ctx context.Context) ([]mapping.Record, error) {
	res := query(ctx, r.sess, r.core, r.queryContext(), scanRecords(r.core))
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.([]mapping.Record), nil
}

func (r *RawQuerier[T]) Exec(ctx context.Context) Result {
	return exec(ctx, r.sess, r.core, r.queryContext())
}

// Out 输出参数, 执行之后 dest 里面就是数据库返回的值
// 需要驱动支持, 例如 SQL Server 的存储过程
//
//	var total int64
//	RawQuery[any](db, "EXEC count_users @total OUTPUT", Out("total", &total)).Exec(ctx)
func Out(name string, dest any) sql.NamedArg {
	return sql.Named(name, sql.Out{Dest: dest})
}

// InOut 既是输入参数也是输出参数, dest 里面的值会传给数据库
func InOut(name string, dest any) sql.NamedArg {
	return sql.Named(name, sql.Out{Dest: dest, In: true})
}
