package orm

import (
	"context"
	"database/sql"
)

// Querier 用于 `SELECT` 语句
type Querier[T any] interface {
	Get(ctx context.Context) (*T, error)
	// 返回指针 是允许在 AOP 的场景下修改返回值, 从而不引起数据拷贝
	GetMulti(ctx context.Context) ([]*T, error)
}

// Executor 用于 `INSERT`, `UPDATE`, `DELETE` 语句
type Executor interface {
	Exec(ctx context.Context) Result
}

type QueryBuilder interface {
	Build() (*Query, error)
}

// Query 编译出来的语句
type Query struct {
	SQL string
	// Args 和占位符一一对应, 命名参数的方言里面是 sql.NamedArg
	Args []any
	// Params 占位符的名字, 按照在 SQL 里面出现的顺序排列
	Params []string
}

// Result 对 sql.Result 的封装, 构造语句失败的时候 err 不为 nil
type Result struct {
	err error
	res sql.Result
}

func (r Result) Err() error {
	return r.err
}

func (r Result) LastInsertId() (int64, error) {
	if r.err != nil || r.res == nil {
		return 0, r.err
	}
	return r.res.LastInsertId()
}

func (r Result) RowsAffected() (int64, error) {
	if r.err != nil || r.res == nil {
		return 0, r.err
	}
	return r.res.RowsAffected()
}

// staticQuery 已经编译好的语句, 给中间件使用
type staticQuery struct {
	q *Query
}

func (s staticQuery) Build() (*Query, error) {
	return s.q, nil
}
