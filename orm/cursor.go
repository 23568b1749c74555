package orm

import (
	"context"
	"database/sql"

	"github.com/startdusk/dbkit/orm/internal/errs"
	"github.com/startdusk/dbkit/orm/mapping"
)

// Cursor 一次执行返回的多个结果集
//
// Position 从 0 开始, 全部读完之后是 -1
// 每次 Extract/ExtractRecords/Scalar 读取当前结果集, 然后自动前进到下一个
// 使用 NoAdvance 的时候不会前进, 需要自己调用 NextResult
type Cursor struct {
	core
	rows     *sql.Rows
	position int
	closed   bool
}

type extractOptions struct {
	noAdvance bool
}

type ExtractOption func(o *extractOptions)

// NoAdvance 读取之后停留在当前结果集
func NoAdvance() ExtractOption {
	return func(o *extractOptions) {
		o.noAdvance = true
	}
}

// QueryMultiple 执行返回多个结果集的语句, 用完之后需要 Close
// MySQL 需要在 DSN 里面打开 multiStatements
func QueryMultiple(ctx context.Context, sess Session, query string, args ...any) (*Cursor, error) {
	c := sess.getCore()
	raw := RawQuery[any](sess, query, args...)
	res := queryContextResult(ctx, sess, c, &QueryContext{
		Type:    "RAW",
		Builder: raw,
	})
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.(*Cursor), nil
}

func queryContextResult(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	return query(ctx, sess, c, qc, func(rows *sql.Rows) (any, error) {
		// 游标持有 rows, 由 Close 释放
		return &Cursor{core: c, rows: rows}, nil
	})
}

// Position 当前结果集的下标, 读完之后是 -1
func (c *Cursor) Position() int {
	return c.position
}

func (c *Cursor) Exhausted() bool {
	return c.position < 0
}

// NextResult 前进到下一个结果集, 已经读完的时候返回 ErrCursorExhausted
func (c *Cursor) NextResult() error {
	if err := c.check(); err != nil {
		return err
	}
	return c.advance()
}

// Close 释放结果集, 可以重复调用
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}

func (c *Cursor) check() error {
	if c.closed {
		return errs.ErrCursorClosed
	}
	if c.position < 0 {
		return errs.NewErrCursorExhausted(c.position)
	}
	return nil
}

func (c *Cursor) advance() error {
	if c.rows.NextResultSet() {
		c.position++
		return nil
	}
	c.position = -1
	// 驱动在最后一个结果集之后可能会报错
	return c.rows.Err()
}

func (c *Cursor) finish(opts []ExtractOption) error {
	var o extractOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.noAdvance {
		return nil
	}
	return c.advance()
}

// Extract 把当前结果集映射成 []*T
func Extract[T any](c *Cursor, opts ...ExtractOption) ([]*T, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	res, err := readAll[T](c.core, c.rows)
	if err != nil {
		return nil, err
	}
	return res, c.finish(opts)
}

// ExtractRecords 把当前结果集映射成 Record
func ExtractRecords(c *Cursor, opts ...ExtractOption) ([]mapping.Record, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	res, err := readRecords(c.core, c.rows)
	if err != nil {
		return nil, err
	}
	return res, c.finish(opts)
}

// Scalar 读取当前结果集第一行第一列, 结果集为空的时候返回零值
func Scalar[V any](c *Cursor, opts ...ExtractOption) (V, error) {
	var val V
	if err := c.check(); err != nil {
		return val, err
	}
	if c.rows.Next() {
		cols, err := c.rows.Columns()
		if err != nil {
			return val, err
		}
		dests := make([]any, len(cols))
		dests[0] = &val
		for i := 1; i < len(dests); i++ {
			dests[i] = new(any)
		}
		if err = c.rows.Scan(dests...); err != nil {
			return val, err
		}
	} else if err := c.rows.Err(); err != nil {
		return val, err
	}
	return val, c.finish(opts)
}

// QueryScalar 执行查询, 返回第一个结果集第一行第一列
func QueryScalar[V any](ctx context.Context, sess Session, query string, args ...any) (V, error) {
	cursor, err := QueryMultiple(ctx, sess, query, args...)
	if err != nil {
		var zero V
		return zero, err
	}
	defer func() {
		_ = cursor.Close()
	}()
	return Scalar[V](cursor, NoAdvance())
}
