package orm

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/startdusk/dbkit/orm/mapping"
	"github.com/startdusk/dbkit/orm/model"
)

type core struct {
	r        model.Registry
	compiler *mapping.Compiler
	dialect  Dialect
	logger   *zap.Logger
	stmts    *statementCache

	batchSize int
	mdls      []Middleware
}

// chain 按照注册的顺序包装 handler, 第一个中间件在最外层
func (c core) chain(root Handler) Handler {
	for i := len(c.mdls) - 1; i >= 0; i-- {
		root = c.mdls[i](root)
	}
	return root
}

// scanner 消费结果集, 负责关闭 rows
type scanner func(rows *sql.Rows) (any, error)

func query(ctx context.Context, sess Session, c core, qc *QueryContext, scan scanner) *QueryResult {
	root := c.chain(func(ctx context.Context, qc *QueryContext) *QueryResult {
		return queryHandler(ctx, sess, c, qc, scan)
	})
	return root(ctx, qc)
}

func queryHandler(ctx context.Context, sess Session, c core, qc *QueryContext, scan scanner) *QueryResult {
	q, err := qc.Builder.Build()
	if err != nil {
		return &QueryResult{Err: err}
	}
	c.logger.Debug("orm: 执行查询",
		zap.String("type", qc.Type),
		zap.String("sql", q.SQL),
		zap.Int("args", len(q.Args)))
	rows, err := sess.queryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		c.logger.Error("orm: 查询失败", zap.String("sql", q.SQL), zap.Error(err))
		return &QueryResult{Err: err}
	}
	res, err := scan(rows)
	return &QueryResult{Result: res, Err: err}
}

func exec(ctx context.Context, sess Session, c core, qc *QueryContext) Result {
	root := c.chain(func(ctx context.Context, qc *QueryContext) *QueryResult {
		return execHandler(ctx, sess, c, qc)
	})
	res := root(ctx, qc)
	var sqlRes sql.Result
	if val, ok := res.Result.(sql.Result); ok {
		sqlRes = val
	}
	return Result{res: sqlRes, err: res.Err}
}

func execHandler(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	q, err := qc.Builder.Build()
	if err != nil {
		return &QueryResult{Err: err}
	}
	c.logger.Debug("orm: 执行语句",
		zap.String("type", qc.Type),
		zap.String("sql", q.SQL),
		zap.Int("args", len(q.Args)))
	res, err := sess.execContext(ctx, q.SQL, q.Args...)
	if err != nil {
		c.logger.Error("orm: 执行失败", zap.String("sql", q.SQL), zap.Error(err))
	}
	return &QueryResult{Result: res, Err: err}
}

func mapperFor[T any](c core, rows *sql.Rows) (*mapping.Mapper, error) {
	cols, err := mapping.ColumnsOf(rows)
	if err != nil {
		return nil, err
	}
	return mapping.For[T](c.compiler, cols)
}

// scanOne 只读取第一行, 没有数据返回 ErrNoRows, 和 sql 包语义一致
func scanOne[T any](c core) scanner {
	return func(rows *sql.Rows) (any, error) {
		defer func() {
			_ = rows.Close()
		}()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return nil, err
			}
			return nil, ErrNoRows
		}
		// 利用 columns 来解决 select 的列顺序 和 列字段类型的问题
		m, err := mapperFor[T](c, rows)
		if err != nil {
			return nil, err
		}
		return mapping.Row[T](m, rows)
	}
}

func scanAll[T any](c core) scanner {
	return func(rows *sql.Rows) (any, error) {
		defer func() {
			_ = rows.Close()
		}()
		return readAll[T](c, rows)
	}
}

// readAll 读取当前结果集的所有行, 不关闭 rows
func readAll[T any](c core, rows *sql.Rows) ([]*T, error) {
	m, err := mapperFor[T](c, rows)
	if err != nil {
		return nil, err
	}
	res := make([]*T, 0, 8)
	for rows.Next() {
		entity, err := mapping.Row[T](m, rows)
		if err != nil {
			return nil, err
		}
		res = append(res, entity)
	}
	return res, rows.Err()
}

func scanRecords(c core) scanner {
	return func(rows *sql.Rows) (any, error) {
		defer func() {
			_ = rows.Close()
		}()
		return readRecords(c, rows)
	}
}

func readRecords(c core, rows *sql.Rows) ([]mapping.Record, error) {
	cols, err := mapping.ColumnsOf(rows)
	if err != nil {
		return nil, err
	}
	m, err := c.compiler.Compile(nil, cols)
	if err != nil {
		return nil, err
	}
	res := make([]mapping.Record, 0, 8)
	for rows.Next() {
		rec, err := m.Row(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec.(mapping.Record))
	}
	return res, rows.Err()
}
