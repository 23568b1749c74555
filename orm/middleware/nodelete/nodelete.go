package nodelete

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/startdusk/dbkit/orm"
)

var ErrNoWhere = errors.New("orm: 语句没有 WHERE 条件")

// MiddlewareBuilder 强制 UPDATE, DELETE 必须带 WHERE, 防止误操作整张表
// TRUNCATE 本来就是整张表的操作, 也会被拦下来
type MiddlewareBuilder struct {
	// 额外要检查的类型, 例如 SELECT
	types map[string]struct{}
}

func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{
		types: map[string]struct{}{
			"UPDATE":   {},
			"DELETE":   {},
			"TRUNCATE": {},
		},
	}
}

// Check 增加要求带 WHERE 的语句类型
func (m *MiddlewareBuilder) Check(types ...string) *MiddlewareBuilder {
	for _, typ := range types {
		m.types[strings.ToUpper(typ)] = struct{}{}
	}
	return m
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			if _, ok := m.types[qc.Type]; !ok {
				return next(ctx, qc)
			}
			q, err := qc.Builder.Build()
			if err != nil {
				return &orm.QueryResult{
					Err: err,
				}
			}
			if !strings.Contains(q.SQL, " WHERE ") {
				return &orm.QueryResult{
					Err: fmt.Errorf("%w: %s", ErrNoWhere, q.SQL),
				}
			}
			return next(ctx, qc)
		}
	}
}
