package safedml

import (
	"context"
	"errors"
	"fmt"

	"github.com/startdusk/dbkit/orm"
)

var ErrForbidden = errors.New("orm: 禁止执行的语句")

// MiddlewareBuilder 直接禁用某些类型的语句, 默认禁用 DELETE 和 TRUNCATE
type MiddlewareBuilder struct {
	forbidden map[string]struct{}
}

func NewMiddlewareBuilder(types ...string) *MiddlewareBuilder {
	if len(types) == 0 {
		types = []string{"DELETE", "TRUNCATE"}
	}
	forbidden := make(map[string]struct{}, len(types))
	for _, typ := range types {
		forbidden[typ] = struct{}{}
	}
	return &MiddlewareBuilder{
		forbidden: forbidden,
	}
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			if _, ok := m.forbidden[qc.Type]; ok {
				return &orm.QueryResult{
					Err: fmt.Errorf("%w: %s", ErrForbidden, qc.Type),
				}
			}
			return next(ctx, qc)
		}
	}
}
