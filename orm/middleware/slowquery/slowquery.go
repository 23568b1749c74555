package slowquery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/startdusk/dbkit/orm"
)

type MiddlewareBuilder struct {
	logger *zap.Logger
	// 慢查询阈值, 设置需要考虑公司实际情况, 如100ms
	threshold time.Duration
}

func NewMiddlewareBuilder(logger *zap.Logger, threshold time.Duration) *MiddlewareBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MiddlewareBuilder{
		logger:    logger,
		threshold: threshold,
	}
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			startTime := time.Now()
			defer func() {
				duration := time.Since(startTime)
				if duration <= m.threshold {
					return
				}
				// 构造不出 SQL 的话也就没有执行, 不算慢查询
				q, err := qc.Builder.Build()
				if err != nil {
					return
				}
				// 参数可能有敏感数据, 这里不打印
				m.logger.Warn("orm: slow query",
					zap.String("type", qc.Type),
					zap.String("table", qc.Table),
					zap.String("sql", q.SQL),
					zap.Duration("duration", duration))
			}()
			return next(ctx, qc)
		}
	}
}
