package querylog

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/startdusk/dbkit/orm"
)

type MiddlewareBuilder struct {
	logger *zap.Logger
	// SQL 参数可能有敏感数据, 默认不打印
	logArgs bool
	logFunc func(query string, args []any)
}

func NewMiddlewareBuilder(logger *zap.Logger) *MiddlewareBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MiddlewareBuilder{
		logger: logger,
	}
}

// LogArgs 打印参数, 只建议在开发环境使用
func (m *MiddlewareBuilder) LogArgs() *MiddlewareBuilder {
	m.logArgs = true
	return m
}

// LogFunc 除了日志之外再回调一次, 方便接入别的系统
func (m *MiddlewareBuilder) LogFunc(fn func(query string, args []any)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			q, err := qc.Builder.Build()
			if err != nil {
				return &orm.QueryResult{
					Err: err,
				}
			}
			// 同一次查询的日志用 query_id 串起来
			queryID := uuid.NewString()
			fields := []zap.Field{
				zap.String("query_id", queryID),
				zap.String("type", qc.Type),
				zap.String("table", qc.Table),
				zap.String("sql", q.SQL),
			}
			if m.logArgs {
				fields = append(fields, zap.Any("args", q.Args))
			}
			m.logger.Info("orm: query", fields...)
			if m.logFunc != nil {
				m.logFunc(q.SQL, q.Args)
			}

			res := next(ctx, qc)
			if res.Err != nil {
				m.logger.Warn("orm: query failed",
					zap.String("query_id", queryID),
					zap.Error(res.Err))
			}
			return res
		}
	}
}
