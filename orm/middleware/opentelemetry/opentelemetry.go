package opentelemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/startdusk/dbkit/orm"
)

const instrumentationName = "github.com/startdusk/dbkit/orm/middleware/opentelemetry"

type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

func (m MiddlewareBuilder) Build() orm.Middleware {
	if m.Tracer == nil {
		m.Tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			// span name: SELECT-TABLE_NAME, 原生查询只有类型
			spanName := qc.Type
			if qc.Table != "" {
				spanName = fmt.Sprintf("%s-%s", qc.Type, qc.Table)
			}
			spanCtx, span := m.Tracer.Start(ctx, spanName)
			defer span.End()

			q, _ := qc.Builder.Build()
			if q != nil {
				// 不记录参数, 防止数据过大(如 blob)或者敏感数据被记录(如 用户密码)
				span.SetAttributes(attribute.String("sql", q.SQL))
			}
			span.SetAttributes(
				attribute.String("table", qc.Table),
				attribute.String("component", "orm"),
			)

			res := next(spanCtx, qc)
			if res.Err != nil {
				span.RecordError(res.Err)
				span.SetStatus(codes.Error, res.Err.Error())
			}
			return res
		}
	}
}
