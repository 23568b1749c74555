package opentelemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/startdusk/dbkit/orm"
)

func TestMiddlewareBuilder(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	m := MiddlewareBuilder{Tracer: tp.Tracer("test")}
	db, err := orm.OpenDB(mockDB, orm.DBWithMiddlewares(m.Build()))
	require.NoError(t, err)

	mock.ExpectQuery("SELECT .*").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("DELETE .*").
		WillReturnError(errors.New("mock error"))
	mock.ExpectQuery("SELECT 1").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	ctx := context.Background()
	_, err = orm.NewSelector[TestModel](db).Where(orm.C("Id").Eq(1)).Get(ctx)
	require.NoError(t, err)
	res := orm.NewDeleter[TestModel](db).Where(orm.C("Id").Eq(1)).Exec(ctx)
	assert.Error(t, res.Err())
	_, err = orm.QueryScalar[int64](ctx, db, "SELECT 1")
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "SELECT-test_model", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(),
		attribute.String("sql", "SELECT * FROM `test_model` WHERE `id` = ?;"))
	assert.Contains(t, spans[0].Attributes(), attribute.String("component", "orm"))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "DELETE-test_model", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "mock error", spans[1].Status().Description)

	assert.Equal(t, "RAW", spans[2].Name())
	require.NoError(t, mock.ExpectationsWereMet())
}

type TestModel struct {
	Id int64
}
