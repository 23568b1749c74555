package prometheus

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startdusk/dbkit/orm"
)

func TestMiddlewareBuilder(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	reg := prometheus.NewRegistry()
	m := MiddlewareBuilder{
		Namespace:  "dbkit",
		Subsystem:  "orm",
		Name:       "query_duration",
		Help:       "query duration in milliseconds",
		Registerer: reg,
	}
	db, err := orm.OpenDB(mockDB, orm.DBWithMiddlewares(m.Build()))
	require.NoError(t, err)

	mock.ExpectQuery("SELECT .*").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("DELETE .*").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .*").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

	ctx := context.Background()
	_, err = orm.NewSelector[TestModel](db).Where(orm.C("Id").Eq(1)).Get(ctx)
	require.NoError(t, err)
	res := orm.NewDeleter[TestModel](db).Where(orm.C("Id").Eq(1)).Exec(ctx)
	require.NoError(t, res.Err())
	_, err = orm.NewSelector[TestModel](db).Where(orm.C("Id").Eq(2)).Get(ctx)
	require.NoError(t, err)

	// 一个 type, table 组合一条时间序列
	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 1)
	assert.Equal(t, "dbkit_orm_query_duration", mfs[0].GetName())
	require.Len(t, mfs[0].GetMetric(), 2)
	var selects uint64
	for _, metric := range mfs[0].GetMetric() {
		labels := map[string]string{}
		for _, lp := range metric.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		assert.Equal(t, "test_model", labels["table"])
		if labels["type"] == "SELECT" {
			selects = metric.GetSummary().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(2), selects)
	require.NoError(t, mock.ExpectationsWereMet())

	// 同一个 registry 不能重复注册
	assert.Panics(t, func() {
		m.Build()
	})
}

type TestModel struct {
	Id int64
}
