package mapping

import (
	"database/sql"
	"database/sql/driver"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/startdusk/dbkit/orm/internal/errs"
	"github.com/startdusk/dbkit/orm/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func queryRows(t *testing.T, rows *sqlmock.Rows) *sql.Rows {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	mock.ExpectQuery("SELECT .*").WillReturnRows(rows)
	res, err := mockDB.Query("SELECT xxx")
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })
	return res
}

func TestCompiler_Static(t *testing.T) {
	cases := []struct {
		name    string
		rows    func() *sqlmock.Rows
		want    []*TestModel
		options []CompilerOption
	}{
		{
			name: "all columns",
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows([]string{"id", "first_name", "age", "last_name"}).
					AddRow("1", "Tom", "18", "Jerry").
					AddRow("2", "Ben", "20", nil)
			},
			want: []*TestModel{
				{ID: 1, FirstName: "Tom", Age: 18, LastName: &sql.NullString{String: "Jerry", Valid: true}},
				{ID: 2, FirstName: "Ben", Age: 20},
			},
		},
		{
			name: "extra column ignored and missing property defaulted",
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows([]string{"nickname", "id"}).AddRow("tommy", "3")
			},
			want: []*TestModel{{ID: 3}},
		},
		{
			name: "reflect accessor",
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows([]string{"age", "id"}).AddRow("7", "4")
			},
			want:    []*TestModel{{ID: 4, Age: 7}},
			options: []CompilerOption{CompilerUseReflect()},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			compiler := NewCompiler(model.NewRegistry(), c.options...)
			rows := queryRows(t, c.rows())
			cols, err := ColumnsOf(rows)
			require.NoError(t, err)
			m, err := For[TestModel](compiler, cols)
			require.NoError(t, err)
			assert.False(t, m.Dynamic())

			var res []*TestModel
			for rows.Next() {
				entity, err := Row[TestModel](m, rows)
				require.NoError(t, err)
				res = append(res, entity)
			}
			require.NoError(t, rows.Err())
			assert.Equal(t, c.want, res)
		})
	}
}

func TestCompiler_Dynamic(t *testing.T) {
	compiler := NewCompiler(model.NewRegistry())
	rows := queryRows(t, sqlmock.NewRows([]string{"id", "name"}).
		AddRow(int64(1), []byte("Tom")).
		AddRow(int64(2), nil))
	cols, err := ColumnsOf(rows)
	require.NoError(t, err)
	m, err := compiler.Compile(nil, cols)
	require.NoError(t, err)
	assert.True(t, m.Dynamic())

	var res []Record
	for rows.Next() {
		r, err := m.Row(rows)
		require.NoError(t, err)
		res = append(res, r.(Record))
	}
	require.Len(t, res, 2)
	assert.Equal(t, []string{"id", "name"}, res[0].Keys())
	name, ok := res[0].Get("name")
	assert.True(t, ok)
	assert.Equal(t, "Tom", name)
	assert.Equal(t, map[string]any{"id": int64(2), "name": nil}, res[1].Map())

	bs, err := res[0].MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"name":"Tom"}`, string(bs))
}

func TestCompiler_Cache(t *testing.T) {
	compiler := NewCompiler(model.NewRegistry())
	cols := []Column{{Name: "id"}, {Name: "first_name"}}
	m1, err := For[TestModel](compiler, cols)
	require.NoError(t, err)
	m2, err := compiler.Compile(reflect.TypeOf(&TestModel{}), cols)
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	assert.Equal(t, 1, compiler.Len())

	// 不同的布局是不同的映射器
	m3, err := For[TestModel](compiler, []Column{{Name: "id"}})
	require.NoError(t, err)
	assert.NotSame(t, m1, m3)
	// 动态映射器和静态映射器互不干扰
	m4, err := compiler.Compile(nil, cols)
	require.NoError(t, err)
	assert.True(t, m4.Dynamic())
	assert.Equal(t, 3, compiler.Len())

	compiler.Clear()
	assert.Equal(t, 0, compiler.Len())
	m5, err := For[TestModel](compiler, cols)
	require.NoError(t, err)
	assert.NotSame(t, m1, m5)

	// 清理之后重新编译的映射器行为一致
	for _, m := range []*Mapper{m1, m5} {
		rows := queryRows(t, sqlmock.NewRows([]string{"id", "first_name"}).AddRow("9", "Tom"))
		require.True(t, rows.Next())
		entity, err := Row[TestModel](m, rows)
		require.NoError(t, err)
		assert.Equal(t, &TestModel{ID: 9, FirstName: "Tom"}, entity)
	}
}

func TestCompiler_Invalid(t *testing.T) {
	compiler := NewCompiler(model.NewRegistry())
	_, err := compiler.Compile(reflect.TypeOf(0), nil)
	assert.Equal(t, errs.ErrPointerOnly, err)
	_, err = For[BadTag](compiler, nil)
	assert.Equal(t, errs.NewErrIinvalidTagContent("column"), err)
	assert.Equal(t, 0, compiler.Len())
}

func TestCompiler_ConcurrentCompile(t *testing.T) {
	compiler := NewCompiler(model.NewRegistry())
	cols := []Column{{Name: "id", Type: "BIGINT"}, {Name: "age", Type: "TINYINT"}}
	const n = 32
	mappers := make([]*Mapper, n)
	var eg errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			m, err := For[TestModel](compiler, cols)
			mappers[i] = m
			return err
		})
	}
	require.NoError(t, eg.Wait())
	assert.Equal(t, 1, compiler.Len())
	for _, m := range mappers {
		assert.Same(t, mappers[0], m)
	}
}

func TestMapper_RoundTrip(t *testing.T) {
	compiler := NewCompiler(model.NewRegistry())
	entities := []*Order{
		{ID: 100, Buyer: "Tom", Amount: 12.5, Note: &sql.NullString{String: "fast", Valid: true}},
		{ID: 101, Buyer: "Jerry", Amount: 0},
	}
	m, err := compiler.ForEntity(&Order{})
	require.NoError(t, err)

	// 跳过自增列, 模拟一次写入再读出
	var fields []*model.Field
	var names []string
	for _, fd := range m.Model().Fields {
		if fd.Identity {
			continue
		}
		fields = append(fields, fd)
		names = append(names, fd.ColName)
	}
	mockRows := sqlmock.NewRows(names)
	for _, e := range entities {
		params := m.Params(e, fields)
		vals := make([]driver.Value, 0, len(params))
		for _, p := range params {
			v, err := driver.DefaultParameterConverter.ConvertValue(p)
			require.NoError(t, err)
			vals = append(vals, v)
		}
		mockRows.AddRow(vals...)
	}

	rows := queryRows(t, mockRows)
	cols, err := ColumnsOf(rows)
	require.NoError(t, err)
	rm, err := For[Order](compiler, cols)
	require.NoError(t, err)
	var got []*Order
	for rows.Next() {
		o, err := Row[Order](rm, rows)
		require.NoError(t, err)
		got = append(got, o)
	}

	want := []*Order{
		{Buyer: "Tom", Amount: 12.5, Note: &sql.NullString{String: "fast", Valid: true}},
		{Buyer: "Jerry"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

type TestModel struct {
	ID        int64
	FirstName string
	Age       int8
	LastName  *sql.NullString
}

type Order struct {
	ID     int64 `orm:"primary_key=true,identity=true"`
	Buyer  string
	Amount float64
	Note   *sql.NullString
}

type BadTag struct {
	Name string `orm:"column"`
}
