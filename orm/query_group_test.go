package orm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryField(t *testing.T) {
	cases := []struct {
		name    string
		op      Operation
		value   any
		wantErr error
	}{
		{
			name:  "equal",
			op:    OpEqual,
			value: 12,
		},
		{
			name:    "equal slice",
			op:      OpEqual,
			value:   []int{1, 2},
			wantErr: ErrInvalidOperationValue,
		},
		{
			name:  "equal bytes",
			op:    OpEqual,
			value: []byte("abc"),
		},
		{
			name:  "between",
			op:    OpBetween,
			value: []int{1, 10},
		},
		{
			name:    "between one value",
			op:      OpNotBetween,
			value:   []int{1},
			wantErr: ErrInvalidOperationValue,
		},
		{
			name:  "in",
			op:    OpIn,
			value: []string{"a", "b"},
		},
		{
			name:  "in empty",
			op:    OpNotIn,
			value: []string{},
		},
		{
			name:    "in scalar",
			op:      OpIn,
			value:   1,
			wantErr: ErrInvalidOperationValue,
		},
		{
			name: "is null",
			op:   OpIsNull,
		},
		{
			name:    "is null with value",
			op:      OpIsNotNull,
			value:   1,
			wantErr: ErrInvalidOperationValue,
		},
		{
			name:    "unknown operation",
			op:      Operation(100),
			value:   1,
			wantErr: ErrInvalidOperationValue,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			qf, err := NewQueryField("Age", c.op, c.value)
			assert.ErrorIs(t, err, c.wantErr)
			if c.wantErr != nil {
				return
			}
			assert.Equal(t, c.op, qf.Operation())
			assert.Equal(t, "Age", qf.Field().Name())
			assert.False(t, qf.IsBound())
		})
	}
}

func TestField(t *testing.T) {
	f := NewField("Age", FieldWithSize(4))
	assert.Equal(t, "Age", f.Name())
	assert.Equal(t, 4, f.Size())
	assert.Nil(t, f.Type())

	assert.Equal(t, []any{1, 2, 3}, f.In(1, 2, 3).Value())
	assert.Equal(t, []int{1, 2, 3}, f.In([]int{1, 2, 3}).Value())
	assert.Equal(t, []any{}, f.NotIn().Value())
	assert.Equal(t, []any{1, 5}, f.Between(1, 5).Value())
	assert.Equal(t, "IS NOT NULL", f.IsNotNull().Operation().String())
}

func TestOperation_Negate(t *testing.T) {
	for op := OpEqual; op <= OpIsNotNull; op++ {
		assert.Equal(t, op, op.negate().negate(), op.String())
		assert.NotEqual(t, op, op.negate(), op.String())
	}
	assert.Equal(t, "UNKNOWN", Operation(0).String())
}

func TestQueryGroup_Flatten(t *testing.T) {
	a := C("Age").Gt(18)
	b := C("FirstName").Eq("Tom")
	c := C("LastName").IsNull()
	d := C("Id").In(1, 2)
	g := And(a, Or(b, Not(c)), And(), d)

	want := []*QueryField{a, b, c, d}
	assert.Equal(t, want, g.Flatten())
	// 多次调用顺序不变
	assert.Equal(t, want, g.Flatten())
	assert.False(t, g.IsEmpty())
	assert.Equal(t, ConjunctionAnd, g.Conjunction())
	assert.Len(t, g.Children(), 4)

	assert.True(t, And().IsEmpty())
	assert.True(t, Or(And(), Not(And())).IsEmpty())
	var nilField *QueryField
	assert.True(t, And(nil, nilField).IsEmpty())
}

func TestQueryGroup_Chain(t *testing.T) {
	g := C("Age").Gt(18).And(C("Age").Lt(60)).Or(C("Id").Eq(1))
	assert.Equal(t, ConjunctionOr, g.Conjunction())
	assert.Len(t, g.Flatten(), 3)
	inner := g.Children()[0].(*QueryGroup)
	assert.Equal(t, ConjunctionAnd, inner.Conjunction())
	assert.True(t, Not(inner).Negated())
}

func TestQueryField_Reset(t *testing.T) {
	qf := C("Age").Eq(18)
	g := And(qf)

	q, err := Compile(DialectMySQL, Statement{Kind: KindSelect, Table: "test_model", Where: g})
	require.NoError(t, err)
	assert.Equal(t, []any{18}, q.Args)
	assert.True(t, qf.IsBound())
	assert.Equal(t, []string{"Age"}, qf.Params())

	// 绑定之后不允许修改
	assert.ErrorIs(t, qf.SetValue(20), ErrQueryFieldBound)

	g.Reset()
	assert.False(t, qf.IsBound())
	assert.Nil(t, qf.Params())
	require.NoError(t, qf.SetValue(20))

	q, err = Compile(DialectMySQL, Statement{Kind: KindSelect, Table: "test_model", Where: g})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `test_model` WHERE `Age` = ?;", q.SQL)
	assert.Equal(t, []any{20}, q.Args)
	assert.Equal(t, []string{"Age"}, q.Params)
}

func TestParseObject(t *testing.T) {
	cases := []struct {
		name     string
		obj      any
		wantSQL  string
		wantArgs []any
		wantErr  bool
	}{
		{
			name: "struct",
			obj: struct {
				Age  int
				Name string
				Tag  *string
			}{Age: 18, Name: "Tom"},
			wantSQL:  "SELECT * FROM `t` WHERE `Age` = ? AND `Name` = ? AND `Tag` IS NULL;",
			wantArgs: []any{18, "Tom"},
		},
		{
			name:     "map",
			obj:      map[string]any{"id": []int{1, 2}, "age": 18},
			wantSQL:  "SELECT * FROM `t` WHERE `age` = ? AND `id` IN (?, ?);",
			wantArgs: []any{18, 1, 2},
		},
		{
			name:    "nil",
			obj:     nil,
			wantErr: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g, err := ParseObject(c.obj)
			if c.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			q, err := Compile(DialectMySQL, Statement{Kind: KindSelect, Table: "t", Where: g})
			require.NoError(t, err)
			assert.Equal(t, c.wantSQL, q.SQL)
			assert.Equal(t, c.wantArgs, q.Args)
		})
	}
}

func TestParseFields(t *testing.T) {
	obj := &TestModel{Id: 3, FirstName: "Tom", Age: 18}
	g, err := ParseFields(obj, C("Age"), C("Id"))
	require.NoError(t, err)
	q, err := Compile(DialectMySQL, Statement{Kind: KindSelect, Table: "test_model", Where: g})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `test_model` WHERE `Age` = ? AND `Id` = ?;", q.SQL)
	assert.Equal(t, []any{int8(18), int64(3)}, q.Args)

	_, err = ParseFields(obj, C("Unknown"))
	assert.Error(t, err)
}
