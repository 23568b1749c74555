package orm

import (
	"reflect"
)

// Field 标识一列, 构造之后不可变
// 有模型的时候 name 是 Go 字段名(也可以是列名), 按表名操作的时候 name 就是列名
type Field struct {
	name string
	typ  reflect.Type
	size int
}

type FieldOption func(f *Field)

func FieldWithType(typ reflect.Type) FieldOption {
	return func(f *Field) {
		f.typ = typ
	}
}

func FieldWithSize(size int) FieldOption {
	return func(f *Field) {
		f.size = size
	}
}

func NewField(name string, opts ...FieldOption) Field {
	f := Field{name: name}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// C 是 NewField 的简写
// C("Age").Gt(18).And(C("FirstName").Eq("Tom"))
func C(name string) Field {
	return Field{name: name}
}

// Fields 批量构造
func Fields(names ...string) []Field {
	res := make([]Field, 0, len(names))
	for _, name := range names {
		res = append(res, C(name))
	}
	return res
}

func (f Field) Name() string {
	return f.name
}

func (f Field) Type() reflect.Type {
	return f.typ
}

func (f Field) Size() int {
	return f.size
}

func (f Field) selectable() {}

func (f Field) Eq(arg any) *QueryField {
	return newQueryField(f, OpEqual, arg)
}

func (f Field) NotEq(arg any) *QueryField {
	return newQueryField(f, OpNotEqual, arg)
}

func (f Field) Gt(arg any) *QueryField {
	return newQueryField(f, OpGreaterThan, arg)
}

func (f Field) GtEq(arg any) *QueryField {
	return newQueryField(f, OpGreaterThanOrEqual, arg)
}

func (f Field) Lt(arg any) *QueryField {
	return newQueryField(f, OpLessThan, arg)
}

func (f Field) LtEq(arg any) *QueryField {
	return newQueryField(f, OpLessThanOrEqual, arg)
}

func (f Field) Like(pattern string) *QueryField {
	return newQueryField(f, OpLike, pattern)
}

func (f Field) NotLike(pattern string) *QueryField {
	return newQueryField(f, OpNotLike, pattern)
}

func (f Field) Between(left, right any) *QueryField {
	return newQueryField(f, OpBetween, []any{left, right})
}

func (f Field) NotBetween(left, right any) *QueryField {
	return newQueryField(f, OpNotBetween, []any{left, right})
}

// In vals 可以是多个参数, 也可以是单个切片
// C("ID").In(1, 2, 3) 和 C("ID").In([]int{1, 2, 3}) 是等价的
func (f Field) In(vals ...any) *QueryField {
	return newQueryField(f, OpIn, inValue(vals))
}

func (f Field) NotIn(vals ...any) *QueryField {
	return newQueryField(f, OpNotIn, inValue(vals))
}

func (f Field) IsNull() *QueryField {
	return newQueryField(f, OpIsNull, nil)
}

func (f Field) IsNotNull() *QueryField {
	return newQueryField(f, OpIsNotNull, nil)
}

func inValue(vals []any) any {
	if len(vals) == 1 && isSequence(vals[0]) {
		return vals[0]
	}
	if vals == nil {
		return []any{}
	}
	return vals
}
