package orm

import (
	"reflect"

	"github.com/startdusk/dbkit/orm/internal/errs"
	"github.com/startdusk/dbkit/orm/internal/reflectx"
)

// Condition 是 WHERE 条件树上的节点, 要么是 *QueryField, 要么是 *QueryGroup
type Condition interface {
	condition()
}

var (
	_ Condition = &QueryField{}
	_ Condition = &QueryGroup{}
)

// QueryField 一个比较条件, 由 字段, 操作符 和 值 组成
//
// 编译语句的时候会被绑定(IsBound 返回 true), 绑定之后值不允许再修改,
// 需要先 Reset 才能换一个值重新使用
type QueryField struct {
	field Field
	op    Operation
	value any

	bound bool
	// params 最近一次编译分配的占位符名字
	params []string
}

// NewQueryField 构造的同时校验操作符和值是否匹配
func NewQueryField(name string, op Operation, value any) (*QueryField, error) {
	qf := newQueryField(C(name), op, value)
	if err := qf.validate(); err != nil {
		return nil, err
	}
	return qf, nil
}

// newQueryField 链式调用没办法返回 error, 所以校验推迟到编译的时候
func newQueryField(f Field, op Operation, value any) *QueryField {
	return &QueryField{
		field: f,
		op:    op,
		value: value,
	}
}

func (q *QueryField) condition() {}

func (q *QueryField) Field() Field {
	return q.field
}

func (q *QueryField) Operation() Operation {
	return q.op
}

func (q *QueryField) Value() any {
	return q.value
}

func (q *QueryField) IsBound() bool {
	return q.bound
}

// Params 返回最近一次编译时分配的占位符名字
// IN 和 BETWEEN 会有多个, IS NULL 没有
func (q *QueryField) Params() []string {
	return q.params
}

// SetValue 修改值, 已经绑定的条件需要先 Reset
func (q *QueryField) SetValue(val any) error {
	if q.bound {
		return errs.ErrQueryFieldBound
	}
	q.value = val
	return nil
}

// Reset 清掉绑定状态, 值保持不变
func (q *QueryField) Reset() {
	q.bound = false
	q.params = nil
}

// And 和另外的条件组成一个 AND 分组
func (q *QueryField) And(conds ...Condition) *QueryGroup {
	return And(append([]Condition{q}, conds...)...)
}

// Or 和另外的条件组成一个 OR 分组
func (q *QueryField) Or(conds ...Condition) *QueryGroup {
	return Or(append([]Condition{q}, conds...)...)
}

func (q *QueryField) bind(params []string) {
	q.bound = true
	q.params = params
}

func (q *QueryField) validate() error {
	if !q.op.valid() {
		return errs.NewErrInvalidOperationValue(q.field.name, q.op.String(), q.value)
	}
	switch q.op {
	case OpBetween, OpNotBetween:
		if !isSequence(q.value) || len(reflectx.IterateArray(q.value)) != 2 {
			return errs.NewErrInvalidOperationValue(q.field.name, q.op.String(), q.value)
		}
	case OpIn, OpNotIn:
		// 空序列是合法的, 编译的时候特殊处理
		if !isSequence(q.value) {
			return errs.NewErrInvalidOperationValue(q.field.name, q.op.String(), q.value)
		}
	case OpIsNull, OpIsNotNull:
		if !isNil(q.value) {
			return errs.NewErrInvalidOperationValue(q.field.name, q.op.String(), q.value)
		}
	default:
		if isSequence(q.value) {
			return errs.NewErrInvalidOperationValue(q.field.name, q.op.String(), q.value)
		}
	}
	return nil
}

// isNil nil 或者 nil 指针
func isNil(val any) bool {
	if val == nil {
		return true
	}
	v := reflect.ValueOf(val)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func isSequence(val any) bool {
	return reflectx.IsSequence(val)
}
