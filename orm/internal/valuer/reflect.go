package valuer

import (
	"database/sql"
	"reflect"

	"github.com/startdusk/dbkit/orm/model"
)

type reflectValue struct {
	model *model.Model

	// val 对应 泛型 T 的指针
	val reflect.Value
}

// 确保类型变更 我们能得到通知
var _ Creator = NewReflectValue

func NewReflectValue(model *model.Model, val any) Value {
	return &reflectValue{
		model: model,
		val:   reflect.ValueOf(val).Elem(),
	}
}

func (r reflectValue) FieldValue(fd *model.Field) any {
	return r.val.FieldByName(fd.GoName).Interface()
}

func (r reflectValue) FieldAddr(fd *model.Field) any {
	return r.val.FieldByName(fd.GoName).Addr().Interface()
}

func (r reflectValue) ScanFields(rows *sql.Rows, fields []*model.Field) error {
	return scanFields(rows, fields, r.FieldAddr)
}
