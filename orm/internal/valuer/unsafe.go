package valuer

import (
	"database/sql"
	"reflect"
	"unsafe"

	"github.com/startdusk/dbkit/orm/model"
)

type unsafeValue struct {
	model *model.Model

	// val 对应 泛型 T 的指针
	val any

	// 结构体的起始地址
	// UnsafeAddr 是不固定的地址, 每次垃圾回收后会被移动地址
	// UnsafePointer 是 golang 层面上的指针地址, 它会维护指向
	address unsafe.Pointer
}

// 确保类型变更 我们能得到通知
var _ Creator = NewUnsafeValue

func NewUnsafeValue(model *model.Model, val any) Value {
	return &unsafeValue{
		model:   model,
		val:     val,
		address: reflect.ValueOf(val).UnsafePointer(),
	}
}

func (u unsafeValue) FieldValue(fd *model.Field) any {
	// 如果不知道类型, 就这么读取类型字段的值
	return reflect.NewAt(fd.Type, u.fieldAddress(fd)).Elem().Interface()
}

func (u unsafeValue) FieldAddr(fd *model.Field) any {
	// 反射在特定的地址上, 创建一个特定类型的实例
	// 例如: fd.Type = int类型, 那么返回的就是 *int类型
	return reflect.NewAt(fd.Type, u.fieldAddress(fd)).Interface()
}

// 字段地址 = 起始地址 + 偏移量
func (u unsafeValue) fieldAddress(fd *model.Field) unsafe.Pointer {
	return unsafe.Add(u.address, fd.Offset)
}

func (u unsafeValue) ScanFields(rows *sql.Rows, fields []*model.Field) error {
	// 因为已经通过 unsafe 拿到了字段地址, 所以 scan 就已经是对对象的字段赋值
	return scanFields(rows, fields, u.FieldAddr)
}
