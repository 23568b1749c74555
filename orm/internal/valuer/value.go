package valuer

import (
	"database/sql"

	"github.com/startdusk/dbkit/orm/model"
)

// Value 是对结构体实例的内部抽象
type Value interface {
	// FieldValue 读取字段的值
	FieldValue(fd *model.Field) any
	// FieldAddr 返回指向字段的指针, 可以直接交给 rows.Scan
	FieldAddr(fd *model.Field) any
	// ScanFields 把当前行写进结构体
	// fields 和结果集的列一一对应, 结构体里面没有的列传 nil, 扫描之后丢弃
	ScanFields(rows *sql.Rows, fields []*model.Field) error
}

type Creator func(model *model.Model, entity any) Value

func scanFields(rows *sql.Rows, fields []*model.Field, addr func(fd *model.Field) any) error {
	dests := make([]any, len(fields))
	for i, fd := range fields {
		if fd == nil {
			dests[i] = new(any)
			continue
		}
		dests[i] = addr(fd)
	}
	return rows.Scan(dests...)
}
