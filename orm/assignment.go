package orm

import (
	"github.com/startdusk/dbkit/orm/internal/errs"
	"github.com/startdusk/dbkit/orm/model"
)

// Assignable UPDATE 语句 SET 部分
// Field 代表从实体上读取值, Assignment 代表直接给定值
type Assignable interface {
	assign()
}

var (
	_ Assignable = Field{}
	_ Assignable = Assignment{}
)

type Assignment struct {
	col string
	val any
}

func (a Assignment) assign() {}

func (f Field) assign() {}

func Assign(col string, val any) Assignment {
	return Assignment{
		col: col,
		val: val,
	}
}

// modelFields 把名字解析成字段, Go 字段名和列名都可以
func modelFields(m *model.Model, names []string) ([]*model.Field, error) {
	res := make([]*model.Field, 0, len(names))
	for _, name := range names {
		fd, err := modelField(m, name)
		if err != nil {
			return nil, err
		}
		res = append(res, fd)
	}
	return res, nil
}

func modelField(m *model.Model, name string) (*model.Field, error) {
	if fd, ok := m.FieldMap[name]; ok {
		return fd, nil
	}
	if fd, ok := m.ColumnMap[name]; ok {
		return fd, nil
	}
	return nil, errs.NewErrUnknownField(name)
}

// keyFields 没有指定限定字段就用主键
func keyFields(m *model.Model, names []string) ([]*model.Field, error) {
	if len(names) > 0 {
		return modelFields(m, names)
	}
	keys := m.PrimaryKeys()
	if len(keys) == 0 {
		return nil, errs.NewErrKeyFieldNotFound(m.TableName)
	}
	return keys, nil
}

// writableFields 除去自增列和 exclude 里面的字段
func writableFields(m *model.Model, exclude []*model.Field) []*model.Field {
	res := make([]*model.Field, 0, len(m.Fields))
	for _, fd := range m.Fields {
		if fd.Identity || containsField(exclude, fd) {
			continue
		}
		res = append(res, fd)
	}
	return res
}

func containsField(fds []*model.Field, target *model.Field) bool {
	for _, fd := range fds {
		if fd == target {
			return true
		}
	}
	return false
}

func toFields(fds []*model.Field) []Field {
	res := make([]Field, 0, len(fds))
	for _, fd := range fds {
		res = append(res, Field{name: fd.GoName, typ: fd.Type})
	}
	return res
}

// entityRows 把实体转换成行, 每一行的值和 fields 对齐
func entityRows[T any](c core, vals []*T, fields []*model.Field) ([][]any, error) {
	mapper, err := c.compiler.ForEntity(new(T))
	if err != nil {
		return nil, err
	}
	rows := make([][]any, 0, len(vals))
	for _, val := range vals {
		rows = append(rows, mapper.Params(val, fields))
	}
	return rows, nil
}
