package mapping

import (
	"database/sql"
	"reflect"
	"strings"

	"github.com/startdusk/dbkit/orm/internal/valuer"
	"github.com/startdusk/dbkit/orm/model"
)

// Mapper 针对一种结果集布局和一种目标类型编译出来的转换器
// 静态类型: 一行 => *T
// 动态类型: 一行 => Record
type Mapper struct {
	typ     reflect.Type
	model   *model.Model
	columns []Column
	creator valuer.Creator

	// row 在编译的时候构造好, 之后每一行都不需要再查找元数据
	row func(rows *sql.Rows) (any, error)
}

// Dynamic 没有目标类型
func (m *Mapper) Dynamic() bool {
	return m.typ == nil
}

func (m *Mapper) Type() reflect.Type {
	return m.typ
}

func (m *Mapper) Model() *model.Model {
	return m.model
}

func (m *Mapper) Columns() []Column {
	return m.columns
}

// Row 转换当前行, 调用方负责 rows.Next()
// 静态类型返回 *T, 动态类型返回 Record
func (m *Mapper) Row(rows *sql.Rows) (any, error) {
	return m.row(rows)
}

// Params 按照 fields 的顺序读取对象的值, 用于绑定命令参数
// fields 为空的时候使用全部字段
func (m *Mapper) Params(entity any, fields []*model.Field) []any {
	if m.model == nil {
		return nil
	}
	if len(fields) == 0 {
		fields = m.model.Fields
	}
	val := m.creator(m.model, entity)
	res := make([]any, 0, len(fields))
	for _, fd := range fields {
		res = append(res, val.FieldValue(fd))
	}
	return res
}

// Row 泛型版本
func Row[T any](m *Mapper, rows *sql.Rows) (*T, error) {
	res, err := m.Row(rows)
	if err != nil {
		return nil, err
	}
	return res.(*T), nil
}

func newStaticMapper(typ reflect.Type, m *model.Model, cols []Column, creator valuer.Creator) *Mapper {
	// 每一列对应的字段, 类型里面没有的列为 nil, 扫描之后丢掉
	fields := make([]*model.Field, len(cols))
	for i, col := range cols {
		fields[i] = m.ColumnMap[col.Name]
	}
	return &Mapper{
		typ:     typ,
		model:   m,
		columns: cols,
		creator: creator,
		row: func(rows *sql.Rows) (any, error) {
			entity := reflect.New(typ).Interface()
			if err := creator(m, entity).ScanFields(rows, fields); err != nil {
				return nil, err
			}
			return entity, nil
		},
	}
}

func newDynamicMapper(cols []Column) *Mapper {
	keys := make([]string, len(cols))
	binary := make([]bool, len(cols))
	for i, col := range cols {
		keys[i] = col.Name
		typ := strings.ToUpper(col.Type)
		binary[i] = strings.Contains(typ, "BLOB") || strings.Contains(typ, "BINARY") || typ == "BYTEA"
	}
	return &Mapper{
		columns: cols,
		row: func(rows *sql.Rows) (any, error) {
			vals := make([]any, len(keys))
			dests := make([]any, len(keys))
			for i := range vals {
				dests[i] = &vals[i]
			}
			if err := rows.Scan(dests...); err != nil {
				return nil, err
			}
			// 文本列很多驱动返回 []byte, 这里统一转成 string
			for i, v := range vals {
				if bs, ok := v.([]byte); ok && !binary[i] {
					vals[i] = string(bs)
				}
			}
			return NewRecord(keys, vals), nil
		},
	}
}
