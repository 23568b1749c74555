package mapping

import (
	"database/sql"
	"strings"
)

// Column 结果集里面的一列
type Column struct {
	Name string
	// Type 数据库声明的类型, 驱动不支持的时候为空
	Type string
}

// ShapeKey 结果集的列布局, 和目标类型一起作为映射器缓存的 key
type ShapeKey string

func NewShapeKey(cols []Column) ShapeKey {
	var sb strings.Builder
	for i, col := range cols {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(col.Name)
		sb.WriteByte(':')
		sb.WriteString(col.Type)
	}
	return ShapeKey(sb.String())
}

// ColumnsOf 读取当前结果集的列
func ColumnsOf(rows *sql.Rows) ([]Column, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types := columnTypes(rows)
	cols := make([]Column, 0, len(names))
	for i, name := range names {
		col := Column{Name: name}
		if i < len(types) {
			col.Type = types[i].DatabaseTypeName()
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// columnTypes 部分驱动(例如 sqlmock)没有列定义的时候会 panic, 这时候只按列名区分布局
func columnTypes(rows *sql.Rows) (types []*sql.ColumnType) {
	defer func() {
		if r := recover(); r != nil {
			types = nil
		}
	}()
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil
	}
	return types
}
