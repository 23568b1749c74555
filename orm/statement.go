package orm

import (
	"strconv"

	"github.com/startdusk/dbkit/orm/internal/errs"
	"github.com/startdusk/dbkit/orm/model"
)

// StatementKind 语句类型
type StatementKind uint8

const (
	KindSelect StatementKind = iota + 1
	KindCount
	KindInsert
	KindUpdate
	KindDelete
	KindMerge
	KindTruncate
)

func (k StatementKind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindCount:
		return "COUNT"
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindMerge:
		return "MERGE"
	case KindTruncate:
		return "TRUNCATE"
	}
	return "UNKNOWN(" + strconv.Itoa(int(k)) + ")"
}

// Statement 描述一条要生成的语句
//
// 批量语句不单独区分类型, Rows 有多行的时候就是批量语句:
// INSERT/MERGE 生成一条多行的语句, UPDATE 生成一条 CASE 语句, DELETE 生成一个 OR/IN 条件
type Statement struct {
	Kind StatementKind
	// Table 为空的时候使用 Model.TableName
	Table string
	// Model 为 nil 的时候字段名就是列名
	Model *model.Model

	// Columns SELECT 的列, 为空就是 *
	Columns []Selectable
	// Fields INSERT/MERGE 插入的列, UPDATE 更新的列
	Fields []Field
	Where  Condition
	// Qualifiers 定位一行数据的字段, 为空的时候使用主键
	Qualifiers []Field
	// Rows 每一行的值
	// INSERT/MERGE 和 Fields 对齐
	// UPDATE 没有 Where 的时候是 Fields 加上 Qualifiers, 有 Where 的时候只有一行, 和 Fields 对齐
	// DELETE 和 Qualifiers 对齐
	Rows [][]any

	Hints   string
	Top     int
	OrderBy []OrderBy
}

// OrderBy 排序
type OrderBy struct {
	field Field
	desc  bool
}

func Asc(name string) OrderBy {
	return OrderBy{field: C(name)}
}

func Desc(name string) OrderBy {
	return OrderBy{field: C(name), desc: true}
}

// Compile 生成 SQL 和参数
// 同一个 Statement 编译多次得到的结果是一样的
func Compile(d Dialect, s Statement) (*Query, error) {
	table := s.Table
	if table == "" && s.Model != nil {
		table = s.Model.TableName
	}
	b := newBuilder(d, s.Model)
	var err error
	switch s.Kind {
	case KindSelect, KindCount:
		err = b.buildSelect(table, &s)
	case KindInsert:
		err = b.buildInsert(table, &s)
	case KindMerge:
		err = b.buildMerge(table, &s)
	case KindUpdate:
		err = b.buildUpdate(table, &s)
	case KindDelete:
		err = b.buildDelete(table, &s)
	case KindTruncate:
		d.buildTruncate(b, table)
	default:
		err = errs.NewErrUnknownStatementKind(s.Kind)
	}
	if err != nil {
		return nil, err
	}
	b.sb.WriteByte(';')
	return b.query(), nil
}

func (b *builder) buildSelect(table string, s *Statement) error {
	b.sb.WriteString("SELECT ")
	if s.Top > 0 {
		b.dialect.topPrefix(b, s.Top)
	}
	if s.Kind == KindCount {
		b.sb.WriteString("COUNT(*)")
	} else if err := b.buildSelectColumns(s.Columns); err != nil {
		return err
	}
	b.sb.WriteString(" FROM ")
	b.quote(table)
	b.dialect.hints(b, s.Hints)
	if err := b.buildWhere(s.Where); err != nil {
		return err
	}
	if len(s.OrderBy) > 0 {
		b.sb.WriteString(" ORDER BY ")
		for i, ob := range s.OrderBy {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			if err := b.buildColumn(ob.field); err != nil {
				return err
			}
			if ob.desc {
				b.sb.WriteString(" DESC")
			}
		}
	}
	if s.Top > 0 {
		b.dialect.limitSuffix(b, s.Top)
	}
	return nil
}

// buildSelectColumns 构建 SELECT 的列
func (b *builder) buildSelectColumns(cols []Selectable) error {
	if len(cols) == 0 {
		// 没有指定列
		b.sb.WriteByte('*')
		return nil
	}
	for i, col := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		switch c := col.(type) {
		case Field:
			if err := b.buildColumn(c); err != nil {
				return err
			}
		case Aggregate:
			if err := b.buildAggregate(c); err != nil {
				return err
			}
		default:
			return errs.NewErrUnsupportedSelectable(col)
		}
	}
	return nil
}

func (b *builder) buildInsert(table string, s *Statement) error {
	if len(s.Fields) == 0 {
		return errs.NewErrEmptyFieldSet(table)
	}
	if len(s.Rows) == 0 {
		return errs.ErrInsertZeroRows
	}
	cols, err := b.columns(s.Fields)
	if err != nil {
		return err
	}
	return buildInsertValues(b, table, cols, s.Rows)
}

func (b *builder) buildMerge(table string, s *Statement) error {
	if len(s.Fields) == 0 {
		return errs.NewErrEmptyFieldSet(table)
	}
	if len(s.Rows) == 0 {
		return errs.ErrInsertZeroRows
	}
	cols, err := b.columns(s.Fields)
	if err != nil {
		return err
	}
	keys, err := b.qualifiers(table, s.Qualifiers)
	if err != nil {
		return err
	}
	return b.dialect.buildMerge(b, &mergeClause{
		table: table,
		hints: s.Hints,
		cols:  cols,
		keys:  keys,
		rows:  s.Rows,
	})
}

func (b *builder) buildUpdate(table string, s *Statement) error {
	if len(s.Fields) == 0 {
		return errs.NewErrEmptyFieldSet(table)
	}
	cols, err := b.columns(s.Fields)
	if err != nil {
		return err
	}
	if s.Where != nil && !asGroup(s.Where).IsEmpty() {
		if len(s.Rows) != 1 {
			return errs.NewErrValueCount(1, len(s.Rows))
		}
		b.buildUpdateSet(table, s.Hints, cols, s.Rows[0])
		return b.buildWhere(s.Where)
	}

	keys, err := b.qualifiers(table, s.Qualifiers)
	if err != nil {
		return err
	}
	if len(s.Rows) == 0 {
		return errs.NewErrValueCount(1, 0)
	}
	keyRows := make([][]any, 0, len(s.Rows))
	for _, row := range s.Rows {
		if len(row) != len(cols)+len(keys) {
			return errs.NewErrValueCount(len(cols)+len(keys), len(row))
		}
		keyRows = append(keyRows, row[len(cols):])
	}
	if len(s.Rows) == 1 {
		b.buildUpdateSet(table, s.Hints, cols, s.Rows[0][:len(cols)])
		b.sb.WriteString(" WHERE ")
		b.buildKeys(keys, keyRows[0])
		return nil
	}

	// 多行合成一条语句, 每一列按限定字段挑选这一行的值
	// ELSE 保留原值, 顺便让 PostgreSQL 能推断出参数类型
	b.sb.WriteString("UPDATE ")
	b.quote(table)
	b.dialect.hints(b, s.Hints)
	b.sb.WriteString(" SET ")
	for i, col := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.quote(col)
		b.sb.WriteString(" = CASE")
		for j, row := range s.Rows {
			b.sb.WriteString(" WHEN ")
			b.buildKeys(keys, keyRows[j])
			b.sb.WriteString(" THEN ")
			b.addParam(col, row[i])
		}
		b.sb.WriteString(" ELSE ")
		b.quote(col)
		b.sb.WriteString(" END")
	}
	b.sb.WriteString(" WHERE ")
	b.buildKeyMatch(keys, keyRows)
	return nil
}

func (b *builder) buildUpdateSet(table string, hints string, cols []string, vals []any) {
	b.sb.WriteString("UPDATE ")
	b.quote(table)
	b.dialect.hints(b, hints)
	b.sb.WriteString(" SET ")
	for i, col := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.quote(col)
		b.sb.WriteString(" = ")
		b.addParam(col, vals[i])
	}
}

func (b *builder) buildDelete(table string, s *Statement) error {
	b.sb.WriteString("DELETE FROM ")
	b.quote(table)
	b.dialect.hints(b, s.Hints)
	if len(s.Rows) == 0 {
		// 没有按行删除, 那就按条件删除, 条件也没有就是删除整张表
		return b.buildWhere(s.Where)
	}

	keys, err := b.qualifiers(table, s.Qualifiers)
	if err != nil {
		return err
	}
	for _, row := range s.Rows {
		if len(row) != len(keys) {
			return errs.NewErrValueCount(len(keys), len(row))
		}
	}
	b.sb.WriteString(" WHERE ")
	b.buildKeyMatch(keys, s.Rows)
	return nil
}

// buildKeyMatch 匹配任意一行限定字段的条件
func (b *builder) buildKeyMatch(keys []string, rows [][]any) {
	if len(keys) == 1 {
		b.quote(keys[0])
		if len(rows) == 1 {
			b.sb.WriteString(" = ")
			b.addParam(keys[0], rows[0][0])
			return
		}
		b.sb.WriteString(" IN (")
		for i, row := range rows {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			b.addParam(keys[0], row[0])
		}
		b.sb.WriteByte(')')
		return
	}
	// 联合主键
	for i, row := range rows {
		if i > 0 {
			b.sb.WriteString(" OR ")
		}
		b.sb.WriteByte('(')
		b.buildKeys(keys, row)
		b.sb.WriteByte(')')
	}
}

// qualifiers 没有指定限定字段的时候使用主键, 都没有就报错
func (b *builder) qualifiers(table string, fs []Field) ([]string, error) {
	if len(fs) > 0 {
		return b.columns(fs)
	}
	if b.model != nil {
		pks := b.model.PrimaryKeys()
		res := make([]string, 0, len(pks))
		for _, pk := range pks {
			res = append(res, pk.ColName)
		}
		if len(res) > 0 {
			return res, nil
		}
	}
	return nil, errs.NewErrKeyFieldNotFound(table)
}
