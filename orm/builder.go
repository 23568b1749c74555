package orm

import (
	"strconv"
	"strings"

	"github.com/startdusk/dbkit/orm/internal/errs"
	"github.com/startdusk/dbkit/orm/internal/reflectx"
	"github.com/startdusk/dbkit/orm/model"
)

type builder struct {
	dialect Dialect
	// model 按表名操作的时候是 nil, 这时候字段名就是列名
	model *model.Model

	sb     strings.Builder
	args   []any
	params []string

	// 占位符去重, 同一个列出现多次的时候加上 _1, _2 后缀
	names map[string]int
	used  map[string]struct{}
}

func newBuilder(d Dialect, m *model.Model) *builder {
	return &builder{
		dialect: d,
		model:   m,
		names:   make(map[string]int, 8),
		used:    make(map[string]struct{}, 8),
	}
}

func (b *builder) query() *Query {
	return &Query{
		SQL:    b.sb.String(),
		Args:   b.args,
		Params: b.params,
	}
}

func (b *builder) quote(name string) {
	left, right := b.dialect.quoter()
	b.sb.WriteByte(left)
	b.sb.WriteString(name)
	b.sb.WriteByte(right)
}

// column 把字段解析成列名
// 有模型的时候既可以用 Go 字段名, 也可以直接用列名
func (b *builder) column(f Field) (string, error) {
	if b.model == nil {
		return f.name, nil
	}
	if fd, ok := b.model.FieldMap[f.name]; ok {
		return fd.ColName, nil
	}
	if fd, ok := b.model.ColumnMap[f.name]; ok {
		return fd.ColName, nil
	}
	return "", errs.NewErrUnknownField(f.name)
}

func (b *builder) columns(fs []Field) ([]string, error) {
	res := make([]string, 0, len(fs))
	for _, f := range fs {
		col, err := b.column(f)
		if err != nil {
			return nil, err
		}
		res = append(res, col)
	}
	return res, nil
}

func (b *builder) buildColumn(f Field) error {
	col, err := b.column(f)
	if err != nil {
		return err
	}
	b.quote(col)
	return nil
}

func (b *builder) buildColumnList(cols []string) {
	for i, col := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.quote(col)
	}
}

func (b *builder) paramName(col string) string {
	base := paramBase(col)
	name := base
	n := b.names[base]
	for {
		if n > 0 {
			name = base + "_" + strconv.Itoa(n)
		}
		n++
		if _, ok := b.used[name]; !ok {
			break
		}
	}
	b.names[base] = n
	b.used[name] = struct{}{}
	return name
}

// addParam 写入一个占位符, 同时记录参数
func (b *builder) addParam(col string, val any) string {
	name := b.paramName(col)
	b.args = append(b.args, b.dialect.bindArg(name, val))
	b.params = append(b.params, name)
	b.dialect.placeholder(b, name)
	return name
}

// buildValues 生成 (?, ?), (?, ?)
func (b *builder) buildValues(cols []string, rows [][]any) error {
	for i, row := range rows {
		if len(row) != len(cols) {
			return errs.NewErrValueCount(len(cols), len(row))
		}
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteByte('(')
		for j, col := range cols {
			if j > 0 {
				b.sb.WriteString(", ")
			}
			b.addParam(col, row[j])
		}
		b.sb.WriteByte(')')
	}
	return nil
}

// buildWhere 空的条件树不生成 WHERE
func (b *builder) buildWhere(c Condition) error {
	g := asGroup(c)
	if g.IsEmpty() {
		return nil
	}
	b.sb.WriteString(" WHERE ")
	return b.buildGroup(g, true)
}

func (b *builder) buildGroup(g *QueryGroup, root bool) error {
	wrap := !root || g.not
	if g.not {
		b.sb.WriteString("NOT ")
	}
	if wrap {
		b.sb.WriteByte('(')
	}
	cnt := 0
	for _, c := range g.children {
		if sub, ok := c.(*QueryGroup); ok && sub.IsEmpty() {
			continue
		}
		if cnt > 0 {
			b.sb.WriteByte(' ')
			b.sb.WriteString(g.conj.String())
			b.sb.WriteByte(' ')
		}
		cnt++
		var err error
		switch v := c.(type) {
		case *QueryField:
			err = b.buildQueryField(v)
		case *QueryGroup:
			err = b.buildGroup(v, false)
		default:
			err = errs.NewErrUnsupportedExpressionType(c)
		}
		if err != nil {
			return err
		}
	}
	if wrap {
		b.sb.WriteByte(')')
	}
	return nil
}

func (b *builder) buildQueryField(qf *QueryField) error {
	if err := qf.validate(); err != nil {
		return err
	}
	col, err := b.column(qf.field)
	if err != nil {
		return err
	}
	op := qf.op
	// = NULL 永远不成立, 这里转换成 IS NULL
	if isNil(qf.value) {
		switch op {
		case OpEqual:
			op = OpIsNull
		case OpNotEqual:
			op = OpIsNotNull
		}
	}

	switch op {
	case OpIsNull, OpIsNotNull:
		b.quote(col)
		b.sb.WriteByte(' ')
		b.sb.WriteString(op.String())
		qf.bind(nil)
	case OpBetween, OpNotBetween:
		vals := reflectx.IterateArray(qf.value)
		b.quote(col)
		b.sb.WriteByte(' ')
		b.sb.WriteString(op.String())
		b.sb.WriteByte(' ')
		left := b.addParam(col, vals[0])
		b.sb.WriteString(" AND ")
		right := b.addParam(col, vals[1])
		qf.bind([]string{left, right})
	case OpIn, OpNotIn:
		vals := reflectx.IterateArray(qf.value)
		if len(vals) == 0 {
			// 空的 IN 永远不成立, 空的 NOT IN 永远成立
			if op == OpIn {
				b.sb.WriteString("(1 = 0)")
			} else {
				b.sb.WriteString("(1 = 1)")
			}
			qf.bind(nil)
			return nil
		}
		b.quote(col)
		b.sb.WriteByte(' ')
		b.sb.WriteString(op.String())
		b.sb.WriteString(" (")
		names := make([]string, 0, len(vals))
		for i, val := range vals {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			names = append(names, b.addParam(col, val))
		}
		b.sb.WriteByte(')')
		qf.bind(names)
	default:
		b.quote(col)
		b.sb.WriteByte(' ')
		b.sb.WriteString(op.String())
		b.sb.WriteByte(' ')
		qf.bind([]string{b.addParam(col, qf.value)})
	}
	return nil
}

// buildKeys 按照限定字段生成 `id` = ? AND `tenant` = ?
func (b *builder) buildKeys(keys []string, vals []any) {
	for i, key := range keys {
		if i > 0 {
			b.sb.WriteString(" AND ")
		}
		b.quote(key)
		b.sb.WriteString(" = ")
		b.addParam(key, vals[i])
	}
}

// paramBase 占位符名字只能包含字母数字和下划线
func paramBase(col string) string {
	var sb strings.Builder
	sb.Grow(len(col))
	for _, r := range col {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	res := sb.String()
	if res == "" || (res[0] >= '0' && res[0] <= '9') {
		return "p" + res
	}
	return res
}
