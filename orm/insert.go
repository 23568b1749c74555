package orm

import (
	"context"

	"github.com/startdusk/dbkit/orm/internal/errs"
	"github.com/startdusk/dbkit/orm/model"
)

type Inserter[T any] struct {
	core
	sess Session

	// INSERT 语句要插入的值的结构体的列表
	values []*T
	// INSERT 语句要插入的指定的列
	columns []string

	// upsert 为 true 的时候生成 MERGE
	upsert     bool
	qualifiers []string

	model *model.Model
}

func NewInserter[T any](sess Session) *Inserter[T] {
	return &Inserter[T]{
		core: sess.getCore(),
		sess: sess,
	}
}

// Upsert 数据已经存在的时候更新
// qualifiers 判断数据是否存在的字段, 不传就用主键
// MySQL 依赖唯一索引判断冲突, qualifiers 只是用来排除不需要更新的列
func (i *Inserter[T]) Upsert(qualifiers ...string) *Inserter[T] {
	i.upsert = true
	i.qualifiers = qualifiers
	return i
}

// Columns 指定插入的列
func (i *Inserter[T]) Columns(cols ...string) *Inserter[T] {
	i.columns = cols
	return i
}

// Values 指定插入的数据
func (i *Inserter[T]) Values(vals ...*T) *Inserter[T] {
	i.values = vals
	return i
}

func (i *Inserter[T]) kind() StatementKind {
	if i.upsert {
		return KindMerge
	}
	return KindInsert
}

func (i *Inserter[T]) Build() (*Query, error) {
	if len(i.values) == 0 {
		return nil, errs.ErrInsertZeroRows
	}
	m, err := i.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	i.model = m
	stmt, err := writeStatement[T](i.core, m, i.kind(), i.columns, i.qualifiers, i.values)
	if err != nil {
		return nil, err
	}
	return i.stmts.compile(i.dialect, stmt)
}

func (i *Inserter[T]) Exec(ctx context.Context) Result {
	m, err := i.r.Get(new(T))
	if err != nil {
		return Result{err: err}
	}
	return exec(ctx, i.sess, i.core, &QueryContext{
		Type:    i.kind().String(),
		Builder: i,
		Model:   m,
		Table:   m.TableName,
	})
}

// writeStatement 构造 INSERT 或者 MERGE
// 一定要显式指定列的顺序, 不然我们不知道数据库中默认的顺序
func writeStatement[T any](c core, m *model.Model, kind StatementKind,
	columns []string, qualifiers []string, vals []*T) (Statement, error) {
	var fields []*model.Field
	var err error
	switch {
	case len(columns) > 0:
		fields, err = modelFields(m, columns)
	case kind == KindMerge:
		fields = m.Fields
	default:
		// 自增列交给数据库生成
		fields = writableFields(m, nil)
	}
	if err != nil {
		return Statement{}, err
	}
	if len(fields) == 0 {
		return Statement{}, errs.NewErrEmptyFieldSet(m.TableName)
	}
	stmt := Statement{
		Kind:   kind,
		Model:  m,
		Fields: toFields(fields),
	}
	if kind == KindMerge {
		keys, err := keyFields(m, qualifiers)
		if err != nil {
			return Statement{}, err
		}
		stmt.Qualifiers = toFields(keys)
	}
	stmt.Rows, err = entityRows[T](c, vals, fields)
	if err != nil {
		return Statement{}, err
	}
	return stmt, nil
}
