package orm

import (
	"context"

	"github.com/startdusk/dbkit/orm/model"
)

type Deleter[T any] struct {
	core
	sess Session

	where      []Condition
	entities   []*T
	qualifiers []string
	hints      string
}

func NewDeleter[T any](sess Session) *Deleter[T] {
	return &Deleter[T]{
		core: sess.getCore(),
		sess: sess,
	}
}

// Where 按条件删除, 什么条件都没有的时候删除整张表
func (d *Deleter[T]) Where(conds ...Condition) *Deleter[T] {
	d.where = conds
	return d
}

// Entities 按主键或者限定字段删除这些实体
func (d *Deleter[T]) Entities(vals ...*T) *Deleter[T] {
	d.entities = vals
	return d
}

func (d *Deleter[T]) Qualifiers(fields ...string) *Deleter[T] {
	d.qualifiers = fields
	return d
}

func (d *Deleter[T]) Hints(hints string) *Deleter[T] {
	d.hints = hints
	return d
}

func (d *Deleter[T]) Build() (*Query, error) {
	m, err := d.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	if len(d.entities) == 0 {
		return Compile(d.dialect, Statement{
			Kind:  KindDelete,
			Model: m,
			Where: And(appendAnd(nil, d.where...)...),
			Hints: d.hints,
		})
	}
	stmt, err := deleteStatement[T](d.core, m, d.qualifiers, d.entities)
	if err != nil {
		return nil, err
	}
	stmt.Hints = d.hints
	return d.stmts.compile(d.dialect, stmt)
}

func (d *Deleter[T]) Exec(ctx context.Context) Result {
	m, err := d.r.Get(new(T))
	if err != nil {
		return Result{err: err}
	}
	return exec(ctx, d.sess, d.core, &QueryContext{
		Type:    "DELETE",
		Builder: d,
		Model:   m,
		Table:   m.TableName,
	})
}

func deleteStatement[T any](c core, m *model.Model, qualifiers []string, vals []*T) (Statement, error) {
	keys, err := keyFields(m, qualifiers)
	if err != nil {
		return Statement{}, err
	}
	rows, err := entityRows[T](c, vals, keys)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Kind:       KindDelete,
		Model:      m,
		Qualifiers: toFields(keys),
		Rows:       rows,
	}, nil
}

// Truncate 清空 T 对应的表
func Truncate[T any](ctx context.Context, sess Session) Result {
	c := sess.getCore()
	m, err := c.r.Get(new(T))
	if err != nil {
		return Result{err: err}
	}
	return truncate(ctx, sess, m, m.TableName)
}

// TruncateTable 按表名清空
func TruncateTable(ctx context.Context, sess Session, table string) Result {
	m, _ := sess.getCore().r.ByTable(table)
	return truncate(ctx, sess, m, table)
}

func truncate(ctx context.Context, sess Session, m *model.Model, table string) Result {
	c := sess.getCore()
	return exec(ctx, sess, c, &QueryContext{
		Type: "TRUNCATE",
		Builder: builderFunc(func() (*Query, error) {
			return Compile(c.dialect, Statement{Kind: KindTruncate, Table: table})
		}),
		Model: m,
		Table: table,
	})
}
