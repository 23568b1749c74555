package orm

import (
	"context"

	"github.com/startdusk/dbkit/orm/internal/errs"
	"github.com/startdusk/dbkit/orm/internal/reflectx"
	"github.com/startdusk/dbkit/orm/model"
)

type Updater[T any] struct {
	core
	sess Session

	entity     *T
	assigns    []Assignable
	where      []Condition
	qualifiers []string
}

func NewUpdater[T any](sess Session) *Updater[T] {
	return &Updater[T]{
		core: sess.getCore(),
		sess: sess,
	}
}

// Update 更新用的实体, 没有 Where 的时候按照主键或者限定字段定位这一行
func (u *Updater[T]) Update(entity *T) *Updater[T] {
	u.entity = entity
	return u
}

// Set 指定更新的列, 不指定就更新除主键和自增列之外的所有列
// Field 的值从实体上读取, Assignment 直接给定值
func (u *Updater[T]) Set(assigns ...Assignable) *Updater[T] {
	u.assigns = assigns
	return u
}

func (u *Updater[T]) Where(conds ...Condition) *Updater[T] {
	u.where = conds
	return u
}

// Qualifiers 定位一行数据用的字段, 不指定就使用主键
func (u *Updater[T]) Qualifiers(fields ...string) *Updater[T] {
	u.qualifiers = fields
	return u
}

func (u *Updater[T]) Build() (*Query, error) {
	m, err := u.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	where := And(appendAnd(nil, u.where...)...)
	byKey := where.IsEmpty()

	var keys []*model.Field
	if byKey {
		keys, err = keyFields(m, u.qualifiers)
		if err != nil {
			return nil, err
		}
		if u.entity == nil {
			return nil, errs.NewErrKeyFieldNotFound(m.TableName)
		}
	}

	var entityVals func(fds []*model.Field) []any
	if u.entity != nil {
		mapper, err := u.compiler.ForEntity(u.entity)
		if err != nil {
			return nil, err
		}
		entityVals = func(fds []*model.Field) []any {
			return mapper.Params(u.entity, fds)
		}
	}

	fields := make([]Field, 0, len(u.assigns))
	vals := make([]any, 0, len(u.assigns))
	if len(u.assigns) == 0 {
		if entityVals == nil {
			return nil, errs.NewErrEmptyFieldSet(m.TableName)
		}
		exclude := make([]*model.Field, 0, len(keys)+1)
		exclude = append(exclude, keys...)
		exclude = append(exclude, m.PrimaryKeys()...)
		fds := writableFields(m, exclude)
		fields = toFields(fds)
		vals = entityVals(fds)
	}
	for _, assign := range u.assigns {
		switch a := assign.(type) {
		case Field:
			fd, err := modelField(m, a.name)
			if err != nil {
				return nil, err
			}
			if entityVals == nil {
				return nil, errs.NewErrUnsupportedAssignable(a)
			}
			fields = append(fields, C(fd.GoName))
			vals = append(vals, entityVals([]*model.Field{fd})...)
		case Assignment:
			fields = append(fields, C(a.col))
			vals = append(vals, a.val)
		default:
			return nil, errs.NewErrUnsupportedAssignable(assign)
		}
	}
	if len(fields) == 0 {
		return nil, errs.NewErrEmptyFieldSet(m.TableName)
	}

	stmt := Statement{
		Kind:   KindUpdate,
		Model:  m,
		Fields: fields,
	}
	if byKey {
		keyVals := entityVals(keys)
		stmt.Qualifiers = toFields(keys)
		stmt.Rows = [][]any{append(vals, keyVals...)}
		return u.stmts.compile(u.dialect, stmt)
	}
	stmt.Where = where
	stmt.Rows = [][]any{vals}
	return Compile(u.dialect, stmt)
}

func (u *Updater[T]) Exec(ctx context.Context) Result {
	m, err := u.r.Get(new(T))
	if err != nil {
		return Result{err: err}
	}
	return exec(ctx, u.sess, u.core, &QueryContext{
		Type:    "UPDATE",
		Builder: u,
		Model:   m,
		Table:   m.TableName,
	})
}

// TableUpdater 按表名更新, 数据是 map 或者匿名结构体
type TableUpdater struct {
	core
	sess Session

	table      string
	payload    any
	qualifiers []string
}

// UpdateTable 按表名更新一行数据
// 表注册过模型的时候, 默认用模型的主键定位这一行, payload 里面必须有主键的值;
// 没有注册过的表必须指定 qualifiers
// 找不到限定字段的时候返回 ErrKeyFieldNotFound, 语句不会发送到数据库
func UpdateTable(sess Session, table string, payload any, qualifiers ...string) *TableUpdater {
	return &TableUpdater{
		core:       sess.getCore(),
		sess:       sess,
		table:      table,
		payload:    payload,
		qualifiers: qualifiers,
	}
}

func (u *TableUpdater) Build() (*Query, error) {
	pairs, err := reflectx.IterateFields(u.payload)
	if err != nil {
		return nil, err
	}
	m, _ := u.r.ByTable(u.table)

	keys := u.qualifiers
	if len(keys) == 0 && m != nil {
		for _, pk := range m.PrimaryKeys() {
			keys = append(keys, pk.GoName)
		}
	}
	if len(keys) == 0 {
		return nil, errs.NewErrKeyFieldNotFound(u.table)
	}

	keyVals := make([]any, len(keys))
	found := make([]bool, len(keys))
	fields := make([]Field, 0, len(pairs))
	vals := make([]any, 0, len(pairs))
	for _, p := range pairs {
		if idx := keyIndex(m, keys, p.Name); idx >= 0 {
			keyVals[idx] = p.Value
			found[idx] = true
			continue
		}
		fields = append(fields, C(p.Name))
		vals = append(vals, p.Value)
	}
	for _, ok := range found {
		if !ok {
			return nil, errs.NewErrKeyFieldNotFound(u.table)
		}
	}
	if len(fields) == 0 {
		return nil, errs.NewErrEmptyFieldSet(u.table)
	}
	return u.stmts.compile(u.dialect, Statement{
		Kind:       KindUpdate,
		Table:      u.table,
		Model:      m,
		Fields:     fields,
		Qualifiers: Fields(keys...),
		Rows:       [][]any{append(vals, keyVals...)},
	})
}

func (u *TableUpdater) Exec(ctx context.Context) Result {
	m, _ := u.r.ByTable(u.table)
	return exec(ctx, u.sess, u.core, &QueryContext{
		Type:    "UPDATE",
		Builder: u,
		Model:   m,
		Table:   u.table,
	})
}

// keyIndex name 是不是限定字段, 有模型的时候 Go 字段名和列名都认
func keyIndex(m *model.Model, keys []string, name string) int {
	for i, key := range keys {
		if key == name {
			return i
		}
		if m == nil {
			continue
		}
		kf, err := modelField(m, key)
		if err != nil {
			continue
		}
		if nf, err := modelField(m, name); err == nil && nf == kf {
			return i
		}
	}
	return -1
}
