package orm

import (
	"context"
	"database/sql"

	"github.com/startdusk/dbkit/orm/mapping"
	"github.com/startdusk/dbkit/orm/model"
)

type Selector[T any] struct {
	core
	sess Session

	tableName string
	// 指定 select 的列
	columns []Selectable
	where   []Condition
	exprs   []whereExpr
	orderBy []OrderBy
	top     int
	hints   string

	model *model.Model
}

// whereExpr 用 Go 表达式写的条件, 构造语句的时候再翻译
type whereExpr struct {
	src  string
	vars map[string]any
}

func NewSelector[T any](sess Session) *Selector[T] {
	return &Selector[T]{
		core: sess.getCore(),
		sess: sess,
	}
}

func (s *Selector[T]) Select(cols ...Selectable) *Selector[T] {
	s.columns = cols
	return s
}

// From 这里是用户传进来的表名, 不传就用模型的表名
func (s *Selector[T]) From(tableName string) *Selector[T] {
	s.tableName = tableName
	return s
}

// Where 多个条件之间是 AND 关系
func (s *Selector[T]) Where(conds ...Condition) *Selector[T] {
	s.where = conds
	return s
}

// WhereExpr 用 Go 表达式描述条件, 例如
// WhereExpr("u.Age >= min && u.FirstName != \"\"", map[string]any{"min": 18})
// 和 Where 同时使用的时候是 AND 关系
func (s *Selector[T]) WhereExpr(src string, vars map[string]any) *Selector[T] {
	s.exprs = append(s.exprs, whereExpr{src: src, vars: vars})
	return s
}

func (s *Selector[T]) OrderBy(obs ...OrderBy) *Selector[T] {
	s.orderBy = obs
	return s
}

// Top 最多返回多少行, MySQL 里面是 LIMIT, SQL Server 里面是 TOP
func (s *Selector[T]) Top(n int) *Selector[T] {
	s.top = n
	return s
}

// Hints 表提示, 只有 SQL Server 会用上, 例如 NOLOCK
func (s *Selector[T]) Hints(hints string) *Selector[T] {
	s.hints = hints
	return s
}

func (s *Selector[T]) Build() (*Query, error) {
	return s.build(KindSelect)
}

func (s *Selector[T]) build(kind StatementKind) (*Query, error) {
	var err error
	s.model, err = s.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	where, err := s.condition()
	if err != nil {
		return nil, err
	}
	return Compile(s.dialect, Statement{
		Kind:    kind,
		Table:   s.tableName,
		Model:   s.model,
		Columns: s.columns,
		Where:   where,
		OrderBy: s.orderBy,
		Top:     s.top,
		Hints:   s.hints,
	})
}

func (s *Selector[T]) condition() (Condition, error) {
	conds := make([]Condition, 0, len(s.where)+len(s.exprs))
	conds = appendAnd(conds, s.where...)
	for _, expr := range s.exprs {
		g, err := Translate[T](s.r, expr.src, expr.vars)
		if err != nil {
			return nil, err
		}
		conds = appendAnd(conds, g)
	}
	return And(conds...), nil
}

func (s *Selector[T]) queryContext(kind StatementKind) *QueryContext {
	var qb QueryBuilder = s
	if kind != KindSelect {
		qb = builderFunc(func() (*Query, error) { return s.build(kind) })
	}
	table := s.tableName
	if table == "" && s.model != nil {
		table = s.model.TableName
	}
	return &QueryContext{
		Type:    kind.String(),
		Builder: qb,
		Model:   s.model,
		Table:   table,
	}
}

func (s *Selector[T]) Get(ctx context.Context) (*T, error) {
	if err := s.loadModel(); err != nil {
		return nil, err
	}
	res := query(ctx, s.sess, s.core, s.queryContext(KindSelect), scanOne[T](s.core))
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.(*T), nil
}

func (s *Selector[T]) GetMulti(ctx context.Context) ([]*T, error) {
	if err := s.loadModel(); err != nil {
		return nil, err
	}
	res := query(ctx, s.sess, s.core, s.queryContext(KindSelect), scanAll[T](s.core))
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.([]*T), nil
}

// Records 不映射到 T, 每一行是一个 Record, 适合聚合查询
func (s *Selector[T]) Records(ctx context.Context) ([]mapping.Record, error) {
	if err := s.loadModel(); err != nil {
		return nil, err
	}
	res := query(ctx, s.sess, s.core, s.queryContext(KindSelect), scanRecords(s.core))
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.([]mapping.Record), nil
}

// Count SELECT COUNT(*), 忽略 Select 指定的列和排序
func (s *Selector[T]) Count(ctx context.Context) (int64, error) {
	if err := s.loadModel(); err != nil {
		return 0, err
	}
	res := query(ctx, s.sess, s.core, s.queryContext(KindCount), func(rows *sql.Rows) (any, error) {
		defer func() {
			_ = rows.Close()
		}()
		var cnt int64
		if !rows.Next() {
			return cnt, rows.Err()
		}
		err := rows.Scan(&cnt)
		return cnt, err
	})
	if res.Err != nil {
		return 0, res.Err
	}
	return res.Result.(int64), nil
}

// loadModel 中间件需要在执行之前拿到模型
func (s *Selector[T]) loadModel() error {
	m, err := s.r.Get(new(T))
	if err != nil {
		return err
	}
	s.model = m
	return nil
}

// builderFunc 让闭包实现 QueryBuilder
type builderFunc func() (*Query, error)

func (f builderFunc) Build() (*Query, error) {
	return f()
}
