package orm

import (
	"github.com/startdusk/dbkit/orm/internal/errs"
	"github.com/startdusk/dbkit/orm/internal/reflectx"
)

// Conjunction 同一层条件之间的连接方式
type Conjunction uint8

const (
	ConjunctionAnd Conjunction = iota
	ConjunctionOr
)

func (c Conjunction) String() string {
	if c == ConjunctionOr {
		return "OR"
	}
	return "AND"
}

// QueryGroup 条件树
// 空的分组代表没有条件, 也就是匹配所有的行
type QueryGroup struct {
	conj     Conjunction
	not      bool
	children []Condition
}

// And 用 AND 连接多个条件, nil 会被忽略
func And(conds ...Condition) *QueryGroup {
	return newQueryGroup(ConjunctionAnd, conds)
}

// Or 用 OR 连接多个条件, nil 会被忽略
func Or(conds ...Condition) *QueryGroup {
	return newQueryGroup(ConjunctionOr, conds)
}

// Not 对条件取反, 生成 NOT (...)
// 对一个没有取反的分组取反的时候直接复用它的子节点, 避免 NOT ((...))
func Not(cond Condition) *QueryGroup {
	if g, ok := cond.(*QueryGroup); ok && g != nil && !g.not {
		return &QueryGroup{conj: g.conj, not: true, children: g.children}
	}
	g := newQueryGroup(ConjunctionAnd, []Condition{cond})
	g.not = true
	return g
}

func newQueryGroup(conj Conjunction, conds []Condition) *QueryGroup {
	g := &QueryGroup{
		conj:     conj,
		children: make([]Condition, 0, len(conds)),
	}
	for _, c := range conds {
		if c == nil {
			continue
		}
		// 接口里面装着 nil 指针也一样跳过
		switch v := c.(type) {
		case *QueryField:
			if v == nil {
				continue
			}
		case *QueryGroup:
			if v == nil {
				continue
			}
		}
		g.children = append(g.children, c)
	}
	return g
}

func (g *QueryGroup) condition() {}

func (g *QueryGroup) Conjunction() Conjunction {
	return g.conj
}

func (g *QueryGroup) Negated() bool {
	return g.not
}

func (g *QueryGroup) Children() []Condition {
	return g.children
}

// And 把当前分组作为第一个子节点, 组成新的 AND 分组
func (g *QueryGroup) And(conds ...Condition) *QueryGroup {
	return And(append([]Condition{g}, conds...)...)
}

// Or 把当前分组作为第一个子节点, 组成新的 OR 分组
func (g *QueryGroup) Or(conds ...Condition) *QueryGroup {
	return Or(append([]Condition{g}, conds...)...)
}

// IsEmpty 没有任何叶子节点
// 只包含空分组的分组也是空的
func (g *QueryGroup) IsEmpty() bool {
	return len(g.Flatten()) == 0
}

// Flatten 先序遍历得到所有的叶子节点
// 编译出来的占位符顺序和这里的顺序是一致的
func (g *QueryGroup) Flatten() []*QueryField {
	var res []*QueryField
	g.flatten(&res)
	return res
}

func (g *QueryGroup) flatten(res *[]*QueryField) {
	for _, c := range g.children {
		switch v := c.(type) {
		case *QueryField:
			*res = append(*res, v)
		case *QueryGroup:
			v.flatten(res)
		}
	}
}

// Reset 重置所有叶子节点的绑定状态
func (g *QueryGroup) Reset() {
	for _, qf := range g.Flatten() {
		qf.Reset()
	}
}

// ParseObject 把 struct 或者 map[string]T 转换成 AND 分组
// 每个字段一个条件, 值是序列的时候用 IN, 值是 nil 的时候用 IS NULL, 其余的用 =
func ParseObject(obj any) (*QueryGroup, error) {
	pairs, err := reflectx.IterateFields(obj)
	if err != nil {
		return nil, err
	}
	conds := make([]Condition, 0, len(pairs))
	for _, p := range pairs {
		conds = append(conds, fieldCondition(C(p.Name), p.Value))
	}
	return And(conds...), nil
}

// ParseFields 只使用 fields 指定的字段, 顺序以 fields 为准
func ParseFields(obj any, fields ...Field) (*QueryGroup, error) {
	pairs, err := reflectx.IterateFields(obj)
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(pairs))
	for _, p := range pairs {
		values[p.Name] = p.Value
	}
	conds := make([]Condition, 0, len(fields))
	for _, f := range fields {
		val, ok := values[f.name]
		if !ok {
			return nil, errs.NewErrUnknownField(f.name)
		}
		conds = append(conds, fieldCondition(f, val))
	}
	return And(conds...), nil
}

func fieldCondition(f Field, val any) *QueryField {
	switch {
	case isNil(val):
		return f.IsNull()
	case isSequence(val):
		return f.In(val)
	default:
		return f.Eq(val)
	}
}

// asGroup 把任意条件统一成分组, nil 返回空分组
func asGroup(c Condition) *QueryGroup {
	switch v := c.(type) {
	case *QueryGroup:
		if v != nil {
			return v
		}
	case *QueryField:
		if v != nil {
			return And(v)
		}
	}
	return And()
}

// appendAnd 没有取反的 AND 分组直接展开, 少一层括号
func appendAnd(dst []Condition, conds ...Condition) []Condition {
	for _, c := range conds {
		if g, ok := c.(*QueryGroup); ok && g != nil && g.conj == ConjunctionAnd && !g.not {
			dst = append(dst, g.children...)
			continue
		}
		dst = append(dst, c)
	}
	return dst
}
