package orm

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"strconv"

	"github.com/startdusk/dbkit/orm/internal/errs"
	"github.com/startdusk/dbkit/orm/model"
)

type TranslateOption func(t *translator)

// TranslateSkipUnsupported 遇到翻译不了的条件直接丢掉
// 默认是报错, 丢掉条件意味着 WHERE 会匹配更多的行
func TranslateSkipUnsupported() TranslateOption {
	return func(t *translator) {
		t.skip = true
	}
}

// Translate 把 Go 的布尔表达式翻译成条件树
//
//	Translate[User](r, `u.Age >= min && !slices.Contains(ids, u.ID)`, map[string]any{
//		"min": 18,
//		"ids": []int64{1, 2},
//	})
//
// 字段写成 u.Age 或者直接写 Age, 其余的标识符从 vars 里面取值
// 支持 == != > >= < <= && || ! 和括号, x == nil, slices.Contains 翻译成 IN,
// strings.Contains, strings.HasPrefix, strings.HasSuffix 翻译成 LIKE
func Translate[T any](r model.Registry, src string, vars map[string]any, opts ...TranslateOption) (*QueryGroup, error) {
	m, err := r.Get(new(T))
	if err != nil {
		return nil, err
	}
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil, errs.NewErrTranslation(src, err.Error())
	}
	t := &translator{
		model: m,
		vars:  vars,
	}
	for _, opt := range opts {
		opt(t)
	}
	cond, err := t.translate(expr)
	if err != nil {
		return nil, err
	}
	return asGroup(cond), nil
}

type translator struct {
	model *model.Model
	vars  map[string]any
	skip  bool
}

// unsupported 返回 nil, nil 代表这个条件被丢掉了
func (t *translator) unsupported(expr ast.Expr, reason string) (Condition, error) {
	if t.skip {
		return nil, nil
	}
	return nil, errs.NewErrTranslation(types.ExprString(expr), reason)
}

func (t *translator) translate(expr ast.Expr) (Condition, error) {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return t.translate(e.X)
	case *ast.BinaryExpr:
		switch e.Op {
		case token.LAND, token.LOR:
			return t.logical(e)
		case token.EQL, token.NEQ, token.GTR, token.GEQ, token.LSS, token.LEQ:
			return t.comparison(e)
		}
		return t.unsupported(e, "不支持的操作符 "+e.Op.String())
	case *ast.UnaryExpr:
		if e.Op != token.NOT {
			return t.unsupported(e, "不支持的操作符 "+e.Op.String())
		}
		cond, err := t.translate(e.X)
		if err != nil || cond == nil {
			return nil, err
		}
		if qf, ok := cond.(*QueryField); ok {
			return newQueryField(qf.field, qf.op.negate(), qf.value), nil
		}
		return Not(cond), nil
	case *ast.CallExpr:
		return t.call(e)
	case *ast.Ident, *ast.SelectorExpr:
		// 布尔字段 u.Active 等价于 u.Active == true
		if f, ok := t.field(e); ok {
			return f.Eq(true), nil
		}
		return t.unsupported(e, "不是字段")
	}
	return t.unsupported(expr, "不是比较表达式")
}

// logical 同一种连接方式的条件合并到一个分组里面
func (t *translator) logical(e *ast.BinaryExpr) (Condition, error) {
	left, err := t.translate(e.X)
	if err != nil {
		return nil, err
	}
	right, err := t.translate(e.Y)
	if err != nil {
		return nil, err
	}
	if left == nil {
		return right, nil
	}
	if right == nil {
		return left, nil
	}
	conj := ConjunctionAnd
	if e.Op == token.LOR {
		conj = ConjunctionOr
	}
	children := make([]Condition, 0, 4)
	for _, c := range []Condition{left, right} {
		if g, ok := c.(*QueryGroup); ok && g.conj == conj && !g.not {
			children = append(children, g.children...)
			continue
		}
		children = append(children, c)
	}
	return newQueryGroup(conj, children), nil
}

var tokenOps = map[token.Token]Operation{
	token.EQL: OpEqual,
	token.NEQ: OpNotEqual,
	token.GTR: OpGreaterThan,
	token.GEQ: OpGreaterThanOrEqual,
	token.LSS: OpLessThan,
	token.LEQ: OpLessThanOrEqual,
}

func (t *translator) comparison(e *ast.BinaryExpr) (Condition, error) {
	op := tokenOps[e.Op]
	f, ok := t.field(e.X)
	other := e.Y
	if _, rok := t.field(e.Y); rok {
		if ok {
			return t.unsupported(e, "不支持两个字段比较")
		}
		// 18 < u.Age 变成 u.Age > 18
		f, _ = t.field(e.Y)
		other = e.X
		op = op.flip()
	} else if !ok {
		return t.unsupported(e, "没有字段")
	}

	val, err := t.value(other)
	if err != nil {
		return t.unsupported(other, err.Error())
	}
	if val == nil {
		switch op {
		case OpEqual:
			return f.IsNull(), nil
		case OpNotEqual:
			return f.IsNotNull(), nil
		}
		return t.unsupported(e, "nil 只能用 == 或者 != 比较")
	}
	qf := newQueryField(f, op, val)
	if err = qf.validate(); err != nil {
		return t.unsupported(e, err.Error())
	}
	return qf, nil
}

func (t *translator) call(e *ast.CallExpr) (Condition, error) {
	sel, ok := e.Fun.(*ast.SelectorExpr)
	if !ok {
		return t.unsupported(e, "不支持的函数")
	}
	pkg, ok := sel.X.(*ast.Ident)
	if !ok || len(e.Args) != 2 {
		return t.unsupported(e, "不支持的函数")
	}
	switch pkg.Name + "." + sel.Sel.Name {
	case "slices.Contains":
		f, ok := t.field(e.Args[1])
		if !ok {
			return t.unsupported(e, "slices.Contains 的第二个参数必须是字段")
		}
		val, err := t.value(e.Args[0])
		if err != nil {
			return t.unsupported(e.Args[0], err.Error())
		}
		if !isSequence(val) {
			return t.unsupported(e.Args[0], "不是切片")
		}
		return f.In(val), nil
	case "strings.Contains", "strings.HasPrefix", "strings.HasSuffix":
		f, ok := t.field(e.Args[0])
		if !ok {
			return t.unsupported(e, sel.Sel.Name+" 的第一个参数必须是字段")
		}
		val, err := t.value(e.Args[1])
		if err != nil {
			return t.unsupported(e.Args[1], err.Error())
		}
		s, ok := val.(string)
		if !ok {
			return t.unsupported(e.Args[1], "不是字符串")
		}
		switch sel.Sel.Name {
		case "Contains":
			s = "%" + s + "%"
		case "HasPrefix":
			s = s + "%"
		default:
			s = "%" + s
		}
		return f.Like(s), nil
	}
	return t.unsupported(e, "不支持的函数")
}

// field 判断表达式是不是字段, u.Age 或者 Age
// vars 里面有的标识符优先当成值
func (t *translator) field(expr ast.Expr) (Field, bool) {
	var name string
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return t.field(e.X)
	case *ast.Ident:
		if _, ok := t.vars[e.Name]; ok {
			return Field{}, false
		}
		name = e.Name
	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok {
			return Field{}, false
		}
		if _, ok = t.vars[x.Name]; ok {
			return Field{}, false
		}
		name = e.Sel.Name
	default:
		return Field{}, false
	}
	fd, ok := t.model.FieldMap[name]
	if !ok {
		return Field{}, false
	}
	return NewField(fd.GoName, FieldWithType(fd.Type)), true
}

// value 计算表达式的值, 只支持字面量, 变量和变量的字段
func (t *translator) value(expr ast.Expr) (any, error) {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return t.value(e.X)
	case *ast.BasicLit:
		return literal(e)
	case *ast.Ident:
		if val, ok := t.vars[e.Name]; ok {
			return val, nil
		}
		switch e.Name {
		case "nil":
			return nil, nil
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, errs.NewErrUnknownField(e.Name)
	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok {
			break
		}
		val, ok := t.vars[x.Name]
		if !ok {
			return nil, errs.NewErrUnknownField(x.Name)
		}
		return memberValue(val, e.Sel.Name)
	case *ast.UnaryExpr:
		if e.Op != token.SUB {
			break
		}
		val, err := t.value(e.X)
		if err != nil {
			return nil, err
		}
		switch v := val.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		}
	case *ast.CompositeLit:
		res := make([]any, 0, len(e.Elts))
		for _, elt := range e.Elts {
			val, err := t.value(elt)
			if err != nil {
				return nil, err
			}
			res = append(res, val)
		}
		return res, nil
	}
	return nil, errs.NewErrUnsupportedExpressionType(types.ExprString(expr))
}

func literal(lit *ast.BasicLit) (any, error) {
	switch lit.Kind {
	case token.INT:
		return strconv.ParseInt(lit.Value, 0, 64)
	case token.FLOAT:
		return strconv.ParseFloat(lit.Value, 64)
	case token.STRING, token.CHAR:
		return strconv.Unquote(lit.Value)
	}
	return nil, errs.NewErrUnsupportedExpressionType(lit.Value)
}

// memberValue 读取变量的字段, 例如 cfg.MinAge
func memberValue(val any, name string) (any, error) {
	v := reflect.ValueOf(val)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, errs.NewErrUnknownField(name)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, errs.NewErrUnknownField(name)
	}
	fv := v.FieldByName(name)
	if !fv.IsValid() || !fv.CanInterface() {
		return nil, errs.NewErrUnknownField(name)
	}
	return fv.Interface(), nil
}
