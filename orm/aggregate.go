package orm

// Selectable select 指定列
// 避免用户使用数据库列 存在耦合问题(用户应该使用Go结构体的字段名, 就能与数据库表字段解耦)
// 使用Go的结构体字段名同时也可以避免传入的SQL列名存在SQL注入问题
type Selectable interface {
	selectable()
}

var (
	_ Selectable = Field{}
	_ Selectable = Aggregate{}
)

// Aggregate 代表了聚合函数
// AVG(`age`), SUM(`age`), COUNT(`age`), MAX(`age`), MIN(`age`)
type Aggregate struct {
	fn    string
	arg   string
	alias string
}

func (a Aggregate) selectable() {}

// As 聚合结果的别名, 映射到结构体的时候用得上
func (a Aggregate) As(alias string) Aggregate {
	a.alias = alias
	return a
}

func Avg(col string) Aggregate {
	return Aggregate{
		fn:  "AVG",
		arg: col,
	}
}

func Sum(col string) Aggregate {
	return Aggregate{
		fn:  "SUM",
		arg: col,
	}
}

// Count 传 * 就是 COUNT(*)
func Count(col string) Aggregate {
	return Aggregate{
		fn:  "COUNT",
		arg: col,
	}
}

func Max(col string) Aggregate {
	return Aggregate{
		fn:  "MAX",
		arg: col,
	}
}

func Min(col string) Aggregate {
	return Aggregate{
		fn:  "MIN",
		arg: col,
	}
}

func (b *builder) buildAggregate(a Aggregate) error {
	// 聚合函数名
	b.sb.WriteString(a.fn)
	b.sb.WriteByte('(')
	if a.arg == "*" {
		b.sb.WriteByte('*')
	} else if err := b.buildColumn(C(a.arg)); err != nil {
		// 聚合字段名
		return err
	}
	b.sb.WriteByte(')')
	if a.alias != "" {
		b.sb.WriteString(" AS ")
		b.quote(a.alias)
	}
	return nil
}
