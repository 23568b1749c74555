package orm

// Operation 比较操作, 是封闭的枚举
type Operation uint8

const (
	OpEqual Operation = iota + 1
	OpNotEqual
	OpGreaterThan
	OpLessThan
	OpGreaterThanOrEqual
	OpLessThanOrEqual
	OpLike
	OpNotLike
	OpBetween
	OpNotBetween
	OpIn
	OpNotIn
	OpIsNull
	OpIsNotNull
)

var opText = map[Operation]string{
	OpEqual:              "=",
	OpNotEqual:           "<>",
	OpGreaterThan:        ">",
	OpLessThan:           "<",
	OpGreaterThanOrEqual: ">=",
	OpLessThanOrEqual:    "<=",
	OpLike:               "LIKE",
	OpNotLike:            "NOT LIKE",
	OpBetween:            "BETWEEN",
	OpNotBetween:         "NOT BETWEEN",
	OpIn:                 "IN",
	OpNotIn:              "NOT IN",
	OpIsNull:             "IS NULL",
	OpIsNotNull:          "IS NOT NULL",
}

// String 返回 SQL 里面的写法
func (o Operation) String() string {
	if s, ok := opText[o]; ok {
		return s
	}
	return "UNKNOWN"
}

func (o Operation) valid() bool {
	_, ok := opText[o]
	return ok
}

// negate 取反, 用于把 NOT 下推到单个条件上
func (o Operation) negate() Operation {
	switch o {
	case OpEqual:
		return OpNotEqual
	case OpNotEqual:
		return OpEqual
	case OpGreaterThan:
		return OpLessThanOrEqual
	case OpLessThanOrEqual:
		return OpGreaterThan
	case OpLessThan:
		return OpGreaterThanOrEqual
	case OpGreaterThanOrEqual:
		return OpLessThan
	case OpLike:
		return OpNotLike
	case OpNotLike:
		return OpLike
	case OpBetween:
		return OpNotBetween
	case OpNotBetween:
		return OpBetween
	case OpIn:
		return OpNotIn
	case OpNotIn:
		return OpIn
	case OpIsNull:
		return OpIsNotNull
	case OpIsNotNull:
		return OpIsNull
	}
	return o
}

// flip 交换左右两边, 例如 18 < age 变成 age > 18
func (o Operation) flip() Operation {
	switch o {
	case OpGreaterThan:
		return OpLessThan
	case OpLessThan:
		return OpGreaterThan
	case OpGreaterThanOrEqual:
		return OpLessThanOrEqual
	case OpLessThanOrEqual:
		return OpGreaterThanOrEqual
	}
	return o
}
