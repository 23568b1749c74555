package errs

import (
	"errors"
	"fmt"
)

var (
	ErrPointerOnly    = errors.New("orm: 只支持指向结构体的一级指针")
	ErrNoRows         = errors.New("orm: 没有数据")
	ErrInsertZeroRows = errors.New("orm: 插入0行数据")

	ErrTranslation           = errors.New("orm: 无法翻译的表达式")
	ErrKeyFieldNotFound      = errors.New("orm: 找不到主键或限定字段")
	ErrEmptyFieldSet         = errors.New("orm: 没有可用的列")
	ErrCursorExhausted       = errors.New("orm: 结果集已经读完")
	ErrCursorClosed          = errors.New("orm: 游标已经关闭")
	ErrInvalidOperationValue = errors.New("orm: 操作符与值不匹配")
	ErrQueryFieldBound       = errors.New("orm: 查询条件已经绑定, 请先 Reset")
	ErrTxUnsupported         = errors.New("orm: 当前连接不支持事务")
	ErrUnknownStatementKind  = errors.New("orm: 未知的语句类型")
)

func NewErrUnsupportedExpressionType(expr any) error {
	return fmt.Errorf("orm: 不支持的表达式 %v", expr)
}

func NewErrUnknownField(name string) error {
	return fmt.Errorf("orm: 未知字段 %s", name)
}

func NewErrUnknownColumn(name string) error {
	return fmt.Errorf("orm: 未知数据库列名 %s", name)
}

func NewErrIinvalidTagContent(pair string) error {
	return fmt.Errorf("orm: 非法标签值 %s", pair)
}

func NewErrUnsupportedAssignable(expr any) error {
	return fmt.Errorf("orm: 不支持的赋值表达式类型 %v", expr)
}

func NewErrTranslation(expr string, reason string) error {
	return fmt.Errorf("%w: %s, %s", ErrTranslation, expr, reason)
}

func NewErrKeyFieldNotFound(table string) error {
	return fmt.Errorf("%w, 表 %s", ErrKeyFieldNotFound, table)
}

func NewErrEmptyFieldSet(table string) error {
	return fmt.Errorf("%w, 表 %s", ErrEmptyFieldSet, table)
}

func NewErrInvalidOperationValue(field string, op string, val any) error {
	return fmt.Errorf("%w: %s %s %v", ErrInvalidOperationValue, field, op, val)
}

func NewErrCursorExhausted(position int) error {
	return fmt.Errorf("%w, 当前位置 %d", ErrCursorExhausted, position)
}

func NewErrUnknownStatementKind(kind any) error {
	return fmt.Errorf("%w %v", ErrUnknownStatementKind, kind)
}

// NewErrFailedToRollbackTx 事务执行失败, 并且回滚也失败了
func NewErrFailedToRollbackTx(bizErr error, rbErr error, panicked bool) error {
	if rbErr == nil {
		return bizErr
	}
	return fmt.Errorf("orm: 事务回滚失败, 业务错误: %w, 回滚错误: %s, 是否 panic: %t", bizErr, rbErr, panicked)
}

func NewErrValueCount(want int, got int) error {
	return fmt.Errorf("orm: 参数个数不匹配, 期望 %d, 实际 %d", want, got)
}

func NewErrUnsupportedSelectable(col any) error {
	return fmt.Errorf("orm: 不支持的列 %v", col)
}
