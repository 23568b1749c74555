package orm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONColumn 以 JSON 格式存储在一列里面的字段
// Valid 为 false 的时候写入 NULL
type JSONColumn[T any] struct {
	Val T

	// 处理NULL的问题
	Valid bool
}

func (j JSONColumn[T]) Value() (driver.Value, error) {
	if !j.Valid {
		return nil, nil
	}
	return json.Marshal(j.Val)
}

func (j *JSONColumn[T]) Scan(src any) error {
	var bs []byte
	switch data := src.(type) {
	case string:
		bs = []byte(data)
	case []byte:
		bs = data
	case nil:
		// 数据库里面存的就是 NULL
		var zero T
		j.Val, j.Valid = zero, false
		return nil
	default:
		return fmt.Errorf("orm: JSONColumn 不支持类型 %T", src)
	}
	if err := json.Unmarshal(bs, &j.Val); err != nil {
		return err
	}
	j.Valid = true
	return nil
}
