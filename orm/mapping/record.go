package mapping

import (
	"bytes"
	"encoding/json"
)

// Record 没有静态类型时一行数据的表示, 保留列的顺序
type Record struct {
	keys   []string
	values []any
}

func NewRecord(keys []string, values []any) Record {
	return Record{keys: keys, values: values}
}

func (r Record) Get(key string) (any, bool) {
	for i, k := range r.keys {
		if k == key {
			return r.values[i], true
		}
	}
	return nil, false
}

func (r Record) Keys() []string {
	return r.keys
}

func (r Record) Values() []any {
	return r.values
}

func (r Record) Len() int {
	return len(r.keys)
}

// Map 同名列后面的覆盖前面的
func (r Record) Map() map[string]any {
	res := make(map[string]any, len(r.keys))
	for i, k := range r.keys {
		res[k] = r.values[i]
	}
	return res
}

// MarshalJSON 按照列的顺序输出
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
