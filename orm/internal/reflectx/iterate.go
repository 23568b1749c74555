package reflectx

import (
	"database/sql/driver"
	"errors"
	"reflect"
	"sort"
)

var (
	errNotSupportType = errors.New("orm: 不支持这种类型")
	errNotSupportNil  = errors.New("orm: 不支持nil")
)

// IsSequence 判断 val 是否能展开成多个参数
// []byte 是单个值, driver.Valuer 也当成单个值
func IsSequence(val any) bool {
	if val == nil {
		return false
	}
	if _, ok := val.(driver.Valuer); ok {
		return false
	}
	typ := reflect.TypeOf(val)
	switch typ.Kind() {
	case reflect.Slice:
		return typ.Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	default:
		return false
	}
}

// IterateArray 把切片或者数组展开成 []any
// 不是序列的值当成只有一个元素
func IterateArray(val any) []any {
	if !IsSequence(val) {
		if val == nil {
			return nil
		}
		return []any{val}
	}
	if vals, ok := val.([]any); ok {
		return vals
	}
	v := reflect.ValueOf(val)
	res := make([]any, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		res = append(res, v.Index(i).Interface())
	}
	return res
}

// Pair 字段名和值
type Pair struct {
	Name  string
	Value any
}

// IterateFields 遍历 struct (或者 struct 指针) 的导出字段, 或者 map[string]T 的键值对
// map 没有顺序, 这里按照键排序保证生成的 SQL 是稳定的
func IterateFields(entity any) ([]Pair, error) {
	if entity == nil {
		return nil, errNotSupportNil
	}
	val := reflect.ValueOf(entity)
	// 反射层面上的解引用, 如 &user 直接取到 user, &&user 取到 user
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, errNotSupportNil
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Struct:
		typ := val.Type()
		res := make([]Pair, 0, typ.NumField())
		for i := 0; i < typ.NumField(); i++ {
			fd := typ.Field(i)
			// 非导出字段拿不到值, 直接跳过
			if !fd.IsExported() {
				continue
			}
			res = append(res, Pair{Name: fd.Name, Value: val.Field(i).Interface()})
		}
		return res, nil
	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return nil, errNotSupportType
		}
		res := make([]Pair, 0, val.Len())
		it := val.MapRange()
		for it.Next() {
			res = append(res, Pair{Name: it.Key().String(), Value: it.Value().Interface()})
		}
		sort.Slice(res, func(i, j int) bool {
			return res[i].Name < res[j].Name
		})
		return res, nil
	default:
		return nil, errNotSupportType
	}
}
