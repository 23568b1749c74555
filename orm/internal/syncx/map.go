package syncx

import (
	"sync"
)

// Map 读多写少的并发安全 map, 每个 key 只写一次
// 元数据和映射器缓存都建立在它上面
type Map[K comparable, V any] struct {
	data  map[K]V
	mutex sync.RWMutex
}

func NewMap[K comparable, V any](capacity int) *Map[K, V] {
	return &Map[K, V]{
		data: make(map[K]V, capacity),
	}
}

func (m *Map[K, V]) Load(key K) (V, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	val, ok := m.data[key]
	return val, ok
}

// LoadOrStore 使用 RWMutex 实现 double check
// 加读锁先检查一遍, 释放读锁, 加写锁, 再检查一遍
// 返回值 loaded 为 true 说明已经有别的 goroutine 抢先写入, 调用方应该丢弃自己的结果
func (m *Map[K, V]) LoadOrStore(key K, newVal V) (val V, loaded bool) {
	m.mutex.RLock()
	val, ok := m.data[key]
	m.mutex.RUnlock()
	if ok {
		return val, true
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	// double check 避免线程覆盖问题
	val, ok = m.data[key]
	if ok {
		return val, true
	}
	m.data[key] = newVal
	return newVal, false
}

// LoadOrCompute 和 LoadOrStore 类似, 但只有真正缺失的时候才会调用 fn
// fn 在写锁内执行, 所以同一个 key 只会被计算一次
func (m *Map[K, V]) LoadOrCompute(key K, fn func() (V, error)) (V, error) {
	m.mutex.RLock()
	val, ok := m.data[key]
	m.mutex.RUnlock()
	if ok {
		return val, nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	val, ok = m.data[key]
	if ok {
		return val, nil
	}
	val, err := fn()
	if err != nil {
		return val, err
	}
	m.data[key] = val
	return val, nil
}

// Range 遍历过程中持有读锁, f 返回 false 停止遍历
func (m *Map[K, V]) Range(f func(key K, val V) bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for k, v := range m.data {
		if !f(k, v) {
			return
		}
	}
}

func (m *Map[K, V]) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.data)
}

// Clear 只给测试用
func (m *Map[K, V]) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.data = make(map[K]V, len(m.data))
}
