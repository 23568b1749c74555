package syncx

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_LoadOrStore(t *testing.T) {
	m := NewMap[string, int](4)
	val, loaded := m.LoadOrStore("a", 1)
	assert.False(t, loaded)
	assert.Equal(t, 1, val)

	val, loaded = m.LoadOrStore("a", 2)
	assert.True(t, loaded)
	assert.Equal(t, 1, val)

	val, ok := m.Load("a")
	assert.True(t, ok)
	assert.Equal(t, 1, val)
	assert.Equal(t, 1, m.Len())

	m.Clear()
	_, ok = m.Load("a")
	assert.False(t, ok)
}

func TestMap_LoadOrCompute(t *testing.T) {
	m := NewMap[string, int](4)
	computeErr := errors.New("compute error")
	_, err := m.LoadOrCompute("a", func() (int, error) {
		return 0, computeErr
	})
	assert.Equal(t, computeErr, err)
	assert.Equal(t, 0, m.Len())

	var calls int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err := m.LoadOrCompute("a", func() (int, error) {
				atomic.AddInt32(&calls, 1)
				return 10, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 10, val)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls)
}
