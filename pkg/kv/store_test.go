package kv

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_GetSet(t *testing.T) {
	s := New[string, int]()

	s.Set("foo", 42)
	val, ok := s.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, 42, val)

	_, ok = s.Get("bar")
	assert.False(t, ok)
}

func TestStore_Update(t *testing.T) {
	s := New[string, int]()

	got := s.Update("count", func(cur int, ok bool) int {
		assert.False(t, ok)
		return cur + 1
	})
	assert.Equal(t, 1, got)

	got = s.Update("count", func(cur int, ok bool) int {
		assert.True(t, ok)
		return cur + 1
	})
	assert.Equal(t, 2, got)
}

func TestStore_DeleteFunc(t *testing.T) {
	s := New[string, int]()
	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("c", 3)

	removed := s.DeleteFunc(func(_ string, v int) bool { return v%2 == 1 })

	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"b"}, s.Keys())
}

func TestStore_Delete(t *testing.T) {
	s := New[string, string]()
	s.Set("key", "value")

	s.Delete("key")

	_, ok := s.Get("key")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_ConcurrentUpdate(t *testing.T) {
	s := New[string, int]()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update("n", func(cur int, _ bool) int { return cur + 1 })
		}()
	}

	wg.Wait()

	val, _ := s.Get("n")
	assert.Equal(t, 100, val)
}
