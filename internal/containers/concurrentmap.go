package containers

import (
	"sync"

	"github.com/varlenahq/pg-datum-marshal/internal/functional"
)

type ConcurrentMap[K comparable, V any] struct {
	m *sync.Map
}

func NewConcurrentMap[K comparable, V any]() *ConcurrentMap[K, V] {
	return &ConcurrentMap[K, V]{
		m: &sync.Map{},
	}
}

func (m *ConcurrentMap[K, V]) Load(key K) (value V, ok bool) {
	v, ok := m.m.Load(key)
	if !ok {
		return functional.Zero[V](), false
	}
	return v.(V), ok
}

func (m *ConcurrentMap[K, V]) Store(key K, value V) {
	m.m.Store(key, value)
}

func (m *ConcurrentMap[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	v, ok := m.m.LoadOrStore(key, value)
	return v.(V), ok
}

func (m *ConcurrentMap[K, V]) Range(f func(key K, value V) bool) {
	m.m.Range(func(key, value any) bool {
		return f(key.(K), value.(V))
	})
}
