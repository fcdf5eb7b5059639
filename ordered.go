// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"cmp"
	"slices"
)

// Map is an insertion-ordered mapping.  Writers emit keys in the order
// they were first Set.
type Map[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func NewMap[K comparable, V any](capacity int) *Map[K, V] {
	return &Map[K, V]{
		keys:   make([]K, 0, capacity),
		values: make(map[K]V, capacity),
	}
}

// SortedMap copies m, ordering keys ascending.
func SortedMap[K cmp.Ordered, V any](m map[K]V) *Map[K, V] {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	om := NewMap[K, V](len(keys))
	for _, k := range keys {
		om.Set(k, m[k])
	}
	return om
}

// Set adds or replaces the value for k.  Replacing keeps k's original
// position.
func (m *Map[K, V]) Set(k K, v V) {
	if m.values == nil {
		m.values = make(map[K]V)
	}
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

func (m *Map[K, V]) Get(k K) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	v, ok := m.values[k]
	return v, ok
}

func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Map[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Range calls fn for each pair in insertion order until fn returns false.
func (m *Map[K, V]) Range(fn func(K, V) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}
