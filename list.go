// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"fmt"
	"io"

	"github.com/bpowers/cfgbin/internal/primitive"
)

// ListMap maps each key to an ordered run of values.  The values of one
// key are decoded together the first time any of them is needed.
type ListMap[K comparable, V any] struct {
	container
	keys   primitive.Codec[K]
	order  []*group[K, V]
	groups map[K]*group[K, V]
}

var _ Container = (*ListMap[string, int])(nil)

// OpenList reads the header and index of a list-shaped stream.
func OpenList[K comparable, V any](rs io.ReadSeeker, values ValueCodec[V], opts ...Option) (*ListMap[K, V], error) {
	keys, err := lookupKey[K]()
	if err != nil {
		return nil, err
	}
	src, err := openSource(rs, ShapeList, newOptions(opts))
	if err != nil {
		return nil, err
	}
	ir, err := newIndexReader(src, keys)
	if err != nil {
		return nil, err
	}

	n := int(src.header.Count)
	m := &ListMap[K, V]{
		container: container{src: src},
		keys:      keys,
		order:     make([]*group[K, V], 0, sizeHint(n)),
		groups:    make(map[K]*group[K, V], sizeHint(n)),
	}
	for i := 0; i < n; i++ {
		row, err := ir.next()
		if err != nil {
			src.metrics.readError(err)
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if _, ok := m.groups[row.key]; ok {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, row.key)
		}
		g := newGroup(src, keys, values, row)
		m.order = append(m.order, g)
		m.groups[row.key] = g
	}
	return m, nil
}

func (m *ListMap[K, V]) Len() int {
	return len(m.order)
}

func (m *ListMap[K, V]) KeyType() TypeTag {
	return m.keys.Tag
}

// Keys returns the keys in stream order.
func (m *ListMap[K, V]) Keys() []K {
	keys := make([]K, len(m.order))
	for i, g := range m.order {
		keys[i] = g.key
	}
	return keys
}

// Count is the number of items stored under key, known without decoding
// any of them.
func (m *ListMap[K, V]) Count(key K) (int, bool) {
	g, ok := m.groups[key]
	if !ok {
		return 0, false
	}
	return g.count, true
}

// Records returns the records of key in stored order.  Records of a
// split stream are only created once the chunk holding them is open.
func (m *ListMap[K, V]) Records(key K) ([]*Record[V], error) {
	g, ok := m.groups[key]
	if !ok {
		return nil, notFound(key)
	}
	return g.records()
}

// Get returns a fresh copy of the values stored under key.
func (m *ListMap[K, V]) Get(key K) ([]V, error) {
	g, ok := m.groups[key]
	if !ok {
		return nil, notFound(key)
	}
	if err := g.load(); err != nil {
		return nil, err
	}
	return g.snapshot(), nil
}

// Loaded is the number of decoded records.
func (m *ListMap[K, V]) Loaded() int {
	n := 0
	for _, g := range m.order {
		if g.loaded {
			n += len(g.recs)
		}
	}
	return n
}

func (m *ListMap[K, V]) numGroups() int {
	return len(m.order)
}

func (m *ListMap[K, V]) loadGroup(i int) (int, error) {
	g := m.order[i]
	return g.count, g.load()
}
