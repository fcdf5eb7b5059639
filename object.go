// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"fmt"
	"io"

	"github.com/bpowers/cfgbin/internal/primitive"
)

// ObjectMap maps each key to a single lazily decoded value.
type ObjectMap[K comparable, V any] struct {
	container
	keys    primitive.Codec[K]
	order   []*group[K, V]
	records map[K]*Record[V]
}

var _ Container = (*ObjectMap[string, int])(nil)

// OpenObject reads the header and index of an object-shaped stream.  No
// values are decoded until they are asked for.
func OpenObject[K comparable, V any](rs io.ReadSeeker, values ValueCodec[V], opts ...Option) (*ObjectMap[K, V], error) {
	keys, err := lookupKey[K]()
	if err != nil {
		return nil, err
	}
	src, err := openSource(rs, ShapeObject, newOptions(opts))
	if err != nil {
		return nil, err
	}
	ir, err := newIndexReader(src, keys)
	if err != nil {
		return nil, err
	}

	n := int(src.header.Count)
	m := &ObjectMap[K, V]{
		container: container{src: src},
		keys:      keys,
		order:     make([]*group[K, V], 0, sizeHint(n)),
		records:   make(map[K]*Record[V], sizeHint(n)),
	}
	for i := 0; i < n; i++ {
		row, err := ir.next()
		if err != nil {
			src.metrics.readError(err)
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if _, ok := m.records[row.key]; ok {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, row.key)
		}
		g := newGroup(src, keys, values, row)
		m.order = append(m.order, g)
		m.records[row.key] = g.recs[0]
	}
	return m, nil
}

func (m *ObjectMap[K, V]) Len() int {
	return len(m.order)
}

// KeyType is the scalar type tag of the keys.
func (m *ObjectMap[K, V]) KeyType() TypeTag {
	return m.keys.Tag
}

// Keys returns the keys in stream order.
func (m *ObjectMap[K, V]) Keys() []K {
	keys := make([]K, len(m.order))
	for i, g := range m.order {
		keys[i] = g.key
	}
	return keys
}

// Record returns the unread-or-read record for key.
func (m *ObjectMap[K, V]) Record(key K) (*Record[V], bool) {
	rec, ok := m.records[key]
	return rec, ok
}

// Get returns the value for key, decoding it on first access.
func (m *ObjectMap[K, V]) Get(key K) (V, error) {
	rec, ok := m.records[key]
	if !ok {
		var zero V
		return zero, notFound(key)
	}
	return rec.Value()
}

// Loaded is the number of decoded records.
func (m *ObjectMap[K, V]) Loaded() int {
	n := 0
	for _, g := range m.order {
		if g.loaded {
			n += len(g.recs)
		}
	}
	return n
}

func (m *ObjectMap[K, V]) numGroups() int {
	return len(m.order)
}

func (m *ObjectMap[K, V]) loadGroup(i int) (int, error) {
	g := m.order[i]
	return g.count, g.load()
}
