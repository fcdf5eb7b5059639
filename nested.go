// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"fmt"
	"io"

	"github.com/bpowers/cfgbin/internal/primitive"
)

// NestedMap maps each outer key to an inner mapping.  Inner keys come
// from the index; inner values of one outer key are decoded together.
type NestedMap[K1, K2 comparable, V any] struct {
	container
	keys   primitive.Codec[K1]
	inner  primitive.Codec[K2]
	order  []*nestedGroup[K1, K2, V]
	groups map[K1]*nestedGroup[K1, K2, V]
}

type nestedGroup[K1, K2 comparable, V any] struct {
	*group[K1, V]
	innerKeys []K2
	records   map[K2]*Record[V]
	// built once the group is loaded
	m *Map[K2, V]
}

var _ Container = (*NestedMap[string, string, int])(nil)

// OpenNested reads the header and index, inner keys included, of a
// map-shaped stream.
func OpenNested[K1, K2 comparable, V any](rs io.ReadSeeker, values ValueCodec[V], opts ...Option) (*NestedMap[K1, K2, V], error) {
	keys, err := lookupKey[K1]()
	if err != nil {
		return nil, err
	}
	innerKeys, err := lookupKey[K2]()
	if err != nil {
		return nil, fmt.Errorf("inner %w", err)
	}
	src, err := openSource(rs, ShapeMap, newOptions(opts))
	if err != nil {
		return nil, err
	}
	ir, err := newIndexReader(src, keys)
	if err != nil {
		return nil, err
	}

	n := int(src.header.Count)
	m := &NestedMap[K1, K2, V]{
		container: container{src: src},
		keys:      keys,
		inner:     innerKeys,
		order:     make([]*nestedGroup[K1, K2, V], 0, sizeHint(n)),
		groups:    make(map[K1]*nestedGroup[K1, K2, V], sizeHint(n)),
	}
	for i := 0; i < n; i++ {
		ng, err := m.readRow(ir, values)
		if err != nil {
			src.metrics.readError(err)
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		m.order = append(m.order, ng)
		m.groups[ng.key] = ng
	}
	return m, nil
}

func (m *NestedMap[K1, K2, V]) readRow(ir *indexReader[K1], values ValueCodec[V]) (*nestedGroup[K1, K2, V], error) {
	row, err := ir.next()
	if err != nil {
		return nil, err
	}
	if _, ok := m.groups[row.key]; ok {
		return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, row.key)
	}
	ng := &nestedGroup[K1, K2, V]{
		group:     newGroup(m.src, m.keys, values, row),
		innerKeys: make([]K2, 0, sizeHint(row.count)),
		records:   make(map[K2]*Record[V], sizeHint(row.count)),
	}
	for j := 0; j < row.count; j++ {
		k2, err := m.inner.Read(ir.r)
		if err != nil {
			return nil, fmt.Errorf("inner key %d of %v: %w", j, row.key, err)
		}
		if _, ok := ng.records[k2]; ok {
			return nil, fmt.Errorf("%w: %v under %v", ErrDuplicateKey, k2, row.key)
		}
		ng.innerKeys = append(ng.innerKeys, k2)
		ng.records[k2] = ng.recs[j]
	}
	return ng, nil
}

func (m *NestedMap[K1, K2, V]) Len() int {
	return len(m.order)
}

func (m *NestedMap[K1, K2, V]) KeyType() TypeTag {
	return m.keys.Tag
}

func (m *NestedMap[K1, K2, V]) InnerKeyType() TypeTag {
	return m.inner.Tag
}

// Keys returns the outer keys in stream order.
func (m *NestedMap[K1, K2, V]) Keys() []K1 {
	keys := make([]K1, len(m.order))
	for i, g := range m.order {
		keys[i] = g.key
	}
	return keys
}

// InnerKeys returns the inner keys of key without decoding any value.
func (m *NestedMap[K1, K2, V]) InnerKeys(key K1) ([]K2, bool) {
	g, ok := m.groups[key]
	if !ok {
		return nil, false
	}
	return append([]K2(nil), g.innerKeys...), true
}

// Record returns the record stored under key and inner.
func (m *NestedMap[K1, K2, V]) Record(key K1, inner K2) (*Record[V], bool) {
	g, ok := m.groups[key]
	if !ok {
		return nil, false
	}
	rec, ok := g.records[inner]
	return rec, ok
}

// Get returns the inner mapping of key, decoding it on first access.
// The result is shared between calls and must not be modified.
func (m *NestedMap[K1, K2, V]) Get(key K1) (*Map[K2, V], error) {
	g, ok := m.groups[key]
	if !ok {
		return nil, notFound(key)
	}
	if err := g.materialize(); err != nil {
		return nil, err
	}
	return g.m, nil
}

// Lookup returns a single inner value.  Like Get, it decodes every
// value under key.
func (m *NestedMap[K1, K2, V]) Lookup(key K1, inner K2) (V, error) {
	rec, ok := m.Record(key, inner)
	if !ok {
		var zero V
		return zero, notFound(fmt.Sprintf("%v/%v", key, inner))
	}
	return rec.Value()
}

// Loaded is the number of decoded records.
func (m *NestedMap[K1, K2, V]) Loaded() int {
	n := 0
	for _, g := range m.order {
		if g.loaded {
			n += len(g.recs)
		}
	}
	return n
}

func (g *nestedGroup[K1, K2, V]) materialize() error {
	if g.m != nil {
		return nil
	}
	if err := g.load(); err != nil {
		return err
	}
	inner := NewMap[K2, V](len(g.innerKeys))
	for i, k2 := range g.innerKeys {
		inner.Set(k2, g.recs[i].value)
	}
	g.m = inner
	return nil
}

func (m *NestedMap[K1, K2, V]) numGroups() int {
	return len(m.order)
}

func (m *NestedMap[K1, K2, V]) loadGroup(i int) (int, error) {
	g := m.order[i]
	return g.count, g.materialize()
}
