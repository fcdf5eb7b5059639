// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"fmt"
	"io"

	"github.com/bpowers/cfgbin/internal/primitive"
)

// FlatMap is a single-type mapping of scalar keys to scalar values.
// There is no index to seek by, so the first read decodes every pair.
type FlatMap[K comparable, V any] struct {
	container
	keys   primitive.Codec[K]
	values primitive.Codec[V]
	count  int
	// next pair to decode, and where it starts
	next  int
	pos   int64
	order []K
	pairs map[K]V
	err   error
}

var _ Container = (*FlatMap[string, int])(nil)

// OpenFlat reads the header of a single-type stream.  Both K and V must
// be primitive types.
func OpenFlat[K comparable, V any](rs io.ReadSeeker, opts ...Option) (*FlatMap[K, V], error) {
	keys, err := lookupKey[K]()
	if err != nil {
		return nil, err
	}
	values, err := primitive.Lookup[V]()
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	src, err := openSource(rs, ShapeSingleType, newOptions(opts))
	if err != nil {
		return nil, err
	}
	n := int(src.header.Count)
	return &FlatMap[K, V]{
		container: container{src: src},
		keys:      keys,
		values:    values,
		count:     n,
		pos:       src.primary.Offset(),
		order:     make([]K, 0, sizeHint(n)),
		pairs:     make(map[K]V, sizeHint(n)),
	}, nil
}

// Len is the pair count from the header.
func (m *FlatMap[K, V]) Len() int {
	return m.count
}

func (m *FlatMap[K, V]) KeyType() TypeTag {
	return m.keys.Tag
}

func (m *FlatMap[K, V]) ValueType() TypeTag {
	return m.values.Tag
}

// Loaded is the number of decoded pairs.
func (m *FlatMap[K, V]) Loaded() int {
	return m.next
}

// Keys decodes every pair and returns the keys in stream order.
func (m *FlatMap[K, V]) Keys() ([]K, error) {
	if err := m.loadRest(); err != nil {
		return nil, err
	}
	return append([]K(nil), m.order...), nil
}

// Get decodes every pair on first use and returns the value of key.
func (m *FlatMap[K, V]) Get(key K) (V, error) {
	if err := m.loadRest(); err != nil {
		var zero V
		return zero, err
	}
	v, ok := m.pairs[key]
	if !ok {
		return v, notFound(key)
	}
	return v, nil
}

func (m *FlatMap[K, V]) loadRest() error {
	for m.next < m.count {
		if _, err := m.loadGroup(m.next); err != nil {
			return err
		}
	}
	return nil
}

func (m *FlatMap[K, V]) numGroups() int {
	return m.count
}

// loadGroup decodes pair i.  Pairs can only be decoded in order; the
// first failure stops every later one.
func (m *FlatMap[K, V]) loadGroup(i int) (int, error) {
	if i < m.next {
		return 1, nil
	}
	if m.err != nil {
		return 0, &passAborted{m.err}
	}
	if i != m.next {
		return 0, fmt.Errorf("pair %d decoded before pair %d", i, m.next)
	}
	if err := m.decodePair(); err != nil {
		m.err = fmt.Errorf("pair %d: %w", i, err)
		m.src.metrics.readError(err)
		return 0, &passAborted{m.err}
	}
	m.src.metrics.groupRead(1)
	return 1, nil
}

func (m *FlatMap[K, V]) decodePair() error {
	r, err := m.src.reader(0)
	if err != nil {
		return err
	}
	if err := r.Seek(m.pos); err != nil {
		return err
	}
	k, err := m.keys.Read(r)
	if err != nil {
		return err
	}
	v, err := m.values.Read(r)
	if err != nil {
		return err
	}
	if _, ok := m.pairs[k]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, k)
	}
	m.order = append(m.order, k)
	m.pairs[k] = v
	m.pos = r.Offset()
	m.next++
	return nil
}
