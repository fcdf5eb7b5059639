// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"fmt"

	"github.com/bpowers/cfgbin/internal/primitive"
)

// loader materializes the group a record belongs to.
type loader interface {
	load() error
	offset() int64
}

// Record is one lazily decoded value.  Every record knows the group it
// was stored in; reading one reads all of its siblings.
type Record[V any] struct {
	g     loader
	read  bool
	value V
}

// IsRead reports whether the value has been decoded.
func (r *Record[V]) IsRead() bool {
	return r.read
}

// Offset is where the record's group starts in its data stream.
func (r *Record[V]) Offset() int64 {
	return r.g.offset()
}

// Value decodes the record on first use.  Later calls return the
// cached value without touching the stream.
func (r *Record[V]) Value() (V, error) {
	if !r.read {
		if err := r.g.load(); err != nil {
			var zero V
			return zero, err
		}
	}
	return r.value, nil
}

// group is a run of records stored back to back from one data offset:
// a single value for objects, every item of a list, every inner value
// of a nested map.
type group[K comparable, V any] struct {
	src    *source
	key    K
	keys   primitive.Codec[K]
	values ValueCodec[V]
	off    int64
	chunk  int32
	count  int
	recs   []*Record[V]
	loaded bool
}

func newGroup[K comparable, V any](src *source, keys primitive.Codec[K], values ValueCodec[V], row indexRow[K]) *group[K, V] {
	g := &group[K, V]{
		src:    src,
		key:    row.key,
		keys:   keys,
		values: values,
		off:    row.off,
		chunk:  row.chunk,
		count:  row.count,
	}
	if row.bounded {
		g.alloc()
	}
	return g
}

func (g *group[K, V]) alloc() {
	g.recs = make([]*Record[V], g.count)
	for i := range g.recs {
		g.recs[i] = &Record[V]{g: g}
	}
}

// records returns the records of the group.  Groups whose count could
// not be checked when the index was read are checked against the size
// of their chunk first.
func (g *group[K, V]) records() ([]*Record[V], error) {
	if g.recs != nil || g.count == 0 {
		return g.recs, nil
	}
	r, err := g.src.reader(g.chunk)
	if err != nil {
		return nil, err
	}
	size, err := r.Size()
	if err != nil {
		return nil, err
	}
	if g.off >= size || int64(g.count) > size-g.off {
		return nil, fmt.Errorf("%w: %d items at offset %d of chunk %d, which is %d bytes", ErrCorruptIndex, g.count, g.off, g.chunk, size)
	}
	g.alloc()
	return g.recs, nil
}

func (g *group[K, V]) offset() int64 {
	return g.off
}

// load decodes every sibling or none of them.
func (g *group[K, V]) load() error {
	if g.loaded {
		return nil
	}
	recs, err := g.records()
	if err != nil {
		g.src.metrics.readError(err)
		return fmt.Errorf("key %v: %w", g.key, err)
	}
	if len(recs) == 0 {
		g.loaded = true
		return nil
	}
	vals, err := g.decode()
	if err != nil {
		g.src.metrics.readError(err)
		return fmt.Errorf("key %v: %w", g.key, err)
	}
	for i, rec := range recs {
		rec.value = vals[i]
		rec.read = true
	}
	g.loaded = true
	g.src.metrics.groupRead(len(recs))
	return nil
}

func (g *group[K, V]) decode() ([]V, error) {
	r, err := g.src.reader(g.chunk)
	if err != nil {
		return nil, err
	}
	if err := r.Seek(g.off); err != nil {
		return nil, err
	}
	// chunk records repeat their key, which guards against a chunk
	// file from a different write
	if g.src.split() {
		k, err := g.keys.Read(r)
		if err != nil {
			return nil, err
		}
		if k != g.key {
			return nil, fmt.Errorf("%w: chunk %d offset %d holds key %v", ErrChunkCorrupted, g.chunk, g.off, k)
		}
	}
	vals := make([]V, len(g.recs))
	for i := range vals {
		if vals[i], err = g.values.ReadValue(r); err != nil {
			return nil, fmt.Errorf("value %d of %d: %w", i, len(vals), err)
		}
	}
	return vals, nil
}

func (g *group[K, V]) snapshot() []V {
	vals := make([]V, len(g.recs))
	for i, rec := range g.recs {
		vals[i] = rec.value
	}
	return vals
}
