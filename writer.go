// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/bpowers/cfgbin/internal/cfgfile"
	"github.com/bpowers/cfgbin/internal/primitive"
)

var errFlatSplit = errors.New("single-type containers can't be split")

// FileWriter is usually an *os.File, but specified as an interface for
// easier testing.  The header is written at offset 0 and rewritten
// through WriteAt once the index offset is known.
type FileWriter interface {
	io.Writer
	io.WriterAt
}

// entry is one top-level key on its way to disk.
type entry struct {
	writeKey  func(w *primitive.Writer) error
	writeData func(w *primitive.Writer) error
	// writeInner writes the inner keys of a map row, after the row's
	// fixed columns.
	writeInner func(w *primitive.Writer) error
	count      int

	// filled in while writing data
	off   int64
	chunk int32
}

// WriteObject writes m as an object-shaped stream: one value per key.
func WriteObject[K comparable, V any](f FileWriter, m *Map[K, V], values ValueCodec[V], opts ...Option) error {
	keys, err := lookupKey[K]()
	if err != nil {
		return err
	}
	entries := make([]entry, 0, m.Len())
	m.Range(func(k K, v V) bool {
		entries = append(entries, entry{
			writeKey: func(w *primitive.Writer) error {
				return keys.Write(w, k)
			},
			writeData: func(w *primitive.Writer) error {
				return values.WriteValue(w, v)
			},
			count: 1,
		})
		return true
	})
	return writeContainer(f, ShapeObject, entries, newOptions(opts))
}

// WriteList writes m as a list-shaped stream: an ordered run of values
// per key.
func WriteList[K comparable, V any](f FileWriter, m *Map[K, []V], values ValueCodec[V], opts ...Option) error {
	keys, err := lookupKey[K]()
	if err != nil {
		return err
	}
	entries := make([]entry, 0, m.Len())
	var tooLong error
	m.Range(func(k K, vs []V) bool {
		if len(vs) > math.MaxInt32 {
			tooLong = fmt.Errorf("key %v: %d items don't fit in an int32 count", k, len(vs))
			return false
		}
		entries = append(entries, entry{
			writeKey: func(w *primitive.Writer) error {
				return keys.Write(w, k)
			},
			writeData: func(w *primitive.Writer) error {
				for _, v := range vs {
					if err := values.WriteValue(w, v); err != nil {
						return err
					}
				}
				return nil
			},
			count: len(vs),
		})
		return true
	})
	if tooLong != nil {
		return tooLong
	}
	return writeContainer(f, ShapeList, entries, newOptions(opts))
}

// WriteNested writes m as a map-shaped stream: an inner mapping per
// key.  Inner keys live in the index, inner values in the data section.
func WriteNested[K1, K2 comparable, V any](f FileWriter, m *Map[K1, *Map[K2, V]], values ValueCodec[V], opts ...Option) error {
	keys, err := lookupKey[K1]()
	if err != nil {
		return err
	}
	innerKeys, err := lookupKey[K2]()
	if err != nil {
		return fmt.Errorf("inner %w", err)
	}
	entries := make([]entry, 0, m.Len())
	var tooLong error
	m.Range(func(k K1, inner *Map[K2, V]) bool {
		if inner.Len() > math.MaxInt32 {
			tooLong = fmt.Errorf("key %v: %d inner keys don't fit in an int32 count", k, inner.Len())
			return false
		}
		entries = append(entries, entry{
			writeKey: func(w *primitive.Writer) error {
				return keys.Write(w, k)
			},
			writeData: func(w *primitive.Writer) error {
				var err error
				inner.Range(func(_ K2, v V) bool {
					err = values.WriteValue(w, v)
					return err == nil
				})
				return err
			},
			writeInner: func(w *primitive.Writer) error {
				var err error
				inner.Range(func(k2 K2, _ V) bool {
					err = innerKeys.Write(w, k2)
					return err == nil
				})
				return err
			},
			count: inner.Len(),
		})
		return true
	})
	if tooLong != nil {
		return tooLong
	}
	return writeContainer(f, ShapeMap, entries, newOptions(opts))
}

// WriteFlat writes m as a single-type stream of scalar pairs with no
// index.  Both K and V must be primitive types.
func WriteFlat[K comparable, V any](f FileWriter, m *Map[K, V], opts ...Option) error {
	o := newOptions(opts)
	if o.split() {
		return errFlatSplit
	}
	keys, err := lookupKey[K]()
	if err != nil {
		return err
	}
	values, err := primitive.Lookup[V]()
	if err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if m.Len() == 0 {
		return ErrEmptyMapping
	}
	if uint64(m.Len()) > math.MaxUint32 {
		return fmt.Errorf("%d keys don't fit in the header count", m.Len())
	}

	h := cfgfile.NewHeader(uint32(m.Len()), 0)
	w := primitive.NewWriter(f, 0)
	if _, err := h.WriteTo(w); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	indexOffset := w.Offset()
	if err := w.WriteByte(byte(ShapeSingleType)); err != nil {
		return err
	}
	m.Range(func(k K, v V) bool {
		if err = keys.Write(w, k); err != nil {
			return false
		}
		err = values.Write(w, v)
		return err == nil
	})
	if err != nil {
		return fmt.Errorf("pairs: %w", err)
	}
	if err := w.Finish(); err != nil {
		return err
	}
	if err := h.UpdateIndex(indexOffset, f); err != nil {
		return fmt.Errorf("h.UpdateIndex: %w", err)
	}

	o.logger.Debug("wrote config", "shape", ShapeSingleType, "count", m.Len(), "bytes", w.Offset())
	return nil
}

// writeContainer lays out a keyed stream: a placeholder header, the
// data section, the shape tag, the index, and finally the header again
// with the real index offset.
func writeContainer(f FileWriter, shape Shape, entries []entry, o *options) error {
	if len(entries) == 0 {
		return ErrEmptyMapping
	}
	if uint64(len(entries)) > math.MaxUint32 {
		return fmt.Errorf("%d keys don't fit in the header count", len(entries))
	}
	if o.split() {
		return writeSplit(f, shape, entries, o)
	}

	h := cfgfile.NewHeader(uint32(len(entries)), 0)
	w := primitive.NewWriter(f, 0)
	if _, err := h.WriteTo(w); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	for i := range entries {
		e := &entries[i]
		e.off = w.Offset()
		if err := e.writeData(w); err != nil {
			return fmt.Errorf("data for entry %d: %w", i, err)
		}
	}

	if err := finishIndex(f, w, h, shape, entries); err != nil {
		return err
	}
	o.logger.Debug("wrote config", "shape", shape, "count", len(entries), "bytes", w.Offset())
	return nil
}

// finishIndex writes the shape tag and index at the writer's current
// offset, then rewrites the header to point at them.
func finishIndex(f io.WriterAt, w *primitive.Writer, h *Header, shape Shape, entries []entry) error {
	indexOffset := w.Offset()
	if err := w.WriteByte(byte(shape)); err != nil {
		return err
	}
	for i := range entries {
		if err := writeIndexRow(w, shape, h.IsSplit(), &entries[i]); err != nil {
			return fmt.Errorf("index row %d: %w", i, err)
		}
	}
	if err := w.Finish(); err != nil {
		return err
	}
	if err := h.UpdateIndex(indexOffset, f); err != nil {
		return fmt.Errorf("h.UpdateIndex: %w", err)
	}
	return nil
}
