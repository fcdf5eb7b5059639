// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"fmt"

	"github.com/bpowers/cfgbin/internal/primitive"
)

// indexRow is one top-level entry of the index section.  Depending on
// the shape a row on disk is:
//
//	object: key, int64 offset [, int32 chunk]
//	list:   key, int64 offset, int32 count [, int32 chunk]
//	map:    key, int64 offset, int32 count [, int32 chunk], count inner keys
//
// The chunk column is only present in split streams.  Inner keys of a
// map row are decoded by the caller.
type indexRow[K any] struct {
	key   K
	off   int64
	count int
	chunk int32
	// count was checked against the bytes that hold the items
	bounded bool
}

// Slices and maps sized from counts on disk start at most this big and
// grow as rows are actually decoded.
const maxSizeHint = 1 << 16

func sizeHint(n int) int {
	return min(n, maxSizeHint)
}

type indexReader[K comparable] struct {
	r     *primitive.Reader
	keys  primitive.Codec[K]
	shape Shape
	split bool
	size  int64
	// end of the data section of unsplit streams
	dataEnd int64
}

func newIndexReader[K comparable](src *source, keys primitive.Codec[K]) (*indexReader[K], error) {
	ir := &indexReader[K]{
		r:     src.primary,
		keys:  keys,
		shape: src.shape,
		split: src.split(),
	}
	size, err := src.primary.Size()
	if err != nil {
		return nil, err
	}
	ir.size = size
	if !ir.split {
		ir.dataEnd = src.header.IndexOffset
	}
	return ir, nil
}

func (ir *indexReader[K]) next() (indexRow[K], error) {
	row := indexRow[K]{count: 1}
	var err error
	if row.key, err = ir.keys.Read(ir.r); err != nil {
		return row, fmt.Errorf("index key: %w", err)
	}
	if row.off, err = ir.r.ReadInt64(); err != nil {
		return row, fmt.Errorf("index offset: %w", err)
	}
	if row.off < 0 || (!ir.split && row.off >= ir.size) {
		return row, fmt.Errorf("%w: key %v has data offset %d", ErrCorruptIndex, row.key, row.off)
	}
	if ir.shape != ShapeObject {
		n, err := ir.r.ReadInt32()
		if err != nil {
			return row, fmt.Errorf("index count: %w", err)
		}
		if n < 0 {
			return row, fmt.Errorf("%w: key %v has %d items", ErrCorruptIndex, row.key, n)
		}
		row.count = int(n)
	}
	if ir.split {
		if row.chunk, err = ir.r.ReadInt32(); err != nil {
			return row, fmt.Errorf("index chunk: %w", err)
		}
		if row.chunk < 0 {
			return row, fmt.Errorf("%w: key %v in chunk %d", ErrCorruptIndex, row.key, row.chunk)
		}
	}
	if err := ir.checkCount(&row); err != nil {
		return row, err
	}
	return row, nil
}

// checkCount bounds a row's item count by the bytes that can hold the
// items, each value and inner key taking at least one byte.  List rows
// of split streams keep their items in a chunk and are checked when the
// chunk is opened.
func (ir *indexReader[K]) checkCount(row *indexRow[K]) error {
	n := int64(row.count)
	if ir.shape == ShapeMap && n > ir.size-ir.r.Offset() {
		return fmt.Errorf("%w: key %v has %d inner keys in %d index bytes", ErrCorruptIndex, row.key, n, ir.size-ir.r.Offset())
	}
	if !ir.split && n > 0 && n > ir.dataEnd-row.off {
		return fmt.Errorf("%w: key %v has %d items at offset %d", ErrCorruptIndex, row.key, n, row.off)
	}
	row.bounded = !ir.split || ir.shape != ShapeList
	return nil
}

func writeIndexRow(w *primitive.Writer, shape Shape, split bool, e *entry) error {
	if err := e.writeKey(w); err != nil {
		return fmt.Errorf("index key: %w", err)
	}
	if err := w.WriteInt64(e.off); err != nil {
		return err
	}
	if shape != ShapeObject {
		if err := w.WriteInt32(int32(e.count)); err != nil {
			return err
		}
	}
	if split {
		if err := w.WriteInt32(e.chunk); err != nil {
			return err
		}
	}
	if e.writeInner != nil {
		if err := e.writeInner(w); err != nil {
			return fmt.Errorf("inner keys: %w", err)
		}
	}
	return nil
}
