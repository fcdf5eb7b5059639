// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"errors"
	"fmt"

	"github.com/bpowers/cfgbin/internal/cfgfile"
	"github.com/bpowers/cfgbin/internal/primitive"
)

var (
	ErrInvalidHeader   = cfgfile.ErrInvalidHeader
	ErrTruncatedStream = primitive.ErrTruncated
	ErrUnsupportedType = primitive.ErrUnsupportedType
	ErrStreamClosed    = primitive.ErrStreamClosed

	ErrShapeMismatch  = errors.New("shape mismatch")
	ErrNotFound       = errors.New("key not found")
	ErrEmptyMapping   = errors.New("empty mapping")
	ErrCorruptIndex   = errors.New("corrupt index")
	ErrDuplicateKey   = errors.New("duplicate key in index")
	ErrChunkCorrupted = errors.New("chunk file corrupted")
	ErrNoChunkOpener  = errors.New("split file opened without a chunk opener")
)

// passAborted wraps a group failure after which the rest of a bulk pass
// can't make progress (sequential flat data, or a closed stream).
type passAborted struct {
	err error
}

func (e *passAborted) Error() string {
	return e.err.Error()
}

func (e *passAborted) Unwrap() error {
	return e.err
}

func abortsPass(err error) bool {
	var pa *passAborted
	return errors.As(err, &pa) || errors.Is(err, ErrStreamClosed)
}

// errKind buckets an error for metrics labels.
func errKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidHeader):
		return "invalid_header"
	case errors.Is(err, ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(err, ErrTruncatedStream):
		return "truncated"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrStreamClosed):
		return "stream_closed"
	case errors.Is(err, ErrCorruptIndex), errors.Is(err, ErrDuplicateKey):
		return "corrupt_index"
	case errors.Is(err, ErrChunkCorrupted):
		return "chunk_corrupted"
	default:
		return "other"
	}
}

func notFound[K any](key K) error {
	return fmt.Errorf("%w: %v", ErrNotFound, key)
}
