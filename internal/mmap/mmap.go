// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmap provides a read-only view of a whole file.
package mmap

import (
	"errors"
	"fmt"
	"io"
)

var errClosed = errors.New("mmap: closed")

// ReaderAt is a read-only view of a file's contents.
type ReaderAt struct {
	data   []byte
	unmap  func([]byte) error
	closed bool
}

func (r *ReaderAt) Len() int {
	return len(r.data)
}

func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if r.closed {
		return 0, errClosed
	}
	if off < 0 || off > int64(len(r.data)) {
		return 0, fmt.Errorf("mmap: invalid ReadAt offset %d", off)
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (r *ReaderAt) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	data := r.data
	r.data = nil
	if r.unmap == nil || data == nil {
		return nil
	}
	return r.unmap(data)
}
