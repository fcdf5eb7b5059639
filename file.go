// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"fmt"
	"io"

	"github.com/bpowers/cfgbin/internal/cfgfile"
	"github.com/bpowers/cfgbin/internal/mmap"
)

// File is a memory-mapped config file.  It is an io.ReadSeeker that can
// be passed to any of the Open functions; for split files it also tells
// them where the chunk files are.
type File struct {
	*io.SectionReader
	m    *mmap.ReaderAt
	path string
}

// OpenFile maps path read-only.
func OpenFile(path string) (*File, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap.Open(%s): %w", path, err)
	}
	return &File{
		SectionReader: io.NewSectionReader(m, 0, int64(m.Len())),
		m:             m,
		path:          path,
	}, nil
}

func (f *File) Path() string {
	return f.path
}

// ChunkOpener opens the chunk files written next to f by a split write.
func (f *File) ChunkOpener() ChunkOpener {
	return ChunkFileOpener(f.path)
}

// Close unmaps the file.
func (f *File) Close() error {
	return f.m.Close()
}

// PeekShape reads the header and shape tag of rs without building a
// container.  The position of rs is restored afterwards.
func PeekShape(rs io.ReadSeeker) (*Header, Shape, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, ShapeNone, fmt.Errorf("rs.Seek: %w", err)
	}
	h, shape, err := peekShape(rs)
	if _, serr := rs.Seek(pos, io.SeekStart); serr != nil && err == nil {
		err = fmt.Errorf("rs.Seek: %w", serr)
	}
	if err != nil {
		return nil, ShapeNone, err
	}
	return h, shape, nil
}

func peekShape(rs io.ReadSeeker) (*Header, Shape, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, ShapeNone, fmt.Errorf("rs.Seek: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, ShapeNone, fmt.Errorf("rs.Seek: %w", err)
	}
	h, err := cfgfile.Load(rs)
	if err != nil {
		return nil, ShapeNone, err
	}
	if h.IndexOffset < cfgfile.HeaderSize || h.IndexOffset >= size {
		return nil, ShapeNone, fmt.Errorf("%w: index offset %d outside stream of %d bytes", ErrInvalidHeader, h.IndexOffset, size)
	}
	if _, err := rs.Seek(h.IndexOffset, io.SeekStart); err != nil {
		return nil, ShapeNone, fmt.Errorf("rs.Seek: %w", err)
	}
	var tag [1]byte
	if _, err := io.ReadFull(rs, tag[:]); err != nil {
		return nil, ShapeNone, fmt.Errorf("%w: shape tag: %s", ErrTruncatedStream, err)
	}
	shape := Shape(tag[0])
	if !shape.Valid() {
		return nil, ShapeNone, fmt.Errorf("%w: unknown shape tag %d", ErrInvalidHeader, tag[0])
	}
	return h, shape, nil
}
