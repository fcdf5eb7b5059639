// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bpowers/cfgbin/internal/cfgfile"
	"github.com/bpowers/cfgbin/internal/intern"
	"github.com/bpowers/cfgbin/internal/primitive"
)

type (
	// Shape is the layout family of a config stream.
	Shape = cfgfile.Shape
	// Header is the fixed-size prologue of a config stream.
	Header = cfgfile.Header
)

const (
	ShapeObject     = cfgfile.ShapeObject
	ShapeList       = cfgfile.ShapeList
	ShapeMap        = cfgfile.ShapeMap
	ShapeSingleType = cfgfile.ShapeSingleType
	ShapeNone       = cfgfile.ShapeNone
)

// chunkOpenerSource is implemented by streams that know where their own
// chunk files live, such as *File.
type chunkOpenerSource interface {
	ChunkOpener() ChunkOpener
}

// source is the read session shared by every record of one container:
// the primary stream, lazily opened chunk streams, and the string pool.
// Containers are not safe for concurrent use, and neither is source.
type source struct {
	header  *Header
	shape   Shape
	primary *primitive.Reader
	chunks  map[int32]*primitive.Reader
	opener  ChunkOpener
	pool    *intern.Pool
	closed  bool

	logger  *slog.Logger
	metrics *Metrics
}

// openSource validates the header and shape tag of rs and leaves the
// cursor just past the tag.  Failures leave rs open; the caller still
// owns it.
func openSource(rs io.ReadSeeker, want Shape, o *options) (*source, error) {
	s, err := newSource(rs, want, o)
	if err != nil {
		o.metrics.readError(err)
		return nil, err
	}
	return s, nil
}

func newSource(rs io.ReadSeeker, want Shape, o *options) (*source, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rs.Seek: %w", err)
	}
	r, err := primitive.NewReader(rs)
	if err != nil {
		return nil, err
	}
	h, err := cfgfile.Load(r)
	if err != nil {
		return nil, err
	}
	size, err := r.Size()
	if err != nil {
		return nil, err
	}
	if h.IndexOffset < cfgfile.HeaderSize || h.IndexOffset >= size {
		return nil, fmt.Errorf("%w: index offset %d outside stream of %d bytes", ErrInvalidHeader, h.IndexOffset, size)
	}
	if err := r.Seek(h.IndexOffset); err != nil {
		return nil, err
	}
	tag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("shape tag: %w", err)
	}
	if shape := Shape(tag); shape != want {
		return nil, fmt.Errorf("%w: stream holds %s, asked for %s", ErrShapeMismatch, shape, want)
	}
	if err := checkCount(h, want, size); err != nil {
		return nil, err
	}

	opener := o.opener
	if h.IsSplit() && opener == nil {
		if cs, ok := rs.(chunkOpenerSource); ok {
			opener = cs.ChunkOpener()
		}
	}
	if h.IsSplit() && opener == nil {
		return nil, ErrNoChunkOpener
	}

	pool := intern.New()
	r.SetInterner(pool)

	o.logger.Debug("opened config stream",
		"shape", want,
		"count", h.Count,
		"split", h.IsSplit(),
		"size", size)

	return &source{
		header:  h,
		shape:   want,
		primary: r,
		chunks:  make(map[int32]*primitive.Reader),
		opener:  opener,
		pool:    pool,
		logger:  o.logger,
		metrics: o.metrics,
	}, nil
}

// Smallest encodings past the shape tag: an index row holds at least a
// one-byte key and an int64 offset, a flat pair two one-byte scalars.
const (
	minIndexRow = 1 + 8
	minFlatPair = 1 + 1
)

// checkCount rejects header counts that can't fit in the rest of the
// stream.
func checkCount(h *Header, shape Shape, size int64) error {
	per := int64(minIndexRow)
	if shape == ShapeSingleType {
		per = minFlatPair
	}
	rest := size - h.IndexOffset - 1
	if int64(h.Count) > rest/per {
		return fmt.Errorf("%w: %d entries can't fit in %d bytes", ErrCorruptIndex, h.Count, rest)
	}
	return nil
}

// reader returns the stream holding the data of the given chunk.
// Unsplit streams have a single chunk, the primary stream.
func (s *source) reader(chunk int32) (*primitive.Reader, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if !s.header.IsSplit() {
		return s.primary, nil
	}
	if r, ok := s.chunks[chunk]; ok {
		return r, nil
	}
	r, err := openChunk(s.opener, int(chunk), s.header.ChunksCompressed())
	if err != nil {
		return nil, err
	}
	r.SetInterner(s.pool)
	s.chunks[chunk] = r
	s.logger.Debug("opened chunk", "chunk", chunk)
	return r, nil
}

func (s *source) split() bool {
	return s.header.IsSplit()
}

// close releases every stream.  Records that were never read can no
// longer be.
func (s *source) close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if err := s.primary.Close(); err != nil {
		errs = append(errs, fmt.Errorf("primary: %w", err))
	}
	for id, r := range s.chunks {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("chunk %d: %w", id, err))
		}
	}
	s.chunks = nil
	return errors.Join(errs...)
}

// finish ends a bulk load: the stream is closed and the string cache,
// only useful while decoding, is dropped.
func (s *source) finish() error {
	err := s.close()
	s.pool.Clear()
	return err
}
