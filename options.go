// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"io"
	"log/slog"
	"runtime"
)

// Option configures reads and writes.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	metrics     *Metrics
	splitFile   string
	maxSplitCnt int
	compress    bool
	concurrency int
	opener      ChunkOpener
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) split() bool {
	return o.maxSplitCnt > 0
}

// WithLogger sets an optional logger for progress updates.  If not
// provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records reads, loads and failures into m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSplit makes a write place its data section in chunk files of
// maxSplitCnt top-level keys each, next to fileName (see ChunkPath).
// A maxSplitCnt <= 0 is an ordinary write.
//
// The chunks are written to a temporary directory beside ChunkDir and
// moved into place once all of them succeeded, replacing the previous
// chunk set.  A failed write leaves the previous chunk set as it was.
func WithSplit(fileName string, maxSplitCnt int) Option {
	return func(o *options) {
		o.splitFile = fileName
		o.maxSplitCnt = maxSplitCnt
	}
}

// WithChunkCompression s2-compresses chunk files of a split write.
func WithChunkCompression() Option {
	return func(o *options) {
		o.compress = true
	}
}

// WithSplitConcurrency bounds how many chunk files are written at once.
func WithSplitConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithChunkOpener tells a reader where to find the chunk files of a
// split stream.
func WithChunkOpener(opener ChunkOpener) Option {
	return func(o *options) {
		o.opener = opener
	}
}
