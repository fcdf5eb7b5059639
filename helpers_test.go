// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"bytes"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
)

type safeBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (s *safeBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]byte(nil), s.buf...)
}

func (s *safeBuffer) Reader() *bytes.Reader {
	return bytes.NewReader(s.Bytes())
}

func (s *safeBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func (s *safeBuffer) WriteAt(p []byte, off int64) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int(off)+len(p) > len(s.buf) {
		return 0, errors.New("writeAt out of bounds")
	}

	return copy(s.buf[off:int(off)+len(p)], p), nil
}

var errInjected = errors.New("injected failure")

// testWriter fails the Nth Write call, or every WriteAt call.
type testWriter struct {
	safeBuffer
	failWriteN  int
	failWriteAt bool
	writeCount  int
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.writeCount++
	if w.failWriteN > 0 && w.writeCount >= w.failWriteN {
		return 0, errInjected
	}
	return w.safeBuffer.Write(p)
}

func (w *testWriter) WriteAt(p []byte, off int64) (int, error) {
	if w.failWriteAt {
		return 0, errInjected
	}
	return w.safeBuffer.WriteAt(p, off)
}

// countingCodec counts how often values are decoded.
type countingCodec struct {
	decodes atomic.Int64
	// decoding a value equal to failOn returns an error
	failOn string
}

func (c *countingCodec) ReadValue(r *Reader) (string, error) {
	c.decodes.Add(1)
	s, err := r.ReadString()
	if err != nil {
		return "", err
	}
	if c.failOn != "" && s == c.failOn {
		return "", errInjected
	}
	return s, nil
}

func (c *countingCodec) WriteValue(w *Writer, v string) error {
	return w.WriteString(v)
}

func mustPrimitive[V any]() ValueCodec[V] {
	c, err := PrimitiveValues[V]()
	if err != nil {
		panic(err)
	}
	return c
}

func intKeys(n int) *Map[int, string] {
	m := NewMap[int, string](n)
	for i := 0; i < n; i++ {
		m.Set(i, "v"+strconv.Itoa(i))
	}
	return m
}

type point struct {
	X, Y  int
	Label string
	Tags  []string
}
