// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package primitive

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

type nopWriter struct{}

func (nopWriter) Write([]byte) (int, error) {
	return 0, io.EOF
}

// Writer is a buffered writer that tracks the absolute offset of
// everything written through it.
type Writer struct {
	w   *bufio.Writer
	off int64
	buf [binary.MaxVarintLen64]byte
}

// NewWriter returns a Writer whose first byte lands at offset off.
func NewWriter(w io.Writer, off int64) *Writer {
	return &Writer{
		w:   bufio.NewWriterSize(w, defaultBufferSize),
		off: off,
	}
}

// Offset is the absolute position the next byte will be written at.
func (w *Writer) Offset() int64 {
	return w.off
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.off += int64(n)
	return n, err
}

func (w *Writer) WriteByte(b byte) error {
	if err := w.w.WriteByte(b); err != nil {
		return err
	}
	w.off++
	return nil
}

func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("bufio.Flush: %w", err)
	}
	return nil
}

// Finish flushes and detaches the writer from the underlying stream.
func (w *Writer) Finish() error {
	err := w.Flush()
	w.w.Reset(nopWriter{})
	return err
}

func (w *Writer) fixed(b []byte) error {
	_, err := w.Write(b)
	return err
}

func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteByte(1)
	}
	return w.WriteByte(0)
}

func (w *Writer) WriteInt8(v int8) error {
	return w.WriteByte(byte(v))
}

func (w *Writer) WriteUint8(v uint8) error {
	return w.WriteByte(v)
}

func (w *Writer) WriteInt16(v int16) error {
	return w.WriteUint16(uint16(v))
}

func (w *Writer) WriteUint16(v uint16) error {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	return w.fixed(w.buf[:2])
}

func (w *Writer) WriteInt32(v int32) error {
	return w.WriteUint32(uint32(v))
}

func (w *Writer) WriteUint32(v uint32) error {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	return w.fixed(w.buf[:4])
}

func (w *Writer) WriteInt64(v int64) error {
	return w.WriteUint64(uint64(v))
}

func (w *Writer) WriteUint64(v uint64) error {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	return w.fixed(w.buf[:8])
}

func (w *Writer) WriteInt(v int) error {
	return w.WriteInt64(int64(v))
}

func (w *Writer) WriteUint(v uint) error {
	return w.WriteUint64(uint64(v))
}

func (w *Writer) WriteFloat32(v float32) error {
	return w.WriteUint32(math.Float32bits(v))
}

func (w *Writer) WriteFloat64(v float64) error {
	return w.WriteUint64(math.Float64bits(v))
}

func (w *Writer) writeLen(n int) error {
	if n > maxVarLen {
		return fmt.Errorf("length %d greater than %d", n, maxVarLen)
	}
	l := binary.PutUvarint(w.buf[:], uint64(n))
	return w.fixed(w.buf[:l])
}

func (w *Writer) WriteBytes(v []byte) error {
	if err := w.writeLen(len(v)); err != nil {
		return err
	}
	return w.fixed(v)
}

func (w *Writer) WriteString(v string) error {
	if err := w.writeLen(len(v)); err != nil {
		return err
	}
	n, err := w.w.WriteString(v)
	w.off += int64(n)
	return err
}
