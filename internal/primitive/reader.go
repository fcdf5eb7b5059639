// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package primitive

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/bpowers/cfgbin/internal/intern"
	"github.com/bpowers/cfgbin/internal/unsafestring"
)

const (
	defaultBufferSize = 64 * 1024

	// decoded strings and byte slices longer than this indicate a
	// corrupted length prefix, not real data
	maxVarLen = 1 << 28
)

var (
	ErrStreamClosed = errors.New("stream closed")
	ErrTruncated    = errors.New("truncated stream")
	ErrInvalidSeek  = errors.New("invalid seek offset")
)

// Reader is the single cursor over a config stream.  It buffers reads,
// tracks the absolute offset, and must only be used by one goroutine
// at a time.
type Reader struct {
	rs     io.ReadSeeker
	br     *bufio.Reader
	off    int64
	closed bool
	pool   *intern.Pool
	buf    [8]byte
}

// NewReader returns a Reader positioned wherever rs currently is.
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	off, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("rs.Seek: %w", err)
	}
	return &Reader{
		rs:  rs,
		br:  bufio.NewReaderSize(rs, defaultBufferSize),
		off: off,
	}, nil
}

// SetInterner routes every decoded string through p.  A nil p turns
// interning off.
func (r *Reader) SetInterner(p *intern.Pool) {
	r.pool = p
}

func (r *Reader) Offset() int64 {
	return r.off
}

// Seek moves the cursor to the absolute offset off.  Seeking forward
// within already-buffered data doesn't touch the underlying stream.
func (r *Reader) Seek(off int64) error {
	if r.closed {
		return ErrStreamClosed
	}
	if off < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSeek, off)
	}
	if delta := off - r.off; delta >= 0 && delta <= int64(r.br.Buffered()) {
		_, _ = r.br.Discard(int(delta))
		r.off = off
		return nil
	}
	if _, err := r.rs.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("%w: rs.Seek(%d): %s", ErrInvalidSeek, off, err)
	}
	r.br.Reset(r.rs)
	r.off = off
	return nil
}

// Size returns the total length of the underlying stream, restoring the
// current position afterwards.
func (r *Reader) Size() (int64, error) {
	if r.closed {
		return 0, ErrStreamClosed
	}
	size, err := r.rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("rs.Seek: %w", err)
	}
	if _, err := r.rs.Seek(r.off+int64(r.br.Buffered()), io.SeekStart); err != nil {
		return 0, fmt.Errorf("rs.Seek: %w", err)
	}
	return size, nil
}

// Close closes the underlying stream if it is an io.Closer.  Further
// reads fail with ErrStreamClosed.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.br.Reset(nil)
	if c, ok := r.rs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *Reader) Closed() bool {
	return r.closed
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrStreamClosed
	}
	n, err := r.br.Read(p)
	r.off += int64(n)
	return n, err
}

func (r *Reader) ReadByte() (byte, error) {
	if r.closed {
		return 0, ErrStreamClosed
	}
	b, err := r.br.ReadByte()
	if err != nil {
		return 0, truncated(err)
	}
	r.off++
	return b, nil
}

// ReadFull fills p entirely or fails with ErrTruncated.
func (r *Reader) ReadFull(p []byte) error {
	if r.closed {
		return ErrStreamClosed
	}
	n, err := io.ReadFull(r.br, p)
	r.off += int64(n)
	if err != nil {
		return truncated(err)
	}
	return nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncated, err)
	}
	return err
}

func (r *Reader) fixed(n int) ([]byte, error) {
	b := r.buf[:n]
	if err := r.ReadFull(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

func (r *Reader) ReadUint8() (uint8, error) {
	return r.ReadByte()
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.fixed(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.fixed(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.fixed(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadInt() (int, error) {
	v, err := r.ReadInt64()
	return int(v), err
}

func (r *Reader) ReadUint() (uint, error) {
	v, err := r.ReadUint64()
	return uint(v), err
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

func (r *Reader) readLen() (int, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, truncated(err)
	}
	if n > maxVarLen {
		return 0, fmt.Errorf("length prefix %d at offset %d too large: stream corrupted", n, r.off)
	}
	return int(n), nil
}

// ReadBytes reads a uvarint length-prefixed byte slice.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.readLen()
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if err := r.ReadFull(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadString reads a uvarint length-prefixed string, canonicalized
// through the interner if one is set.
func (r *Reader) ReadString() (string, error) {
	if r.pool == nil {
		b, err := r.ReadBytes()
		return unsafestring.FromBytes(b), err
	}
	n, err := r.readLen()
	if err != nil {
		return "", err
	}
	// short strings are served directly out of the bufio buffer
	if n <= r.br.Size() {
		b, err := r.br.Peek(n)
		if err != nil {
			return "", truncated(err)
		}
		s := r.pool.Intern(b)
		_, _ = r.br.Discard(n)
		r.off += int64(n)
		return s, nil
	}
	b := make([]byte, n)
	if err := r.ReadFull(b); err != nil {
		return "", err
	}
	return r.pool.Adopt(b), nil
}
