// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	magicConfigHeader = 0xC0FFEE0C
	fileFormatVersion = 1

	// HeaderSize is the fixed width of the header on disk.  Only the
	// first 21 bytes are used, the rest is reserved and zeroed.
	HeaderSize = 32

	recordCountOff = 8
	indexOffsetOff = 12
	flagsOff       = 20
)

// Flags are stored in a single byte after the index offset.
type Flags uint8

const (
	// FlagSplit marks a primary stream whose data section lives in
	// auxiliary chunk files.
	FlagSplit Flags = 1 << iota
	// FlagCompressedChunks marks chunk files as s2-compressed.
	FlagCompressedChunks
)

var ErrInvalidHeader = errors.New("invalid header")

// Header is the fixed-size prologue of every config stream.
type Header struct {
	magic         uint32
	formatVersion uint32
	Count         uint32
	IndexOffset   int64
	Flags         Flags
}

// NewHeader returns a header with a zero index offset; the offset is
// only meaningful once the data section has been written and the
// header rewritten with UpdateIndex.
func NewHeader(count uint32, flags Flags) *Header {
	return &Header{
		magic:         magicConfigHeader,
		formatVersion: fileFormatVersion,
		Count:         count,
		Flags:         flags,
	}
}

func (h *Header) IsSplit() bool {
	return h.Flags&FlagSplit != 0
}

func (h *Header) ChunksCompressed() bool {
	return h.Flags&FlagCompressedChunks != 0
}

func (h *Header) MarshalTo(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("buf too short: %d < %d", len(buf), HeaderSize)
	}
	buf = buf[:HeaderSize]
	clear(buf)

	binary.LittleEndian.PutUint32(buf[0:4], h.magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.formatVersion)
	binary.LittleEndian.PutUint32(buf[recordCountOff:recordCountOff+4], h.Count)
	binary.LittleEndian.PutUint64(buf[indexOffsetOff:indexOffsetOff+8], uint64(h.IndexOffset))
	buf[flagsOff] = byte(h.Flags)

	return nil
}

func (h *Header) WriteTo(w io.Writer) (n int64, err error) {
	var headerBuf [HeaderSize]byte
	if err := h.MarshalTo(headerBuf[:]); err != nil {
		return 0, err
	}
	if _, err = w.Write(headerBuf[:]); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	return int64(HeaderSize), nil
}

// UpdateIndex records the final index offset and rewrites the whole
// header at the start of w.
func (h *Header) UpdateIndex(indexOffset int64, w io.WriterAt) error {
	h.IndexOffset = indexOffset

	var headerBuf [HeaderSize]byte
	if err := h.MarshalTo(headerBuf[:]); err != nil {
		return err
	}
	if _, err := w.WriteAt(headerBuf[:], 0); err != nil {
		return fmt.Errorf("f.WriteAt: %w", err)
	}

	return nil
}

func (h *Header) UnmarshalBytes(headerBytes []byte) error {
	if len(headerBytes) < HeaderSize {
		return fmt.Errorf("%w: headerBytes too short: %d < %d", ErrInvalidHeader, len(headerBytes), HeaderSize)
	}

	headerBytes = headerBytes[:HeaderSize]

	h.magic = binary.LittleEndian.Uint32(headerBytes[:4])
	if h.magic != magicConfigHeader {
		return fmt.Errorf("%w: bad magic number (%x) -- not a config file or corrupted", ErrInvalidHeader, h.magic)
	}

	h.formatVersion = binary.LittleEndian.Uint32(headerBytes[4:8])
	if h.formatVersion != fileFormatVersion {
		return fmt.Errorf("%w: this version of cfgbin can only read v%d files; found v%d", ErrInvalidHeader, fileFormatVersion, h.formatVersion)
	}

	h.Count = binary.LittleEndian.Uint32(headerBytes[recordCountOff : recordCountOff+4])
	h.IndexOffset = int64(binary.LittleEndian.Uint64(headerBytes[indexOffsetOff : indexOffsetOff+8]))
	h.Flags = Flags(headerBytes[flagsOff])

	return nil
}

// Load reads exactly HeaderSize bytes from r.  A short stream is an
// invalid header, not an empty one.
func Load(r io.Reader) (*Header, error) {
	var headerBuf [HeaderSize]byte
	if _, err := io.ReadFull(r, headerBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: io.ReadFull: %s", ErrInvalidHeader, err)
	}
	var h Header
	if err := h.UnmarshalBytes(headerBuf[:]); err != nil {
		return nil, err
	}
	return &h, nil
}
