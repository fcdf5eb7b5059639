// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgfile

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestHeader_RoundTrip(t *testing.T) {
	origH := NewHeader(3, FlagSplit)
	require.Equal(t, uint32(magicConfigHeader), origH.magic)
	require.Equal(t, uint32(fileFormatVersion), origH.formatVersion)
	origH.IndexOffset = 129

	// this should be an error
	err := origH.MarshalTo(nil)
	assert.Error(t, err)

	var newH Header
	headerBytes := make([]byte, HeaderSize)
	// missing magic number
	err = newH.UnmarshalBytes(headerBytes)
	assert.ErrorIs(t, err, ErrInvalidHeader)

	err = origH.MarshalTo(headerBytes)
	require.NoError(t, err)

	err = newH.UnmarshalBytes(nil)
	assert.ErrorIs(t, err, ErrInvalidHeader)

	err = newH.UnmarshalBytes(headerBytes)
	require.NoError(t, err)

	assert.Equal(t, origH, &newH)
	assert.True(t, newH.IsSplit())
	assert.False(t, newH.ChunksCompressed())

	// deserializing an unknown version is broken
	origH.formatVersion = 666
	err = origH.MarshalTo(headerBytes)
	require.NoError(t, err)
	err = newH.UnmarshalBytes(headerBytes)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestHeader_MarshalToZeroesReserved(t *testing.T) {
	buf := bytes.Repeat([]byte{0xff}, HeaderSize+4)
	require.NoError(t, NewHeader(7, 0).MarshalTo(buf))

	assert.Equal(t, make([]byte, HeaderSize-flagsOff), buf[flagsOff:HeaderSize])
	// bytes past the header are not ours
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, buf[HeaderSize:])
}

func TestHeader_UpdateIndex(t *testing.T) {
	origH := NewHeader(3, 0)

	var buf safeBuffer
	_, err := origH.WriteTo(&buf)
	require.NoError(t, err)
	// some data after the header that must not be touched
	_, _ = buf.Write([]byte{1, 2, 3})

	const newIndexOffset = int64(11111)

	err = origH.UpdateIndex(newIndexOffset, &buf)
	require.NoError(t, err)

	contents := buf.Bytes()
	require.Len(t, contents, HeaderSize+3)
	assert.Equal(t, []byte{1, 2, 3}, contents[HeaderSize:])

	newH, err := Load(bytes.NewReader(contents))
	require.NoError(t, err)
	assert.Equal(t, origH, newH)
	assert.Equal(t, newIndexOffset, newH.IndexOffset)
	assert.Equal(t, uint32(3), newH.Count)
}

func TestLoad_Truncated(t *testing.T) {
	_, err := Load(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrInvalidHeader)

	h := NewHeader(1, 0)
	var buf safeBuffer
	_, err = h.WriteTo(&buf)
	require.NoError(t, err)

	_, err = Load(bytes.NewReader(buf.Bytes()[:HeaderSize-1]))
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestLoad_DoesNotConsumePastHeader(t *testing.T) {
	h := NewHeader(1, 0)
	var buf safeBuffer
	_, err := h.WriteTo(&buf)
	require.NoError(t, err)
	_, _ = buf.Write([]byte{byte(ShapeList)})

	r := bytes.NewReader(buf.Bytes())
	_, err = Load(r)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "object", ShapeObject.String())
	assert.Equal(t, "map", ShapeMap.String())
	assert.True(t, ShapeSingleType.Valid())
	assert.False(t, ShapeNone.Valid())
	assert.Equal(t, "shape(9)", Shape(9).String())
}
