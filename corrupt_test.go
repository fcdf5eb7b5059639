// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/cfgbin/internal/cfgfile"
)

const hugeCount = math.MaxInt32

func indexOffsetOf(b []byte) int64 {
	return int64(binary.LittleEndian.Uint64(b[12:20]))
}

// setFirstRowCount overwrites the item count of the first index row,
// whose key is a one-character string.
func setFirstRowCount(b []byte, n uint32) {
	// shape tag, uvarint length + 1 byte key, int64 offset
	off := indexOffsetOf(b) + 1 + 2 + 8
	binary.LittleEndian.PutUint32(b[off:off+4], n)
}

func listOfTwo() *Map[string, []string] {
	m := NewMap[string, []string](2)
	m.Set("a", []string{"a0", "a1"})
	m.Set("b", []string{"b0", "b1"})
	return m
}

func nestedOfTwo() *Map[string, *Map[string, string]] {
	m := NewMap[string, *Map[string, string]](2)
	for _, k := range []string{"a", "b"} {
		inner := NewMap[string, string](2)
		inner.Set("x", k+"x")
		inner.Set("y", k+"y")
		m.Set(k, inner)
	}
	return m
}

func TestOpen_CorruptHeaderCount(t *testing.T) {
	values := mustPrimitive[string]()

	var object, list, nested, flat safeBuffer
	require.NoError(t, WriteObject(&object, intKeys(2), values))
	require.NoError(t, WriteList(&list, listOfTwo(), values))
	require.NoError(t, WriteNested(&nested, nestedOfTwo(), values))
	require.NoError(t, WriteFlat(&flat, intKeys(2)))

	patched := func(buf *safeBuffer) *bytes.Reader {
		b := buf.Bytes()
		binary.LittleEndian.PutUint32(b[8:12], hugeCount)
		return bytes.NewReader(b)
	}

	om, err := OpenObject[int, string](patched(&object), values)
	assert.ErrorIs(t, err, ErrCorruptIndex)
	assert.Nil(t, om)

	lm, err := OpenList[string, string](patched(&list), values)
	assert.ErrorIs(t, err, ErrCorruptIndex)
	assert.Nil(t, lm)

	nm, err := OpenNested[string, string, string](patched(&nested), values)
	assert.ErrorIs(t, err, ErrCorruptIndex)
	assert.Nil(t, nm)

	fm, err := OpenFlat[int, string](patched(&flat))
	assert.ErrorIs(t, err, ErrCorruptIndex)
	assert.Nil(t, fm)
}

func TestOpen_HeaderCountAtLimit(t *testing.T) {
	// one more row than the index holds runs out of bytes instead
	var buf safeBuffer
	require.NoError(t, WriteObject(&buf, intKeys(2), mustPrimitive[string]()))
	b := buf.Bytes()
	binary.LittleEndian.PutUint32(b[8:12], 3)

	m, err := OpenObject[int, string](bytes.NewReader(b), mustPrimitive[string]())
	assert.Error(t, err)
	assert.Nil(t, m)
}

func TestOpen_CorruptRowCount(t *testing.T) {
	values := mustPrimitive[string]()

	var list safeBuffer
	require.NoError(t, WriteList(&list, listOfTwo(), values))
	b := list.Bytes()
	setFirstRowCount(b, hugeCount)
	lm, err := OpenList[string, string](bytes.NewReader(b), values)
	assert.ErrorIs(t, err, ErrCorruptIndex)
	assert.Nil(t, lm)

	// one item more than the data section holds
	b = list.Bytes()
	setFirstRowCount(b, uint32(indexOffsetOf(b)-cfgfile.HeaderSize+1))
	lm, err = OpenList[string, string](bytes.NewReader(b), values)
	assert.ErrorIs(t, err, ErrCorruptIndex)
	assert.Nil(t, lm)

	var nested safeBuffer
	require.NoError(t, WriteNested(&nested, nestedOfTwo(), values))
	b = nested.Bytes()
	setFirstRowCount(b, hugeCount)
	nm, err := OpenNested[string, string, string](bytes.NewReader(b), values)
	assert.ErrorIs(t, err, ErrCorruptIndex)
	assert.Nil(t, nm)
}

func TestSplit_CorruptRowCount(t *testing.T) {
	dir := t.TempDir()
	values := mustPrimitive[string]()

	listPath := filepath.Join(dir, "list.bytes")
	var list safeBuffer
	require.NoError(t, WriteList(&list, listOfTwo(), values, WithSplit(listPath, 1)))
	b := list.Bytes()
	setFirstRowCount(b, hugeCount)

	// the items live in a chunk, so the count is checked once it's open
	l, err := OpenList[string, string](bytes.NewReader(b), values, WithChunkOpener(ChunkFileOpener(listPath)))
	require.NoError(t, err)

	_, err = l.Records("a")
	assert.ErrorIs(t, err, ErrCorruptIndex)
	_, err = l.Get("a")
	assert.ErrorIs(t, err, ErrCorruptIndex)

	vals, err := l.Get("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b0", "b1"}, vals)

	err = LoadAll(l)
	assert.ErrorIs(t, err, ErrCorruptIndex)
	assert.Equal(t, 2, l.Loaded())

	// inner keys of nested rows sit in the index itself
	nestedPath := filepath.Join(dir, "nested.bytes")
	var nested safeBuffer
	require.NoError(t, WriteNested(&nested, nestedOfTwo(), values, WithSplit(nestedPath, 1)))
	b = nested.Bytes()
	setFirstRowCount(b, hugeCount)
	n, err := OpenNested[string, string, string](bytes.NewReader(b), values, WithChunkOpener(ChunkFileOpener(nestedPath)))
	assert.ErrorIs(t, err, ErrCorruptIndex)
	assert.Nil(t, n)
}
