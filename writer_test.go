// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/cfgbin/internal/cfgfile"
)

func TestWrite_IndexOffsetPointsAtShapeTag(t *testing.T) {
	for _, n := range []int{2, 3, 1000, 100_000} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			var buf safeBuffer
			require.NoError(t, WriteObject(&buf, intKeys(n), mustPrimitive[string]()))

			contents := buf.Bytes()
			h := new(Header)
			require.NoError(t, h.UnmarshalBytes(contents))
			require.Equal(t, uint32(n), h.Count)
			require.Less(t, h.IndexOffset, int64(len(contents)))
			assert.Equal(t, byte(ShapeObject), contents[h.IndexOffset])
			assert.False(t, h.IsSplit())
		})
	}
}

func TestWrite_ShapeTags(t *testing.T) {
	values := mustPrimitive[int]()

	var object, list, nested, flat safeBuffer
	om := NewMap[string, int](1)
	om.Set("a", 1)
	require.NoError(t, WriteObject(&object, om, values))

	lm := NewMap[string, []int](1)
	lm.Set("a", []int{1, 2})
	require.NoError(t, WriteList(&list, lm, values))

	inner := NewMap[string, int](1)
	inner.Set("b", 2)
	nm := NewMap[string, *Map[string, int]](1)
	nm.Set("a", inner)
	require.NoError(t, WriteNested(&nested, nm, values))

	require.NoError(t, WriteFlat(&flat, om))

	for _, tc := range []struct {
		buf   *safeBuffer
		shape Shape
	}{
		{&object, ShapeObject},
		{&list, ShapeList},
		{&nested, ShapeMap},
		{&flat, ShapeSingleType},
	} {
		h, shape, err := PeekShape(tc.buf.Reader())
		require.NoError(t, err)
		assert.Equal(t, tc.shape, shape)
		assert.Equal(t, uint32(1), h.Count)
	}

	// flat streams keep their pairs right after the tag
	h, _, err := PeekShape(flat.Reader())
	require.NoError(t, err)
	assert.Equal(t, int64(cfgfile.HeaderSize), h.IndexOffset)
}

func TestWrite_Empty(t *testing.T) {
	var buf safeBuffer
	values := mustPrimitive[string]()

	err := WriteObject(&buf, NewMap[string, string](0), values)
	assert.ErrorIs(t, err, ErrEmptyMapping)
	err = WriteList(&buf, NewMap[string, []string](0), values)
	assert.ErrorIs(t, err, ErrEmptyMapping)
	err = WriteNested(&buf, NewMap[string, *Map[string, string]](0), values)
	assert.ErrorIs(t, err, ErrEmptyMapping)
	err = WriteFlat(&buf, NewMap[string, string](0))
	assert.ErrorIs(t, err, ErrEmptyMapping)

	assert.Empty(t, buf.Bytes())
}

func TestWrite_UnsupportedTypes(t *testing.T) {
	type id int32
	var buf safeBuffer

	m := NewMap[id, string](1)
	m.Set(1, "a")
	err := WriteObject(&buf, m, mustPrimitive[string]())
	assert.ErrorIs(t, err, ErrUnsupportedType)

	pm := NewMap[string, point](1)
	pm.Set("a", point{})
	err = WriteFlat(&buf, pm)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = PrimitiveValues[point]()
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestWrite_FlatSplit(t *testing.T) {
	var buf safeBuffer
	err := WriteFlat(&buf, intKeys(4), WithSplit(t.TempDir()+"/flat.bytes", 2))
	assert.ErrorIs(t, err, errFlatSplit)
}

func TestWrite_Failures(t *testing.T) {
	values := mustPrimitive[string]()

	w := &testWriter{failWriteN: 1}
	err := WriteObject(w, intKeys(10), values)
	assert.ErrorIs(t, err, errInjected)

	w = &testWriter{failWriteAt: true}
	err = WriteObject(w, intKeys(10), values)
	assert.ErrorIs(t, err, errInjected)

	w = &testWriter{failWriteAt: true}
	err = WriteFlat(w, intKeys(10))
	assert.ErrorIs(t, err, errInjected)

	failing := CodecFuncs[string]{
		Read: func(r *Reader) (string, error) {
			return r.ReadString()
		},
		Write: func(w *Writer, v string) error {
			if v == "v5" {
				return errInjected
			}
			return w.WriteString(v)
		},
	}
	var buf safeBuffer
	err = WriteObject(&buf, intKeys(10), failing)
	assert.ErrorIs(t, err, errInjected)
}

func TestWrite_ListOffsetsAreGroupStarts(t *testing.T) {
	var buf safeBuffer
	m := NewMap[string, []int32](2)
	m.Set("a", []int32{1, 2, 3})
	m.Set("b", []int32{4})
	require.NoError(t, WriteList(&buf, m, mustPrimitive[int32]()))

	l, err := OpenList[string, int32](buf.Reader(), mustPrimitive[int32]())
	require.NoError(t, err)

	recsA, err := l.Records("a")
	require.NoError(t, err)
	recsB, err := l.Records("b")
	require.NoError(t, err)

	// header, then three int32s for "a", then "b"
	assert.Equal(t, int64(cfgfile.HeaderSize), recsA[0].Offset())
	assert.Equal(t, recsA[0].Offset(), recsA[2].Offset())
	assert.Equal(t, int64(cfgfile.HeaderSize+3*4), recsB[0].Offset())
}
