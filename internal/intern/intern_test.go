// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package intern

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_Intern(t *testing.T) {
	p := New()

	buf := []byte("sword")
	a := p.Intern(buf)
	// mutating the input must not affect the interned copy
	buf[0] = 'S'
	b := p.Intern([]byte("sword"))

	require.Equal(t, "sword", a)
	require.Equal(t, a, b)
	assert.Same(t, unsafe.StringData(a), unsafe.StringData(b))
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, uint64(1), p.Hits())

	c := p.Intern([]byte("shield"))
	assert.Equal(t, "shield", c)
	assert.Equal(t, 2, p.Len())

	empty := p.Intern(nil)
	assert.Equal(t, "", empty)
	assert.Equal(t, 3, p.Len())
}

func TestPool_Clear(t *testing.T) {
	p := New()
	for _, s := range []string{"a", "b", "c", "a"} {
		p.Intern([]byte(s))
	}
	assert.Equal(t, 3, p.Len())

	p.Clear()
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, uint64(0), p.Hits())

	// still usable after a clear
	assert.Equal(t, "a", p.Intern([]byte("a")))
	assert.Equal(t, 1, p.Len())
}

func TestPool_Adopt(t *testing.T) {
	p := New()

	owned := []byte("helmet")
	s := p.Adopt(owned)
	assert.Equal(t, "helmet", s)
	// no copy for a string seen for the first time
	assert.Same(t, unsafe.SliceData(owned), unsafe.StringData(s))

	again := p.Adopt([]byte("helmet"))
	assert.Same(t, unsafe.StringData(s), unsafe.StringData(again))
	assert.Equal(t, s, p.Intern([]byte("helmet")))
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, uint64(2), p.Hits())

	assert.Equal(t, "", p.Adopt(nil))
}
