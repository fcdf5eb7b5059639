// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bytes")
	require.NoError(t, os.WriteFile(path, []byte("hello, mmap"), 0644))

	m, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 11, m.Len())
	all := make([]byte, m.Len())
	n, err := m.ReadAt(all, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello, mmap", string(all[:n]))

	buf := make([]byte, 4)
	n, err = m.ReadAt(buf, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "mmap", string(buf))

	_, err = m.ReadAt(buf, 9)
	assert.Error(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	_, err = m.ReadAt(buf, 0)
	assert.Error(t, err)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open("/doesnt/exist")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	m, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	require.NoError(t, m.Close())
}
