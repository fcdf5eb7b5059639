// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build !unix

package mmap

import (
	"os"
)

// Open reads the named file into memory; platforms without mmap get a
// heap copy.
func Open(path string) (*ReaderAt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &ReaderAt{data: data}, nil
}
