// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package primitive encodes and decodes the scalar types used for keys
// and flat values.  Fixed-width integers and floats are little-endian;
// strings and byte slices carry a uvarint length prefix.
package primitive
