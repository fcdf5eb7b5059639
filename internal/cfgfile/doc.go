// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package cfgfile contains the header codec and shape tag shared by
// config writers and readers.
//
// A config file looks like:
//
//	┌───────────────────┐
//	│ file header       │  32 bytes, rewritten once the index is placed
//	├───────────────────┤
//	│ data section      │  shape-dependent values, in key order
//	│                   │  (empty for split files)
//	│                   │
//	├───────────────────┤
//	│ shape tag (1 byte)│  <- header.IndexOffset points here
//	├───────────────────┤
//	│ index section     │  shape-dependent (key, offset, ...) rows
//	│                   │
//	└───────────────────┘
//
// The header itself is:
//
//	 0    1    2    3    4    5    6    7
//	+----+----+----+----+----+----+----+----+
//	| magic             | format version    |
//	+----+----+----+----+----+----+----+----+
//	| record count      | index offset ...  |
//	+----+----+----+----+----+----+----+----+
//	| ... index offset  |flag| reserved     |
//	+----+----+----+----+----+----+----+----+
//	| reserved                              |
//	+----+----+----+----+----+----+----+----+
//
// Flat (single-type) files have no index section: the shape tag sits
// directly after the header and the key/value pairs follow it.
package cfgfile
