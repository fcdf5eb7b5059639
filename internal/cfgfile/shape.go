// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgfile

import "fmt"

// Shape is the one-byte tag stored at the index offset.
type Shape uint8

// The values match what existing files on disk use; None is never
// written.
const (
	ShapeObject Shape = iota
	ShapeList
	ShapeMap
	ShapeSingleType
	ShapeNone Shape = 0xff
)

func (s Shape) Valid() bool {
	return s <= ShapeSingleType
}

func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeList:
		return "list"
	case ShapeMap:
		return "map"
	case ShapeSingleType:
		return "single"
	case ShapeNone:
		return "none"
	default:
		return fmt.Sprintf("shape(%d)", uint8(s))
	}
}
