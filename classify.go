// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

// Classify picks the shape dynamically typed values (as decoded from
// YAML or JSON) are best stored as: all strings make a single-type
// file, all lists a list file, all string-keyed maps a nested file, and
// anything else an object file of msgpack values.
func Classify(values []any) Shape {
	if len(values) == 0 {
		return ShapeNone
	}
	var strs, lists, maps int
	for _, v := range values {
		switch v.(type) {
		case string:
			strs++
		case []any:
			lists++
		case map[string]any:
			maps++
		}
	}
	switch len(values) {
	case strs:
		return ShapeSingleType
	case lists:
		return ShapeList
	case maps:
		return ShapeMap
	default:
		return ShapeObject
	}
}
