// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package primitive

import (
	"errors"
	"fmt"
)

// Tag identifies a scalar type the codec knows how to encode.
type Tag uint8

const (
	TagInvalid Tag = iota
	TagBool
	TagInt8
	TagUint8
	TagInt16
	TagUint16
	TagInt32
	TagUint32
	TagInt64
	TagUint64
	TagInt
	TagUint
	TagFloat32
	TagFloat64
	TagString
	TagBytes
	numTags
)

var ErrUnsupportedType = errors.New("unsupported key/value type")

var tagNames = [numTags]string{
	TagInvalid: "invalid",
	TagBool:    "bool",
	TagInt8:    "int8",
	TagUint8:   "uint8",
	TagInt16:   "int16",
	TagUint16:  "uint16",
	TagInt32:   "int32",
	TagUint32:  "uint32",
	TagInt64:   "int64",
	TagUint64:  "uint64",
	TagInt:     "int",
	TagUint:    "uint",
	TagFloat32: "float32",
	TagFloat64: "float64",
	TagString:  "string",
	TagBytes:   "bytes",
}

func (t Tag) String() string {
	if t >= numTags {
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
	return tagNames[t]
}

// Codec is the pair of functions used to move one scalar type on and
// off a stream.
type Codec[T any] struct {
	Tag   Tag
	Read  func(*Reader) (T, error)
	Write func(*Writer, T) error
}

// registry holds a Codec[T] for each tag, stored as any.
var registry = [numTags]any{
	TagBool:    Codec[bool]{TagBool, (*Reader).ReadBool, (*Writer).WriteBool},
	TagInt8:    Codec[int8]{TagInt8, (*Reader).ReadInt8, (*Writer).WriteInt8},
	TagUint8:   Codec[uint8]{TagUint8, (*Reader).ReadUint8, (*Writer).WriteUint8},
	TagInt16:   Codec[int16]{TagInt16, (*Reader).ReadInt16, (*Writer).WriteInt16},
	TagUint16:  Codec[uint16]{TagUint16, (*Reader).ReadUint16, (*Writer).WriteUint16},
	TagInt32:   Codec[int32]{TagInt32, (*Reader).ReadInt32, (*Writer).WriteInt32},
	TagUint32:  Codec[uint32]{TagUint32, (*Reader).ReadUint32, (*Writer).WriteUint32},
	TagInt64:   Codec[int64]{TagInt64, (*Reader).ReadInt64, (*Writer).WriteInt64},
	TagUint64:  Codec[uint64]{TagUint64, (*Reader).ReadUint64, (*Writer).WriteUint64},
	TagInt:     Codec[int]{TagInt, (*Reader).ReadInt, (*Writer).WriteInt},
	TagUint:    Codec[uint]{TagUint, (*Reader).ReadUint, (*Writer).WriteUint},
	TagFloat32: Codec[float32]{TagFloat32, (*Reader).ReadFloat32, (*Writer).WriteFloat32},
	TagFloat64: Codec[float64]{TagFloat64, (*Reader).ReadFloat64, (*Writer).WriteFloat64},
	TagString:  Codec[string]{TagString, (*Reader).ReadString, (*Writer).WriteString},
	TagBytes:   Codec[[]byte]{TagBytes, (*Reader).ReadBytes, (*Writer).WriteBytes},
}

// TagOf returns the tag for T, or TagInvalid.  Named types (type ID
// int32) are not scalars as far as the registry is concerned.
func TagOf[T any]() Tag {
	var zero T
	switch any(zero).(type) {
	case bool:
		return TagBool
	case int8:
		return TagInt8
	case uint8:
		return TagUint8
	case int16:
		return TagInt16
	case uint16:
		return TagUint16
	case int32:
		return TagInt32
	case uint32:
		return TagUint32
	case int64:
		return TagInt64
	case uint64:
		return TagUint64
	case int:
		return TagInt
	case uint:
		return TagUint
	case float32:
		return TagFloat32
	case float64:
		return TagFloat64
	case string:
		return TagString
	case []byte:
		return TagBytes
	default:
		return TagInvalid
	}
}

// Lookup resolves the codec for T from the registry.
func Lookup[T any]() (Codec[T], error) {
	tag := TagOf[T]()
	if tag == TagInvalid {
		var zero T
		return Codec[T]{}, fmt.Errorf("%w: %T", ErrUnsupportedType, zero)
	}
	return registry[tag].(Codec[T]), nil
}
