// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/bpowers/cfgbin/internal/primitive"
)

type (
	// Reader is the cursor value codecs decode from.
	Reader = primitive.Reader
	// Writer is the sink value codecs encode to.
	Writer = primitive.Writer
	// TypeTag identifies the scalar type of a key.
	TypeTag = primitive.Tag
)

// ValueCodec moves one record value on and off a stream.  Decoding must
// consume exactly the bytes WriteValue produced: siblings in a group
// are stored back to back with no per-record offsets.  Every value
// takes at least one byte; item counts read from an index are checked
// against that.
//
// Split writes call WriteValue from multiple goroutines.
type ValueCodec[V any] interface {
	ReadValue(r *Reader) (V, error)
	WriteValue(w *Writer, v V) error
}

// CodecFuncs adapts a pair of functions to ValueCodec.
type CodecFuncs[V any] struct {
	Read  func(r *Reader) (V, error)
	Write func(w *Writer, v V) error
}

func (c CodecFuncs[V]) ReadValue(r *Reader) (V, error) {
	return c.Read(r)
}

func (c CodecFuncs[V]) WriteValue(w *Writer, v V) error {
	return c.Write(w, v)
}

// PrimitiveValues returns a codec for scalar values from the
// primitive registry.
func PrimitiveValues[V any]() (ValueCodec[V], error) {
	c, err := primitive.Lookup[V]()
	if err != nil {
		return nil, err
	}
	return CodecFuncs[V]{Read: c.Read, Write: c.Write}, nil
}

type msgpackCodec[V any] struct{}

// MsgpackValues returns a codec storing each value as a length-prefixed
// msgpack document, for structs and other composite values.
func MsgpackValues[V any]() ValueCodec[V] {
	return msgpackCodec[V]{}
}

func (msgpackCodec[V]) ReadValue(r *Reader) (V, error) {
	var v V
	b, err := r.ReadBytes()
	if err != nil {
		return v, err
	}
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("msgpack.Unmarshal: %w", err)
	}
	return v, nil
}

func (msgpackCodec[V]) WriteValue(w *Writer, v V) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("msgpack.Marshal: %w", err)
	}
	return w.WriteBytes(b)
}

func lookupKey[K any]() (primitive.Codec[K], error) {
	c, err := primitive.Lookup[K]()
	if err != nil {
		return c, fmt.Errorf("key: %w", err)
	}
	return c, nil
}
