// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package cfgbin stores key-indexed config tables in a seekable binary
// format and reads them back lazily.
//
// A stream is written once from an in-memory Map by WriteFlat,
// WriteObject, WriteList or WriteNested.  Opening it with the matching
// Open function decodes only the header and index; values are decoded
// the first time they are asked for.  Values stored from the same data
// offset (the items of a list, the inner values of a nested map) form a
// group and are always decoded together.
//
// A whole container can be materialized at once with LoadAll,
// incrementally from a host loop with LoadCooperative, or on a worker
// with LoadBackground.  All three close the stream when they finish.
//
// Containers are not safe for concurrent use.
package cfgbin
