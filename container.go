// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

// Container is a skeleton opened from a config stream.  Every concrete
// container in this package implements it; LoadAll, LoadCooperative and
// LoadBackground accept any of them.
type Container interface {
	Shape() Shape
	// Len is the number of top-level keys.
	Len() int
	// Close releases the stream.  Unread records can't be read after.
	Close() error

	session() *source
	numGroups() int
	// loadGroup materializes group i and reports how many records it
	// holds.
	loadGroup(i int) (int, error)
}

type container struct {
	src *source
}

func (c *container) Shape() Shape {
	return c.src.shape
}

// Header returns a copy of the stream's header.
func (c *container) Header() Header {
	return *c.src.header
}

func (c *container) Close() error {
	return c.src.close()
}

// Closed reports whether the stream has been released, either by Close
// or at the end of a bulk load.
func (c *container) Closed() bool {
	return c.src.closed
}

func (c *container) session() *source {
	return c.src
}
