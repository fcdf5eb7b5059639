// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package intern canonicalizes strings decoded during a single load
// session so repeated values share one allocation.
package intern

import (
	"sync"

	"github.com/dgryski/go-farm"

	"github.com/bpowers/cfgbin/internal/unsafestring"
)

// Pool is a string canonicalization cache.  It is owned by one load
// session and cleared when that session ends.
type Pool struct {
	mu      sync.Mutex
	buckets map[uint64][]string
	n       int
	hits    uint64
}

func New() *Pool {
	return &Pool{
		buckets: make(map[uint64][]string),
	}
}

// Intern returns the canonical string with the contents of b.  b is
// copied if the string hasn't been seen before, so callers may reuse it.
func (p *Pool) Intern(b []byte) string {
	return p.intern(b, false)
}

// Adopt is Intern for a buffer handed over by the caller: a string not
// seen before shares b's memory instead of copying it.  b must not be
// modified afterwards.
func (p *Pool) Adopt(b []byte) string {
	return p.intern(b, true)
}

func (p *Pool) intern(b []byte, owned bool) string {
	h := farm.Hash64(b)

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range p.buckets[h] {
		// the compiler doesn't allocate for this conversion
		if s == string(b) {
			p.hits++
			return s
		}
	}
	var s string
	if owned {
		s = unsafestring.FromBytes(b)
	} else {
		s = string(b)
	}
	p.buckets[h] = append(p.buckets[h], s)
	p.n++
	return s
}

// Len returns the number of distinct strings held.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

// Hits returns how many lookups were served from the cache.
func (p *Pool) Hits() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits
}

// Clear releases every canonicalized string.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buckets = make(map[uint64][]string)
	p.n = 0
	p.hits = 0
}
