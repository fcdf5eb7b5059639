// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Dispatcher runs work off the owner's goroutine and marshals callbacks
// back onto it.
type Dispatcher interface {
	RunAsync(work func())
	PostToOwner(callback func())
}

// LoadBackground materializes every record of c on a worker, then posts
// the completion back to the owner.  The stream is closed and onDone
// called from the owner's context, so onDone sees a fully loaded
// container.  Neither c nor its stream may be touched by the owner until
// then.
func LoadBackground(c Container, d Dispatcher, budget int, onDone func(error)) {
	if budget <= 0 {
		budget = DefaultBudget
	}
	d.RunAsync(func() {
		p := newPass(c, "background")
		pending := 0
		for !p.done() {
			pending += p.step()
			if pending >= budget {
				pending = 0
				runtime.Gosched()
			}
		}
		d.PostToOwner(func() {
			err := p.finish()
			if onDone != nil {
				onDone(err)
			}
		})
	})
}

// OwnerLoop is a Dispatcher whose owner is whichever goroutine calls
// Drain, Wait or Close.  Workers run on their own goroutines.
type OwnerLoop struct {
	g       errgroup.Group
	mu      sync.Mutex
	pending []func()
	notify  chan struct{}
}

var _ Dispatcher = (*OwnerLoop)(nil)

func NewOwnerLoop() *OwnerLoop {
	return &OwnerLoop{
		notify: make(chan struct{}, 1),
	}
}

func (l *OwnerLoop) RunAsync(work func()) {
	l.g.Go(func() error {
		work()
		return nil
	})
}

// PostToOwner queues callback; it never blocks.
func (l *OwnerLoop) PostToOwner(callback func()) {
	l.mu.Lock()
	l.pending = append(l.pending, callback)
	l.mu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Drain runs every queued callback on the calling goroutine and returns
// how many ran.
func (l *OwnerLoop) Drain() int {
	l.mu.Lock()
	callbacks := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
	return len(callbacks)
}

// Wait blocks until at least one callback has run or ctx is done.
func (l *OwnerLoop) Wait(ctx context.Context) error {
	for {
		if l.Drain() > 0 {
			return nil
		}
		select {
		case <-l.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close waits for every worker to finish, then runs whatever they
// posted.
func (l *OwnerLoop) Close() int {
	_ = l.g.Wait()
	return l.Drain()
}
