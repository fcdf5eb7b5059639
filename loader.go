// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultBudget is the number of records a cooperative or background
// load processes between yields when the caller passes a budget <= 0.
const DefaultBudget = 500

// pass is one walk over every group of a container, shared by all
// three loading strategies.  A group that fails is logged and skipped;
// the pass only stops early when nothing after the failure can be read.
type pass struct {
	c        Container
	strategy string
	start    time.Time
	total    int
	next     int
	records  int
	errs     []error
}

func newPass(c Container, strategy string) *pass {
	return &pass{
		c:        c,
		strategy: strategy,
		start:    time.Now(),
		total:    c.numGroups(),
	}
}

func (p *pass) done() bool {
	return p.next >= p.total
}

// step loads the next group and returns how many records it held.
func (p *pass) step() int {
	i := p.next
	p.next++
	n, err := p.c.loadGroup(i)
	if err != nil {
		p.errs = append(p.errs, err)
		p.c.session().logger.Warn("skipping group", "group", i, "err", err)
		if abortsPass(err) {
			p.next = p.total
		}
		return 0
	}
	p.records += n
	return n
}

// progress maps the pass onto [0.5, 1]; building the skeleton is the
// first half.
func (p *pass) progress() float64 {
	if p.total == 0 {
		return 1
	}
	return 0.5 + 0.5*float64(p.next)/float64(p.total)
}

// finish closes the stream and clears the session's string cache.
func (p *pass) finish() error {
	src := p.c.session()
	err := errors.Join(p.errs...)
	if cerr := src.finish(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close: %w", cerr))
	}
	src.metrics.bulkLoad(p.strategy, p.start, err)
	src.logger.Info("loaded config",
		"strategy", p.strategy,
		"shape", src.shape,
		"groups", p.total,
		"records", p.records,
		"failed", len(p.errs),
		"elapsed", time.Since(p.start))
	return err
}

// LoadAll materializes every record of c in one synchronous pass, then
// closes the stream.  Failed groups don't stop the pass; their errors
// are joined into the result.
func LoadAll(c Container) error {
	p := newPass(c, "immediate")
	for !p.done() {
		p.step()
	}
	return p.finish()
}

// ReadAll wraps a call to one of the Open functions with LoadAll:
//
//	m, err := cfgbin.ReadAll(cfgbin.OpenObject[string, int](f, values))
func ReadAll[C Container](c C, err error) (C, error) {
	var zero C
	if err != nil {
		return zero, err
	}
	if err := LoadAll(c); err != nil {
		return zero, err
	}
	return c, nil
}

// Yield is handed back by Task.Resume at a budget boundary.
type Yield struct {
	// Records processed since the previous yield.
	Records  int
	Progress float64
}

// Task is a cooperative bulk load.  Each call to Resume processes groups
// until at least budget records have been read, then returns a Yield;
// the host decides when to call Resume again.  Yields only happen
// between groups, never inside one.
type Task struct {
	p          *pass
	budget     int
	pending    int
	yields     int
	onProgress func(float64)
	onDone     func(error)

	started  bool
	done     bool
	err      error
	reported float64
}

// Resume runs the load up to its next suspension point.  It returns
// done once every group has been processed, the stream closed and
// onDone called.
func (t *Task) Resume() (y *Yield, done bool) {
	if t.done {
		return nil, true
	}
	if !t.started {
		t.started = true
		t.report(0.5)
	}
	for !t.p.done() {
		t.pending += t.p.step()
		t.report(t.p.progress())
		if t.pending >= t.budget && !t.p.done() {
			y := &Yield{Records: t.pending, Progress: t.p.progress()}
			t.pending = 0
			t.yields++
			return y, false
		}
	}
	t.err = t.p.finish()
	t.done = true
	t.report(1)
	if t.onDone != nil {
		t.onDone(t.err)
	}
	return nil, true
}

func (t *Task) report(v float64) {
	if v <= t.reported {
		return
	}
	t.reported = v
	if t.onProgress != nil {
		t.onProgress(v)
	}
}

func (t *Task) Done() bool {
	return t.done
}

// Err is the result of a finished task.
func (t *Task) Err() error {
	return t.err
}

// Yields is how many times the task has suspended.
func (t *Task) Yields() int {
	return t.yields
}

// Scheduler is a host that resumes cooperative tasks.
type Scheduler interface {
	Start(t *Task)
}

// LoadCooperative materializes every record of c, suspending every
// budget records.  onProgress receives non-decreasing values in
// [0.5, 1], ending with 1.  With a nil sched the task runs to
// completion before LoadCooperative returns.
func LoadCooperative(c Container, sched Scheduler, budget int, onProgress func(float64), onDone func(error)) *Task {
	if budget <= 0 {
		budget = DefaultBudget
	}
	t := &Task{
		p:          newPass(c, "cooperative"),
		budget:     budget,
		onProgress: onProgress,
		onDone:     onDone,
	}
	if sched == nil {
		for {
			if _, done := t.Resume(); done {
				break
			}
		}
		return t
	}
	sched.Start(t)
	return t
}

// TickScheduler resumes each started task once per Tick, like a frame
// loop would.
type TickScheduler struct {
	mu    sync.Mutex
	tasks []*Task
}

func (s *TickScheduler) Start(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
}

// Tick resumes every pending task up to its next yield and returns how
// many are still pending.
func (s *TickScheduler) Tick() int {
	s.mu.Lock()
	tasks := append([]*Task(nil), s.tasks...)
	s.mu.Unlock()

	for _, t := range tasks {
		t.Resume()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.Done() {
			pending = append(pending, t)
		}
	}
	s.tasks = pending
	return len(s.tasks)
}

func (s *TickScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
