// Package timer is a polled queue of deferred callbacks.
//
// The owner advances the queue from its frame loop with the current
// wall-clock time; due callbacks run on the owner's goroutine. Cancelling
// everything bumps a generation counter, so a callback scheduled before the
// bump can never run, even if its handle was lost.
package timer

import (
	"sort"
	"time"
)

// Handle identifies one deferred callback.
type Handle struct {
	id  uint64
	gen uint64
}

// Valid reports whether h refers to a scheduled callback at all.
func (h Handle) Valid() bool { return h.id != 0 }

type entry struct {
	id  uint64
	gen uint64
	due time.Duration
	fn  func()
}

// Queue is owned by exactly one caller and is not safe for concurrent use.
type Queue struct {
	now     time.Duration
	gen     uint64
	nextID  uint64
	pending []entry
}

// NewQueue returns an empty queue at time zero.
func NewQueue() *Queue {
	return &Queue{gen: 1}
}

// Now is the time of the last Advance.
func (q *Queue) Now() time.Duration { return q.now }

// Generation is bumped by every CancelAll.
func (q *Queue) Generation() uint64 { return q.gen }

// After schedules fn to run once d has elapsed past Now. A non-positive
// d runs fn on the next Advance.
func (q *Queue) After(d time.Duration, fn func()) Handle {
	if d < 0 {
		d = 0
	}
	q.nextID++
	e := entry{id: q.nextID, gen: q.gen, due: q.now + d, fn: fn}
	// Keep pending ordered by due time; equal due times keep insertion order.
	i := sort.Search(len(q.pending), func(i int) bool { return q.pending[i].due > e.due })
	q.pending = append(q.pending, entry{})
	copy(q.pending[i+1:], q.pending[i:])
	q.pending[i] = e
	return Handle{id: e.id, gen: e.gen}
}

// Cancel removes a single callback. It reports whether the callback was
// still pending.
func (q *Queue) Cancel(h Handle) bool {
	if !h.Valid() {
		return false
	}
	for i := range q.pending {
		if q.pending[i].id == h.id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

// CancelAll drops every pending callback and starts a new generation.
func (q *Queue) CancelAll() {
	q.pending = q.pending[:0]
	q.gen++
}

// Pending reports whether h is still waiting to run.
func (q *Queue) Pending(h Handle) bool {
	if !h.Valid() || h.gen != q.gen {
		return false
	}
	for i := range q.pending {
		if q.pending[i].id == h.id {
			return true
		}
	}
	return false
}

// Len is the number of pending callbacks.
func (q *Queue) Len() int { return len(q.pending) }

// Advance moves the clock to now and runs every callback due at or before
// it, in due order. Callbacks may schedule or cancel; anything they schedule
// that is already due runs in the same Advance. Time never moves backwards.
func (q *Queue) Advance(now time.Duration) int {
	if now > q.now {
		q.now = now
	}
	fired := 0
	for len(q.pending) > 0 {
		e := q.pending[0]
		if e.due > q.now {
			break
		}
		q.pending = q.pending[1:]
		if e.gen != q.gen {
			continue
		}
		// The callback observes the time it was due, not the frame time.
		saved := q.now
		q.now = e.due
		e.fn()
		if saved > q.now {
			q.now = saved
		}
		fired++
	}
	return fired
}

// Step advances by d from Now.
func (q *Queue) Step(d time.Duration) int {
	return q.Advance(q.now + d)
}
