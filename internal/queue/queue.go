// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package queue produces ready-to-send script instances for the
// dispatcher and accepts their returns after a response is processed.
package queue

import (
	"sync"
	"sync/atomic"

	"github.com/jgomezselles/hermes-go/internal/script"
)

// Queue owns a template and the deque of instances returning to the
// flow after a response. At most one instance is created per range
// cursor advance; see advanceRanges.
type Queue struct {
	tpl *script.Template

	mu           sync.Mutex
	deque        []*script.Instance
	rangeCursor  map[string]int64
	windowClosed atomic.Bool
	inFlight     atomic.Int64
}

// New returns a Queue that dispatches instances of tpl.
func New(tpl *script.Template) *Queue {
	return &Queue{
		tpl:         tpl,
		rangeCursor: make(map[string]int64, len(tpl.Ranges)),
	}
}

// GetNext returns the front of the deque of returning instances if
// non-empty; otherwise, if the window is still open, it instantiates a
// fresh instance with advanced range bindings; otherwise it returns
// false (callers drain via response paths once in-flight reaches zero).
func (q *Queue) GetNext() (*script.Instance, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.deque) > 0 {
		in := q.deque[0]
		q.deque = q.deque[1:]
		return in, true
	}

	if q.windowClosed.Load() {
		return nil, false
	}

	bindings := q.advanceRanges()
	in := q.tpl.NewInstance(bindings)
	q.inFlight.Add(1)
	return in, true
}

// advanceRanges advances every range cursor by one step, creating it
// at Min on first use and wrapping from Max back to Min. Must be
// called with mu held.
func (q *Queue) advanceRanges() map[string]int64 {
	if len(q.tpl.Ranges) == 0 {
		return nil
	}
	bindings := make(map[string]int64, len(q.tpl.Ranges))
	for name, r := range q.tpl.Ranges {
		cur, ok := q.rangeCursor[name]
		if !ok {
			cur = r.Min
		} else if cur+1 <= r.Max {
			cur++
		} else {
			cur = r.Min
		}
		q.rangeCursor[name] = cur
		bindings[name] = cur
	}
	return bindings
}

// Enqueue post-processes in against answer. On success it is pushed to
// the back of the deque to be picked up by a future GetNext; on
// failure, or when the flow is complete, the in-flight counter is
// decremented and the instance is discarded.
func (q *Queue) Enqueue(in *script.Instance, answer script.Answer) {
	if !in.PostProcess(answer) {
		q.inFlight.Add(-1)
		return
	}

	q.mu.Lock()
	q.deque = append(q.deque, in)
	q.mu.Unlock()
}

// Cancel decrements the in-flight counter for an instance the caller
// has already discarded (validation failure, timeout, client error).
func (q *Queue) Cancel() {
	q.inFlight.Add(-1)
}

// CloseWindow makes subsequent GetNext calls only drain the deque,
// never instantiate new traversals.
func (q *Queue) CloseWindow() {
	q.windowClosed.Store(true)
}

// IsWindowClosed reports whether CloseWindow has been called.
func (q *Queue) IsWindowClosed() bool {
	return q.windowClosed.Load()
}

// HasPending reports whether any instance is outstanding: issued via
// GetNext but not yet enqueued, cancelled, or terminally post-processed.
func (q *Queue) HasPending() bool {
	return q.inFlight.Load() > 0
}
