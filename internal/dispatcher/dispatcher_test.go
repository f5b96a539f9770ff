// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dispatcher

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// countingSender counts Send calls and, once armed via drainAfter,
// reports draining done only after that many calls have landed after
// arming — standing in for a queue instance that needs N more Sends
// to work its way out of the returning deque.
type countingSender struct {
	n          atomic.Int64
	drainAfter atomic.Int64 // -1 until armed
	drained    atomic.Bool
}

func newCountingSender() *countingSender {
	s := &countingSender{}
	s.drainAfter.Store(-1)
	return s
}

func (s *countingSender) Send() {
	s.n.Add(1)
	if want := s.drainAfter.Load(); want >= 0 && s.n.Load() >= want {
		s.drained.Store(true)
	}
}

type fakeQueue struct {
	closed  atomic.Bool
	pending atomic.Bool
	sender  *countingSender // non-nil: HasPending defers to sender.drained
}

func (q *fakeQueue) CloseWindow() { q.closed.Store(true) }
func (q *fakeQueue) HasPending() bool {
	if q.sender != nil {
		return !q.sender.drained.Load()
	}
	return q.pending.Load()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunSendsAtApproximatelyTheConfiguredRate(t *testing.T) {
	sender := &countingSender{}
	q := &fakeQueue{}
	d := New(sender, q, 100, 100*time.Millisecond, discardLogger())

	d.Run(context.Background())

	if !q.closed.Load() {
		t.Fatal("Run did not close the window")
	}
	got := sender.n.Load()
	if got < 8 || got > 12 {
		t.Errorf("Send called %d times, want ~10 for 100/s over 100ms", got)
	}
}

func TestRunStopsEarlyOnContextCancellation(t *testing.T) {
	sender := &countingSender{}
	q := &fakeQueue{}
	d := New(sender, q, 10, time.Hour, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
	if !q.closed.Load() {
		t.Fatal("Run did not close the window on cancellation")
	}
}

// TestRunDrainsUntilQueueEmpty requires drain itself to pump Send: the
// fake queue only reports empty once 5 Send calls have landed in total,
// and the main loop issues only one, so the rest can only come from
// drain's own ticks. A drain that merely polls HasPending without calling Send
// would hang until the context deadline and fail this test.
func TestRunDrainsUntilQueueEmpty(t *testing.T) {
	sender := newCountingSender()
	q := &fakeQueue{sender: sender}
	d := New(sender, q, 1000, time.Millisecond, discardLogger())
	d.drainPoll = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Arm before Run: HasPending reports false only after 5 Send calls.
	// A 1ms period at 1000/s is a single main-loop tick, so 4 of the 5
	// can only come from drain.
	sender.drainAfter.Store(sender.n.Load() + 5)
	d.Run(ctx)

	if q.HasPending() {
		t.Fatal("Run returned while queue still reported pending work")
	}
	if sender.n.Load() < 5 {
		t.Errorf("Send called %d times, want at least 5 (one from the main loop, the rest from drain)", sender.n.Load())
	}
}

func TestNonPositiveRateClosesWindowImmediately(t *testing.T) {
	sender := &countingSender{}
	q := &fakeQueue{}
	d := New(sender, q, 0, time.Second, discardLogger())

	d.Run(context.Background())

	if !q.closed.Load() {
		t.Fatal("Run did not close the window for a non-positive rate")
	}
	if sender.n.Load() != 0 {
		t.Errorf("Send called %d times, want 0", sender.n.Load())
	}
}
