// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package dispatcher paces outbound sends at a fixed rate for a fixed
// duration, anchoring every tick to the run's start time so that
// per-tick scheduling error never accumulates across the run.
package dispatcher

import (
	"context"
	"log/slog"
	"time"
)

// Sender is the subset of *http2client.Client the dispatcher drives.
// Declared here, implemented there, so this package never imports the
// transport package.
type Sender interface {
	Send()
}

// WindowCloser is the subset of *queue.Queue the dispatcher signals
// when the send window ends.
type WindowCloser interface {
	CloseWindow()
	HasPending() bool
}

// Dispatcher fires one Sender.Send per tick at a fixed rate, for a
// fixed duration, then closes the queue's window and waits for any
// requests still in flight to drain.
type Dispatcher struct {
	sender Sender
	queue  WindowCloser
	rate   int           // sends per second
	period time.Duration // run duration
	log    *slog.Logger

	drainPoll time.Duration
}

// New builds a Dispatcher that issues rate sends per second for
// period. rate must be positive.
func New(sender Sender, queue WindowCloser, rate int, period time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sender:    sender,
		queue:     queue,
		rate:      rate,
		period:    period,
		log:       logger,
		drainPoll: 50 * time.Millisecond,
	}
}

// Run paces Send calls at d.rate per second for d.period, then closes
// the window and blocks until every in-flight instance has drained (or
// ctx is cancelled). It anchors each tick's deadline to the run's
// start time (initTime + n*waitTime) instead of sleeping wait_time
// between ticks, so that scheduling jitter on one tick never shifts
// the ones after it.
func (d *Dispatcher) Run(ctx context.Context) {
	if d.rate <= 0 {
		d.log.Warn("dispatcher: non-positive rate, nothing to send", "rate", d.rate)
		d.queue.CloseWindow()
		return
	}

	waitBetween := time.Second / time.Duration(d.rate)
	ticks := int64(d.period / waitBetween)

	initTime := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()

	var counter int64
	for ; counter < ticks; counter++ {
		select {
		case <-ctx.Done():
			d.queue.CloseWindow()
			return
		case <-timer.C:
		}
		d.sender.Send()

		next := initTime.Add(time.Duration(counter+1) * waitBetween)
		resetTimer(timer, time.Until(next))
	}

	d.queue.CloseWindow()
	d.drain(ctx)
}

// resetTimer arms timer to fire after d, draining any stale pending
// value first. d may be negative (a tick already missed its deadline);
// the timer then fires immediately rather than waiting further,
// which is how an anchored schedule catches back up instead of
// compounding the delay.
func resetTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	if d < 0 {
		d = 0
	}
	timer.Reset(d)
}

// drain keeps calling Send on every poll tick until the queue reports
// no pending instances, or ctx is cancelled. The window is closed at
// this point, so Send issues no new traversals, but a chained or
// multi-message instance still sitting in the queue's returning deque
// (queue.GetNext drains that deque regardless of window state) only
// advances when Send pulls it off and sends its next message; without
// this it would sit there forever and HasPending would never clear.
func (d *Dispatcher) drain(ctx context.Context) {
	ticker := time.NewTicker(d.drainPoll)
	defer ticker.Stop()
	for d.queue.HasPending() {
		d.sender.Send()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
