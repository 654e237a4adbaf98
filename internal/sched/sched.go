// Package sched runs callbacks on a single logical thread.
//
// Everything the playback controller does (navigation handling, start polling,
// frame sampling, safety timeouts) is a callback on a Scheduler. Callbacks never
// run concurrently with each other, so the state they touch needs no locking.
//
// Two implementations are provided:
//
//   - Loop: a real executor driven by wall-clock timers, for the CLI.
//   - Virtual: a deterministic clock advanced by hand, for tests.
package sched

import "time"

// Timer is a handle to a pending one-shot or periodic callback.
type Timer interface {
	// Stop prevents any further invocation of the callback, including one whose
	// expiry has already been queued. It reports whether the timer was live.
	Stop() bool
}

// Scheduler executes callbacks one at a time.
type Scheduler interface {
	// Post queues fn to run as soon as possible.
	Post(fn func())
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Timer
	// Every runs fn every d until the returned Timer is stopped.
	Every(d time.Duration, fn func()) Timer
}

// StopTimer stops t if it is non-nil. It is a convenience for owners that keep
// optional timer handles.
func StopTimer(t Timer) {
	if t != nil {
		t.Stop()
	}
}
