package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a Scheduler backed by one goroutine (the one calling Run).
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop creates a loop whose queue holds up to buffer callbacks before
// Post blocks.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		queue: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes queued callbacks until ctx is cancelled. Callbacks posted after
// Run returns are discarded.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// Post queues fn. It is safe to call from any goroutine other than the loop's
// own: a callback posting into a full queue would block the only reader.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// AfterFunc runs fn on the loop once after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.set(time.AfterFunc(d, func() {
		l.Post(func() {
			if lt.stopped.Swap(true) {
				return
			}
			fn()
		})
	}))
	return lt
}

// Every runs fn on the loop every d. The next expiry is armed after fn
// returns, so a slow callback delays rather than stacks ticks.
func (l *Loop) Every(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	var arm func()
	arm = func() {
		lt.set(time.AfterFunc(d, func() {
			l.Post(func() {
				if lt.stopped.Load() {
					return
				}
				fn()
				if !lt.stopped.Load() {
					arm()
				}
			})
		}))
	}
	arm()
	return lt
}

type loopTimer struct {
	mu      sync.Mutex
	t       *time.Timer
	stopped atomic.Bool
}

func (lt *loopTimer) set(t *time.Timer) {
	lt.mu.Lock()
	lt.t = t
	lt.mu.Unlock()
}

func (lt *loopTimer) Stop() bool {
	if lt.stopped.Swap(true) {
		return false
	}
	lt.mu.Lock()
	if lt.t != nil {
		lt.t.Stop()
	}
	lt.mu.Unlock()
	return true
}
