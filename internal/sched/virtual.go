package sched

import "time"

// Virtual is a deterministic Scheduler whose clock only moves when Advance is
// called. It is not safe for concurrent use; tests drive it from one goroutine.
type Virtual struct {
	now    time.Duration
	seq    int
	timers []*virtualTimer
	posted []func()
}

// NewVirtual returns a virtual scheduler at time zero.
func NewVirtual() *Virtual {
	return &Virtual{}
}

type virtualTimer struct {
	at      time.Duration
	period  time.Duration
	seq     int
	fn      func()
	stopped bool
}

func (t *virtualTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Now returns the elapsed virtual time.
func (v *Virtual) Now() time.Duration {
	return v.now
}

// Post queues fn; it runs on the next Advance or Flush.
func (v *Virtual) Post(fn func()) {
	v.posted = append(v.posted, fn)
}

// AfterFunc schedules fn at Now()+d.
func (v *Virtual) AfterFunc(d time.Duration, fn func()) Timer {
	return v.add(d, 0, fn)
}

// Every schedules fn at Now()+d, Now()+2d, ...
func (v *Virtual) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		d = time.Millisecond
	}
	return v.add(d, d, fn)
}

func (v *Virtual) add(d, period time.Duration, fn func()) *virtualTimer {
	v.seq++
	t := &virtualTimer{at: v.now + d, period: period, seq: v.seq, fn: fn}
	v.timers = append(v.timers, t)
	return t
}

// Pending reports how many timers are still live.
func (v *Virtual) Pending() int {
	n := 0
	for _, t := range v.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Flush runs posted callbacks without moving the clock.
func (v *Virtual) Flush() {
	for len(v.posted) > 0 {
		fn := v.posted[0]
		v.posted = v.posted[1:]
		fn()
	}
}

// Advance moves the clock forward by d, firing every timer that falls due in
// order of expiry (ties in creation order).
func (v *Virtual) Advance(d time.Duration) {
	target := v.now + d
	v.Flush()
	for {
		next := v.nextDue(target)
		if next == nil {
			break
		}
		v.now = next.at
		if next.period > 0 {
			next.at += next.period
		} else {
			next.stopped = true
		}
		next.fn()
		v.Flush()
	}
	v.now = target
	v.compact()
}

func (v *Virtual) nextDue(limit time.Duration) *virtualTimer {
	var best *virtualTimer
	for _, t := range v.timers {
		if t.stopped || t.at > limit {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (v *Virtual) compact() {
	live := v.timers[:0]
	for _, t := range v.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(v.timers); i++ {
		v.timers[i] = nil
	}
	v.timers = live
}
