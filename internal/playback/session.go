package playback

import (
	"log/slog"
	"time"

	"github.com/ivlev/slidesync/internal/player"
	"github.com/ivlev/slidesync/internal/sched"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateCompleting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateCompleting:
		return "completing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Outcome says how a Session ended.
type Outcome int

const (
	// OutcomeCompleted means the seek to the end frame was confirmed.
	OutcomeCompleted Outcome = iota
	// OutcomeTimedOut means the safety timer parked the player.
	OutcomeTimedOut
	// OutcomeTornDown means the session was cancelled before completing.
	OutcomeTornDown
)

// Observer is told about every session state change.
type Observer interface {
	SessionStateChanged(playerID string, state State)
}

// SessionConfig tunes a Session.
type SessionConfig struct {
	// FallbackRate is the sampling rate used when the handle reports no FPS.
	FallbackRate  int
	SafetyTimeout time.Duration
}

// Session watches one non-looping player for the end of its playback.
//
// States move Idle → Armed → Completing → Done and never leave Done. A new
// navigation always builds a fresh Session.
type Session struct {
	playerID string
	handle   player.Handle
	sched    sched.Scheduler
	cfg      SessionConfig
	log      *slog.Logger
	observer Observer
	onDone   func(*Session, Outcome)

	rate        int
	maxObserved int
	endFrame    int
	state       State

	sampler     sched.Timer
	safety      sched.Timer
	unsubscribe func()
}

func newSession(playerID string, h player.Handle, s sched.Scheduler, cfg SessionConfig, log *slog.Logger) *Session {
	rate := h.FPS()
	if rate <= 0 {
		rate = cfg.FallbackRate
	}
	if rate <= 0 {
		rate = 60
	}
	return &Session{
		playerID: playerID,
		handle:   h,
		sched:    s,
		cfg:      cfg,
		log:      log.With("player", playerID),
		rate:     rate,
	}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// PlayerID identifies the watched player.
func (s *Session) PlayerID() string {
	return s.playerID
}

// SampleInterval is the time between two progress samples.
func (s *Session) SampleInterval() time.Duration {
	return time.Second / time.Duration(s.rate)
}

// MaxObserved is the highest frame sampled so far.
func (s *Session) MaxObserved() int {
	return s.maxObserved
}

// Start arms the session. It has no effect outside Idle.
func (s *Session) Start() {
	if s.state != StateIdle {
		return
	}
	s.setState(StateArmed)
	s.sampler = s.sched.Every(s.SampleInterval(), s.sample)
	s.log.Debug("watching for end of playback", "rate", s.rate, "end_frame", s.handle.EndFrame())
}

// Teardown stops sampling, drops the frame listener and the safety timer, and
// moves the session to Done without touching the player.
func (s *Session) Teardown() {
	if s.state == StateDone {
		return
	}
	s.release()
	s.setState(StateDone)
	s.log.Debug("session torn down")
	if s.onDone != nil {
		s.onDone(s, OutcomeTornDown)
	}
}

func (s *Session) sample() {
	if s.state != StateArmed {
		return
	}

	h := s.handle
	if !h.Active() {
		s.log.Debug("reactivating suspended player")
		h.Activate()
	}

	f, nf := h.Frame(), h.EndFrame()
	if f > s.maxObserved {
		s.maxObserved = f
	}

	// Sampling at a fixed rate can straddle the instant the engine reaches the
	// end frame and wraps to the start, so a regression also counts as the end.
	if f == nf || f < s.maxObserved {
		s.log.Debug("end of playback detected", "frame", f, "max_observed", s.maxObserved, "end_frame", nf)
		s.complete(nf)
	}
}

func (s *Session) complete(nf int) {
	sched.StopTimer(s.sampler)
	s.sampler = nil
	s.endFrame = nf
	s.setState(StateCompleting)

	s.safety = s.sched.AfterFunc(s.cfg.SafetyTimeout, func() {
		s.finish(OutcomeTimedOut)
	})
	s.unsubscribe = s.handle.OnFrameChanged(func(frame int) {
		if frame >= nf {
			s.finish(OutcomeCompleted)
		}
	})
	s.handle.RequestSeek(nf)
}

func (s *Session) finish(outcome Outcome) {
	if s.state != StateCompleting {
		return
	}
	s.release()
	s.handle.Deactivate()
	s.setState(StateDone)

	if outcome == OutcomeTimedOut {
		s.log.Warn("frame notification missed, parked by safety timeout", "frame", s.handle.Frame(), "end_frame", s.endFrame)
	} else {
		s.log.Debug("playback parked on end frame", "frame", s.handle.Frame())
	}
	if s.onDone != nil {
		s.onDone(s, outcome)
	}
}

func (s *Session) release() {
	sched.StopTimer(s.sampler)
	sched.StopTimer(s.safety)
	s.sampler, s.safety = nil, nil
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Session) setState(st State) {
	s.state = st
	if s.observer != nil {
		s.observer.SessionStateChanged(s.playerID, st)
	}
}
