package playback

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ivlev/slidesync/internal/sched"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSessionConfig() SessionConfig {
	return SessionConfig{FallbackRate: 60, SafetyTimeout: 100 * time.Millisecond}
}

// startSession arms a session on h and returns it with its recorded outcome.
func startSession(v *sched.Virtual, h *fakeHandle) (*Session, *[]Outcome) {
	var outcomes []Outcome
	s := newSession("anim", h, v, testSessionConfig(), quietLogger())
	s.onDone = func(_ *Session, o Outcome) { outcomes = append(outcomes, o) }
	s.Start()
	return s, &outcomes
}

func TestSessionExampleScenario(t *testing.T) {
	v := sched.NewVirtual()
	h := newFakeHandle(v, "anim", 120, 30)
	h.mode = seekHold
	s, outcomes := startSession(v, h)

	want := time.Second / 30
	if got := s.SampleInterval(); got != want {
		t.Fatalf("SampleInterval() = %v, want %v", got, want)
	}

	for f := 0; f < 120; f++ {
		h.frame = f
		v.Advance(want)
		if s.State() != StateArmed {
			t.Fatalf("state after frame %d = %v, want armed", f, s.State())
		}
	}
	if s.MaxObserved() != 119 {
		t.Errorf("MaxObserved() = %d, want 119", s.MaxObserved())
	}

	h.frame = 120
	v.Advance(want)
	if s.State() != StateCompleting {
		t.Fatalf("state after frame 120 = %v, want completing", s.State())
	}
	if len(h.seeks) != 1 || h.seeks[0] != 120 {
		t.Fatalf("seeks = %v, want [120]", h.seeks)
	}
	if len(h.listeners) != 1 {
		t.Fatalf("listeners = %d, want 1", len(h.listeners))
	}

	h.deliverSeek()

	if s.State() != StateDone {
		t.Fatalf("state after notification = %v, want done", s.State())
	}
	if h.active {
		t.Error("player still active after completion")
	}
	if h.frame != 120 {
		t.Errorf("resting frame = %d, want 120", h.frame)
	}
	if len(h.listeners) != 0 {
		t.Errorf("listeners after completion = %d, want 0", len(h.listeners))
	}
	if v.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", v.Pending())
	}
	if len(*outcomes) != 1 || (*outcomes)[0] != OutcomeCompleted {
		t.Errorf("outcomes = %v, want [completed]", *outcomes)
	}
}

func TestSessionRegressionDetection(t *testing.T) {
	v := sched.NewVirtual()
	h := newFakeHandle(v, "anim", 100, 50)
	h.mode = seekHold
	s, _ := startSession(v, h)
	step := s.SampleInterval()

	for _, f := range []int{97, 98, 99} {
		h.frame = f
		v.Advance(step)
	}
	if s.State() != StateArmed {
		t.Fatalf("state before wrap = %v, want armed", s.State())
	}

	// The engine reached 100 and wrapped between two samples.
	h.frame = 0
	v.Advance(step)

	if s.State() != StateCompleting {
		t.Fatalf("state after wrap = %v, want completing", s.State())
	}
	if len(h.seeks) != 1 || h.seeks[0] != 100 {
		t.Fatalf("seeks = %v, want [100]", h.seeks)
	}
}

func TestSessionStopFrameIsEndFrame(t *testing.T) {
	tests := []struct {
		name   string
		frames []int
	}{
		{"exact", []int{10, 20, 30}},
		{"wrapped", []int{10, 25, 2}},
		{"wrapped to start", []int{28, 29, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := sched.NewVirtual()
			h := newFakeHandle(v, "anim", 30, 10)
			s, _ := startSession(v, h)

			for _, f := range tt.frames {
				h.frame = f
				v.Advance(s.SampleInterval())
			}

			if s.State() != StateDone {
				t.Fatalf("state = %v, want done", s.State())
			}
			if h.frame != 30 {
				t.Errorf("resting frame = %d, want 30", h.frame)
			}
			if h.active {
				t.Error("player still active")
			}
		})
	}
}

func TestSessionSafetyTimeout(t *testing.T) {
	v := sched.NewVirtual()
	h := newFakeHandle(v, "anim", 10, 100)
	h.mode = seekDrop
	s, outcomes := startSession(v, h)

	h.frame = 10
	v.Advance(s.SampleInterval())
	if s.State() != StateCompleting {
		t.Fatalf("state = %v, want completing", s.State())
	}

	v.Advance(99 * time.Millisecond)
	if s.State() != StateCompleting {
		t.Fatalf("state before safety timeout = %v, want completing", s.State())
	}

	v.Advance(time.Millisecond)
	if s.State() != StateDone {
		t.Fatalf("state after safety timeout = %v, want done", s.State())
	}
	if h.deactivations != 1 {
		t.Errorf("deactivations = %d, want 1", h.deactivations)
	}
	if len(h.listeners) != 0 {
		t.Errorf("listeners = %d, want 0", len(h.listeners))
	}
	if len(*outcomes) != 1 || (*outcomes)[0] != OutcomeTimedOut {
		t.Errorf("outcomes = %v, want [timed out]", *outcomes)
	}
}

func TestSessionIgnoresEarlierFrames(t *testing.T) {
	v := sched.NewVirtual()
	h := newFakeHandle(v, "anim", 40, 20)
	h.mode = seekHold
	s, _ := startSession(v, h)

	h.frame = 40
	v.Advance(s.SampleInterval())

	h.notify(3)
	if s.State() != StateCompleting {
		t.Fatalf("state after early frame = %v, want completing", s.State())
	}

	h.deliverSeek()
	if s.State() != StateDone {
		t.Fatalf("state = %v, want done", s.State())
	}
	if h.deactivations != 1 {
		t.Errorf("deactivations = %d, want 1", h.deactivations)
	}
}

func TestSessionReactivatesSuspendedPlayer(t *testing.T) {
	v := sched.NewVirtual()
	h := newFakeHandle(v, "anim", 100, 10)
	h.active = false
	s, _ := startSession(v, h)

	h.frame = 5
	v.Advance(s.SampleInterval())

	if h.activations != 1 || !h.active {
		t.Errorf("activations = %d active = %v, want 1 true", h.activations, h.active)
	}
}

func TestSessionFallbackRate(t *testing.T) {
	v := sched.NewVirtual()
	h := newFakeHandle(v, "anim", 100, 0)

	s := newSession("anim", h, v, SessionConfig{FallbackRate: 25}, quietLogger())
	if got := s.SampleInterval(); got != 40*time.Millisecond {
		t.Errorf("SampleInterval() = %v, want 40ms", got)
	}

	s = newSession("anim", h, v, SessionConfig{}, quietLogger())
	if got := s.SampleInterval(); got != time.Second/60 {
		t.Errorf("SampleInterval() = %v, want %v", got, time.Second/60)
	}
}

func TestSessionTeardown(t *testing.T) {
	t.Run("armed", func(t *testing.T) {
		v := sched.NewVirtual()
		h := newFakeHandle(v, "anim", 100, 10)
		s, outcomes := startSession(v, h)
		v.Advance(s.SampleInterval())
		reads := h.frameReads

		s.Teardown()
		v.Advance(time.Second)

		if s.State() != StateDone {
			t.Fatalf("state = %v, want done", s.State())
		}
		if h.frameReads != reads {
			t.Errorf("frame read %d times after teardown", h.frameReads-reads)
		}
		if v.Pending() != 0 {
			t.Errorf("pending timers = %d, want 0", v.Pending())
		}
		if h.deactivations != 0 {
			t.Error("teardown must not touch the player")
		}
		if len(*outcomes) != 1 || (*outcomes)[0] != OutcomeTornDown {
			t.Errorf("outcomes = %v, want [torn down]", *outcomes)
		}
	})

	t.Run("completing", func(t *testing.T) {
		v := sched.NewVirtual()
		h := newFakeHandle(v, "anim", 10, 10)
		h.mode = seekHold
		s, outcomes := startSession(v, h)
		h.frame = 10
		v.Advance(s.SampleInterval())

		s.Teardown()
		h.deliverSeek()
		v.Advance(time.Second)

		if len(h.listeners) != 0 {
			t.Errorf("listeners = %d, want 0", len(h.listeners))
		}
		if v.Pending() != 0 {
			t.Errorf("pending timers = %d, want 0", v.Pending())
		}
		if h.deactivations != 0 {
			t.Error("teardown must not touch the player")
		}
		if len(*outcomes) != 1 {
			t.Errorf("outcomes = %v, want exactly one", *outcomes)
		}
	})

	t.Run("done is terminal", func(t *testing.T) {
		v := sched.NewVirtual()
		h := newFakeHandle(v, "anim", 10, 10)
		s, outcomes := startSession(v, h)
		s.Teardown()
		s.Start()
		s.Teardown()

		if s.State() != StateDone {
			t.Fatalf("state = %v, want done", s.State())
		}
		if v.Pending() != 0 {
			t.Errorf("pending timers = %d, want 0", v.Pending())
		}
		if len(*outcomes) != 1 {
			t.Errorf("outcomes = %v, want exactly one", *outcomes)
		}
	})
}

func TestSessionReportsStates(t *testing.T) {
	v := sched.NewVirtual()
	h := newFakeHandle(v, "anim", 5, 10)
	obs := &recordingObserver{}

	s := newSession("anim", h, v, testSessionConfig(), quietLogger())
	s.observer = obs
	s.Start()
	h.frame = 5
	v.Advance(s.SampleInterval())

	want := []State{StateArmed, StateCompleting, StateDone}
	if len(obs.states) != len(want) {
		t.Fatalf("states = %v, want %v", obs.states, want)
	}
	for i := range want {
		if obs.states[i] != want[i] {
			t.Errorf("states[%d] = %v, want %v", i, obs.states[i], want[i])
		}
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateIdle:       "idle",
		StateArmed:      "armed",
		StateCompleting: "completing",
		StateDone:       "done",
		State(42):       "unknown",
	}
	for st, want := range tests {
		if got := st.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(st), got, want)
		}
	}
}
