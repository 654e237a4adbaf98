package playback

import (
	"testing"
	"time"

	"github.com/ivlev/slidesync/internal/deck"
	"github.com/ivlev/slidesync/internal/sched"
)

type bootstrapFixture struct {
	v      *sched.Virtual
	reg    *fakeRegistry
	host   *fakeHost
	ctrl   *Controller
	boot   *Bootstrap
	slides []*deck.Slide
}

func newBootstrapFixture(n, limit int) *bootstrapFixture {
	fx := &bootstrapFixture{v: sched.NewVirtual(), reg: newFakeRegistry()}
	for i := 0; i < n; i++ {
		fx.slides = append(fx.slides, slide(i))
	}
	fx.host = &fakeHost{current: fx.slides[0]}
	fx.ctrl = NewController(fx.reg, fx.v, testOptions(), quietLogger())
	fx.boot = NewBootstrap(fx.host, fx.reg, fx.ctrl, fx.v, 50*time.Millisecond, limit, quietLogger())
	return fx
}

func (fx *bootstrapFixture) addPlayer(i int, name string) (*fakeElement, *fakeHandle) {
	h := newFakeHandle(fx.v, name, 100, 10)
	el := newFakeElement(name, h, "false")
	fx.reg.add(fx.slides[i], el)
	return el, h
}

func TestBootstrapWaitsForHost(t *testing.T) {
	fx := newBootstrapFixture(2, 200)
	fx.boot.Start()

	fx.v.Advance(150 * time.Millisecond)
	if fx.boot.Wired() {
		t.Fatal("wired before the host was ready")
	}

	fx.host.ready = true
	fx.v.Advance(50 * time.Millisecond)

	if !fx.boot.Wired() {
		t.Fatal("not wired after the host became ready")
	}
	if got := fx.boot.Attempts(); got != 4 {
		t.Errorf("Attempts() = %d, want 4", got)
	}
	if len(fx.host.listeners) != 1 {
		t.Errorf("listeners = %d, want 1", len(fx.host.listeners))
	}
	if fx.v.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", fx.v.Pending())
	}
}

func TestBootstrapGivesUp(t *testing.T) {
	fx := newBootstrapFixture(1, 5)
	fx.boot.Start()

	fx.v.Advance(time.Second)

	if fx.boot.Wired() {
		t.Error("wired without a ready host")
	}
	if got := fx.boot.Attempts(); got != 5 {
		t.Errorf("Attempts() = %d, want 5", got)
	}
	if fx.v.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", fx.v.Pending())
	}

	fx.host.ready = true
	fx.boot.Start()
	fx.v.Advance(time.Second)
	if len(fx.host.listeners) != 0 {
		t.Error("controller registered after giving up")
	}
}

func TestBootstrapDefaultInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		fx := newBootstrapFixture(1, 3)
		fx.boot = NewBootstrap(fx.host, fx.reg, fx.ctrl, fx.v, interval, 3, quietLogger())
		fx.boot.Start()

		fx.v.Advance(DefaultReadyPollInterval - time.Millisecond)
		if got := fx.boot.Attempts(); got != 0 {
			t.Errorf("interval %v: Attempts() = %d before the first tick, want 0", interval, got)
		}
		fx.v.Advance(time.Second)
		if got := fx.boot.Attempts(); got != 3 {
			t.Errorf("interval %v: Attempts() = %d, want 3", interval, got)
		}
	}
}

func TestBootstrapRunsOnce(t *testing.T) {
	fx := newBootstrapFixture(1, 200)
	fx.boot.Start()
	fx.boot.Start()
	if fx.v.Pending() != 1 {
		t.Fatalf("pending timers = %d, want 1", fx.v.Pending())
	}

	fx.host.ready = true
	fx.v.Advance(50 * time.Millisecond)
	fx.boot.Start()
	fx.v.Advance(time.Second)

	if len(fx.host.listeners) != 1 {
		t.Errorf("listeners = %d, want 1", len(fx.host.listeners))
	}
}

func TestBootstrapPauseSweepAndAutoStart(t *testing.T) {
	fx := newBootstrapFixture(3, 200)
	cur, curH := fx.addPlayer(0, "current")
	cur.attrs["auto"] = "true"
	_, other := fx.addPlayer(1, "other")
	_, paused := fx.addPlayer(2, "paused")
	paused.paused = true

	fx.host.ready = true
	fx.boot.Start()
	fx.v.Advance(50 * time.Millisecond)

	if !other.paused {
		t.Error("playing player on another slide not paused")
	}
	if !paused.paused {
		t.Error("already paused player toggled back on")
	}
	if curH.paused {
		t.Error("current auto player not restarted")
	}
	if s := fx.ctrl.Session(); s == nil || s.PlayerID() != "current" {
		t.Fatalf("session = %v, want one for the current player", s)
	}
}

func TestBootstrapLeavesNonAutoPlayerPaused(t *testing.T) {
	fx := newBootstrapFixture(2, 200)
	_, h := fx.addPlayer(0, "current")

	fx.host.ready = true
	fx.boot.Start()
	fx.v.Advance(50 * time.Millisecond)

	if !h.paused {
		t.Error("current player without auto left playing")
	}
	if fx.ctrl.Session() != nil {
		t.Error("session started for a player that did not request auto")
	}
}

func TestBootstrapForwardsNavigation(t *testing.T) {
	fx := newBootstrapFixture(2, 200)
	_, h := fx.addPlayer(1, "next")
	h.paused = true

	fx.host.ready = true
	fx.boot.Start()
	fx.v.Advance(50 * time.Millisecond)
	fx.host.navigate(fx.slides[1])

	if h.paused {
		t.Error("player on the new slide not started")
	}
	if got := fx.ctrl.Stats().Transitions; got != 1 {
		t.Errorf("Transitions = %d, want 1", got)
	}
}

func TestBootstrapWithdrawsLoadingPlayers(t *testing.T) {
	fx := newBootstrapFixture(2, 200)
	cur, _ := fx.addPlayer(0, "current")
	cur.attrs["auto"] = "true"
	cur.ready = false
	other, _ := fx.addPlayer(1, "other")
	other.attrs["auto"] = "true"
	other.ready = false

	fx.host.ready = true
	fx.boot.Start()
	fx.v.Advance(50 * time.Millisecond)

	if v, _ := other.Attr("auto"); v != "false" {
		t.Errorf("auto on a loading player off screen = %q, want false", v)
	}
	if v, _ := cur.Attr("auto"); v != "true" {
		t.Errorf("auto on the current player = %q, want true", v)
	}
}
