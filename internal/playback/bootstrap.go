package playback

import (
	"log/slog"
	"time"

	"github.com/ivlev/slidesync/internal/deck"
	"github.com/ivlev/slidesync/internal/player"
	"github.com/ivlev/slidesync/internal/sched"
)

// Host is the presentation framework the controller attaches to.
type Host interface {
	Ready() bool
	CurrentSlide() *deck.Slide
	OnSlideChanged(fn func(deck.SlideContext))
}

// DefaultReadyPollInterval is used when NewBootstrap gets no usable interval.
const DefaultReadyPollInterval = 50 * time.Millisecond

type bootState int

const (
	bootIdle bootState = iota
	bootPolling
	bootWired
	bootGaveUp
)

// Bootstrap performs the one-time wiring between a Host and a Controller.
type Bootstrap struct {
	host     Host
	registry deck.Registry
	ctrl     *Controller
	sched    sched.Scheduler
	interval time.Duration
	limit    int
	log      *slog.Logger

	state    bootState
	attempts int
	poll     sched.Timer
}

// NewBootstrap polls host every interval, at most limit times. A non-positive
// interval falls back to DefaultReadyPollInterval.
func NewBootstrap(host Host, registry deck.Registry, ctrl *Controller, s sched.Scheduler, interval time.Duration, limit int, log *slog.Logger) *Bootstrap {
	if interval <= 0 {
		interval = DefaultReadyPollInterval
	}
	if limit < 1 {
		limit = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bootstrap{
		host:     host,
		registry: registry,
		ctrl:     ctrl,
		sched:    s,
		interval: interval,
		limit:    limit,
		log:      log.With("component", "bootstrap"),
	}
}

// Start begins polling. Calling it again is a no-op.
func (b *Bootstrap) Start() {
	if b.state != bootIdle {
		return
	}
	b.state = bootPolling
	b.poll = b.sched.Every(b.interval, b.tick)
}

// Wired reports whether the controller has been registered with the host.
func (b *Bootstrap) Wired() bool {
	return b.state == bootWired
}

// Attempts returns how many readiness checks have run.
func (b *Bootstrap) Attempts() int {
	return b.attempts
}

func (b *Bootstrap) tick() {
	if b.state != bootPolling {
		return
	}
	b.attempts++

	if b.host.Ready() {
		b.stop(bootWired)
		b.wire()
		return
	}

	if b.attempts >= b.limit {
		b.stop(bootGaveUp)
		b.log.Warn("host never became ready, playback sync disabled", "attempts", b.attempts)
	}
}

func (b *Bootstrap) stop(next bootState) {
	sched.StopTimer(b.poll)
	b.poll = nil
	b.state = next
}

func (b *Bootstrap) wire() {
	current := b.host.CurrentSlide()
	currentEl, hasCurrent := b.registry.FindPlayer(current)
	autoStart := hasCurrent && player.AutoRequested(currentEl)

	paused := 0
	for _, el := range b.registry.FindAllPlayers() {
		if hasCurrent && el == currentEl && el.Handle() == nil {
			continue
		}
		if hold(el, b.log) {
			paused++
		}
	}

	if autoStart {
		b.ctrl.Start(current)
	}

	b.host.OnSlideChanged(b.ctrl.OnSlideChanged)
	b.log.Info("playback sync ready", "slide", current.String(), "paused", paused, "attempts", b.attempts)
}
