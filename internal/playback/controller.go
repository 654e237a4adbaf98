package playback

import (
	"log/slog"
	"time"

	"github.com/ivlev/slidesync/internal/config"
	"github.com/ivlev/slidesync/internal/deck"
	"github.com/ivlev/slidesync/internal/player"
	"github.com/ivlev/slidesync/internal/sched"
)

// Options bounds the controller's polling.
type Options struct {
	StartPollInterval time.Duration
	StartPollAttempts int
	Session           SessionConfig
}

// OptionsFromConfig derives Options from the playback section of the config.
func OptionsFromConfig(cfg config.PlaybackConfig) Options {
	return Options{
		StartPollInterval: cfg.StartPollInterval,
		StartPollAttempts: cfg.StartPollAttempts(),
		Session: SessionConfig{
			FallbackRate:  cfg.DefaultSampleRate,
			SafetyTimeout: cfg.SafetyTimeout,
		},
	}
}

// Stats counts what the controller has done since it was created.
type Stats struct {
	Transitions     int
	SessionsStarted int
	Completions     int
	SafetyTimeouts  int
	TornDown        int
	AbandonedStarts int
	Rewinds         int
}

// Controller reacts to slide changes. It owns the single live Session; no
// other code creates or mutates one.
type Controller struct {
	registry deck.Registry
	sched    sched.Scheduler
	opts     Options
	log      *slog.Logger
	observer Observer

	session   *Session
	startPoll sched.Timer
	stats     Stats
}

// NewController creates a controller that resolves players through registry
// and runs on s.
func NewController(registry deck.Registry, s sched.Scheduler, opts Options, log *slog.Logger) *Controller {
	if opts.StartPollInterval <= 0 {
		opts.StartPollInterval = 50 * time.Millisecond
	}
	if opts.StartPollAttempts < 1 {
		opts.StartPollAttempts = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		registry: registry,
		sched:    s,
		opts:     opts,
		log:      log.With("component", "controller"),
	}
}

// SetObserver registers o for session state changes. Call before the first
// navigation.
func (c *Controller) SetObserver(o Observer) {
	c.observer = o
}

// Session returns the live session, or nil.
func (c *Controller) Session() *Session {
	return c.session
}

// Stats returns a copy of the counters.
func (c *Controller) Stats() Stats {
	return c.stats
}

// OnSlideChanged handles a navigation event: it cancels whatever the previous
// event left running, pauses the outgoing player, then starts the incoming one.
func (c *Controller) OnSlideChanged(ev deck.SlideContext) {
	c.stats.Transitions++
	c.log.Debug("slide changed", "from", ev.Previous.String(), "to", ev.Current.String())

	c.cancel()

	// Pause before anything else so two players are never running at once,
	// even if the incoming one cannot be started.
	if el, ok := c.registry.FindPlayer(ev.Previous); ok {
		hold(el, c.log)
	}

	c.Start(ev.Current)
}

// Start requests playback of slide's player and, once the engine has built
// its handle, arms a Session if the player does not loop natively. A
// non-looping player already parked on its end frame is rewound first, so a
// revisited slide plays its animation again.
func (c *Controller) Start(slide *deck.Slide) {
	c.stopStartPoll()

	el, ok := c.registry.FindPlayer(slide)
	if !ok {
		return
	}

	if h := el.Handle(); h != nil && player.LoopDisabled(el) && h.EndFrame() > 0 && h.Frame() >= h.EndFrame() {
		c.log.Debug("rewinding finished player", "player", el.ID(), "frame", h.Frame())
		h.Deactivate()
		h.RequestSeek(0)
		c.stats.Rewinds++
	}

	el.SetAttr(player.AttrAuto, "true")
	if c.arm(el) {
		return
	}

	attempts := 0
	var poll sched.Timer
	poll = c.sched.Every(c.opts.StartPollInterval, func() {
		attempts++
		done := c.arm(el)
		if !done && attempts >= c.opts.StartPollAttempts {
			c.stats.AbandonedStarts++
			c.log.Debug("player never initialised, start abandoned", "player", el.ID(), "attempts", attempts)
			done = true
		}
		if done {
			poll.Stop()
			if c.startPoll == poll {
				c.startPoll = nil
			}
		}
	})
	c.startPoll = poll
}

// arm reports whether el's handle is ready. When it is and the player does not
// loop, it replaces the live session with a new one.
func (c *Controller) arm(el player.Element) bool {
	h := el.Handle()
	if h == nil {
		return false
	}
	if !player.LoopDisabled(el) {
		return true
	}

	c.teardownSession()

	s := newSession(el.ID(), h, c.sched, c.opts.Session, c.log)
	s.observer = c.observer
	s.onDone = c.sessionDone
	c.session = s
	c.stats.SessionsStarted++
	s.Start()
	return true
}

// hold stops el from playing. A player still initialising has its start
// request withdrawn so it comes up paused.
func hold(el player.Element, log *slog.Logger) bool {
	switch {
	case player.Playing(el):
		log.Debug("pausing player", "player", el.ID())
		el.Handle().TogglePlayback()
		return true
	case el.Handle() == nil && player.AutoRequested(el):
		log.Debug("withdrawing start request", "player", el.ID())
		el.SetAttr(player.AttrAuto, "false")
	}
	return false
}

func (c *Controller) sessionDone(s *Session, outcome Outcome) {
	switch outcome {
	case OutcomeCompleted:
		c.stats.Completions++
	case OutcomeTimedOut:
		c.stats.SafetyTimeouts++
	case OutcomeTornDown:
		c.stats.TornDown++
	}
	if c.session == s {
		c.session = nil
	}
}

func (c *Controller) cancel() {
	c.stopStartPoll()
	c.teardownSession()
}

func (c *Controller) stopStartPoll() {
	sched.StopTimer(c.startPoll)
	c.startPoll = nil
}

func (c *Controller) teardownSession() {
	if c.session != nil {
		c.session.Teardown()
		c.session = nil
	}
}
