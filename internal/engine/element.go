// Package engine is a reference animation engine driven by a sched.Scheduler.
//
// It behaves like the embedded players slidesync was built for: the runtime
// handle appears some time after playback is requested, playback always wraps
// back to frame 0 after the end frame, and there is no "finished" signal.
package engine

import (
	"time"

	"github.com/ivlev/slidesync/internal/player"
	"github.com/ivlev/slidesync/internal/sched"
)

// DefaultFPS is the frame rate used when an element does not declare one.
const DefaultFPS = 60

// ElementConfig describes one embedded player.
type ElementConfig struct {
	ID        string
	Src       string
	Attrs     map[string]string
	FPS       int
	EndFrame  int
	InitDelay time.Duration
}

// Element implements player.Element.
type Element struct {
	cfg       ElementConfig
	sched     sched.Scheduler
	attrs     map[string]string
	handle    *Player
	initTimer sched.Timer
}

// NewElement creates an element whose runtime player is built on s.
func NewElement(s sched.Scheduler, cfg ElementConfig) *Element {
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	attrs := make(map[string]string, len(cfg.Attrs))
	for k, v := range cfg.Attrs {
		attrs[k] = v
	}
	return &Element{cfg: cfg, sched: s, attrs: attrs}
}

func (e *Element) ID() string { return e.cfg.ID }

// Src is the animation bundle the element was declared with.
func (e *Element) Src() string { return e.cfg.Src }

func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// SetAttr stores the attribute. Writing auto="true" asks the engine to play:
// the first request initialises the player after InitDelay, later requests
// resume and reactivate it. A player that finishes initialising while auto
// no longer reads "true" comes up paused.
func (e *Element) SetAttr(name, value string) {
	e.attrs[name] = value
	if name == player.AttrAuto && value == "true" {
		e.requestStart()
	}
}

// Mount is called when the element is placed in the document. An element
// declared with auto="true" starts initialising straight away.
func (e *Element) Mount() {
	if v, _ := e.Attr(player.AttrAuto); v == "true" {
		e.requestStart()
	}
}

// InitDelay is how long the engine takes to build the runtime player.
func (e *Element) InitDelay() time.Duration { return e.cfg.InitDelay }

func (e *Element) Handle() player.Handle {
	if e.handle == nil {
		return nil
	}
	return e.handle
}

// Player returns the concrete runtime player, or nil before initialisation.
func (e *Element) Player() *Player {
	return e.handle
}

func (e *Element) requestStart() {
	if e.handle != nil {
		e.handle.resume()
		return
	}
	if e.initTimer != nil {
		return
	}
	e.initTimer = e.sched.AfterFunc(e.cfg.InitDelay, func() {
		e.initTimer = nil
		e.handle = NewPlayer(e.sched, e.cfg.FPS, e.cfg.EndFrame)
		// The request may have been withdrawn while loading.
		if v, _ := e.Attr(player.AttrAuto); v != "true" {
			e.handle.paused = true
		}
		e.handle.Activate()
	})
}
