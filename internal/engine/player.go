package engine

import (
	"time"

	"github.com/ivlev/slidesync/internal/sched"
)

// Player implements player.Handle. It must only be used from the scheduler's
// goroutine.
type Player struct {
	sched    sched.Scheduler
	fps      int
	endFrame int

	frame   int
	active  bool
	paused  bool
	seeking bool
	seekTo  int
	ticker  sched.Timer

	listeners    []listener
	nextListener int
}

type listener struct {
	id int
	fn func(int)
}

// NewPlayer returns an inactive, unpaused player at frame 0.
func NewPlayer(s sched.Scheduler, fps, endFrame int) *Player {
	if fps <= 0 {
		fps = DefaultFPS
	}
	if endFrame < 0 {
		endFrame = 0
	}
	return &Player{sched: s, fps: fps, endFrame: endFrame}
}

func (p *Player) Frame() int    { return p.frame }
func (p *Player) EndFrame() int { return p.endFrame }
func (p *Player) FPS() int      { return p.fps }
func (p *Player) Active() bool  { return p.active }
func (p *Player) Paused() bool  { return p.paused }

// Activate starts the render clock.
func (p *Player) Activate() {
	if p.active {
		return
	}
	p.active = true
	p.ticker = p.sched.Every(time.Second/time.Duration(p.fps), p.render)
}

// Deactivate stops the render clock; the frame stays where it is.
func (p *Player) Deactivate() {
	if !p.active {
		return
	}
	p.active = false
	sched.StopTimer(p.ticker)
	p.ticker = nil
}

func (p *Player) TogglePlayback() {
	p.paused = !p.paused
}

// RequestSeek moves to frame on the next render. An inactive player has no
// render clock, so the seek is applied before RequestSeek returns.
func (p *Player) RequestSeek(frame int) {
	if frame < 0 {
		frame = 0
	}
	if frame > p.endFrame {
		frame = p.endFrame
	}
	p.seekTo = frame
	p.seeking = true
	if !p.active {
		p.applySeek()
	}
}

func (p *Player) OnFrameChanged(fn func(frame int)) func() {
	p.nextListener++
	id := p.nextListener
	p.listeners = append(p.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range p.listeners {
			if l.id == id {
				p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
				return
			}
		}
	}
}

func (p *Player) resume() {
	p.paused = false
	p.Activate()
}

func (p *Player) render() {
	if p.seeking {
		p.applySeek()
		return
	}
	if p.paused {
		return
	}
	p.frame++
	if p.frame > p.endFrame {
		p.frame = 0
	}
	p.notify()
}

func (p *Player) applySeek() {
	if !p.seeking {
		return
	}
	p.seeking = false
	p.frame = p.seekTo
	p.notify()
}

func (p *Player) notify() {
	snapshot := make([]listener, len(p.listeners))
	copy(snapshot, p.listeners)
	for _, l := range snapshot {
		l.fn(p.frame)
	}
}
