package playback

import (
	"fmt"

	"github.com/ivlev/slidesync/internal/deck"
	"github.com/ivlev/slidesync/internal/player"
	"github.com/ivlev/slidesync/internal/sched"
)

type seekMode int

const (
	// seekDeliver applies the seek and notifies on the next scheduler turn,
	// or at once when the handle is inactive.
	seekDeliver seekMode = iota
	// seekHold records the seek; the test delivers it with deliverSeek.
	seekHold
	// seekDrop records the seek and never notifies.
	seekDrop
)

// fakeHandle is a player.Handle whose frame the test sets directly.
type fakeHandle struct {
	name     string
	sched    sched.Scheduler
	trace    *[]string
	frame    int
	endFrame int
	fps      int
	active   bool
	paused   bool
	mode     seekMode

	seeks         []int
	pendingSeek   int
	activations   int
	deactivations int
	frameReads    int

	listeners map[int]func(int)
	nextID    int
}

func newFakeHandle(s sched.Scheduler, name string, endFrame, fps int) *fakeHandle {
	return &fakeHandle{
		name:      name,
		sched:     s,
		endFrame:  endFrame,
		fps:       fps,
		active:    true,
		listeners: make(map[int]func(int)),
	}
}

func (h *fakeHandle) record(op string) {
	if h.trace != nil {
		*h.trace = append(*h.trace, fmt.Sprintf("%s:%s", op, h.name))
	}
}

func (h *fakeHandle) Frame() int {
	h.frameReads++
	return h.frame
}

func (h *fakeHandle) EndFrame() int { return h.endFrame }
func (h *fakeHandle) FPS() int      { return h.fps }
func (h *fakeHandle) Active() bool  { return h.active }
func (h *fakeHandle) Paused() bool  { return h.paused }

func (h *fakeHandle) Activate() {
	h.activations++
	h.active = true
}

func (h *fakeHandle) Deactivate() {
	h.deactivations++
	h.active = false
}

func (h *fakeHandle) TogglePlayback() {
	h.record("toggle")
	h.paused = !h.paused
}

func (h *fakeHandle) RequestSeek(frame int) {
	h.seeks = append(h.seeks, frame)
	h.pendingSeek = frame
	switch {
	case h.mode != seekDeliver:
	case !h.active:
		h.deliverSeek()
	default:
		h.sched.Post(h.deliverSeek)
	}
}

func (h *fakeHandle) deliverSeek() {
	h.frame = h.pendingSeek
	h.notify(h.frame)
}

func (h *fakeHandle) notify(frame int) {
	for id := 0; id <= h.nextID; id++ {
		if fn, ok := h.listeners[id]; ok {
			fn(frame)
		}
	}
}

func (h *fakeHandle) OnFrameChanged(fn func(int)) func() {
	h.nextID++
	id := h.nextID
	h.listeners[id] = fn
	return func() { delete(h.listeners, id) }
}

// fakeElement exposes its handle only once ready is set.
type fakeElement struct {
	id     string
	attrs  map[string]string
	handle *fakeHandle
	ready  bool
	trace  *[]string
}

func newFakeElement(id string, h *fakeHandle, loop string) *fakeElement {
	attrs := map[string]string{}
	if loop != "" {
		attrs[player.AttrLoop] = loop
	}
	return &fakeElement{id: id, attrs: attrs, handle: h, ready: true}
}

func (e *fakeElement) ID() string { return e.id }

func (e *fakeElement) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *fakeElement) SetAttr(name, value string) {
	if e.trace != nil {
		*e.trace = append(*e.trace, fmt.Sprintf("%s=%s:%s", name, value, e.id))
	}
	e.attrs[name] = value
	if name == player.AttrAuto && value == "true" && e.handle != nil {
		e.handle.paused = false
	}
}

func (e *fakeElement) Handle() player.Handle {
	if !e.ready || e.handle == nil {
		return nil
	}
	return e.handle
}

type fakeRegistry struct {
	players map[*deck.Slide]player.Element
	order   []*deck.Slide
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{players: make(map[*deck.Slide]player.Element)}
}

func (r *fakeRegistry) add(slide *deck.Slide, el player.Element) {
	r.players[slide] = el
	r.order = append(r.order, slide)
}

func (r *fakeRegistry) FindPlayer(slide *deck.Slide) (player.Element, bool) {
	el, ok := r.players[slide]
	return el, ok
}

func (r *fakeRegistry) FindAllPlayers() []player.Element {
	var out []player.Element
	for _, s := range r.order {
		out = append(out, r.players[s])
	}
	return out
}

type fakeHost struct {
	ready     bool
	current   *deck.Slide
	listeners []func(deck.SlideContext)
}

func (h *fakeHost) Ready() bool                { return h.ready }
func (h *fakeHost) CurrentSlide() *deck.Slide { return h.current }

func (h *fakeHost) OnSlideChanged(fn func(deck.SlideContext)) {
	h.listeners = append(h.listeners, fn)
}

func (h *fakeHost) navigate(to *deck.Slide) {
	ev := deck.SlideContext{Previous: h.current, Current: to}
	h.current = to
	for _, fn := range h.listeners {
		fn(ev)
	}
}

type recordingObserver struct {
	states []State
}

func (o *recordingObserver) SessionStateChanged(playerID string, st State) {
	o.states = append(o.states, st)
}

func slide(i int) *deck.Slide {
	return &deck.Slide{Index: i, ID: fmt.Sprintf("slide-%d", i+1)}
}
