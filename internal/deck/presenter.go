package deck

import (
	"fmt"
	"log/slog"
)

// Presenter is the host side of a deck: it knows which slide is showing and
// announces every change. Its methods must be called from the scheduler's
// goroutine; listeners run synchronously on it.
type Presenter struct {
	deck      *Deck
	current   int
	ready     bool
	listeners []func(SlideContext)
	log       *slog.Logger
}

// NewPresenter shows slide start (0-based) once ready.
func NewPresenter(d *Deck, start int, log *slog.Logger) (*Presenter, error) {
	if d.Slide(start) == nil {
		return nil, fmt.Errorf("start slide %d of %d: %w", start+1, d.Len(), ErrSlideOutOfRange)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Presenter{deck: d, current: start, log: log.With("component", "presenter")}, nil
}

// Ready reports whether the presenter has finished loading.
func (p *Presenter) Ready() bool {
	return p.ready
}

// MarkReady flags the presenter as loaded.
func (p *Presenter) MarkReady() {
	p.ready = true
}

// CurrentSlide returns the slide being shown.
func (p *Presenter) CurrentSlide() *Slide {
	return p.deck.Slide(p.current)
}

// OnSlideChanged registers fn for future navigation events.
func (p *Presenter) OnSlideChanged(fn func(SlideContext)) {
	p.listeners = append(p.listeners, fn)
}

// GoTo shows the slide at index. Going to the current slide does nothing.
func (p *Presenter) GoTo(index int) error {
	next := p.deck.Slide(index)
	if next == nil {
		return fmt.Errorf("go to slide %d of %d: %w", index+1, p.deck.Len(), ErrSlideOutOfRange)
	}
	if index == p.current {
		return nil
	}

	ev := SlideContext{Previous: p.CurrentSlide(), Current: next}
	p.current = index
	p.log.Debug("slide changed", "from", ev.Previous.ID, "to", ev.Current.ID)

	for _, fn := range p.listeners {
		fn(ev)
	}
	return nil
}

// Next advances one slide; on the last slide it does nothing.
func (p *Presenter) Next() {
	if p.current+1 < p.deck.Len() {
		p.GoTo(p.current + 1)
	}
}

// Prev goes back one slide; on the first slide it does nothing.
func (p *Presenter) Prev() {
	if p.current > 0 {
		p.GoTo(p.current - 1)
	}
}

// First shows the first slide.
func (p *Presenter) First() {
	p.GoTo(0)
}

// Last shows the last slide.
func (p *Presenter) Last() {
	p.GoTo(p.deck.Len() - 1)
}
