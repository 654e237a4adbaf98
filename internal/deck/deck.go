// Package deck models a presentation: its slides, the players embedded in
// them, and the presenter that navigates between slides.
package deck

import (
	"errors"
	"fmt"

	"github.com/ivlev/slidesync/internal/player"
	"github.com/ivlev/slidesync/internal/source"
)

// ErrSlideOutOfRange is returned when navigating to a slide that does not exist.
var ErrSlideOutOfRange = errors.New("slide out of range")

// Slide is one page of the deck. Index is 0-based.
type Slide struct {
	Index  int
	ID     string
	Title  string
	Width  float64
	Height float64
}

func (s *Slide) String() string {
	if s == nil {
		return "<none>"
	}
	return s.ID
}

// SlideContext is the payload of a slide-changed event. Previous is nil on the
// first navigation.
type SlideContext struct {
	Previous *Slide
	Current  *Slide
}

// Registry locates the player embedded in a slide.
type Registry interface {
	// FindPlayer returns the slide's player, if it has one. Only one player
	// per slide is supported.
	FindPlayer(slide *Slide) (player.Element, bool)
	// FindAllPlayers returns every player in the deck, in slide order.
	FindAllPlayers() []player.Element
}

// ElementFactory builds the engine-side element for a declared player.
type ElementFactory func(slide *Slide, p *PlayerManifest) player.Element

// Deck is the loaded presentation. It implements Registry.
type Deck struct {
	slides  []*Slide
	players map[int]player.Element
}

// Build assembles a deck from a page source and a manifest. src may be nil,
// in which case the manifest alone determines the slide count.
func Build(src source.Source, m *Manifest, newElement ElementFactory) (*Deck, error) {
	if m == nil {
		m = &Manifest{}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	count := m.lastIndex()
	if src != nil {
		pages := src.PageCount()
		if last := m.lastIndex(); last > pages {
			return nil, fmt.Errorf("manifest refers to slide %d but the source has %d pages: %w", last, pages, ErrSlideOutOfRange)
		}
		count = pages
	}
	if count == 0 {
		return nil, errors.New("deck has no slides")
	}

	d := &Deck{
		slides:  make([]*Slide, count),
		players: make(map[int]player.Element),
	}

	for i := 0; i < count; i++ {
		s := &Slide{Index: i, ID: fmt.Sprintf("slide-%d", i+1)}
		if src != nil {
			if w, h, err := src.GetPageDimensions(i); err == nil {
				s.Width, s.Height = w, h
			}
			s.Title = src.PageTitle(i)
		}
		d.slides[i] = s
	}

	for _, sm := range m.Slides {
		s := d.slides[sm.Index-1]
		if sm.ID != "" {
			s.ID = sm.ID
		}
		if sm.Title != "" {
			s.Title = sm.Title
		}
		if sm.Player != nil && newElement != nil {
			d.players[s.Index] = newElement(s, sm.Player)
		}
	}

	return d, nil
}

// Len returns the number of slides.
func (d *Deck) Len() int {
	return len(d.slides)
}

// Slide returns the slide at index, or nil.
func (d *Deck) Slide(index int) *Slide {
	if index < 0 || index >= len(d.slides) {
		return nil
	}
	return d.slides[index]
}

func (d *Deck) FindPlayer(slide *Slide) (player.Element, bool) {
	if slide == nil {
		return nil, false
	}
	el, ok := d.players[slide.Index]
	return el, ok
}

func (d *Deck) FindAllPlayers() []player.Element {
	var out []player.Element
	for _, s := range d.slides {
		if el, ok := d.players[s.Index]; ok {
			out = append(out, el)
		}
	}
	return out
}
