package deck

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/slidesync/internal/source"
)

// Manifest declares which slides of a deck carry an animation player.
type Manifest struct {
	Version    string          `yaml:"version"`
	SlideCount int             `yaml:"slide_count,omitempty"`
	Slides     []SlideManifest `yaml:"slides"`
}

// SlideManifest describes one slide. Index is 1-based, like page numbers.
type SlideManifest struct {
	Index  int             `yaml:"index"`
	ID     string          `yaml:"id,omitempty"`
	Title  string          `yaml:"title,omitempty"`
	Player *PlayerManifest `yaml:"player,omitempty"`
}

// PlayerManifest describes the single embedded player of a slide. Loop and
// Auto are kept as the raw attribute strings the engine will see.
type PlayerManifest struct {
	ID        string        `yaml:"id"`
	Src       string        `yaml:"src,omitempty"`
	Loop      string        `yaml:"loop,omitempty"`
	Auto      string        `yaml:"auto,omitempty"`
	FPS       int           `yaml:"fps,omitempty"`
	EndFrame  int           `yaml:"end_frame"`
	InitDelay time.Duration `yaml:"init_delay,omitempty"`
}

// ScaffoldManifest lists every page of src as a slide without a player, ready
// to be filled in by hand.
func ScaffoldManifest(src source.Source) *Manifest {
	n := src.PageCount()
	m := &Manifest{Version: "1", SlideCount: n, Slides: make([]SlideManifest, 0, n)}
	for i := 0; i < n; i++ {
		m.Slides = append(m.Slides, SlideManifest{Index: i + 1, Title: src.PageTitle(i)})
	}
	return m
}

// WriteManifest writes a manifest to a YAML file
func WriteManifest(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadManifest reads and validates a manifest from a YAML file
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks slide indexes and player declarations, reporting every
// problem at once.
func (m *Manifest) Validate() error {
	var errs []string
	seen := make(map[int]bool)
	players := make(map[string]bool)

	for i, s := range m.Slides {
		if s.Index < 1 {
			errs = append(errs, fmt.Sprintf("slides[%d].index must be >= 1", i))
		}
		if seen[s.Index] {
			errs = append(errs, fmt.Sprintf("slides[%d].index %d is declared twice", i, s.Index))
		}
		seen[s.Index] = true

		if m.SlideCount > 0 && s.Index > m.SlideCount {
			errs = append(errs, fmt.Sprintf("slides[%d].index %d exceeds slide_count %d", i, s.Index, m.SlideCount))
		}

		if p := s.Player; p != nil {
			if p.ID == "" {
				errs = append(errs, fmt.Sprintf("slides[%d].player.id is required", i))
			} else if players[p.ID] {
				errs = append(errs, fmt.Sprintf("slides[%d].player.id %q is not unique", i, p.ID))
			}
			players[p.ID] = true
			if p.EndFrame < 0 {
				errs = append(errs, fmt.Sprintf("slides[%d].player.end_frame must be >= 0", i))
			}
			if p.FPS < 0 {
				errs = append(errs, fmt.Sprintf("slides[%d].player.fps must be >= 0", i))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("manifest errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// lastIndex returns the highest slide index the manifest mentions.
func (m *Manifest) lastIndex() int {
	n := m.SlideCount
	for _, s := range m.Slides {
		if s.Index > n {
			n = s.Index
		}
	}
	return n
}

// ManifestFileName is looked up inside an image directory deck.
const ManifestFileName = "deck.yaml"

// FindManifest looks for the manifest that sits next to a deck: talk.yaml or
// talk.deck.yaml beside talk.pdf, or deck.yaml inside an image directory. It
// returns an empty path when there is none.
func FindManifest(deckPath string) string {
	var candidates []string
	if fi, err := os.Stat(deckPath); err == nil && fi.IsDir() {
		candidates = append(candidates, filepath.Join(deckPath, ManifestFileName))
	} else {
		base := strings.TrimSuffix(deckPath, filepath.Ext(deckPath))
		candidates = append(candidates, base+".yaml", base+".deck.yaml")
	}

	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return c
		}
	}
	return ""
}
