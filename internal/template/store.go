// Package template owns decoded reference images. Two store flavors share one
// lookup contract: an eager store that preloads everything up front, and a
// lazy store with a bounded LRU cache for large asset sets.
package template

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"sync"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/vision"
)

// Template is one decoded asset ready for matching. Grayscale-only assets
// carry no color matrix.
type Template struct {
	Asset model.AssetImage
	Gray  *vision.Mat
	Color *vision.Mat
}

// Mat returns the matrix for the requested color mode, falling back to the
// template's own mode when the other is unavailable.
func (t *Template) Mat(gray bool) *vision.Mat {
	if gray || t.Color == nil {
		return t.Gray
	}
	return t.Color
}

// Store resolves an asset id to its decoded template. A missing or corrupt
// asset resolves to nil with ok=false; lookups never panic.
type Store interface {
	Get(id string) (*Template, bool)
}

func decode(asset model.AssetImage) (*Template, error) {
	f, err := os.Open(asset.Path)
	if err != nil {
		return nil, fmt.Errorf("open template %q: %w", asset.Path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode template %q: %w", asset.Path, err)
	}

	t := &Template{Asset: asset, Gray: vision.FromImage(img, true)}
	if !asset.Grayscale {
		t.Color = vision.FromImage(img, false)
	}
	return t, nil
}

// EagerStore decodes every asset at load time. One bad file degrades only
// that asset to "never matches"; the rest load normally.
type EagerStore struct {
	mu        sync.RWMutex
	templates map[string]*Template
	log       *slog.Logger
}

// NewEagerStore creates an empty eager store.
func NewEagerStore(log *slog.Logger) *EagerStore {
	if log == nil {
		log = slog.Default()
	}
	return &EagerStore{templates: make(map[string]*Template), log: log}
}

// Preload decodes all assets and returns one message per asset that failed.
// It never returns an error itself; the caller decides whether the messages
// are fatal.
func (s *EagerStore) Preload(assets []model.AssetImage) []string {
	var errs []string
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, asset := range assets {
		t, err := decode(asset)
		if err != nil {
			errs = append(errs, fmt.Sprintf("asset %q: %v", asset.ID, err))
			s.log.Warn("template preload failed", "asset", asset.ID, "error", err)
			continue
		}
		s.templates[asset.ID] = t
	}
	return errs
}

// Get implements Store.
func (s *EagerStore) Get(id string) (*Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	return t, ok
}

// Len returns the number of loaded templates.
func (s *EagerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}
