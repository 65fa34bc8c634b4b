package screen

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/template"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/vision"
)

// AdaptiveFloor is the score accepted in adaptive mode regardless of the
// asset's own threshold. Unattended scripts prefer a degraded match over a
// stall when the screen drifts (theme changes, antialiasing).
const AdaptiveFloor = 0.6

// DefaultFindAllLimit caps FindAll results.
const DefaultFindAllLimit = 10

// Matcher locates templates in captured screen regions.
type Matcher struct {
	caps  Capturer
	store template.Store
	cache *captureCache
	log   *slog.Logger
}

// NewMatcher builds a matcher over the given capturer and template store.
func NewMatcher(caps Capturer, store template.Store, log *slog.Logger) *Matcher {
	if log == nil {
		log = slog.Default()
	}
	return &Matcher{
		caps:  caps,
		store: store,
		cache: newCaptureCache(DefaultCaptureTTL),
		log:   log,
	}
}

// SetCaptureTTL overrides the capture-cache TTL. Zero restores the default.
func (m *Matcher) SetCaptureTTL(ttl time.Duration) {
	m.cache = newCaptureCache(ttl)
}

// CaptureRegion returns the converted frame for the region, reusing a cached
// capture when one is fresh. The returned ROI is the clamped region actually
// captured.
func (m *Matcher) CaptureRegion(roi *model.ROI, gray bool) (*vision.Mat, model.ROI, error) {
	r := resolveROI(m.caps, roi)
	key := captureKey{x: r.X, y: r.Y, w: r.Width, h: r.Height, gray: gray}
	if mat, ok := m.cache.get(key); ok {
		return mat, r, nil
	}
	img, err := m.caps.Capture(&r)
	if err != nil {
		return nil, r, fmt.Errorf("capture %dx%d@%d,%d: %w", r.Width, r.Height, r.X, r.Y, err)
	}
	mat := vision.FromImage(img, gray)
	m.cache.put(key, mat)
	return mat, r, nil
}

// ClearCache drops every cached capture. The runner calls this after each
// effector action so post-action checks never see a pre-action frame.
func (m *Matcher) ClearCache() {
	m.cache.clear()
}

// searchRegion picks the region for an asset lookup: explicit ROI first, then
// the asset's default, then full screen.
func searchRegion(asset *model.AssetImage, roi *model.ROI) *model.ROI {
	if !roi.Empty() {
		return roi
	}
	return asset.ROI
}

// Find returns the best on-screen occurrence of the asset inside the region,
// or nil when nothing scores high enough. In adaptive mode a score reaching
// AdaptiveFloor is accepted below the asset threshold and logged as degraded.
// Coordinates are absolute screen pixels.
func (m *Matcher) Find(assetID string, roi *model.ROI, adaptive bool) (*model.Match, error) {
	tpl, ok := m.store.Get(assetID)
	if !ok {
		return nil, fmt.Errorf("asset %q not available", assetID)
	}

	frame, r, err := m.CaptureRegion(searchRegion(&tpl.Asset, roi), tpl.Asset.Grayscale)
	if err != nil {
		return nil, err
	}

	loc, ok := vision.MatchTemplate(frame, tpl.Mat(tpl.Asset.Grayscale), tpl.Asset.Method)
	if !ok {
		return nil, nil
	}

	threshold := tpl.Asset.Threshold
	switch {
	case loc.Score >= threshold:
	case adaptive && loc.Score >= AdaptiveFloor:
		m.log.Warn("degraded match accepted",
			"asset", assetID, "score", loc.Score, "threshold", threshold)
	default:
		return nil, nil
	}

	t := tpl.Mat(tpl.Asset.Grayscale)
	return &model.Match{
		X:          r.X + loc.X,
		Y:          r.Y + loc.Y,
		Width:      t.W,
		Height:     t.H,
		Confidence: loc.Score,
	}, nil
}

// FindAll returns every occurrence scoring at least the asset threshold,
// ranked by score and capped at limit (DefaultFindAllLimit when <= 0).
func (m *Matcher) FindAll(assetID string, roi *model.ROI, limit int) ([]model.Match, error) {
	tpl, ok := m.store.Get(assetID)
	if !ok {
		return nil, fmt.Errorf("asset %q not available", assetID)
	}
	if limit <= 0 {
		limit = DefaultFindAllLimit
	}

	frame, r, err := m.CaptureRegion(searchRegion(&tpl.Asset, roi), tpl.Asset.Grayscale)
	if err != nil {
		return nil, err
	}

	t := tpl.Mat(tpl.Asset.Grayscale)
	locs := vision.MatchAll(frame, t, tpl.Asset.Method, tpl.Asset.Threshold, limit)
	matches := make([]model.Match, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, model.Match{
			X:          r.X + loc.X,
			Y:          r.Y + loc.Y,
			Width:      t.W,
			Height:     t.H,
			Confidence: loc.Score,
		})
	}
	return matches, nil
}

// PixelMatches reports whether the pixel at (x, y) is within tolerance of the
// hex color.
func (m *Matcher) PixelMatches(x, y int, color string, tolerance int) (bool, error) {
	delta, err := colorDelta(m.caps.PixelColor(x, y), color)
	if err != nil {
		return false, err
	}
	return delta <= tolerance, nil
}
