package model

// MatchMethod selects the correlation variant used for template matching.
type MatchMethod string

const (
	// MatchCCoeffNormed is zero-mean normalized cross-correlation, the default.
	MatchCCoeffNormed MatchMethod = "ccoeff_normed"
	// MatchCCorrNormed is plain normalized cross-correlation.
	MatchCCorrNormed MatchMethod = "ccorr_normed"
)

// AssetImage describes one reference template: where its pixels live on disk
// and how matches against it are scored. Decoded once by the template store,
// never mutated.
type AssetImage struct {
	ID        string      `json:"id" yaml:"id"`
	Path      string      `json:"path" yaml:"path"`
	Threshold float64     `json:"threshold" yaml:"threshold"` // accept score >= this, in [0,1]
	Method    MatchMethod `json:"method,omitempty" yaml:"method,omitempty"`
	Grayscale bool        `json:"grayscale,omitempty" yaml:"grayscale,omitempty"`
	ROI       *ROI        `json:"roi,omitempty" yaml:"roi,omitempty"` // default search region
}

// ROI is a rectangular screen region in absolute pixels.
type ROI struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Empty reports whether the ROI is unset (full screen).
func (r *ROI) Empty() bool {
	return r == nil || r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the point lies inside the region.
func (r *ROI) Contains(x, y int) bool {
	return x >= r.X && y >= r.Y && x < r.X+r.Width && y < r.Y+r.Height
}

// Match is a located, scored occurrence of a template on screen, in absolute
// coordinates. Transient except for the run context's last-match slot.
type Match struct {
	X          int
	Y          int
	Width      int
	Height     int
	Confidence float64
}

// Center returns the midpoint of the matched rectangle.
func (m *Match) Center() (int, int) {
	return m.X + m.Width/2, m.Y + m.Height/2
}
