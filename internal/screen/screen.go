// Package screen finds templates on the live screen: capture (with a
// short-lived cache), normalized correlation matching, and polling waits with
// adaptive backoff.
package screen

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
)

// Capturer is the fixed-contract pixel source. A nil or empty ROI means the
// full screen.
type Capturer interface {
	Capture(roi *model.ROI) (image.Image, error)
	PixelColor(x, y int) string // hex rrggbb, no prefix
	Size() (w, h int)
}

// resolveROI clamps the requested region to the screen, defaulting to the
// full screen when empty.
func resolveROI(c Capturer, roi *model.ROI) model.ROI {
	w, h := c.Size()
	if roi.Empty() {
		return model.ROI{X: 0, Y: 0, Width: w, Height: h}
	}
	r := *roi
	if r.X < 0 {
		r.X = 0
	}
	if r.Y < 0 {
		r.Y = 0
	}
	if r.X+r.Width > w {
		r.Width = w - r.X
	}
	if r.Y+r.Height > h {
		r.Height = h - r.Y
	}
	return r
}

// colorDelta returns the largest per-channel difference between two hex
// rrggbb colors, or an error when either fails to parse.
func colorDelta(a, b string) (int, error) {
	pa, err := parseHexColor(a)
	if err != nil {
		return 0, err
	}
	pb, err := parseHexColor(b)
	if err != nil {
		return 0, err
	}
	max := 0
	for i := 0; i < 3; i++ {
		d := pa[i] - pb[i]
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max, nil
}

func parseHexColor(s string) ([3]int, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "#")
	var c [3]int
	if len(s) != 6 {
		return c, fmt.Errorf("bad color %q", s)
	}
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseInt(s[i*2:i*2+2], 16, 32)
		if err != nil {
			return c, fmt.Errorf("bad color %q: %w", s, err)
		}
		c[i] = int(v)
	}
	return c, nil
}
