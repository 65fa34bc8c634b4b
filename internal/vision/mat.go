// Package vision implements the pixel-level primitives behind screen
// matching: a small float matrix type, normalized template correlation, and a
// DCT perceptual hash for change detection.
package vision

import (
	"image"
)

// Mat is a dense float64 pixel matrix, one or three interleaved channels.
// Values are in [0,255].
type Mat struct {
	W, H, Ch int
	Data     []float64
}

// NewMat allocates a zeroed matrix.
func NewMat(w, h, ch int) *Mat {
	return &Mat{W: w, H: h, Ch: ch, Data: make([]float64, w*h*ch)}
}

// At returns the value at (x, y, c).
func (m *Mat) At(x, y, c int) float64 {
	return m.Data[(y*m.W+x)*m.Ch+c]
}

// Set writes the value at (x, y, c).
func (m *Mat) Set(x, y, c int, v float64) {
	m.Data[(y*m.W+x)*m.Ch+c] = v
}

// luma is the BT.601 weighting used everywhere a color pixel collapses to one
// channel.
func luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// FromImage converts an image to a matrix, collapsing to a single luma
// channel when gray is set.
func FromImage(img image.Image, gray bool) *Mat {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	ch := 3
	if gray {
		ch = 1
	}
	m := NewMat(w, h, ch)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r := float64(r16 >> 8)
			g := float64(g16 >> 8)
			b := float64(b16 >> 8)
			if gray {
				m.Data[i] = luma(r, g, b)
				i++
			} else {
				m.Data[i] = r
				m.Data[i+1] = g
				m.Data[i+2] = b
				i += 3
			}
		}
	}
	return m
}
