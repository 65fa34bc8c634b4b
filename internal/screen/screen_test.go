package screen

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/template"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/vision"
)

// fakeCapturer serves an in-memory frame and counts captures.
type fakeCapturer struct {
	mu       sync.Mutex
	frame    *image.RGBA
	captures int
}

func newFakeCapturer(w, h int) *fakeCapturer {
	f := &fakeCapturer{}
	f.frame = flatFrame(w, h, 128)
	return f
}

func flatFrame(w, h int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func (f *fakeCapturer) SetFrame(img *image.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frame = img
}

func (f *fakeCapturer) Captures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.captures
}

func (f *fakeCapturer) Capture(roi *model.ROI) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captures++
	r := f.frame.Bounds()
	if !roi.Empty() {
		r = image.Rect(roi.X, roi.Y, roi.X+roi.Width, roi.Y+roi.Height)
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			out.Set(x, y, f.frame.At(r.Min.X+x, r.Min.Y+y))
		}
	}
	return out, nil
}

func (f *fakeCapturer) PixelColor(x, y int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.frame.RGBAAt(x, y)
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

func (f *fakeCapturer) Size() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame.Bounds().Dx(), f.frame.Bounds().Dy()
}

// stubStore resolves templates from a map, no disk involved.
type stubStore map[string]*template.Template

func (s stubStore) Get(id string) (*template.Template, bool) {
	t, ok := s[id]
	return t, ok
}

// checkerPatch is a 4x4 high-contrast pattern with enough variance for
// zero-mean correlation.
func checkerPatch() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := uint8(30)
			if (x+y)%2 == 0 {
				v = 220
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// degradedPatch blends the checker pattern with an orthogonal stripe pattern
// so its correlation against checkerPatch comes out at exactly 0.8.
func degradedPatch() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := 128
			if (x+y)%2 == 0 {
				v += 40
			} else {
				v -= 40
			}
			if y < 2 {
				v += 30
			} else {
				v -= 30
			}
			img.Set(x, y, color.RGBA{uint8(v), uint8(v), uint8(v), 255})
		}
	}
	return img
}

// paste copies src into dst at (px, py).
func paste(dst *image.RGBA, src *image.RGBA, px, py int) {
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(px+x, py+y, src.At(x, y))
		}
	}
}

func checkerAsset(id string, threshold float64) (*template.Template, model.AssetImage) {
	asset := model.AssetImage{ID: id, Threshold: threshold, Grayscale: true}
	tpl := &template.Template{Asset: asset, Gray: vision.FromImage(checkerPatch(), true)}
	return tpl, asset
}
