package automation

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/template"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/vision"
)

// fakeCapturer serves an in-memory frame.
type fakeCapturer struct {
	mu    sync.Mutex
	frame *image.RGBA
}

func newFakeCapturer(w, h int) *fakeCapturer {
	return &fakeCapturer{frame: flatFrame(w, h, 128)}
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

func (f *fakeCapturer) Capture(roi *model.ROI) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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

// fakeInput records injected input as readable event strings.
type fakeInput struct {
	mu      sync.Mutex
	events  []string
	x, y    int
	onClick func(x, y int)
}

func (f *fakeInput) Move(x, y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.x, f.y = x, y
	f.events = append(f.events, fmt.Sprintf("move %d,%d", x, y))
}

func (f *fakeInput) Click(button string, double bool) {
	f.mu.Lock()
	x, y := f.x, f.y
	hook := f.onClick
	f.events = append(f.events, fmt.Sprintf("click %d,%d", x, y))
	f.mu.Unlock()
	if hook != nil {
		hook(x, y)
	}
}

func (f *fakeInput) DragTo(x, y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fmt.Sprintf("drag %d,%d", x, y))
	f.x, f.y = x, y
}

func (f *fakeInput) Scroll(amount int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fmt.Sprintf("scroll %d", amount))
}

func (f *fakeInput) KeyTap(key string, modifiers ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "key "+key)
	return nil
}

func (f *fakeInput) TypeStr(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "type "+text)
}

func (f *fakeInput) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeInput) Count(prefix string) int {
	n := 0
	for _, e := range f.Events() {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// stubStore resolves templates from memory.
type stubStore map[string]*template.Template

func (s stubStore) Get(id string) (*template.Template, bool) {
	t, ok := s[id]
	return t, ok
}

// checkerPatch and stripePatch are two distinguishable 4x4 test patterns.
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

func stripePatch() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := uint8(30)
			if y < 2 {
				v = 220
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func paste(dst *image.RGBA, src *image.RGBA, px, py int) {
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(px+x, py+y, src.At(x, y))
		}
	}
}

func grayTemplate(id string, patch *image.RGBA, threshold float64) *template.Template {
	asset := model.AssetImage{ID: id, Threshold: threshold, Grayscale: true}
	return &template.Template{Asset: asset, Gray: vision.FromImage(patch, true)}
}

// testEnv bundles a context, runner and fakes wired for fast polling.
type testEnv struct {
	ctx    *RunContext
	runner *Runner
	caps   *fakeCapturer
	input  *fakeInput

	mu        sync.Mutex
	steps     []string
	completes []string
	notifies  []string
}

func newTestEnv(script *model.Script, store template.Store) *testEnv {
	env := &testEnv{
		caps:  newFakeCapturer(64, 48),
		input: &fakeInput{},
	}
	env.ctx = NewRunContext(script, store, env.caps, env.input, nil)
	env.ctx.Matcher.SetCaptureTTL(time.Nanosecond)
	env.ctx.Waiter.Base = 5 * time.Millisecond
	env.ctx.Waiter.Max = 20 * time.Millisecond

	env.runner = NewRunner(env.ctx, Callbacks{
		OnStep: func(flow string, index int, action *model.Action) {
			env.mu.Lock()
			env.steps = append(env.steps, fmt.Sprintf("%s:%d", flow, index))
			env.mu.Unlock()
		},
		OnComplete: func(flow string, success bool) {
			env.mu.Lock()
			env.completes = append(env.completes, fmt.Sprintf("%s:%v", flow, success))
			env.mu.Unlock()
		},
		OnNotify: func(title, message string) {
			env.mu.Lock()
			env.notifies = append(env.notifies, title+"|"+message)
			env.mu.Unlock()
		},
	})
	// Flight-recorder settling would slow the fast tests down.
	env.runner.recorder.settleMs = 0
	return env
}

func (e *testEnv) Steps() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.steps))
	copy(out, e.steps)
	return out
}

func (e *testEnv) Completes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.completes))
	copy(out, e.completes)
	return out
}

func (e *testEnv) Notifies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.notifies))
	copy(out, e.notifies)
	return out
}

// waitFor polls cond until true or the deadline passes.
func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
