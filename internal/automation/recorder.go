package automation

import (
	"log/slog"
	"time"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/screen"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/vision"
)

// flightRecorder hashes the screen around click-like actions and warns when
// nothing visibly changed, the usual sign of a click that landed nowhere.
// Diagnostic only: it never blocks or retries.
type flightRecorder struct {
	caps     screen.Capturer
	settleMs time.Duration
	log      *slog.Logger
}

func newFlightRecorder(caps screen.Capturer, log *slog.Logger) *flightRecorder {
	return &flightRecorder{caps: caps, settleMs: 100 * time.Millisecond, log: log}
}

// watches reports whether the recorder wraps this action kind.
func (f *flightRecorder) watches(kind model.ActionKind) bool {
	switch kind {
	case model.KindClick, model.KindClickImage, model.KindClickRandom, model.KindDrag:
		return true
	}
	return false
}

// wrap runs fn between two screen hashes taken ~settleMs apart.
func (f *flightRecorder) wrap(kind model.ActionKind, fn func() error) error {
	before, berr := f.snapshot()
	err := fn()
	if berr != nil {
		return err
	}
	time.Sleep(f.settleMs)
	after, aerr := f.snapshot()
	if aerr == nil && vision.Distance(before, after) <= 1 {
		f.log.Warn("no visual change after action", "kind", kind)
	}
	return err
}

func (f *flightRecorder) snapshot() (uint64, error) {
	img, err := f.caps.Capture(nil)
	if err != nil {
		return 0, err
	}
	return vision.Hash(img), nil
}
