package screen

import (
	"log/slog"
	"time"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/vision"
)

// Outcome is the result of a wait.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeTimeout
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "cancelled"
	}
}

// Waiter backoff defaults.
const (
	DefaultPollBase    = 100 * time.Millisecond
	DefaultPollMax     = 500 * time.Millisecond
	backoffAfterMisses = 5
	pollSlice          = 100 * time.Millisecond // cancellation granularity
)

// Waiter polls the matcher until a template appears or vanishes. The poll
// interval starts at Base and grows 1.5x every backoffAfterMisses consecutive
// misses up to Max, snapping back to Base whenever the watched region's
// perceptual hash changes.
type Waiter struct {
	m    *Matcher
	Base time.Duration
	Max  time.Duration
	log  *slog.Logger
}

// NewWaiter builds a waiter with default backoff bounds.
func NewWaiter(m *Matcher, log *slog.Logger) *Waiter {
	if log == nil {
		log = slog.Default()
	}
	return &Waiter{m: m, Base: DefaultPollBase, Max: DefaultPollMax, log: log}
}

// WaitAppear blocks until the asset is found (Success, with the match), the
// timeout elapses (Timeout), or cancel returns true (Cancelled). Matching
// runs in adaptive mode.
func (w *Waiter) WaitAppear(assetID string, roi *model.ROI, timeout time.Duration, cancel func() bool) (Outcome, *model.Match) {
	return w.wait(assetID, roi, timeout, cancel, false)
}

// WaitVanish blocks until the asset is no longer found.
func (w *Waiter) WaitVanish(assetID string, roi *model.ROI, timeout time.Duration, cancel func() bool) Outcome {
	outcome, _ := w.wait(assetID, roi, timeout, cancel, true)
	return outcome
}

func (w *Waiter) wait(assetID string, roi *model.ROI, timeout time.Duration, cancel func() bool, vanish bool) (Outcome, *model.Match) {
	deadline := time.Now().Add(timeout)
	interval := w.Base
	if interval <= 0 {
		interval = DefaultPollBase
	}
	max := w.Max
	if max <= 0 {
		max = DefaultPollMax
	}

	misses := 0
	var lastHash uint64
	hashed := false

	for {
		if cancel != nil && cancel() {
			return OutcomeCancelled, nil
		}
		if !time.Now().Before(deadline) {
			return OutcomeTimeout, nil
		}

		match, err := w.m.Find(assetID, roi, true)
		if err != nil {
			// Missing asset or capture failure degrades to "not visible".
			w.log.Debug("wait poll failed", "asset", assetID, "error", err)
			match = nil
		}
		if vanish {
			if match == nil {
				return OutcomeSuccess, nil
			}
		} else if match != nil {
			return OutcomeSuccess, match
		}

		// Miss. Reset the backoff when the region visibly changed, since a
		// changing screen is worth polling closely.
		if frame, _, ferr := w.m.CaptureRegion(roi, true); ferr == nil {
			h := vision.HashMat(frame)
			if hashed && vision.Distance(lastHash, h) > 1 {
				interval = w.Base
				misses = 0
			}
			lastHash, hashed = h, true
		}

		misses++
		if misses%backoffAfterMisses == 0 {
			interval = time.Duration(float64(interval) * 1.5)
			if interval > max {
				interval = max
			}
		}

		// Cancellation during the sleep is caught at the top of the loop.
		sleepChunked(interval, deadline, cancel)
	}
}

// WaitPixel blocks until the pixel at (x, y) is within tolerance of the hex
// color, the timeout elapses, or cancel fires. Fixed Base-interval polling;
// pixel reads are cheap enough to skip backoff.
func (w *Waiter) WaitPixel(x, y int, color string, tolerance int, timeout time.Duration, cancel func() bool) Outcome {
	deadline := time.Now().Add(timeout)
	interval := w.Base
	if interval <= 0 {
		interval = DefaultPollBase
	}
	for {
		if cancel != nil && cancel() {
			return OutcomeCancelled
		}
		if !time.Now().Before(deadline) {
			return OutcomeTimeout
		}
		ok, err := w.m.PixelMatches(x, y, color, tolerance)
		if err != nil {
			w.log.Debug("pixel poll failed", "x", x, "y", y, "error", err)
		} else if ok {
			return OutcomeSuccess
		}
		sleepChunked(interval, deadline, cancel)
	}
}

// sleepChunked sleeps for d in slices no longer than pollSlice, stopping
// early at the deadline or when cancel fires. Returns false when cancelled.
func sleepChunked(d time.Duration, deadline time.Time, cancel func() bool) bool {
	for d > 0 {
		if cancel != nil && cancel() {
			return false
		}
		slice := d
		if slice > pollSlice {
			slice = pollSlice
		}
		if remain := time.Until(deadline); remain < slice {
			if remain <= 0 {
				return true
			}
			slice = remain
		}
		time.Sleep(slice)
		d -= slice
	}
	return true
}
