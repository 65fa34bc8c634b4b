package screen

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWaiter(caps *fakeCapturer, threshold float64) *Waiter {
	tpl, _ := checkerAsset("btn", threshold)
	m := NewMatcher(caps, stubStore{"btn": tpl}, nil)
	m.SetCaptureTTL(time.Nanosecond) // every poll sees the live frame
	w := NewWaiter(m, nil)
	w.Base = 10 * time.Millisecond
	w.Max = 40 * time.Millisecond
	return w
}

func TestWaitAppearTimeout(t *testing.T) {
	caps := newFakeCapturer(40, 30) // never shows the template
	w := newTestWaiter(caps, 0.9)

	started := time.Now()
	outcome, match := w.WaitAppear("btn", nil, 80*time.Millisecond, nil)
	elapsed := time.Since(started)

	assert.Equal(t, OutcomeTimeout, outcome)
	assert.Nil(t, match)
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
}

func TestWaitAppearOnLaterPoll(t *testing.T) {
	caps := newFakeCapturer(40, 30)
	w := newTestWaiter(caps, 0.9)

	go func() {
		time.Sleep(35 * time.Millisecond)
		frame := flatFrame(40, 30, 128)
		paste(frame, checkerPatch(), 8, 6)
		caps.SetFrame(frame)
	}()

	started := time.Now()
	outcome, match := w.WaitAppear("btn", nil, 2*time.Second, nil)
	elapsed := time.Since(started)

	require.Equal(t, OutcomeSuccess, outcome)
	require.NotNil(t, match)
	assert.Equal(t, 8, match.X)
	assert.Equal(t, 6, match.Y)
	// At least the polls before the frame switched must have elapsed.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestWaitAppearCancelled(t *testing.T) {
	caps := newFakeCapturer(40, 30)
	w := newTestWaiter(caps, 0.9)

	var stop atomic.Bool
	go func() {
		time.Sleep(30 * time.Millisecond)
		stop.Store(true)
	}()

	outcome, _ := w.WaitAppear("btn", nil, 5*time.Second, stop.Load)
	assert.Equal(t, OutcomeCancelled, outcome)
}

func TestWaitVanish(t *testing.T) {
	caps := newFakeCapturer(40, 30)
	frame := flatFrame(40, 30, 128)
	paste(frame, checkerPatch(), 8, 6)
	caps.SetFrame(frame)
	w := newTestWaiter(caps, 0.9)

	go func() {
		time.Sleep(30 * time.Millisecond)
		caps.SetFrame(flatFrame(40, 30, 128))
	}()

	outcome := w.WaitVanish("btn", nil, 2*time.Second, nil)
	assert.Equal(t, OutcomeSuccess, outcome)
}

func TestWaitVanishTimeout(t *testing.T) {
	caps := newFakeCapturer(40, 30)
	frame := flatFrame(40, 30, 128)
	paste(frame, checkerPatch(), 8, 6)
	caps.SetFrame(frame)
	w := newTestWaiter(caps, 0.9)

	outcome := w.WaitVanish("btn", nil, 60*time.Millisecond, nil)
	assert.Equal(t, OutcomeTimeout, outcome)
}

func TestWaitMissingAssetTimesOut(t *testing.T) {
	// A missing asset degrades to "not visible": the wait times out instead
	// of erroring.
	caps := newFakeCapturer(40, 30)
	m := NewMatcher(caps, stubStore{}, nil)
	w := NewWaiter(m, nil)
	w.Base = 10 * time.Millisecond

	outcome, _ := w.WaitAppear("ghost", nil, 50*time.Millisecond, nil)
	assert.Equal(t, OutcomeTimeout, outcome)
}

func TestWaitPixel(t *testing.T) {
	caps := newFakeCapturer(40, 30)
	w := newTestWaiter(caps, 0.9)

	outcome := w.WaitPixel(5, 5, "808080", 0, 100*time.Millisecond, nil)
	assert.Equal(t, OutcomeSuccess, outcome)

	outcome = w.WaitPixel(5, 5, "ff0000", 10, 60*time.Millisecond, nil)
	assert.Equal(t, OutcomeTimeout, outcome)
}
