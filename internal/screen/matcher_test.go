package screen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/template"
)

func TestFindTranslatesROIToAbsolute(t *testing.T) {
	caps := newFakeCapturer(60, 40)
	frame := flatFrame(60, 40, 128)
	paste(frame, checkerPatch(), 25, 15)
	caps.SetFrame(frame)

	tpl, _ := checkerAsset("btn", 0.9)
	m := NewMatcher(caps, stubStore{"btn": tpl}, nil)

	roi := &model.ROI{X: 20, Y: 10, Width: 30, Height: 20}
	match, err := m.Find("btn", roi, false)
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, 25, match.X)
	assert.Equal(t, 15, match.Y)
	assert.True(t, roi.Contains(match.X, match.Y))
	assert.GreaterOrEqual(t, match.Confidence, 0.0)
	assert.LessOrEqual(t, match.Confidence, 1.0)
	assert.InDelta(t, 1.0, match.Confidence, 1e-6)
}

func TestFindDefaultROIFromAsset(t *testing.T) {
	caps := newFakeCapturer(60, 40)
	frame := flatFrame(60, 40, 128)
	paste(frame, checkerPatch(), 5, 5)
	caps.SetFrame(frame)

	tpl, _ := checkerAsset("btn", 0.9)
	tpl.Asset.ROI = &model.ROI{X: 0, Y: 0, Width: 20, Height: 20}
	m := NewMatcher(caps, stubStore{"btn": tpl}, nil)

	match, err := m.Find("btn", nil, false)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 5, match.X)
	assert.Equal(t, 5, match.Y)
}

func TestFindAdaptiveFloor(t *testing.T) {
	caps := newFakeCapturer(40, 30)
	frame := flatFrame(40, 30, 128)
	paste(frame, degradedPatch(), 12, 9)
	caps.SetFrame(frame)

	tpl, _ := checkerAsset("btn", 0.9)
	m := NewMatcher(caps, stubStore{"btn": tpl}, nil)

	// Strict mode rejects the 0.8-scoring degraded copy.
	match, err := m.Find("btn", nil, false)
	require.NoError(t, err)
	assert.Nil(t, match)

	// Adaptive mode accepts anything at or above the floor.
	match, err = m.Find("btn", nil, true)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 12, match.X)
	assert.Equal(t, 9, match.Y)
	assert.InDelta(t, 0.8, match.Confidence, 0.02)
}

func TestFindMissingAsset(t *testing.T) {
	caps := newFakeCapturer(20, 20)
	m := NewMatcher(caps, stubStore{}, nil)
	_, err := m.Find("ghost", nil, false)
	assert.Error(t, err)
}

func TestCaptureCacheServesRepeatLookups(t *testing.T) {
	caps := newFakeCapturer(40, 30)
	frame := flatFrame(40, 30, 128)
	paste(frame, checkerPatch(), 10, 10)
	caps.SetFrame(frame)

	tpl, _ := checkerAsset("btn", 0.9)
	m := NewMatcher(caps, stubStore{"btn": tpl}, nil)

	m1, err := m.Find("btn", nil, false)
	require.NoError(t, err)
	captures := caps.Captures()

	m2, err := m.Find("btn", nil, false)
	require.NoError(t, err)

	// Second lookup within the TTL reuses the cached frame and returns
	// identical coordinates and confidence.
	assert.Equal(t, captures, caps.Captures())
	assert.Equal(t, m1.X, m2.X)
	assert.Equal(t, m1.Y, m2.Y)
	assert.Equal(t, m1.Confidence, m2.Confidence)

	// An explicit clear always re-captures.
	m.ClearCache()
	_, err = m.Find("btn", nil, false)
	require.NoError(t, err)
	assert.Equal(t, captures+1, caps.Captures())
}

func TestCaptureCacheTTLExpiry(t *testing.T) {
	caps := newFakeCapturer(40, 30)
	frame := flatFrame(40, 30, 128)
	paste(frame, checkerPatch(), 10, 10)
	caps.SetFrame(frame)

	tpl, _ := checkerAsset("btn", 0.9)
	m := NewMatcher(caps, stubStore{"btn": tpl}, nil)
	m.SetCaptureTTL(10 * time.Millisecond)

	_, err := m.Find("btn", nil, false)
	require.NoError(t, err)
	captures := caps.Captures()

	time.Sleep(20 * time.Millisecond)
	_, err = m.Find("btn", nil, false)
	require.NoError(t, err)
	assert.Equal(t, captures+1, caps.Captures())
}

func TestFindAll(t *testing.T) {
	caps := newFakeCapturer(60, 20)
	frame := flatFrame(60, 20, 128)
	paste(frame, checkerPatch(), 5, 5)
	paste(frame, checkerPatch(), 40, 8)
	caps.SetFrame(frame)

	tpl, _ := checkerAsset("btn", 0.9)
	m := NewMatcher(caps, stubStore{"btn": tpl}, nil)

	matches, err := m.FindAll("btn", nil, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, match := range matches {
		assert.GreaterOrEqual(t, match.Confidence, 0.9)
	}

	matches, err = m.FindAll("btn", nil, 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestPixelMatches(t *testing.T) {
	caps := newFakeCapturer(20, 20)
	m := NewMatcher(caps, stubStore{}, nil)

	ok, err := m.PixelMatches(3, 3, "808080", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.PixelMatches(3, 3, "8a8a8a", 5)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.PixelMatches(3, 3, "8a8a8a", 10)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = m.PixelMatches(3, 3, "zzz", 0)
	assert.Error(t, err)
}

func TestTemplateStoreIntegration(t *testing.T) {
	// The matcher works against the real store contract as well as the stub.
	var _ template.Store = stubStore{}
	var _ template.Store = (*template.EagerStore)(nil)
	var _ template.Store = (*template.LazyStore)(nil)
}
