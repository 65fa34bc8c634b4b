package screen

import (
	"sync"
	"time"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/vision"
)

const (
	// DefaultCaptureTTL is how long a captured frame stays valid, long enough
	// for the lookups of one tick and short enough to never span an action.
	DefaultCaptureTTL = 50 * time.Millisecond

	// captureCacheCap triggers a wholesale clear. Eviction is deliberately not
	// per-key: the cache holds at most a handful of regions per tick.
	captureCacheCap = 8
)

type captureKey struct {
	x, y, w, h int
	gray       bool
}

type captureEntry struct {
	mat *vision.Mat
	at  time.Time
}

// captureCache memoizes converted frames per (region, color mode) for a short
// TTL so several lookups in one tick share one capture.
type captureCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[captureKey]captureEntry
	now     func() time.Time
}

func newCaptureCache(ttl time.Duration) *captureCache {
	if ttl <= 0 {
		ttl = DefaultCaptureTTL
	}
	return &captureCache{
		ttl:     ttl,
		entries: make(map[captureKey]captureEntry),
		now:     time.Now,
	}
}

func (c *captureCache) get(key captureKey) (*vision.Mat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.at) > c.ttl {
		return nil, false
	}
	return e.mat, true
}

func (c *captureCache) put(key captureKey, mat *vision.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= captureCacheCap {
		c.entries = make(map[captureKey]captureEntry)
	}
	c.entries[key] = captureEntry{mat: mat, at: c.now()}
}

func (c *captureCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[captureKey]captureEntry)
}
