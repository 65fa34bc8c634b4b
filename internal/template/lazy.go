package template

import (
	"container/list"
	"log/slog"
	"sync"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
)

// CacheStats is a snapshot of the lazy store's counters.
type CacheStats struct {
	Hits             int64
	Misses           int64
	HitRate          float64
	CacheSize        int
	MaxSize          int
	RegisteredAssets int
}

// LazyStore registers asset metadata up front and decodes on first use,
// keeping at most capacity decoded templates with least-recently-used
// eviction. The cache is per-instance: two stores never share entries.
type LazyStore struct {
	mu       sync.Mutex
	assets   map[string]model.AssetImage
	entries  map[string]*list.Element // asset id -> lru element holding *Template
	lru      *list.List               // front = most recent
	capacity int
	hits     int64
	misses   int64
	log      *slog.Logger
}

type lruEntry struct {
	id  string
	tpl *Template
}

// DefaultLazyCapacity bounds the decoded-template cache when the caller does
// not inject one.
const DefaultLazyCapacity = 32

// NewLazyStore creates a lazy store with the given decoded-template capacity.
func NewLazyStore(capacity int, log *slog.Logger) *LazyStore {
	if capacity <= 0 {
		capacity = DefaultLazyCapacity
	}
	if log == nil {
		log = slog.Default()
	}
	return &LazyStore{
		assets:   make(map[string]model.AssetImage),
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
		capacity: capacity,
		log:      log,
	}
}

// Register records asset metadata without decoding anything.
func (s *LazyStore) Register(assets ...model.AssetImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range assets {
		s.assets[a.ID] = a
	}
}

// Get implements Store. The first lookup of an asset decodes and caches it;
// a decode failure is logged and reported as not found, never raised.
func (s *LazyStore) Get(id string) (*Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[id]; ok {
		s.hits++
		s.lru.MoveToFront(el)
		return el.Value.(*lruEntry).tpl, true
	}
	s.misses++

	asset, ok := s.assets[id]
	if !ok {
		s.log.Warn("template not registered", "asset", id)
		return nil, false
	}
	tpl, err := decode(asset)
	if err != nil {
		s.log.Warn("template decode failed", "asset", id, "error", err)
		return nil, false
	}

	s.entries[id] = s.lru.PushFront(&lruEntry{id: id, tpl: tpl})
	if s.lru.Len() > s.capacity {
		oldest := s.lru.Back()
		if oldest != nil {
			s.lru.Remove(oldest)
			delete(s.entries, oldest.Value.(*lruEntry).id)
		}
	}
	return tpl, true
}

// Stats returns the current counters.
func (s *LazyStore) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.hits + s.misses
	rate := 0.0
	if total > 0 {
		rate = float64(s.hits) / float64(total)
	}
	return CacheStats{
		Hits:             s.hits,
		Misses:           s.misses,
		HitRate:          rate,
		CacheSize:        s.lru.Len(),
		MaxSize:          s.capacity,
		RegisteredAssets: len(s.assets),
	}
}
