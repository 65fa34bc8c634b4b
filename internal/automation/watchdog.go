package automation

import (
	"fmt"
	"runtime"
)

// Watchdog is the per-step system-health guard. A non-nil error is the one
// condition that aborts an entire run.
type Watchdog interface {
	Check() error
}

// MemoryWatchdog aborts when the heap grows past a hard limit, catching the
// pathological case of an unattended script leaking captures for hours.
type MemoryWatchdog struct {
	MaxHeapBytes uint64
}

// DefaultMaxHeapBytes is the limit used when none is injected.
const DefaultMaxHeapBytes = 1 << 30

// NewMemoryWatchdog builds a watchdog with the given heap limit (0 uses the
// default).
func NewMemoryWatchdog(maxHeapBytes uint64) *MemoryWatchdog {
	if maxHeapBytes == 0 {
		maxHeapBytes = DefaultMaxHeapBytes
	}
	return &MemoryWatchdog{MaxHeapBytes: maxHeapBytes}
}

// Check implements Watchdog.
func (w *MemoryWatchdog) Check() error {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapAlloc > w.MaxHeapBytes {
		return fmt.Errorf("heap %d bytes exceeds limit %d", ms.HeapAlloc, w.MaxHeapBytes)
	}
	return nil
}
