package automation

import (
	"log/slog"
	"sync"
	"time"
)

// StopJoinTimeout bounds how long StopWatching waits for the watcher
// goroutine to exit.
const StopJoinTimeout = 2 * time.Second

// InterruptManager binds exactly one watcher to one runner/context pair and
// owns the watcher goroutine's lifecycle. Start and stop are idempotent.
type InterruptManager struct {
	mu      sync.Mutex
	ctx     *RunContext
	runner  *Runner
	watcher *InterruptWatcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	log     *slog.Logger
}

// NewInterruptManager creates a manager for the context.
func NewInterruptManager(ctx *RunContext) *InterruptManager {
	return &InterruptManager{ctx: ctx, log: ctx.Log}
}

// SetRunner binds the runner whose executor the watcher's handlers use.
func (m *InterruptManager) SetRunner(r *Runner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runner = r
}

// Watcher exposes the bound watcher for tuning (intervals, cooldown) before
// StartWatching. Nil until a runner is set and watching has started at least
// once, unless created here.
func (m *InterruptManager) Watcher() *InterruptWatcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureWatcher()
	return m.watcher
}

func (m *InterruptManager) ensureWatcher() {
	if m.watcher == nil && m.runner != nil {
		m.watcher = newInterruptWatcher(m.ctx, m.runner)
	}
}

// StartWatching launches the watcher goroutine. A script with no interrupt
// rules makes this a logged no-op; starting twice is a no-op.
func (m *InterruptManager) StartWatching() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.ctx.Script.Interrupts) == 0 {
		m.log.Debug("no interrupt rules; watcher not started")
		return
	}
	if m.stopCh != nil {
		return
	}
	if m.runner == nil {
		m.log.Error("cannot watch without a runner")
		return
	}
	m.ensureWatcher()

	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		m.watcher.run(stop)
	}(m.stopCh, m.doneCh)
	m.log.Info("interrupt watcher started", "rules", len(m.watcher.rules))
}

// StopWatching signals the watcher and joins it with a bounded timeout.
// Stopping an unstarted manager is a no-op.
func (m *InterruptManager) StopWatching() {
	m.mu.Lock()
	stopCh, doneCh := m.stopCh, m.doneCh
	m.stopCh, m.doneCh = nil, nil
	m.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	select {
	case <-doneCh:
	case <-time.After(StopJoinTimeout):
		m.log.Warn("watcher did not stop within timeout")
	}
}
