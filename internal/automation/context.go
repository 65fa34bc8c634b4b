// Package automation interprets flows against the live screen: a shared run
// context, the flow runner, and the background interrupt watcher that
// preempts it.
package automation

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/ocr"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/screen"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/template"
)

// State is the run lifecycle: Idle -> Running <-> Paused -> Stopping.
// Stopping is terminal; a reset context is required to run again.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "stopping"
	}
}

// RunContext is the shared mutable state of one execution. Exactly two
// tasks touch it while a run is live: the caller's goroutine driving the
// runner and the interrupt watcher. All signaling goes through its mutex and
// condition variable; there are no other cross-task channels.
type RunContext struct {
	RunID   string
	Script  *model.Script
	Store   template.Store
	Caps    screen.Capturer
	Matcher *screen.Matcher
	Waiter  *screen.Waiter
	Input   Input
	OCR     ocr.Reader
	Log     *slog.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	state     State
	stop      bool
	vars      map[string]string
	lastMatch *model.Match

	curFlow string
	curStep int
}

// NewRunContext binds a script, a template store and the effector services
// into a fresh Idle context.
func NewRunContext(script *model.Script, store template.Store, caps screen.Capturer, input Input, log *slog.Logger) *RunContext {
	if log == nil {
		log = slog.Default()
	}
	matcher := screen.NewMatcher(caps, store, log)
	ctx := &RunContext{
		RunID:   uuid.NewString(),
		Script:  script,
		Store:   store,
		Caps:    caps,
		Matcher: matcher,
		Waiter:  screen.NewWaiter(matcher, log),
		Input:   input,
		Log:     log,
		vars:    make(map[string]string),
	}
	ctx.cond = sync.NewCond(&ctx.mu)
	return ctx
}

// State returns the current lifecycle state.
func (c *RunContext) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// start moves Idle -> Running. Any other state is a spent context.
func (c *RunContext) start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return fmt.Errorf("context is %s; reset before running again", c.state)
	}
	c.state = StateRunning
	return nil
}

// finish marks the run over. The context stays terminal until Reset.
func (c *RunContext) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateStopping
	c.cond.Broadcast()
}

// RequestPause asks the runner to hold at its next checkpoint. A no-op unless
// the run is live and no stop is pending.
func (c *RunContext) RequestPause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRunning && !c.stop {
		c.state = StatePaused
		c.cond.Broadcast()
	}
}

// RequestResume releases a pause.
func (c *RunContext) RequestResume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePaused && !c.stop {
		c.state = StateRunning
		c.cond.Broadcast()
	}
}

// RequestStop ends the run. Stop is sticky and force-clears any pending
// pause so a paused run still unwinds promptly.
func (c *RunContext) RequestStop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stop = true
	if c.state == StateRunning || c.state == StatePaused {
		c.state = StateStopping
	}
	c.cond.Broadcast()
}

// Stopped reports whether a stop has been requested.
func (c *RunContext) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop
}

// WaitIfPaused is the single checkpoint the runner hits between steps. It
// blocks while paused and returns false when the run should unwind.
func (c *RunContext) WaitIfPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.state == StatePaused && !c.stop {
		c.cond.Wait()
	}
	return !c.stop
}

// Reset returns a spent or idle context to a fresh Idle state with a new run
// id. Resetting a live run is refused.
func (c *RunContext) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRunning || c.state == StatePaused {
		return fmt.Errorf("cannot reset while %s", c.state)
	}
	c.state = StateIdle
	c.stop = false
	c.vars = make(map[string]string)
	c.lastMatch = nil
	c.curFlow, c.curStep = "", 0
	c.RunID = uuid.NewString()
	c.Matcher.ClearCache()
	return nil
}

// SetVar stores a variable. Only the runner writes variables; the watcher and
// callbacks read them.
func (c *RunContext) SetVar(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars[name] = value
}

// Var reads a variable.
func (c *RunContext) Var(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vars[name]
	return v, ok
}

// SetLastMatch records the most recent template hit for position-relative
// actions.
func (c *RunContext) SetLastMatch(m *model.Match) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastMatch = m
}

// LastMatch returns the most recent template hit, or nil.
func (c *RunContext) LastMatch() *model.Match {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMatch
}

// setCurrentStep records the runner's position for diagnostics.
func (c *RunContext) setCurrentStep(flow string, step int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.curFlow, c.curStep = flow, step
}

// CurrentStep returns the flow and index the runner last dispatched.
func (c *RunContext) CurrentStep() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curFlow, c.curStep
}
