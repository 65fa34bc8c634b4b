package automation

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
)

// Callbacks surface run progress to the caller. All fields are optional;
// execution is correct with every one of them nil.
type Callbacks struct {
	OnStep     func(flow string, index int, action *model.Action)
	OnComplete func(flow string, success bool)
	OnNotify   func(title, message string)
}

// MaxCallDepth caps nested run_flow recursion. Exceeding it fails only the
// offending call, not its caller.
const MaxCallDepth = 10

// errStopped unwinds a flow when a stop request is observed mid-action.
var errStopped = errors.New("stop requested")

// callFrame records one level of the run_flow call stack, for diagnostics.
type callFrame struct {
	flow string
	step int
}

// Runner interprets one flow at a time against its run context. Actions
// execute in program order except explicit control transfers; every failure
// that is plausibly transient (missing template, wait timeout) is logged and
// skipped so unattended scripts keep making progress.
type Runner struct {
	ctx      *RunContext
	cb       Callbacks
	watchdog Watchdog
	recorder *flightRecorder
	log      *slog.Logger

	// Both the run goroutine and the watcher's handler path push frames, so
	// the stack needs its own lock.
	stackMu   sync.Mutex
	callStack []callFrame
}

// execOpts threads per-call-chain execution flags through dispatch.
type execOpts struct {
	flow        *model.Flow
	labels      map[string]int
	depth       int
	nested      bool // inside a branch/loop body; Goto cannot escape it
	bypassPause bool // interrupt handlers run while the context is paused
}

// NewRunner binds a runner to a context.
func NewRunner(ctx *RunContext, cb Callbacks) *Runner {
	r := &Runner{
		ctx:      ctx,
		cb:       cb,
		watchdog: NewMemoryWatchdog(0),
		recorder: newFlightRecorder(ctx.Caps, ctx.Log),
		log:      ctx.Log,
	}
	return r
}

// SetWatchdog replaces the per-step health guard.
func (r *Runner) SetWatchdog(w Watchdog) {
	if w != nil {
		r.watchdog = w
	}
}

// Context returns the bound run context.
func (r *Runner) Context() *RunContext {
	return r.ctx
}

// RunFlow executes the named flow from its first step.
func (r *Runner) RunFlow(name string) bool {
	return r.RunFlowFrom(name, 0)
}

// RunFlowFrom executes the named flow starting at the given step index. It
// drives the context Idle -> Running and leaves it terminal afterwards.
func (r *Runner) RunFlowFrom(name string, from int) bool {
	if err := r.ctx.start(); err != nil {
		r.log.Error("cannot start run", "flow", name, "error", err)
		r.complete(name, false)
		return false
	}
	r.preflight(name)

	ok := r.runFlow(name, from, execOpts{})
	r.ctx.finish()
	return ok
}

// RunStep executes a single action of a flow, for steppers and debuggers. It
// does not touch the context lifecycle.
func (r *Runner) RunStep(name string, index int) bool {
	flow := r.ctx.Script.FlowByName(name)
	if flow == nil {
		r.log.Error("run_step: flow not defined", "flow", name)
		return false
	}
	if flow.IsGraph() || index < 0 || index >= len(flow.Actions) {
		r.log.Error("run_step: no such step", "flow", name, "index", index)
		return false
	}
	o := execOpts{flow: flow, labels: flow.Labels()}
	_, _, err := r.executeAction(&flow.Actions[index], o)
	if err != nil {
		r.log.Warn("run_step failed", "flow", name, "index", index, "error", err)
		return false
	}
	return true
}

// preflight warns about unresolved asset references. It never blocks a run;
// authoritative validation belongs to the load toolchain.
func (r *Runner) preflight(name string) {
	flow := r.ctx.Script.FlowByName(name)
	if flow == nil {
		return
	}
	seen := make(map[string]bool)
	check := func(a *model.Action) {
		for _, id := range a.AssetRefs() {
			if !seen[id] && r.ctx.Script.AssetByID(id) == nil {
				r.log.Warn("flow references undefined asset", "flow", name, "asset", id)
			}
			seen[id] = true
		}
	}
	for i := range flow.Actions {
		check(&flow.Actions[i])
	}
	for i := range flow.Nodes {
		check(&flow.Nodes[i].Action)
	}
}

// runFlow interprets one flow to completion. Returns false when the flow
// could not run or was stopped.
func (r *Runner) runFlow(name string, from int, o execOpts) bool {
	flow := r.ctx.Script.FlowByName(name)
	if flow == nil {
		r.log.Error("flow not defined", "flow", name)
		r.complete(name, false)
		return false
	}

	var ok bool
	if flow.IsGraph() {
		ok = r.runGraph(flow, o)
	} else {
		ok = r.runLinear(flow, from, o)
	}
	r.complete(name, ok)
	return ok
}

// runLinear is linear-list mode: an explicit program counter over the action
// slice, with labels resolving gotos forward and backward.
func (r *Runner) runLinear(flow *model.Flow, from int, o execOpts) bool {
	o.flow = flow
	o.labels = flow.Labels()

	pc := from
	if pc < 0 {
		pc = 0
	}
	for pc < len(flow.Actions) {
		if !r.checkpoint(o) {
			return false
		}

		action := &flow.Actions[pc]
		r.ctx.setCurrentStep(flow.Name, pc)
		if r.cb.OnStep != nil {
			r.cb.OnStep(flow.Name, pc, action)
		}

		next, _, err := r.timedExecute(action, o, flow.Name, pc)
		if err != nil {
			if errors.Is(err, errStopped) {
				return false
			}
			// Transient or script error: logged, continue with the next step.
			pc++
			continue
		}
		if next >= 0 {
			pc = next
		} else {
			pc++
		}
	}
	return true
}

// checkpoint runs the per-step guards: the health watchdog (the one fatal
// path) and the pause/stop gate.
func (r *Runner) checkpoint(o execOpts) bool {
	if err := r.watchdog.Check(); err != nil {
		r.log.Error("watchdog abort", "error", err)
		r.ctx.RequestStop()
		return false
	}
	if o.bypassPause {
		return !r.ctx.Stopped()
	}
	return r.ctx.WaitIfPaused()
}

// timedExecute dispatches one action and logs its kind and elapsed time.
func (r *Runner) timedExecute(action *model.Action, o execOpts, flowName string, pc int) (int, bool, error) {
	started := time.Now()
	next, branch, err := r.executeAction(action, o)
	elapsed := time.Since(started)
	if err != nil && !errors.Is(err, errStopped) {
		r.log.Warn("action failed, continuing",
			"flow", flowName, "step", pc, "kind", action.Kind,
			"elapsed", elapsed, "error", err)
	} else {
		r.log.Debug("action done",
			"flow", flowName, "step", pc, "kind", action.Kind, "elapsed", elapsed)
	}
	return next, branch, err
}

// runNested executes a branch or loop body sequentially. The body shares the
// enclosing flow's label map for diagnostics but Goto cannot transfer out of
// it; see executeAction.
func (r *Runner) runNested(actions []model.Action, o execOpts) error {
	o.nested = true
	for i := range actions {
		if !r.checkpoint(o) {
			return errStopped
		}
		if _, _, err := r.executeAction(&actions[i], o); err != nil {
			if errors.Is(err, errStopped) {
				return err
			}
			r.log.Warn("nested action failed, continuing", "kind", actions[i].Kind, "error", err)
		}
	}
	return nil
}

// runHandler executes an interrupt handler: a named flow or an inline action
// sequence. Handlers run while the context is paused, so the pause gate is
// bypassed; stop still unwinds them.
func (r *Runner) runHandler(rule *model.InterruptRule) error {
	o := execOpts{bypassPause: true}
	if rule.RunFlow != "" {
		if !r.runFlowNested(rule.RunFlow, o) {
			return fmt.Errorf("handler flow %q failed", rule.RunFlow)
		}
		return nil
	}
	return r.runNested(rule.Actions, o)
}

// runFlowNested runs a flow inside an already-live run (run_flow actions and
// interrupt handlers), maintaining the call stack and the depth cap.
func (r *Runner) runFlowNested(name string, o execOpts) bool {
	if o.depth >= MaxCallDepth {
		r.log.Error("run_flow recursion limit reached", "flow", name, "depth", o.depth)
		return false
	}
	curFlow, curStep := r.ctx.CurrentStep()
	r.stackMu.Lock()
	r.callStack = append(r.callStack, callFrame{flow: curFlow, step: curStep})
	r.stackMu.Unlock()
	defer func() {
		r.stackMu.Lock()
		r.callStack = r.callStack[:len(r.callStack)-1]
		r.stackMu.Unlock()
		r.ctx.setCurrentStep(curFlow, curStep)
	}()

	return r.runFlow(name, 0, execOpts{depth: o.depth + 1, bypassPause: o.bypassPause})
}

func (r *Runner) complete(flow string, success bool) {
	if r.cb.OnComplete != nil {
		r.cb.OnComplete(flow, success)
	}
}

func (r *Runner) notify(title, message string) {
	if r.cb.OnNotify != nil {
		r.cb.OnNotify(title, message)
	}
	r.log.Info("notify", "title", title, "message", message)
}

// sleepRun sleeps for d in short slices, checking the pause/stop gate between
// slices so long delays stay responsive. Returns false on stop.
func (r *Runner) sleepRun(d time.Duration, o execOpts) bool {
	const slice = 100 * time.Millisecond
	for d > 0 {
		if !r.checkpoint(o) {
			return false
		}
		s := d
		if s > slice {
			s = slice
		}
		time.Sleep(s)
		d -= s
	}
	return true
}

// cancelFn is the cooperative-cancellation flag handed to waits.
func (r *Runner) cancelFn() func() bool {
	return r.ctx.Stopped
}
