package automation

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
)

// Watcher defaults.
const (
	DefaultWatchBase    = 200 * time.Millisecond
	DefaultWatchMax     = time.Second
	DefaultRuleCooldown = time.Second
	watchBackoffAfter   = 5
	watcherSleepSlice   = 100 * time.Millisecond
)

// InterruptWatcher polls the screen for interrupt triggers while the context
// is Running and preempts the runner when one fires: pause, run the rule's
// handler, resume.
//
// The runner's in-flight action is not interrupted; preemption lands at the
// next checkpoint. During that narrow window the finishing action and the
// first handler effector call can overlap. Effector access is deliberately
// not serialized.
type InterruptWatcher struct {
	ctx    *RunContext
	runner *Runner
	rules  []model.InterruptRule // priority desc, declaration order within ties
	fired  []time.Time           // last fire per rule, cooldown bookkeeping

	Base     time.Duration
	Max      time.Duration
	Cooldown time.Duration

	now func() time.Time
	log *slog.Logger
}

// newInterruptWatcher sorts the script's rules and prepares a watcher. The
// sort is stable so equal priorities keep declaration order.
func newInterruptWatcher(ctx *RunContext, runner *Runner) *InterruptWatcher {
	rules := make([]model.InterruptRule, len(ctx.Script.Interrupts))
	copy(rules, ctx.Script.Interrupts)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })

	return &InterruptWatcher{
		ctx:      ctx,
		runner:   runner,
		rules:    rules,
		fired:    make([]time.Time, len(rules)),
		Base:     DefaultWatchBase,
		Max:      DefaultWatchMax,
		Cooldown: DefaultRuleCooldown,
		now:      time.Now,
		log:      ctx.Log,
	}
}

// run is the watcher goroutine body. It exits when stop closes.
func (w *InterruptWatcher) run(stop <-chan struct{}) {
	interval := w.Base
	misses := 0

	for {
		select {
		case <-stop:
			return
		default:
		}

		if w.ctx.State() != StateRunning {
			// Nothing to preempt; idle at the base interval without backoff.
			if !w.sleep(w.Base, stop) {
				return
			}
			continue
		}

		if w.tick() {
			interval = w.Base
			misses = 0
		} else {
			misses++
			if misses%watchBackoffAfter == 0 {
				interval = time.Duration(float64(interval) * 1.2)
				if interval > w.Max {
					interval = w.Max
				}
			}
		}

		if !w.sleep(interval, stop) {
			return
		}
	}
}

// tick evaluates the rules in priority order and fires at most the first
// whose trigger is visible and outside its cooldown. Returns whether a rule
// fired.
func (w *InterruptWatcher) tick() bool {
	for i := range w.rules {
		rule := &w.rules[i]
		if w.now().Sub(w.fired[i]) < w.Cooldown {
			continue
		}
		match, err := w.ctx.Matcher.Find(rule.TriggerID, rule.ROI, false)
		if err != nil {
			w.log.Debug("interrupt trigger lookup failed", "trigger", rule.TriggerID, "error", err)
			continue
		}
		if match == nil {
			continue
		}
		w.fired[i] = w.now()
		w.fire(rule, match)
		return true
	}
	return false
}

// fire preempts the run for one rule: record the match, pause, run the
// handler, resume unless a stop arrived meanwhile. Handler failures are
// logged and swallowed; a broken handler must not kill the watcher.
func (w *InterruptWatcher) fire(rule *model.InterruptRule, match *model.Match) {
	w.log.Info("interrupt fired",
		"trigger", rule.TriggerID, "priority", rule.Priority,
		"x", match.X, "y", match.Y, "confidence", match.Confidence)

	w.ctx.SetLastMatch(match)

	paused := false
	if w.ctx.State() == StateRunning {
		w.ctx.RequestPause()
		paused = true
	}

	if err := w.runHandler(rule); err != nil {
		w.log.Error("interrupt handler failed", "trigger", rule.TriggerID, "error", err)
	}

	if paused && !w.ctx.Stopped() {
		w.ctx.RequestResume()
	}
}

func (w *InterruptWatcher) runHandler(rule *model.InterruptRule) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()
	return w.runner.runHandler(rule)
}

// sleep waits for d in short slices so a stop request is observed promptly.
// Returns false when stop closed.
func (w *InterruptWatcher) sleep(d time.Duration, stop <-chan struct{}) bool {
	for d > 0 {
		slice := d
		if slice > watcherSleepSlice {
			slice = watcherSleepSlice
		}
		select {
		case <-stop:
			return false
		case <-time.After(slice):
		}
		d -= slice
	}
	return true
}
