package automation

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/screen"
)

// Timing defaults (milliseconds) for actions that omit their own.
const (
	defaultWaitTimeoutMs  = 10000
	defaultDelayMs        = 1000
	defaultClickUntilMs   = 1000
	defaultUntilAttempts  = 10
	defaultPixelTolerance = 10
)

// executeAction dispatches one action to its handler. The returned index is
// the new program counter for control transfers, -1 to advance. branch
// reports the condition outcome of If*/While* kinds for the graph walker.
//
// A panic inside a handler is recovered into an error so one bad action never
// takes down the run.
func (r *Runner) executeAction(a *model.Action, o execOpts) (next int, branch bool, err error) {
	next = -1
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("action %s panicked: %v", a.Kind, rec)
		}
	}()

	if a.IsEffector() {
		// Post-action lookups must see a post-action frame.
		defer r.ctx.Matcher.ClearCache()
	}
	if r.recorder.watches(a.Kind) {
		err = r.recorder.wrap(a.Kind, func() error {
			var e error
			next, branch, e = r.dispatch(a, o)
			return e
		})
		return next, branch, err
	}
	return r.dispatch(a, o)
}

// dispatch is the exhaustive match over the action union: one arm per kind.
// Adding a kind means adding exactly one arm here.
func (r *Runner) dispatch(a *model.Action, o execOpts) (int, bool, error) {
	switch a.Kind {
	case model.KindClick:
		return -1, false, r.doClick(a)
	case model.KindClickImage:
		return -1, false, r.doClickImage(a)
	case model.KindClickRandom:
		return -1, false, r.doClickRandom(a)
	case model.KindClickUntil:
		return -1, false, r.doClickUntil(a, o)
	case model.KindDrag:
		return -1, false, r.doDrag(a)
	case model.KindScroll:
		return -1, false, r.doScroll(a)
	case model.KindHotkey:
		return -1, false, r.doHotkey(a)
	case model.KindTypeText:
		r.ctx.Input.TypeStr(r.substitute(a.Text))
		return -1, false, nil
	case model.KindWaitImage:
		return -1, false, r.doWaitImage(a)
	case model.KindWaitPixel:
		return -1, false, r.doWaitPixel(a)
	case model.KindIfImage:
		return r.doIfImage(a, o, false)
	case model.KindIfNotImage:
		return r.doIfImage(a, o, true)
	case model.KindIfPixel:
		return r.doIfPixel(a, o)
	case model.KindIfText:
		return r.doIfText(a, o)
	case model.KindLabel:
		return -1, false, nil
	case model.KindGoto:
		return r.doGoto(a, o)
	case model.KindRunFlow:
		if !r.runFlowNested(a.Flow, o) {
			return -1, false, fmt.Errorf("run_flow %q failed", a.Flow)
		}
		return -1, false, nil
	case model.KindDelay:
		ms := a.DelayMs
		if ms <= 0 {
			ms = defaultDelayMs
		}
		if !r.sleepRun(time.Duration(ms)*time.Millisecond, o) {
			return -1, false, errStopped
		}
		return -1, false, nil
	case model.KindDelayRandom:
		return -1, false, r.doDelayRandom(a, o)
	case model.KindLoop:
		return r.doLoop(a, o)
	case model.KindWhileImage:
		return r.doWhileImage(a, o)
	case model.KindReadText:
		return -1, false, r.doReadText(a)
	case model.KindNotify:
		r.notify(r.substitute(a.Title), r.substitute(a.Message))
		return -1, false, nil
	default:
		return -1, false, fmt.Errorf("unknown action kind %q", a.Kind)
	}
}

func (r *Runner) doClick(a *model.Action) error {
	if a.X != 0 || a.Y != 0 {
		r.ctx.Input.Move(a.X, a.Y)
	}
	r.ctx.Input.Click(a.Button, a.Double)
	return nil
}

func (r *Runner) doClickImage(a *model.Action) error {
	timeout := waitTimeout(a)
	outcome, match := r.ctx.Waiter.WaitAppear(a.AssetID, a.ROI, timeout, r.cancelFn())
	switch outcome {
	case screen.OutcomeCancelled:
		return errStopped
	case screen.OutcomeTimeout:
		return fmt.Errorf("image %q not found within %s", a.AssetID, timeout)
	}
	r.ctx.SetLastMatch(match)
	cx, cy := match.Center()
	r.ctx.Input.Move(cx+a.OffsetX, cy+a.OffsetY)
	r.ctx.Input.Click(a.Button, a.Double)
	return nil
}

// doClickRandom clicks a uniformly random point inside the action ROI, or
// inside a fresh match of the asset, or inside the last match, in that order
// of preference.
func (r *Runner) doClickRandom(a *model.Action) error {
	var rect model.ROI
	switch {
	case !a.ROI.Empty():
		rect = *a.ROI
	case a.AssetID != "":
		match, err := r.ctx.Matcher.Find(a.AssetID, nil, true)
		if err != nil {
			return err
		}
		if match == nil {
			return fmt.Errorf("image %q not on screen", a.AssetID)
		}
		r.ctx.SetLastMatch(match)
		rect = model.ROI{X: match.X, Y: match.Y, Width: match.Width, Height: match.Height}
	default:
		match := r.ctx.LastMatch()
		if match == nil {
			return fmt.Errorf("click_random has no target region")
		}
		rect = model.ROI{X: match.X, Y: match.Y, Width: match.Width, Height: match.Height}
	}

	x := rect.X + rand.Intn(max(rect.Width, 1))
	y := rect.Y + rand.Intn(max(rect.Height, 1))
	r.ctx.Input.Move(x, y)
	r.ctx.Input.Click(a.Button, a.Double)
	return nil
}

// doClickUntil clicks at (X, Y) until the until-image appears (or vanishes,
// with Vanish), re-checking after each click, capped at MaxAttempts.
func (r *Runner) doClickUntil(a *model.Action, o execOpts) error {
	attempts := a.MaxAttempts
	if attempts <= 0 {
		attempts = defaultUntilAttempts
	}
	checkMs := a.IntervalMs
	if checkMs <= 0 {
		checkMs = defaultClickUntilMs
	}

	for i := 0; i < attempts; i++ {
		if !r.checkpoint(o) {
			return errStopped
		}
		if a.X != 0 || a.Y != 0 {
			r.ctx.Input.Move(a.X, a.Y)
		}
		r.ctx.Input.Click(a.Button, a.Double)
		r.ctx.Matcher.ClearCache()

		timeout := time.Duration(checkMs) * time.Millisecond
		if a.Vanish {
			if r.ctx.Waiter.WaitVanish(a.UntilID, a.ROI, timeout, r.cancelFn()) == screen.OutcomeSuccess {
				return nil
			}
		} else {
			outcome, match := r.ctx.Waiter.WaitAppear(a.UntilID, a.ROI, timeout, r.cancelFn())
			if outcome == screen.OutcomeSuccess {
				r.ctx.SetLastMatch(match)
				return nil
			}
			if outcome == screen.OutcomeCancelled {
				return errStopped
			}
		}
	}
	return fmt.Errorf("click_until: %q condition not met after %d attempts", a.UntilID, attempts)
}

func (r *Runner) doDrag(a *model.Action) error {
	r.ctx.Input.Move(a.X, a.Y)
	r.ctx.Input.DragTo(a.ToX, a.ToY)
	return nil
}

func (r *Runner) doScroll(a *model.Action) error {
	if a.X != 0 || a.Y != 0 {
		r.ctx.Input.Move(a.X, a.Y)
	}
	r.ctx.Input.Scroll(a.Amount)
	return nil
}

func (r *Runner) doHotkey(a *model.Action) error {
	key := r.substitute(a.Key)
	if key == "" {
		return fmt.Errorf("hotkey with empty key")
	}
	return r.ctx.Input.KeyTap(key, a.Modifiers...)
}

func (r *Runner) doWaitImage(a *model.Action) error {
	timeout := waitTimeout(a)
	if a.Vanish {
		switch r.ctx.Waiter.WaitVanish(a.AssetID, a.ROI, timeout, r.cancelFn()) {
		case screen.OutcomeCancelled:
			return errStopped
		case screen.OutcomeTimeout:
			return fmt.Errorf("image %q still visible after %s", a.AssetID, timeout)
		}
		return nil
	}
	outcome, match := r.ctx.Waiter.WaitAppear(a.AssetID, a.ROI, timeout, r.cancelFn())
	switch outcome {
	case screen.OutcomeCancelled:
		return errStopped
	case screen.OutcomeTimeout:
		return fmt.Errorf("image %q not found within %s", a.AssetID, timeout)
	}
	r.ctx.SetLastMatch(match)
	return nil
}

func (r *Runner) doWaitPixel(a *model.Action) error {
	tol := a.Tolerance
	if tol <= 0 {
		tol = defaultPixelTolerance
	}
	timeout := waitTimeout(a)
	switch r.ctx.Waiter.WaitPixel(a.X, a.Y, a.Color, tol, timeout, r.cancelFn()) {
	case screen.OutcomeCancelled:
		return errStopped
	case screen.OutcomeTimeout:
		return fmt.Errorf("pixel (%d,%d) never matched %s within %s", a.X, a.Y, a.Color, timeout)
	}
	return nil
}

func (r *Runner) doIfImage(a *model.Action, o execOpts, negate bool) (int, bool, error) {
	match, err := r.ctx.Matcher.Find(a.AssetID, a.ROI, true)
	if err != nil {
		return -1, false, err
	}
	if match != nil {
		r.ctx.SetLastMatch(match)
	}
	cond := (match != nil) != negate
	return -1, cond, r.runBranch(a, cond, o)
}

func (r *Runner) doIfPixel(a *model.Action, o execOpts) (int, bool, error) {
	tol := a.Tolerance
	if tol <= 0 {
		tol = defaultPixelTolerance
	}
	cond, err := r.ctx.Matcher.PixelMatches(a.X, a.Y, a.Color, tol)
	if err != nil {
		return -1, false, err
	}
	return -1, cond, r.runBranch(a, cond, o)
}

// doIfText compares a variable (Var set) or the OCR text of the action ROI
// against Expect: substring match by default, equality with Exact.
func (r *Runner) doIfText(a *model.Action, o execOpts) (int, bool, error) {
	var text string
	if a.Var != "" {
		text, _ = r.ctx.Var(a.Var)
	} else {
		var err error
		text, err = r.readRegion(a.ROI)
		if err != nil {
			return -1, false, err
		}
	}

	expect := r.substitute(a.Expect)
	var cond bool
	if a.Exact {
		cond = text == expect
	} else {
		cond = strings.Contains(text, expect)
	}
	return -1, cond, r.runBranch(a, cond, o)
}

func (r *Runner) runBranch(a *model.Action, cond bool, o execOpts) error {
	if cond {
		return r.runNested(a.Then, o)
	}
	if len(a.Else) > 0 {
		return r.runNested(a.Else, o)
	}
	return nil
}

// doGoto resolves a label to its index in the enclosing flow. Inside nested
// bodies the label map is out of reach: the flat index cannot transfer
// control across a branch or loop boundary, so such gotos are rejected.
func (r *Runner) doGoto(a *model.Action, o execOpts) (int, bool, error) {
	if o.nested {
		return -1, false, fmt.Errorf("goto %q inside a branch or loop body is not supported", a.Name)
	}
	idx, ok := o.labels[a.Name]
	if !ok {
		return -1, false, fmt.Errorf("goto to undefined label %q", a.Name)
	}
	return idx, false, nil
}

func (r *Runner) doDelayRandom(a *model.Action, o execOpts) error {
	lo, hi := a.MinMs, a.MaxMs
	if hi <= lo {
		hi = lo + 1
	}
	ms := lo + rand.Intn(hi-lo)
	if !r.sleepRun(time.Duration(ms)*time.Millisecond, o) {
		return errStopped
	}
	return nil
}

func (r *Runner) doLoop(a *model.Action, o execOpts) (int, bool, error) {
	count := a.Count
	if count <= 0 {
		count = 1
	}
	for i := 0; i < count; i++ {
		if !r.checkpoint(o) {
			return -1, false, errStopped
		}
		if err := r.runNested(a.Body, o); err != nil {
			return -1, false, err
		}
	}
	return -1, false, nil
}

// doWhileImage re-evaluates the trigger before each iteration and runs the
// body while it is visible (or absent, with Vanish). MaxLoops of zero means
// unbounded.
func (r *Runner) doWhileImage(a *model.Action, o execOpts) (int, bool, error) {
	entered := false
	for i := 0; a.MaxLoops <= 0 || i < a.MaxLoops; i++ {
		if !r.checkpoint(o) {
			return -1, entered, errStopped
		}
		match, err := r.ctx.Matcher.Find(a.AssetID, a.ROI, true)
		if err != nil {
			return -1, entered, err
		}
		visible := match != nil
		if visible {
			r.ctx.SetLastMatch(match)
		}
		if visible == a.Vanish {
			break
		}
		entered = true
		if err := r.runNested(a.Body, o); err != nil {
			return -1, entered, err
		}
		r.ctx.Matcher.ClearCache()
	}
	return -1, entered, nil
}

func (r *Runner) doReadText(a *model.Action) error {
	text, err := r.readRegion(a.ROI)
	if err != nil {
		return err
	}
	name := a.Var
	if name == "" {
		name = "text"
	}
	r.ctx.SetVar(name, text)
	return nil
}

// readRegion captures the region and hands it to the text-recognition
// service.
func (r *Runner) readRegion(roi *model.ROI) (string, error) {
	if r.ctx.OCR == nil {
		return "", fmt.Errorf("no text-recognition service configured")
	}
	img, err := r.ctx.Caps.Capture(roi)
	if err != nil {
		return "", err
	}
	return r.ctx.OCR.ReadText(img)
}

func waitTimeout(a *model.Action) time.Duration {
	ms := a.TimeoutMs
	if ms <= 0 {
		ms = defaultWaitTimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}
