package model

// ActionKind discriminates the closed set of action variants.
type ActionKind string

const (
	KindClick       ActionKind = "click"
	KindClickImage  ActionKind = "click_image"
	KindClickRandom ActionKind = "click_random"
	KindClickUntil  ActionKind = "click_until"
	KindDrag        ActionKind = "drag"
	KindScroll      ActionKind = "scroll"
	KindHotkey      ActionKind = "hotkey"
	KindTypeText    ActionKind = "type_text"
	KindWaitImage   ActionKind = "wait_image"
	KindWaitPixel   ActionKind = "wait_pixel"
	KindIfImage     ActionKind = "if_image"
	KindIfNotImage  ActionKind = "if_not_image"
	KindIfPixel     ActionKind = "if_pixel"
	KindIfText      ActionKind = "if_text"
	KindLabel       ActionKind = "label"
	KindGoto        ActionKind = "goto"
	KindRunFlow     ActionKind = "run_flow"
	KindDelay       ActionKind = "delay"
	KindDelayRandom ActionKind = "delay_random"
	KindLoop        ActionKind = "loop"
	KindWhileImage  ActionKind = "while_image"
	KindReadText    ActionKind = "read_text"
	KindNotify      ActionKind = "notify"
)

// Action is one step of a Flow. A single struct with a kind discriminator and
// per-kind optional fields; nested slices hold the bodies of branching and
// looping kinds. Actions are immutable once loaded.
type Action struct {
	Kind ActionKind `json:"type" yaml:"type"`

	// Coordinates and geometry
	X   int  `json:"x,omitempty" yaml:"x,omitempty"`
	Y   int  `json:"y,omitempty" yaml:"y,omitempty"`
	ToX int  `json:"to_x,omitempty" yaml:"to_x,omitempty"`
	ToY int  `json:"to_y,omitempty" yaml:"to_y,omitempty"`
	ROI *ROI `json:"roi,omitempty" yaml:"roi,omitempty"`

	// Mouse
	Button  string `json:"button,omitempty" yaml:"button,omitempty"` // left, right, center
	Double  bool   `json:"double,omitempty" yaml:"double,omitempty"`
	OffsetX int    `json:"offset_x,omitempty" yaml:"offset_x,omitempty"`
	OffsetY int    `json:"offset_y,omitempty" yaml:"offset_y,omitempty"`
	Amount  int    `json:"amount,omitempty" yaml:"amount,omitempty"` // scroll ticks, negative = down

	// Keyboard / text
	Text      string   `json:"text,omitempty" yaml:"text,omitempty"`
	Key       string   `json:"key,omitempty" yaml:"key,omitempty"`
	Modifiers []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`

	// Image targets
	AssetID string `json:"asset_id,omitempty" yaml:"asset_id,omitempty"`
	UntilID string `json:"until_id,omitempty" yaml:"until_id,omitempty"` // click_until appearance target
	Vanish  bool   `json:"vanish,omitempty" yaml:"vanish,omitempty"`     // wait/while for absence instead of presence

	// Pixel targets
	Color     string `json:"color,omitempty" yaml:"color,omitempty"` // hex RRGGBB, no prefix
	Tolerance int    `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`

	// Timing (milliseconds)
	TimeoutMs  int `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	DelayMs    int `json:"delay_ms,omitempty" yaml:"delay_ms,omitempty"`
	MinMs      int `json:"min_ms,omitempty" yaml:"min_ms,omitempty"`
	MaxMs      int `json:"max_ms,omitempty" yaml:"max_ms,omitempty"`
	IntervalMs int `json:"interval_ms,omitempty" yaml:"interval_ms,omitempty"`

	// Control flow
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`   // label name, goto target
	Flow        string `json:"flow,omitempty" yaml:"flow,omitempty"`   // run_flow target
	Count       int    `json:"count,omitempty" yaml:"count,omitempty"` // loop iterations
	MaxLoops    int    `json:"max_loops,omitempty" yaml:"max_loops,omitempty"`
	MaxAttempts int    `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`

	// Text comparison
	Var    string `json:"var,omitempty" yaml:"var,omitempty"`
	Expect string `json:"expect,omitempty" yaml:"expect,omitempty"`
	Exact  bool   `json:"exact,omitempty" yaml:"exact,omitempty"`

	// Notify
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Nested bodies
	Then []Action `json:"then,omitempty" yaml:"then,omitempty"`
	Else []Action `json:"else,omitempty" yaml:"else,omitempty"`
	Body []Action `json:"body,omitempty" yaml:"body,omitempty"`
}

// IsBranch reports whether the action carries Then/Else bodies.
func (a *Action) IsBranch() bool {
	switch a.Kind {
	case KindIfImage, KindIfNotImage, KindIfPixel, KindIfText:
		return true
	}
	return false
}

// IsLoop reports whether the action carries a Body it iterates.
func (a *Action) IsLoop() bool {
	return a.Kind == KindLoop || a.Kind == KindWhileImage
}

// IsEffector reports whether the action injects OS input. The runner clears
// the capture cache after these so post-action checks see a fresh frame, and
// wraps the click-like ones with the flight recorder.
func (a *Action) IsEffector() bool {
	switch a.Kind {
	case KindClick, KindClickImage, KindClickRandom, KindClickUntil,
		KindDrag, KindScroll, KindHotkey, KindTypeText:
		return true
	}
	return false
}

// AssetRefs returns every asset id the action references, including nested
// bodies. Used by the soft pre-flight scan.
func (a *Action) AssetRefs() []string {
	var ids []string
	if a.AssetID != "" {
		ids = append(ids, a.AssetID)
	}
	if a.UntilID != "" {
		ids = append(ids, a.UntilID)
	}
	for _, children := range [][]Action{a.Then, a.Else, a.Body} {
		for i := range children {
			ids = append(ids, children[i].AssetRefs()...)
		}
	}
	return ids
}
