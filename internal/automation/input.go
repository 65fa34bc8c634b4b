package automation

import (
	"strings"

	"github.com/go-vgo/robotgo"
)

// Input is the fixed-contract OS input injector.
type Input interface {
	Move(x, y int)
	Click(button string, double bool)
	DragTo(x, y int)
	Scroll(amount int)
	KeyTap(key string, modifiers ...string) error
	TypeStr(text string)
}

// RobotgoInput injects real input through robotgo.
type RobotgoInput struct{}

// NewRobotgoInput returns the live input injector.
func NewRobotgoInput() *RobotgoInput {
	return &RobotgoInput{}
}

// Move implements Input.
func (RobotgoInput) Move(x, y int) {
	robotgo.Move(x, y)
}

// Click implements Input.
func (RobotgoInput) Click(button string, double bool) {
	if button == "" {
		button = "left"
	}
	robotgo.Click(button, double)
}

// DragTo implements Input. Drags from the current cursor position.
func (RobotgoInput) DragTo(x, y int) {
	robotgo.DragSmooth(x, y)
}

// Scroll implements Input. Positive scrolls up.
func (RobotgoInput) Scroll(amount int) {
	robotgo.Scroll(0, amount)
}

// KeyTap implements Input.
func (RobotgoInput) KeyTap(key string, modifiers ...string) error {
	mods := make([]interface{}, len(modifiers))
	for i, mod := range normalizeModifiers(modifiers) {
		mods[i] = mod
	}
	return robotgo.KeyTap(key, mods...)
}

// TypeStr implements Input.
func (RobotgoInput) TypeStr(text string) {
	robotgo.TypeStr(text)
}

// normalizeModifiers maps common modifier aliases onto robotgo's names.
func normalizeModifiers(modifiers []string) []string {
	out := make([]string, len(modifiers))
	for i, mod := range modifiers {
		switch strings.ToLower(mod) {
		case "command", "cmd", "super":
			out[i] = "command"
		case "control", "ctrl":
			out[i] = "control"
		case "alt", "option":
			out[i] = "alt"
		case "shift":
			out[i] = "shift"
		default:
			out[i] = mod
		}
	}
	return out
}
