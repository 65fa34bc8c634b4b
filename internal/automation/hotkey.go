package automation

import (
	"log/slog"

	hook "github.com/robotn/gohook"
)

// escape rawcodes seen across platforms (win32 VK_ESCAPE, X11, macOS).
var escRawcodes = map[uint16]bool{27: true, 53: true, 65307: true}

// ArmStopHotkey installs a global Esc listener that stops the run. Returns a
// disarm function. The hook runs on its own goroutine and is released on
// disarm.
func ArmStopHotkey(ctx *RunContext, log *slog.Logger) func() {
	if log == nil {
		log = slog.Default()
	}
	stopCh := make(chan struct{})

	go func() {
		evChan := hook.Start()
		defer hook.End()

		for {
			select {
			case ev := <-evChan:
				if ev.Kind == hook.KeyDown && (escRawcodes[ev.Rawcode] || ev.Keychar == 27) {
					log.Info("stop hotkey pressed")
					ctx.RequestStop()
				}
			case <-stopCh:
				return
			}
		}
	}()

	return func() { close(stopCh) }
}
