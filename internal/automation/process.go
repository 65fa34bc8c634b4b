package automation

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-vgo/robotgo"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/pkg/utils"
)

// ActivateProcess brings the named application's window to the foreground so
// injected input lands in the right place. Best effort: callers treat a
// failure as a warning, not a run blocker.
func ActivateProcess(name string) error {
	if name == "" {
		return fmt.Errorf("empty process name")
	}
	if utils.GetCurrentOS() == "macos" {
		if err := activateMac(name); err == nil {
			return nil
		}
	}
	return activateByPid(name)
}

// activateMac asks System Events first so apps that are running but hidden
// still come forward.
func activateMac(name string) error {
	script := fmt.Sprintf(`
		tell application "System Events"
			set appRunning to exists (processes where name is "%s")
			if appRunning then
				set frontmost of process "%s" to true
			else
				try
					tell application "%s" to activate
				on error
					return false
				end try
			end if
		end tell
		return true
	`, name, name, name)

	out, err := exec.Command("osascript", "-e", script).Output()
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(out)) == "false" {
		return fmt.Errorf("application %q not found", name)
	}
	return nil
}

// activateByPid finds the process by name and raises it through robotgo.
func activateByPid(name string) error {
	procs, err := robotgo.Process()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	target := strings.TrimSuffix(name, ".exe")
	for _, proc := range procs {
		if strings.EqualFold(strings.TrimSuffix(proc.Name, ".exe"), target) {
			if err := robotgo.ActivePid(proc.Pid); err != nil {
				return fmt.Errorf("activate pid %d: %w", proc.Pid, err)
			}
			return nil
		}
	}
	return fmt.Errorf("process %q not found", name)
}
