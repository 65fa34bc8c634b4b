package utils

import (
	"os"
	"path/filepath"
	"runtime"
)

// GetAppDataDir returns the per-OS directory for runtime state (log files,
// the single-instance lock).
func GetAppDataDir() string {
	var dir string

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			dir = filepath.Join(appData, "RetroAuto")
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, "Library", "Application Support", "RetroAuto")
		}
	}

	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".retroauto")
		} else {
			dir = filepath.Join(".", ".retroauto")
		}
	}

	return dir
}
