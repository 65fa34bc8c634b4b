// Package logx wires the structured log stream: a leveled text handler on
// stderr, optionally fanned out to a log file.
package logx

import (
	"fmt"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

var Level = new(slog.LevelVar)

// Setup installs the default logger. When file is non-empty, records are
// fanned out to it in addition to stderr. Returns a closer for the file.
func Setup(file string) (func(), error) {
	opts := &slog.HandlerOptions{Level: Level}
	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, opts)}
	closer := func() {}

	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
		closer = func() { f.Close() }
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))
	return closer, nil
}

// SetDebug drops the level to debug.
func SetDebug() {
	Level.Set(slog.LevelDebug)
}
