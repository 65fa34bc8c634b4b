// Package ocr defines the text-recognition contract. Recognition itself is a
// black box: the runtime hands pixels out and gets a string back.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strings"
	"time"
)

// Reader extracts text from an image region.
type Reader interface {
	ReadText(img image.Image) (string, error)
}

// CommandReader pipes a PNG-encoded region to an external recognizer command
// and returns its trimmed stdout. Works with any tesseract-style tool that
// reads stdin and writes stdout, e.g. "tesseract stdin stdout".
type CommandReader struct {
	Command []string
	Timeout time.Duration
}

// NewCommandReader builds a reader around the given argv.
func NewCommandReader(command ...string) *CommandReader {
	return &CommandReader{Command: command, Timeout: 10 * time.Second}
}

// ReadText implements Reader.
func (r *CommandReader) ReadText(img image.Image) (string, error) {
	if len(r.Command) == 0 {
		return "", fmt.Errorf("no recognizer command configured")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode region: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	cmd.Stdin = &buf
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("recognizer %q: %w", r.Command[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}
