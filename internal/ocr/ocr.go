// Package ocr recognizes text in grievance images by driving the tesseract
// binary as a subprocess.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Engine invokes tesseract with a fixed language list. Each Recognize call is
// an independent subprocess, so one Engine is safe for concurrent requests.
type Engine struct {
	binary string
	langs  string
}

// NewEngine builds an Engine for the given tesseract binary and languages.
// An empty binary falls back to "tesseract" on PATH; an empty language list
// falls back to English.
func NewEngine(binary string, languages []string) *Engine {
	if binary == "" {
		binary = "tesseract"
	}
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Engine{binary: binary, langs: strings.Join(languages, "+")}
}

// Detect reports whether the configured binary can be invoked at all.
func (e *Engine) Detect() bool {
	return exec.Command(e.binary, "--version").Run() == nil
}

// Recognize runs OCR on the image at path and returns all recognized text
// fragments joined with single spaces, trimmed. An empty result means the
// image carries no legible text; that is a valid outcome, not an error.
func (e *Engine) Recognize(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, e.binary, path, "stdout", "-l", e.langs)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("tesseract: %s: %w", detail, err)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.Join(strings.Fields(stdout.String()), " "), nil
}
