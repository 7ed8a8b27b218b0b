// Package ui handles terminal color detection and status rendering for
// CLI output.
package ui

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI256 color codes used for status rendering.
const (
	colorPending    = 179 // amber
	colorProcessing = 74  // blue
	colorCompleted  = 108 // green
	colorFailed     = 167 // red
	colorMuted      = 245 // medium gray
)

var colorEnabled = detectColor()

// detectColor reports whether ANSI colors should be used on stdout,
// respecting NO_COLOR, CLICOLOR_FORCE, CLICOLOR, and TTY detection.
func detectColor() bool {
	// https://no-color.org — any non-empty value disables color.
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR")) == "0" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ForceNoColor disables color output globally, overriding detection.
func ForceNoColor() {
	colorEnabled = false
}

func render(code int, s string) string {
	if !colorEnabled {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderStatus returns an event status colored by its state.
func RenderStatus(status string) string {
	switch status {
	case "pending":
		return render(colorPending, status)
	case "processing":
		return render(colorProcessing, status)
	case "completed":
		return render(colorCompleted, status)
	case "failed":
		return render(colorFailed, status)
	}
	return render(colorMuted, status)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return render(colorMuted, s)
}
