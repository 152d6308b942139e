// Package ui holds the terminal styling shared by the CLI commands.
package ui

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/law-makers/shelfscan/pkg/models"
)

// ANSI color and style sequences for CLI output. They are emptied by
// Disable when stdout is not a terminal or NO_COLOR is set.
var (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

func init() {
	fd := os.Stdout.Fd()
	if !ShouldColor(os.Getenv("NO_COLOR"), isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) {
		Disable()
	}
}

// ShouldColor reports whether output gets colored, given the NO_COLOR value
// and whether stdout is a terminal.
func ShouldColor(noColor string, terminal bool) bool {
	return noColor == "" && terminal
}

// Disable turns every style sequence into the empty string
func Disable() {
	for _, c := range []*string{
		&ColorReset, &ColorBold, &ColorDim,
		&ColorCyan, &ColorGreen, &ColorYellow, &ColorWhite, &ColorRed,
	} {
		*c = ""
	}
}

func Bold(s string) string {
	return ColorBold + s + ColorReset
}

func Success(s string) string {
	return ColorGreen + s + ColorReset
}

func Info(s string) string {
	return ColorDim + ColorYellow + s + ColorReset
}

func Error(s string) string {
	return ColorRed + s + ColorReset
}

// Status colors a run status: green when complete, yellow when the site ran
// out of pages, red otherwise.
func Status(s models.RunStatus) string {
	switch s {
	case models.StatusComplete:
		return Success(string(s))
	case models.StatusIncomplete:
		return Info(string(s))
	default:
		return Error(string(s))
	}
}
