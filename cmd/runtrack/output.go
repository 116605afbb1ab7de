package main

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"runtrack/internal/logging"
)

// isTTY checks if stdout is a terminal
func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func init() {
	if !isTTY() {
		color.NoColor = true
	}
}

// severity colours a diagnostic level.
func severity(level logging.Level) string {
	switch {
	case level >= logging.LevelError:
		return red(level.String())
	case level >= logging.LevelWarn:
		return yellow(level.String())
	default:
		return gray(level.String())
	}
}
