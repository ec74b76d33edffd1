package ui

import (
	"io"

	"golang.org/x/term"
)

const defaultColumns = 80

type fdWriter interface {
	io.Writer
	Fd() uintptr
}

// IsTerminal reports whether w writes to an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fdWriter)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Columns returns the width of the terminal behind w, or 80 when w is not
// a terminal.
func Columns(w io.Writer) int {
	f, ok := w.(fdWriter)
	if !ok {
		return defaultColumns
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 {
		return defaultColumns
	}
	return cols
}
