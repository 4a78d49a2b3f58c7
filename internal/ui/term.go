package ui

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether f refers to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
