package ui

import "github.com/bamsammich/stow/internal/event"

// Event is the engine's progress event.
type Event = event.Event

// Re-export event types for convenience.
const (
	MeasureStarted  = event.MeasureStarted
	MeasureComplete = event.MeasureComplete
	CopyStarted     = event.CopyStarted
	DirCopied       = event.DirCopied
	FileCopied      = event.FileCopied
	SymlinkCopied   = event.SymlinkCopied
	EntryFailed     = event.EntryFailed
	EntrySkipped    = event.EntrySkipped
	CopyComplete    = event.CopyComplete
	VerifyStarted   = event.VerifyStarted
	VerifyOK        = event.VerifyOK
	VerifyFailed    = event.VerifyFailed
)
