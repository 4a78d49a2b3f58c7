// Package event defines the progress events a tree copy emits for
// presenters.
package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	MeasureStarted  Type = iota + 1
	MeasureComplete
	CopyStarted
	DirCopied
	FileCopied
	SymlinkCopied
	EntryFailed
	EntrySkipped
	CopyComplete
	VerifyStarted
	VerifyOK
	VerifyFailed
)

var typeNames = [...]string{
	MeasureStarted:  "MeasureStarted",
	MeasureComplete: "MeasureComplete",
	CopyStarted:     "CopyStarted",
	DirCopied:       "DirCopied",
	FileCopied:      "FileCopied",
	SymlinkCopied:   "SymlinkCopied",
	EntryFailed:     "EntryFailed",
	EntrySkipped:    "EntrySkipped",
	CopyComplete:    "CopyComplete",
	VerifyStarted:   "VerifyStarted",
	VerifyOK:        "VerifyOK",
	VerifyFailed:    "VerifyFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the copy engine or a
// verification pass.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // apath of the entry
	Size      int64  // file bytes (FileCopied, CopyComplete)
	Total     int64  // total entries (MeasureComplete)
	TotalSize int64  // total bytes (MeasureComplete)
	Error     error  // EntryFailed, and VerifyFailed when unreadable
}

// Emit sends e on ch with the current time, if ch is not nil.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	ch <- e
}
