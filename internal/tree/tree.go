// Package tree defines the capability sets shared by everything that can be
// walked or written as a tree of entries: live filesystem directories and
// stored archive versions.
package tree

import (
	"io"
	"time"

	"github.com/bamsammich/stow/internal/apath"
	"github.com/bamsammich/stow/internal/stats"
)

// Kind is the type of a tree entry.
type Kind uint8

const (
	Unknown Kind = iota
	File
	Dir
	Symlink
)

func (k Kind) String() string {
	switch k {
	case File:
		return "File"
	case Dir:
		return "Dir"
	case Symlink:
		return "Symlink"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized names
// decode as Unknown.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "File":
		*k = File
	case "Dir":
		*k = Dir
	case "Symlink":
		*k = Symlink
	default:
		*k = Unknown
	}
	return nil
}

// Entry is one file, directory or symlink in a tree.
type Entry interface {
	Apath() apath.Apath
	Kind() Kind
	MTime() time.Time
	// Size is the length of a regular file's content; ok is false for
	// other kinds.
	Size() (size int64, ok bool)
	// SymlinkTarget is the target of a symlink; ok is false for other kinds.
	SymlinkTarget() (target string, ok bool)
}

// Iter yields entries in apath order. ok is false once it is exhausted.
type Iter interface {
	Next() (e Entry, ok bool)
}

// TreeSize is the measured size of a tree.
type TreeSize struct {
	Entries   uint64
	FileBytes uint64
}

// ReadTree is a tree that can be walked in apath order and whose file
// contents can be read.
type ReadTree interface {
	IterEntries() (Iter, error)
	FileContents(e Entry) (io.ReadCloser, error)
	// EstimateCount returns a rough count of entries, for progress.
	EstimateCount() (uint64, error)
	// Size walks the whole tree and totals its file content.
	Size() (TreeSize, error)
}

// WriteTree receives entries in apath order.
type WriteTree interface {
	CopyDir(e Entry) error
	CopyFile(e Entry, from ReadTree) (stats.CopyStats, error)
	CopySymlink(e Entry) error
	// Finish flushes anything buffered and returns statistics not yet
	// reported by CopyFile.
	Finish() (stats.CopyStats, error)
}

// Measure drains it, totalling its entries and file bytes. Trees use it to
// implement ReadTree.Size.
func Measure(it Iter) TreeSize {
	var s TreeSize
	for {
		e, ok := it.Next()
		if !ok {
			return s
		}
		s.Entries++
		if n, ok := e.Size(); ok && e.Kind() == File {
			s.FileBytes += uint64(n)
		}
	}
}
