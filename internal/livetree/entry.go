package livetree

import (
	"io/fs"
	"time"

	"github.com/bamsammich/stow/internal/apath"
	"github.com/bamsammich/stow/internal/tree"
)

var _ tree.Entry = (*Entry)(nil)

// Entry is a file, directory or symlink found in a live tree.
type Entry struct {
	apath     apath.Apath
	kind      tree.Kind
	mtime     time.Time
	size      int64
	hasSize   bool
	target    string
	hasTarget bool
}

func entryFromInfo(a apath.Apath, info fs.FileInfo, target string) *Entry {
	e := &Entry{
		apath: a,
		kind:  kindOf(info.Mode()),
		mtime: info.ModTime(),
	}
	switch e.kind {
	case tree.File:
		e.size, e.hasSize = info.Size(), true
	case tree.Symlink:
		e.target, e.hasTarget = target, true
	}
	return e
}

func kindOf(mode fs.FileMode) tree.Kind {
	switch {
	case mode.IsRegular():
		return tree.File
	case mode.IsDir():
		return tree.Dir
	case mode&fs.ModeSymlink != 0:
		return tree.Symlink
	default:
		return tree.Unknown
	}
}

func (e *Entry) Apath() apath.Apath { return e.apath }
func (e *Entry) Kind() tree.Kind    { return e.kind }
func (e *Entry) MTime() time.Time   { return e.mtime }

func (e *Entry) Size() (int64, bool) { return e.size, e.hasSize }

func (e *Entry) SymlinkTarget() (string, bool) { return e.target, e.hasTarget }
