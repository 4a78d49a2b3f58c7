package livetree

import (
	"io/fs"
	"os"
	"unicode/utf8"

	"github.com/bamsammich/stow/internal/apath"
	"github.com/bamsammich/stow/internal/errors"
	"github.com/bamsammich/stow/internal/filter"
	"github.com/bamsammich/stow/internal/stats"
	"github.com/bamsammich/stow/internal/tree"
)

var _ tree.Iter = (*Iter)(nil)

// Iter walks a live tree in apath order without recursion.
//
// Two queues hold the walk state. ready holds entries already read but not
// yet returned. pending holds directories whose children are still to be
// listed, as a stack with the next directory last. A directory is listed
// only once ready is empty: all of its children join ready, and its child
// directories go on top of pending in ascending order, so they are visited
// before any directory that sorts after their parent.
type Iter struct {
	root     string
	excludes filter.Matcher
	report   *stats.Report

	ready   []*Entry
	pending []apath.Apath
	check   apath.CheckOrder
}

func newIter(root string, excludes filter.Matcher, rep *stats.Report) (*Iter, error) {
	info, err := rootInfo(root)
	if err != nil {
		fatal := errors.Fatalf("cannot open source %s: %v", root, err)
		rep.ShowError(fatal, "path", root)
		return nil, fatal
	}
	return &Iter{
		root:     root,
		excludes: excludes,
		report:   rep,
		ready:    []*Entry{entryFromInfo(apath.Root(), info, "")},
		pending:  []apath.Apath{apath.Root()},
	}, nil
}

// rootInfo describes the tree root. A root given as a symlink is followed,
// so the root entry describes the directory being walked.
func rootInfo(root string) (fs.FileInfo, error) {
	info, err := os.Lstat(root)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return info, err
	}
	return os.Stat(root)
}

// Next returns the next entry in apath order; ok is false once the tree is
// exhausted.
func (it *Iter) Next() (tree.Entry, bool) {
	for {
		if len(it.ready) > 0 {
			e := it.ready[0]
			it.ready[0] = nil
			it.ready = it.ready[1:]
			it.check.Check(e.apath)
			it.report.Increment(stats.SourceSelected, 1)
			return e, true
		}
		n := len(it.pending)
		if n == 0 {
			return nil, false
		}
		dir := it.pending[n-1]
		it.pending = it.pending[:n-1]
		it.visit(dir)
	}
}

// visit lists dir, queueing its children. Failures skip only the child
// concerned, or the whole directory if it cannot be listed.
func (it *Iter) visit(dir apath.Apath) {
	it.report.Increment(stats.SourceVisitedDirectories, 1)
	dirPath := dir.Below(it.root)

	// os.ReadDir returns entries sorted by name, which is apath order for
	// siblings.
	children, err := os.ReadDir(dirPath)
	if err != nil {
		it.report.Problem("error reading directory", "path", dir.String(), "error", err)
		return
	}

	var subdirs []apath.Apath
	for _, de := range children {
		name := de.Name()
		child, err := dir.Join(name)
		if err != nil {
			it.report.Problem("skipping entry with undecodable name",
				"dir", dir.String(), "name", name, "error", err)
			continue
		}

		if it.excluded(child, de.Type()) {
			continue
		}

		childPath := child.Below(it.root)
		info, err := os.Lstat(childPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				it.report.Problem("file disappeared during iteration", "path", child.String())
			} else {
				it.report.Increment(stats.SourceErrorMetadata, 1)
				it.report.Problem("failed to read metadata", "path", child.String(), "error", err)
			}
			continue
		}

		var target string
		if info.Mode()&fs.ModeSymlink != 0 {
			target, err = os.Readlink(childPath)
			if err != nil {
				it.report.Problem("failed to read symlink", "path", child.String(), "error", err)
				continue
			}
			if !utf8.ValidString(target) {
				it.report.Problem("skipping symlink with undecodable target", "path", child.String())
				continue
			}
		}

		e := entryFromInfo(child, info, target)
		it.ready = append(it.ready, e)
		if e.kind == tree.Dir {
			subdirs = append(subdirs, child)
		}
	}

	for i := len(subdirs) - 1; i >= 0; i-- {
		it.pending = append(it.pending, subdirs[i])
	}
}

// excluded tests child against the exclusion matcher, counting it by kind
// if it matches.
func (it *Iter) excluded(child apath.Apath, typ fs.FileMode) bool {
	if it.excludes == nil {
		return false
	}
	isDir := typ.IsDir()
	if !it.excludes.IsMatch(child.String(), isDir) {
		return false
	}
	switch {
	case isDir:
		it.report.Increment(stats.SkippedExcludedDirs, 1)
	case typ&fs.ModeSymlink != 0:
		it.report.Increment(stats.SkippedExcludedSymlinks, 1)
	default:
		it.report.Increment(stats.SkippedExcludedFiles, 1)
	}
	return true
}
