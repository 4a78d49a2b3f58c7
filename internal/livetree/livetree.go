// Package livetree reads and writes trees on the local filesystem.
//
// LiveTree walks a directory in apath order, so its entries can be written
// straight into an archive index. Writer is the other direction: it
// recreates a tree, typically one restored from an archive, in an empty
// directory.
package livetree

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bamsammich/stow/internal/errors"
	"github.com/bamsammich/stow/internal/filter"
	"github.com/bamsammich/stow/internal/stats"
	"github.com/bamsammich/stow/internal/tree"
)

var _ tree.ReadTree = (*LiveTree)(nil)

// LiveTree is a directory on the local filesystem that can be read as a
// tree.
type LiveTree struct {
	root     string
	report   *stats.Report
	excludes filter.Matcher
}

// Open returns the tree rooted at root. Problems found while walking it are
// recorded on rep. The root is not checked until it is walked.
func Open(root string, rep *stats.Report) (*LiveTree, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", root)
	}
	if rep == nil {
		rep = stats.NewReport()
	}
	return &LiveTree{root: abs, report: rep}, nil
}

// WithExcludes sets the matcher for paths to leave out. Excluded
// directories are not descended into.
func (t *LiveTree) WithExcludes(m filter.Matcher) *LiveTree {
	t.excludes = m
	return t
}

// Root returns the absolute filesystem path of the tree.
func (t *LiveTree) Root() string { return t.root }

// IterEntries starts a walk of the tree. It fails if the root cannot be
// read at all.
func (t *LiveTree) IterEntries() (tree.Iter, error) {
	return newIter(t.root, t.excludes, t.report)
}

// FileContents opens the content of a file entry. The returned value is an
// *os.File.
func (t *LiveTree) FileContents(e tree.Entry) (io.ReadCloser, error) {
	f, err := os.Open(e.Apath().Below(t.root))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return f, nil
}

// EstimateCount walks the tree counting entries. Problems met along the way
// are not recorded; they will be again during the real walk.
func (t *LiveTree) EstimateCount() (uint64, error) {
	s, err := t.Size()
	return s.Entries, err
}

// Size walks the tree and totals its file content.
func (t *LiveTree) Size() (tree.TreeSize, error) {
	quiet := stats.NewReport().WithLogger(slog.New(slog.DiscardHandler))
	it, err := newIter(t.root, t.excludes, quiet)
	if err != nil {
		return tree.TreeSize{}, err
	}
	return tree.Measure(it), nil
}
