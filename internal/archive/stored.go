package archive

import (
	"io"
	"log/slog"
	"path/filepath"

	"github.com/bamsammich/stow/internal/apath"
	"github.com/bamsammich/stow/internal/errors"
	"github.com/bamsammich/stow/internal/filter"
	"github.com/bamsammich/stow/internal/stats"
	"github.com/bamsammich/stow/internal/tree"
)

var (
	_ tree.ReadTree = (*StoredTree)(nil)
	_ tree.Iter     = (*StoredIter)(nil)
)

// StoredTree is a version of a tree read back from a band.
type StoredTree struct {
	archive  *Archive
	band     *Band
	report   *stats.Report
	excludes filter.Matcher
}

// OpenStoredTree opens the version in band id, or the last complete band
// if id is nil.
func OpenStoredTree(a *Archive, id *BandID, rep *stats.Report) (*StoredTree, error) {
	if rep == nil {
		rep = stats.NewReport()
	}
	var band *Band
	var err error
	if id != nil {
		band, err = a.OpenBand(*id)
	} else {
		band, err = a.LastCompleteBand()
	}
	if err != nil {
		return nil, err
	}
	return &StoredTree{archive: a, band: band, report: rep}, nil
}

// WithExcludes sets the matcher for paths to leave out. Everything below an
// excluded directory is left out too.
func (t *StoredTree) WithExcludes(m filter.Matcher) *StoredTree {
	t.excludes = m
	return t
}

// Band returns the band being read.
func (t *StoredTree) Band() *Band { return t.band }

func (t *StoredTree) IterEntries() (tree.Iter, error) {
	return t.iter(t.report)
}

func (t *StoredTree) iter(rep *stats.Report) (*StoredIter, error) {
	hunks, err := listHunks(t.band.indexDir())
	if err != nil {
		return nil, errors.Wrapf(err, "list index of band %s", t.band.id)
	}
	return &StoredIter{
		dir:          t.band.indexDir(),
		tree:         t,
		report:       rep,
		hunks:        hunks,
		excludedDirs: make(map[apath.Apath]struct{}),
	}, nil
}

// FileContents returns a reader over the blocks of a stored file.
func (t *StoredTree) FileContents(e tree.Entry) (io.ReadCloser, error) {
	ie, ok := e.(*IndexEntry)
	if !ok {
		return nil, errors.Errorf("%s is not an entry of a stored tree", e.Apath())
	}
	if ie.EntryKind != tree.File {
		return nil, errors.Errorf("%s is not a file", ie.Path)
	}
	return &storedFile{blocks: t.archive.blocks, addrs: ie.Addrs}, nil
}

func (t *StoredTree) EstimateCount() (uint64, error) {
	s, err := t.Size()
	return s.Entries, err
}

func (t *StoredTree) Size() (tree.TreeSize, error) {
	it, err := t.iter(stats.NewReport().WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		return tree.TreeSize{}, err
	}
	return tree.Measure(it), nil
}

// StoredIter reads a band's index hunks in order.
type StoredIter struct {
	dir    string
	tree   *StoredTree
	report *stats.Report

	hunks []string
	next  int
	buf   []IndexEntry
	pos   int

	excludedDirs map[apath.Apath]struct{}
	last         apath.Apath
}

func (it *StoredIter) Next() (tree.Entry, bool) {
	for {
		if it.pos >= len(it.buf) {
			if !it.loadHunk() {
				return nil, false
			}
			continue
		}
		e := &it.buf[it.pos]
		it.pos++

		if !it.last.IsZero() && !it.last.Less(e.Path) {
			it.report.Problem("index entry out of order",
				"band", it.tree.band.id.String(), "path", e.Path.String(), "after", it.last.String())
			continue
		}
		it.last = e.Path

		if it.excluded(e) {
			continue
		}
		it.report.Increment(stats.SourceSelected, 1)
		return e, true
	}
}

// loadHunk reads the next readable hunk into buf. A hunk that cannot be
// read is reported and skipped.
func (it *StoredIter) loadHunk() bool {
	for it.next < len(it.hunks) {
		name := it.hunks[it.next]
		it.next++
		entries, err := readHunk(filepath.Join(it.dir, name), it.tree.archive.blocks.dec)
		if err != nil {
			it.report.Problem("failed to read index hunk",
				"band", it.tree.band.id.String(), "hunk", name, "error", err)
			continue
		}
		it.buf, it.pos = entries, 0
		return true
	}
	return false
}

func (it *StoredIter) excluded(e *IndexEntry) bool {
	if it.tree.excludes == nil {
		return false
	}
	for p := e.Path.Parent(); !p.IsRoot(); p = p.Parent() {
		if _, ok := it.excludedDirs[p]; ok {
			return true
		}
	}
	isDir := e.EntryKind == tree.Dir
	if e.Path.IsRoot() || !it.tree.excludes.IsMatch(e.Path.String(), isDir) {
		return false
	}
	switch e.EntryKind {
	case tree.Dir:
		it.excludedDirs[e.Path] = struct{}{}
		it.report.Increment(stats.SkippedExcludedDirs, 1)
	case tree.Symlink:
		it.report.Increment(stats.SkippedExcludedSymlinks, 1)
	default:
		it.report.Increment(stats.SkippedExcludedFiles, 1)
	}
	return true
}

// storedFile reads a file's content block by block.
type storedFile struct {
	blocks *BlockDir
	addrs  []Address
	cur    []byte
}

func (f *storedFile) Read(p []byte) (int, error) {
	for len(f.cur) == 0 {
		if len(f.addrs) == 0 {
			return 0, io.EOF
		}
		data, err := f.blocks.ReadAddress(f.addrs[0])
		if err != nil {
			return 0, err
		}
		f.addrs = f.addrs[1:]
		f.cur = data
	}
	n := copy(p, f.cur)
	f.cur = f.cur[n:]
	return n, nil
}

func (*storedFile) Close() error { return nil }
