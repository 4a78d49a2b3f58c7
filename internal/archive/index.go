package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/bamsammich/stow/internal/apath"
	"github.com/bamsammich/stow/internal/errors"
	"github.com/bamsammich/stow/internal/tree"
)

// MaxEntriesPerHunk is the most entries written into one index hunk.
const MaxEntriesPerHunk = 1000

var _ tree.Entry = (*IndexEntry)(nil)

// IndexEntry describes one stored entry.
type IndexEntry struct {
	Path       apath.Apath `json:"apath"`
	EntryKind  tree.Kind   `json:"kind"`
	MTimeSecs  int64       `json:"mtime"`
	MTimeNanos uint32      `json:"mtime_nanos,omitempty"`
	// Addrs hold a file's content, in order.
	Addrs []Address `json:"addrs,omitempty"`
	// Target is set for symlinks only.
	Target *string `json:"target,omitempty"`
}

// newIndexEntry records e with the given content addresses.
func newIndexEntry(e tree.Entry, addrs []Address) IndexEntry {
	mtime := e.MTime()
	ie := IndexEntry{
		Path:       e.Apath(),
		EntryKind:  e.Kind(),
		MTimeSecs:  mtime.Unix(),
		MTimeNanos: uint32(mtime.Nanosecond()),
		Addrs:      addrs,
	}
	if target, ok := e.SymlinkTarget(); ok {
		ie.Target = &target
	}
	return ie
}

func (e *IndexEntry) Apath() apath.Apath { return e.Path }
func (e *IndexEntry) Kind() tree.Kind    { return e.EntryKind }

func (e *IndexEntry) MTime() time.Time {
	return time.Unix(e.MTimeSecs, int64(e.MTimeNanos))
}

// Size is the sum of the lengths of a file's addresses.
func (e *IndexEntry) Size() (int64, bool) {
	if e.EntryKind != tree.File {
		return 0, false
	}
	var n uint64
	for _, a := range e.Addrs {
		n += a.Len
	}
	return int64(n), true
}

func (e *IndexEntry) SymlinkTarget() (string, bool) {
	if e.EntryKind != tree.Symlink || e.Target == nil {
		return "", false
	}
	return *e.Target, true
}

func hunkName(n uint64) string { return fmt.Sprintf("%08d", n) }

// indexWriter accumulates entries and writes them out in hunks.
type indexWriter struct {
	dir   string
	enc   *zstd.Encoder
	buf   []IndexEntry
	hunks uint64
	check apath.CheckOrder
}

func newIndexWriter(dir string, enc *zstd.Encoder) *indexWriter {
	return &indexWriter{dir: dir, enc: enc}
}

// push adds an entry, which must sort after every entry pushed before.
func (w *indexWriter) push(e IndexEntry) error {
	w.check.Check(e.Path)
	w.buf = append(w.buf, e)
	if len(w.buf) >= MaxEntriesPerHunk {
		return w.flush()
	}
	return nil
}

func (w *indexWriter) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	data, err := json.Marshal(w.buf)
	if err != nil {
		return errors.WithStack(err)
	}
	path := filepath.Join(w.dir, hunkName(w.hunks))
	if err := writeFileAtomic(path, w.enc.EncodeAll(data, nil)); err != nil {
		return errors.Wrap(err, "write index hunk")
	}
	w.hunks++
	w.buf = w.buf[:0]
	return nil
}

// finish writes any buffered entries and returns the number of hunks.
func (w *indexWriter) finish() (uint64, error) {
	if err := w.flush(); err != nil {
		return w.hunks, err
	}
	return w.hunks, nil
}

// listHunks returns the hunk file names in dir, in order. Names that are
// not hunks, such as leftover temporary files, are ignored.
func listHunks(dir string) ([]string, error) {
	children, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var names []string
	for _, c := range children {
		if isHunkName(c.Name()) {
			names = append(names, c.Name())
		}
	}
	return names, nil
}

func isHunkName(name string) bool {
	if len(name) != 8 {
		return false
	}
	for _, c := range name {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func readHunk(path string, dec *zstd.Decoder) ([]IndexEntry, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	data, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress index hunk %s", path)
	}
	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "decode index hunk %s", path)
	}
	return entries, nil
}
