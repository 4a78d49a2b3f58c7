package engine_test

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/stow/internal/apath"
	"github.com/bamsammich/stow/internal/archive"
	"github.com/bamsammich/stow/internal/engine"
	"github.com/bamsammich/stow/internal/event"
	"github.com/bamsammich/stow/internal/livetree"
	"github.com/bamsammich/stow/internal/stats"
	"github.com/bamsammich/stow/internal/testutil"
	"github.com/bamsammich/stow/internal/tree"
)

var quietLogger = slog.New(slog.DiscardHandler)

// createTestTree populates a fixture with a standard test tree:
//
//	root.txt          (17 bytes)
//	big.bin           (320KB)
//	sub/mid.txt       (19 bytes)
//	sub/deep/leaf.txt (17 bytes)
//	link.txt          → root.txt (symlink)
func createTestTree(t *testing.T) *testutil.TreeFixture {
	t.Helper()
	tf := testutil.NewTreeFixture(t)
	tf.CreateDir("sub")
	tf.CreateDir("sub/deep")
	tf.CreateFileWithContents("root.txt", []byte("root file content"))
	tf.CreateFileWithContents("big.bin", bytes.Repeat([]byte("ABCDEFGHIJKLMNOP"), 20000))
	tf.CreateFileWithContents("sub/mid.txt", []byte("middle file content"))
	tf.CreateFileWithContents("sub/deep/leaf.txt", []byte("leaf file content"))
	tf.CreateSymlink("link.txt", "root.txt")
	return tf
}

const testTreeBytes = 17 + 320000 + 19 + 17

func openLive(t *testing.T, root string) *livetree.LiveTree {
	t.Helper()
	lt, err := livetree.Open(root, stats.NewReport().WithLogger(quietLogger))
	require.NoError(t, err)
	return lt
}

func newWriter(t *testing.T) *livetree.Writer {
	t.Helper()
	w, err := livetree.NewWriter(filepath.Join(t.TempDir(), "dst"), nil)
	require.NoError(t, err)
	return w
}

func TestCopyTreeLiveToLive(t *testing.T) {
	tf := createTestTree(t)
	src := openLive(t, tf.Root)
	w := newWriter(t)

	s, err := engine.CopyTree(src, w, engine.Options{Logger: quietLogger})
	require.NoError(t, err)
	assert.Equal(t, stats.CopyStats{
		Directories: 3,
		Files:       4,
		Symlinks:    1,
		FileBytes:   testTreeBytes,
	}, s)

	want := testutil.SummarizeTree(t, src)
	got := testutil.SummarizeTree(t, openLive(t, w.Root()))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("restored tree differs (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(filepath.Join(w.Root(), "sub", "deep", "leaf.txt"))
	require.NoError(t, err)
	assert.Equal(t, "leaf file content", string(data))
}

func TestCopyTreeThroughArchive(t *testing.T) {
	tf := createTestTree(t)
	src := openLive(t, tf.Root)

	a, err := archive.Create(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)
	defer a.Close()

	bw, err := archive.BeginBackup(a)
	require.NoError(t, err)
	s, err := engine.CopyTree(src, bw, engine.Options{Logger: quietLogger})
	require.NoError(t, err)
	assert.Equal(t, int64(8), s.Entries())
	assert.Equal(t, int64(testTreeBytes), s.FileBytes)
	assert.Equal(t, int64(1), s.IndexHunks)
	assert.Positive(t, s.Blocks)
	assert.Positive(t, s.CompressedBytes)
	assert.Less(t, s.CompressedBytes, s.FileBytes)

	st, err := archive.OpenStoredTree(a, nil, nil)
	require.NoError(t, err)
	w := newWriter(t)
	rs, err := engine.CopyTree(st, w, engine.Options{Logger: quietLogger})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rs.Errors)
	assert.Equal(t, int64(testTreeBytes), rs.FileBytes)

	want := testutil.SummarizeTree(t, src)
	if diff := cmp.Diff(want, testutil.SummarizeTree(t, st)); diff != "" {
		t.Errorf("stored tree differs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, testutil.SummarizeTree(t, openLive(t, w.Root()))); diff != "" {
		t.Errorf("restored tree differs (-want +got):\n%s", diff)
	}

	result, err := engine.Verify(src, openLive(t, w.Root()), engine.VerifyOptions{Logger: quietLogger})
	require.NoError(t, err)
	assert.True(t, result.OK(), "%v", result.Diffs)
	assert.Equal(t, int64(8), result.Verified)
}

// failingWriter fails CopyFile for one path and passes everything else to
// the wrapped writer.
type failingWriter struct {
	tree.WriteTree
	failPath string
}

func (w *failingWriter) CopyFile(e tree.Entry, from tree.ReadTree) (stats.CopyStats, error) {
	if e.Apath().String() == w.failPath {
		return stats.CopyStats{}, errors.New("simulated write failure")
	}
	return w.WriteTree.CopyFile(e, from)
}

func TestCopyTreeContinuesAfterFailure(t *testing.T) {
	tf := createTestTree(t)
	src := openLive(t, tf.Root)
	w := newWriter(t)
	rep := stats.NewReport().WithLogger(quietLogger)
	events := make(chan event.Event, 100)

	s, err := engine.CopyTree(src, &failingWriter{WriteTree: w, failPath: "/sub/mid.txt"},
		engine.Options{Report: rep, Events: events})
	require.NoError(t, err)
	close(events)

	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(4), s.Files)
	assert.Equal(t, int64(testTreeBytes-19), s.FileBytes)
	assert.Equal(t, int64(1), rep.Get(stats.Errors))

	assert.NoFileExists(t, filepath.Join(w.Root(), "sub", "mid.txt"))
	assert.FileExists(t, filepath.Join(w.Root(), "sub", "deep", "leaf.txt"))
	assert.FileExists(t, filepath.Join(w.Root(), "root.txt"))

	var failed []string
	for e := range events {
		if e.Type == event.EntryFailed {
			failed = append(failed, e.Path)
			assert.EqualError(t, e.Error, "simulated write failure")
		}
	}
	assert.Equal(t, []string{"/sub/mid.txt"}, failed)
}

// fakeEntry and sliceTree serve a fixed list of entries.
type fakeEntry struct {
	path string
	kind tree.Kind
	data string
}

func (e fakeEntry) Apath() apath.Apath { return apath.New(e.path) }
func (e fakeEntry) Kind() tree.Kind    { return e.kind }
func (fakeEntry) MTime() time.Time     { return time.Unix(1600000000, 0) }

func (e fakeEntry) Size() (int64, bool) {
	return int64(len(e.data)), e.kind == tree.File
}

func (e fakeEntry) SymlinkTarget() (string, bool) {
	return e.data, e.kind == tree.Symlink
}

type sliceTree struct {
	entries []fakeEntry
	iterErr error
}

type sliceIter struct {
	entries []fakeEntry
}

func (it *sliceIter) Next() (tree.Entry, bool) {
	if len(it.entries) == 0 {
		return nil, false
	}
	e := it.entries[0]
	it.entries = it.entries[1:]
	return e, true
}

func (t *sliceTree) IterEntries() (tree.Iter, error) {
	if t.iterErr != nil {
		return nil, t.iterErr
	}
	return &sliceIter{entries: t.entries}, nil
}

func (t *sliceTree) FileContents(e tree.Entry) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(e.(fakeEntry).data)), nil
}

func (t *sliceTree) EstimateCount() (uint64, error) { return uint64(len(t.entries)), nil }

func (t *sliceTree) Size() (tree.TreeSize, error) {
	it, _ := t.IterEntries()
	return tree.Measure(it), nil
}

func TestCopyTreeSkipsUnknownKind(t *testing.T) {
	src := &sliceTree{entries: []fakeEntry{
		{path: "/", kind: tree.Dir},
		{path: "/a", kind: tree.File, data: "aaa"},
		{path: "/fifo", kind: tree.Unknown},
		{path: "/z", kind: tree.Symlink, data: "a"},
	}}
	w := newWriter(t)

	s, err := engine.CopyTree(src, w, engine.Options{Logger: quietLogger})
	require.NoError(t, err)
	assert.Equal(t, stats.CopyStats{Directories: 1, Files: 1, Symlinks: 1, UnknownKind: 1, FileBytes: 3}, s)
	assert.NoFileExists(t, filepath.Join(w.Root(), "fifo"))
	assert.FileExists(t, filepath.Join(w.Root(), "a"))
}

func TestCopyTreePrintFilenames(t *testing.T) {
	src := &sliceTree{entries: []fakeEntry{
		{path: "/", kind: tree.Dir},
		{path: "/a", kind: tree.File, data: "x"},
		{path: "/b", kind: tree.Dir},
		{path: "/b/c", kind: tree.File, data: "y"},
	}}
	var out bytes.Buffer
	_, err := engine.CopyTree(src, newWriter(t), engine.Options{PrintFilenames: true, Out: &out, Logger: quietLogger})
	require.NoError(t, err)
	assert.Equal(t, "/\n/a\n/b\n/b/c\n", out.String())
}

func TestCopyTreeMeasureFirst(t *testing.T) {
	tf := createTestTree(t)
	src := openLive(t, tf.Root)
	progress := stats.NewProgress()
	events := make(chan event.Event, 100)

	_, err := engine.CopyTree(src, newWriter(t), engine.Options{
		MeasureFirst: true,
		Progress:     progress,
		Events:       events,
		Logger:       quietLogger,
	})
	require.NoError(t, err)
	close(events)

	snap := progress.Snapshot()
	assert.Equal(t, int64(8), snap.EntriesTotal)
	assert.Equal(t, int64(testTreeBytes), snap.BytesTotal)
	assert.Equal(t, int64(8), snap.EntriesDone)
	assert.Equal(t, int64(testTreeBytes), snap.BytesDone)
	assert.Equal(t, "Copying", snap.Phase)

	var types []event.Type
	for e := range events {
		types = append(types, e.Type)
	}
	require.GreaterOrEqual(t, len(types), 4)
	assert.Equal(t, []event.Type{event.MeasureStarted, event.MeasureComplete, event.CopyStarted}, types[:3])
	assert.Equal(t, event.CopyComplete, types[len(types)-1])
}

func TestCopyTreeSourceFailureIsReturned(t *testing.T) {
	src := &sliceTree{iterErr: errors.New("cannot open source")}
	_, err := engine.CopyTree(src, newWriter(t), engine.Options{Logger: quietLogger})
	assert.EqualError(t, err, "cannot open source")
}

type finishFailsWriter struct {
	tree.WriteTree
}

func (finishFailsWriter) Finish() (stats.CopyStats, error) {
	return stats.CopyStats{IndexHunks: 1}, errors.New("disk full")
}

func TestCopyTreeFinishFailureIsReturned(t *testing.T) {
	src := &sliceTree{entries: []fakeEntry{{path: "/", kind: tree.Dir}}}
	s, err := engine.CopyTree(src, finishFailsWriter{newWriter(t)}, engine.Options{Logger: quietLogger})
	assert.ErrorContains(t, err, "finish destination: disk full")
	assert.Equal(t, int64(1), s.IndexHunks)
	assert.Equal(t, int64(1), s.Directories)
}
