// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/stow/internal/tree"
)

// TreeFixture is a scratch directory tree removed when the test ends.
type TreeFixture struct {
	t    testing.TB
	Root string
}

// NewTreeFixture creates an empty fixture in a fresh temporary directory.
func NewTreeFixture(t testing.TB) *TreeFixture {
	t.Helper()
	return &TreeFixture{t: t, Root: t.TempDir()}
}

// Path returns the filesystem path of the slash-separated rel.
func (f *TreeFixture) Path(rel string) string {
	return filepath.Join(f.Root, filepath.FromSlash(rel))
}

// CreateFile creates rel with some fixed content.
func (f *TreeFixture) CreateFile(rel string) string {
	return f.CreateFileWithContents(rel, []byte("contents"))
}

// CreateFileWithContents creates rel holding data. Parent directories must
// already exist.
func (f *TreeFixture) CreateFileWithContents(rel string, data []byte) string {
	f.t.Helper()
	p := f.Path(rel)
	require.NoError(f.t, os.WriteFile(p, data, 0o644))
	return p
}

// CreateDir creates the directory rel.
func (f *TreeFixture) CreateDir(rel string) string {
	f.t.Helper()
	p := f.Path(rel)
	require.NoError(f.t, os.Mkdir(p, 0o755))
	return p
}

// CreateSymlink creates rel pointing at target.
func (f *TreeFixture) CreateSymlink(rel, target string) string {
	f.t.Helper()
	p := f.Path(rel)
	require.NoError(f.t, os.Symlink(target, p))
	return p
}

// EntrySummary is the part of an entry that must survive a copy.
type EntrySummary struct {
	Apath  string
	Kind   tree.Kind
	Size   int64
	Target string
}

// Summarize drains it.
func Summarize(it tree.Iter) []EntrySummary {
	var out []EntrySummary
	for {
		e, ok := it.Next()
		if !ok {
			return out
		}
		s := EntrySummary{Apath: e.Apath().String(), Kind: e.Kind()}
		if n, ok := e.Size(); ok {
			s.Size = n
		}
		if target, ok := e.SymlinkTarget(); ok {
			s.Target = target
		}
		out = append(out, s)
	}
}

// SummarizeTree walks t from the start.
func SummarizeTree(t testing.TB, rt tree.ReadTree) []EntrySummary {
	t.Helper()
	it, err := rt.IterEntries()
	require.NoError(t, err)
	return Summarize(it)
}

// Apaths returns just the paths of entries.
func Apaths(entries []EntrySummary) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Apath
	}
	return out
}
