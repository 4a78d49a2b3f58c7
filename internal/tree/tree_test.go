package tree

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/stow/internal/apath"
)

func TestKindText(t *testing.T) {
	for _, k := range []Kind{File, Dir, Symlink, Unknown} {
		b, err := k.MarshalText()
		require.NoError(t, err)
		var got Kind
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, k, got)
	}
	assert.Equal(t, "Unknown", Kind(42).String())

	var k Kind = File
	require.NoError(t, json.Unmarshal([]byte(`"Fifo"`), &k))
	assert.Equal(t, Unknown, k)
}

type entry struct {
	path string
	kind Kind
	size int64
}

func (e entry) Apath() apath.Apath          { return apath.New(e.path) }
func (e entry) Kind() Kind                  { return e.kind }
func (entry) MTime() time.Time              { return time.Time{} }
func (e entry) Size() (int64, bool)         { return e.size, e.kind == File }
func (entry) SymlinkTarget() (string, bool) { return "", false }

type sliceIter []entry

func (it *sliceIter) Next() (Entry, bool) {
	if len(*it) == 0 {
		return nil, false
	}
	e := (*it)[0]
	*it = (*it)[1:]
	return e, true
}

func TestMeasure(t *testing.T) {
	it := sliceIter{
		{path: "/", kind: Dir},
		{path: "/a", kind: File, size: 10},
		{path: "/b", kind: Symlink, size: 99},
		{path: "/c", kind: File, size: 5},
		{path: "/d", kind: Unknown},
	}
	assert.Equal(t, TreeSize{Entries: 5, FileBytes: 15}, Measure(&it))

	var empty sliceIter
	assert.Equal(t, TreeSize{}, Measure(&empty))
}
