package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scratchArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Create(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestCreateAndOpen(t *testing.T) {
	a := scratchArchive(t)
	assert.FileExists(t, filepath.Join(a.Path(), headerName))
	assert.DirExists(t, filepath.Join(a.Path(), blockDirName))
	assert.True(t, a.ChunkerPolynomial().Irreducible())

	b, err := Open(a.Path(), WithBlockCache(1<<20))
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, a.ChunkerPolynomial(), b.ChunkerPolynomial())

	bands, err := b.ListBands()
	require.NoError(t, err)
	assert.Empty(t, bands)
	_, ok, err := b.LastBand()
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = b.LastCompleteBand()
	assert.ErrorIs(t, err, ErrNoCompleteBand)
}

func TestCreateRefusesNonEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk"), nil, 0o644))
	_, err := Create(dir)
	assert.ErrorContains(t, err, "not empty")
}

func TestOpenNotAnArchive(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorContains(t, err, "is not an archive")
}

func TestOpenBadHeader(t *testing.T) {
	a := scratchArchive(t)
	require.NoError(t, os.WriteFile(filepath.Join(a.Path(), headerName),
		[]byte(`{"archive_format_version":"9.9","chunker_polynomial":"3DA3358B4DC173"}`), 0o644))
	_, err := Open(a.Path())
	assert.ErrorContains(t, err, "unsupported archive format version")
}

func TestBandsAreNumberedInOrder(t *testing.T) {
	a := scratchArchive(t)
	for range 3 {
		_, err := a.createBand()
		require.NoError(t, err)
	}
	bands, err := a.ListBands()
	require.NoError(t, err)
	assert.Equal(t, []BandID{NewBandID(0), NewBandID(1), NewBandID(2)}, bands)

	last, ok, err := a.LastBand()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b0002", last.String())

	// None are complete yet.
	_, err = a.LastCompleteBand()
	assert.ErrorIs(t, err, ErrNoCompleteBand)

	b1, err := a.OpenBand(NewBandID(1))
	require.NoError(t, err)
	require.NoError(t, b1.close(0))
	got, err := a.LastCompleteBand()
	require.NoError(t, err)
	assert.Equal(t, NewBandID(1), got.ID())

	info, err := got.Info()
	require.NoError(t, err)
	assert.True(t, info.Complete)
	assert.False(t, info.StartTime.IsZero())
	assert.False(t, info.EndTime.IsZero())

	b2, err := a.OpenBand(NewBandID(2))
	require.NoError(t, err)
	info, err = b2.Info()
	require.NoError(t, err)
	assert.False(t, info.Complete)
	assert.True(t, info.EndTime.IsZero())
}

func TestBandID(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want uint32
		str  string
	}{
		{"b0000", 0, "b0000"},
		{"b0042", 42, "b0042"},
		{"b9999", 9999, "b9999"},
		{"b12345", 12345, "b12345"},
		{"b7", 7, "b0007"},
	} {
		id, err := ParseBandID(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, id.Number())
		assert.Equal(t, tc.str, id.String())
	}
	for _, bad := range []string{"", "b", "0000", "bxyz", "b-1", "B0001"} {
		_, err := ParseBandID(bad)
		assert.Error(t, err, bad)
	}

	assert.Equal(t, NewBandID(10000), NewBandID(9999).Next())
	assert.Negative(t, CompareBandIDs(NewBandID(9999), NewBandID(10000)))
}
