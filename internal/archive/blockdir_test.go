package archive

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDeduplicates(t *testing.T) {
	d := scratchArchive(t).BlockDir()
	data := bytes.Repeat([]byte("block content "), 1000)

	addr, stored, clen, err := d.Store(data)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Positive(t, clen)
	assert.Less(t, clen, len(data))
	assert.Equal(t, HashBytes(data), addr.Hash)
	assert.Equal(t, uint64(len(data)), addr.Len)

	again, stored, clen, err := d.Store(data)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Zero(t, clen)
	assert.Equal(t, addr, again)

	ok, err := d.Contains(addr.Hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReadBlock(t *testing.T) {
	d := scratchArchive(t).BlockDir()
	addr, _, _, err := d.Store([]byte("0123456789"))
	require.NoError(t, err)

	got, err := d.Read(addr.Hash)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(got))

	part, err := d.ReadAddress(Address{Hash: addr.Hash, Start: 3, Len: 4})
	require.NoError(t, err)
	assert.Equal(t, "3456", string(part))

	_, err = d.ReadAddress(Address{Hash: addr.Hash, Start: 8, Len: 4})
	assert.ErrorContains(t, err, "beyond the end")
}

func TestReadMissingAndInvalid(t *testing.T) {
	d := scratchArchive(t).BlockDir()
	_, err := d.Read(HashBytes([]byte("never stored")))
	assert.Error(t, err)

	_, err = d.Read("../../etc/passwd")
	assert.ErrorContains(t, err, "invalid block hash")
}

func TestReadDetectsCorruption(t *testing.T) {
	d := scratchArchive(t).BlockDir()
	addr, _, _, err := d.Store([]byte("original"))
	require.NoError(t, err)

	// Replace the block with a valid compressed block of other content.
	require.NoError(t, os.WriteFile(d.blockPath(addr.Hash), d.enc.EncodeAll([]byte("tampered"), nil), 0o644))

	_, err = d.Read(addr.Hash)
	assert.ErrorContains(t, err, "corrupt")
}

func TestBlockCacheIsBounded(t *testing.T) {
	a, err := Create(t.TempDir(), WithBlockCache(3000))
	require.NoError(t, err)
	defer a.Close()
	d := a.BlockDir()

	var hashes []string
	for i := range 5 {
		addr, _, _, err := d.Store(bytes.Repeat([]byte{byte('a' + i)}, 1000))
		require.NoError(t, err)
		hashes = append(hashes, addr.Hash)
	}
	for _, h := range hashes {
		_, err := d.Read(h)
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, d.cache.Len(), 2)
	assert.GreaterOrEqual(t, d.free, int64(0))

	// Blocks larger than the whole cache are read but not kept.
	big, _, _, err := d.Store(bytes.Repeat([]byte("z"), 10000))
	require.NoError(t, err)
	_, err = d.Read(big.Hash)
	require.NoError(t, err)
	assert.False(t, d.cache.Contains(big.Hash))
}
