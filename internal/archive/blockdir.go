package archive

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/bamsammich/stow/internal/errors"
)

const (
	hashHexLen    = 64
	subdirNameLen = 3
	// cacheOverhead approximates the bookkeeping cost of one cached block.
	cacheOverhead = hashHexLen + 64
)

// Address locates a run of bytes inside a stored block.
type Address struct {
	Hash  string `json:"hash"`
	Start uint64 `json:"start,omitempty"`
	Len   uint64 `json:"len"`
}

// BlockDir is a content-addressed store of compressed blocks. A block is
// named by the BLAKE3 hash of its uncompressed content, so storing the same
// content twice writes it only once.
type BlockDir struct {
	path string
	enc  *zstd.Encoder
	dec  *zstd.Decoder

	mu    sync.Mutex
	cache *simplelru.LRU[string, []byte]
	free  int64
}

func newBlockDir(path string, cacheSize int64) (*BlockDir, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, errors.WithStack(err)
	}
	d := &BlockDir{path: path, enc: enc, dec: dec, free: cacheSize}
	// Entries are bounded by bytes in put; the count limit is never reached.
	d.cache, err = simplelru.NewLRU(1<<30, func(_ string, v []byte) {
		d.free += int64(cap(v)) + cacheOverhead
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return d, nil
}

func (d *BlockDir) close() {
	_ = d.enc.Close()
	d.dec.Close()
}

// HashBytes returns the block name of data.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (d *BlockDir) blockPath(hash string) string {
	return filepath.Join(d.path, hash[:subdirNameLen], hash)
}

func validHash(hash string) bool {
	if len(hash) != hashHexLen {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

// Contains reports whether the block is already stored.
func (d *BlockDir) Contains(hash string) (bool, error) {
	_, err := os.Stat(d.blockPath(hash))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, errors.WithStack(err)
}

// Store writes data as a block unless an identical one exists. stored is
// false when the block was already present; compressedLen is then zero.
func (d *BlockDir) Store(data []byte) (addr Address, stored bool, compressedLen int, err error) {
	hash := HashBytes(data)
	addr = Address{Hash: hash, Len: uint64(len(data))}

	exists, err := d.Contains(hash)
	if err != nil || exists {
		return addr, false, 0, err
	}

	compressed := d.enc.EncodeAll(data, nil)
	subdir := filepath.Dir(d.blockPath(hash))
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		return addr, false, 0, errors.WithStack(err)
	}
	if err := writeFileAtomic(d.blockPath(hash), compressed); err != nil {
		return addr, false, 0, errors.Wrapf(err, "write block %s", hash)
	}
	return addr, true, len(compressed), nil
}

// Read returns the whole uncompressed content of a block, checking that it
// still matches its hash.
func (d *BlockDir) Read(hash string) ([]byte, error) {
	if !validHash(hash) {
		return nil, errors.Errorf("invalid block hash %q", hash)
	}
	if data, ok := d.get(hash); ok {
		return data, nil
	}

	compressed, err := os.ReadFile(d.blockPath(hash))
	if err != nil {
		return nil, errors.Wrapf(err, "read block %s", hash)
	}
	data, err := d.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress block %s", hash)
	}
	if HashBytes(data) != hash {
		return nil, errors.Errorf("block %s is corrupt: content hash mismatch", hash)
	}
	d.put(hash, data)
	return data, nil
}

// ReadAddress returns the bytes addr refers to.
func (d *BlockDir) ReadAddress(addr Address) ([]byte, error) {
	data, err := d.Read(addr.Hash)
	if err != nil {
		return nil, err
	}
	end := addr.Start + addr.Len
	if end > uint64(len(data)) {
		return nil, errors.Errorf("address %d+%d is beyond the end of block %s (%d bytes)",
			addr.Start, addr.Len, addr.Hash, len(data))
	}
	return data[addr.Start:end], nil
}

func (d *BlockDir) get(hash string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cache.Get(hash)
}

func (d *BlockDir) put(hash string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cache.Contains(hash) {
		return
	}
	need := int64(cap(data)) + cacheOverhead
	for d.free < need {
		if _, _, ok := d.cache.RemoveOldest(); !ok {
			// The block is larger than the whole cache.
			return
		}
	}
	d.free -= need
	d.cache.Add(hash, data)
}
