// Package archive stores versions of a tree as bands of index hunks that
// refer to deduplicated, compressed blocks of file content.
//
// Layout on disk:
//
//	STOW-ARCHIVE              header: format version and chunker polynomial
//	d/<3 hex>/<blake3 hex>    zstd-compressed blocks, addressed by plaintext hash
//	b0000/BANDHEAD            band start time and format version
//	b0000/i/<8 digits>        zstd-compressed JSON index hunks, in apath order
//	b0000/BANDTAIL            band end time and hunk count; present once complete
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/restic/chunker"

	"github.com/bamsammich/stow/internal/errors"
)

const (
	headerName    = "STOW-ARCHIVE"
	blockDirName  = "d"
	formatVersion = "0.1"

	// DefaultBlockCacheSize bounds the decompressed blocks kept in memory
	// while reading.
	DefaultBlockCacheSize = 64 << 20
)

// ErrNoCompleteBand is returned when a stored version is requested from an
// archive with no complete backup.
var ErrNoCompleteBand = errors.New("archive has no complete versions")

type header struct {
	ArchiveFormatVersion string      `json:"archive_format_version"`
	ChunkerPolynomial    chunker.Pol `json:"chunker_polynomial"`
}

// Archive is an open archive directory.
type Archive struct {
	path   string
	header header
	blocks *BlockDir
}

// Option configures an Archive as it is opened.
type Option func(*options)

type options struct {
	blockCacheSize int64
}

// WithBlockCache sets the size in bytes of the decompressed block cache.
func WithBlockCache(size int64) Option {
	return func(o *options) { o.blockCacheSize = size }
}

func buildOptions(opts []Option) options {
	o := options{blockCacheSize: DefaultBlockCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Create makes a new archive in path, which must be missing or an empty
// directory. A random chunker polynomial is chosen and kept in the header,
// so every backup into this archive cuts files at the same places.
func Create(path string, opts ...Option) (*Archive, error) {
	children, err := os.ReadDir(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, errors.Wrap(err, "create archive directory")
		}
	case err != nil:
		return nil, errors.Wrap(err, "read archive directory")
	case len(children) > 0:
		return nil, errors.Errorf("archive directory %s is not empty", path)
	}

	pol, err := chunker.RandomPolynomial()
	if err != nil {
		return nil, errors.Wrap(err, "choose chunker polynomial")
	}
	h := header{ArchiveFormatVersion: formatVersion, ChunkerPolynomial: pol}
	if err := os.Mkdir(filepath.Join(path, blockDirName), 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := writeJSON(filepath.Join(path, headerName), h); err != nil {
		return nil, err
	}
	return newArchive(path, h, buildOptions(opts))
}

// Open opens an existing archive.
func Open(path string, opts ...Option) (*Archive, error) {
	var h header
	if err := readJSON(filepath.Join(path, headerName), &h); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Errorf("%s is not an archive: no %s", path, headerName)
		}
		return nil, errors.Wrap(err, "read archive header")
	}
	if h.ArchiveFormatVersion != formatVersion {
		return nil, errors.Errorf("unsupported archive format version %q", h.ArchiveFormatVersion)
	}
	if !h.ChunkerPolynomial.Irreducible() {
		return nil, errors.New("invalid chunker polynomial in archive header")
	}
	return newArchive(path, h, buildOptions(opts))
}

func newArchive(path string, h header, o options) (*Archive, error) {
	blocks, err := newBlockDir(filepath.Join(path, blockDirName), o.blockCacheSize)
	if err != nil {
		return nil, err
	}
	return &Archive{path: path, header: h, blocks: blocks}, nil
}

// Close releases the compressors held by the archive.
func (a *Archive) Close() error {
	a.blocks.close()
	return nil
}

// Path returns the archive directory.
func (a *Archive) Path() string { return a.path }

// BlockDir returns the archive's block store.
func (a *Archive) BlockDir() *BlockDir { return a.blocks }

// ChunkerPolynomial is the polynomial files are chunked with.
func (a *Archive) ChunkerPolynomial() chunker.Pol { return a.header.ChunkerPolynomial }

// ListBands returns the IDs of all bands, in increasing order.
func (a *Archive) ListBands() ([]BandID, error) {
	children, err := os.ReadDir(a.path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var ids []BandID
	for _, c := range children {
		if !c.IsDir() {
			continue
		}
		if id, err := ParseBandID(c.Name()); err == nil {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, CompareBandIDs)
	return ids, nil
}

// LastBand returns the newest band, complete or not. ok is false if there
// are none.
func (a *Archive) LastBand() (id BandID, ok bool, err error) {
	ids, err := a.ListBands()
	if err != nil || len(ids) == 0 {
		return BandID{}, false, err
	}
	return ids[len(ids)-1], true, nil
}

// LastCompleteBand returns the newest band that has been finished.
func (a *Archive) LastCompleteBand() (*Band, error) {
	ids, err := a.ListBands()
	if err != nil {
		return nil, err
	}
	for _, id := range slices.Backward(ids) {
		b, err := a.OpenBand(id)
		if err != nil {
			return nil, err
		}
		complete, err := b.IsComplete()
		if err != nil {
			return nil, err
		}
		if complete {
			return b, nil
		}
	}
	return nil, ErrNoCompleteBand
}

// writeFileAtomic writes data to a temporary file beside path and renames
// it into place, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, uuid.New().String()[:8]))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.WithStack(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.WithStack(err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.WithStack(err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
