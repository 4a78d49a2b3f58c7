package archive

import (
	"io"

	"github.com/restic/chunker"

	"github.com/bamsammich/stow/internal/errors"
	"github.com/bamsammich/stow/internal/stats"
	"github.com/bamsammich/stow/internal/tree"
)

var _ tree.WriteTree = (*BackupWriter)(nil)

// BackupWriter writes a new band holding a copy of a tree.
//
// File content is cut into blocks with a content-defined chunker, so an
// insertion near the start of a file does not change the blocks after it,
// and blocks already in the archive are referenced rather than stored again.
type BackupWriter struct {
	archive *Archive
	band    *Band
	index   *indexWriter
	chunker *chunker.Chunker
	buf     []byte
}

// BeginBackup starts a new band in a.
func BeginBackup(a *Archive) (*BackupWriter, error) {
	band, err := a.createBand()
	if err != nil {
		return nil, err
	}
	return &BackupWriter{
		archive: a,
		band:    band,
		index:   newIndexWriter(band.indexDir(), a.blocks.enc),
		chunker: chunker.New(nil, a.header.ChunkerPolynomial),
		buf:     make([]byte, chunker.MaxSize),
	}, nil
}

// Band returns the ID of the band being written.
func (w *BackupWriter) Band() BandID { return w.band.id }

func (w *BackupWriter) CopyDir(e tree.Entry) error {
	return w.index.push(newIndexEntry(e, nil))
}

func (w *BackupWriter) CopySymlink(e tree.Entry) error {
	if _, ok := e.SymlinkTarget(); !ok {
		return errors.Errorf("%s has no symlink target", e.Apath())
	}
	return w.index.push(newIndexEntry(e, nil))
}

// CopyFile stores the content of e and indexes it. Nothing is indexed if
// the content cannot be read.
func (w *BackupWriter) CopyFile(e tree.Entry, from tree.ReadTree) (stats.CopyStats, error) {
	rc, err := from.FileContents(e)
	if err != nil {
		return stats.CopyStats{}, err
	}
	defer rc.Close()

	var s stats.CopyStats
	var addrs []Address
	w.chunker.Reset(rc, w.archive.header.ChunkerPolynomial)
	for {
		chunk, err := w.chunker.Next(w.buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats.CopyStats{}, errors.Wrapf(err, "read %s", e.Apath())
		}

		addr, stored, compressedLen, err := w.archive.blocks.Store(chunk.Data)
		if err != nil {
			return stats.CopyStats{}, err
		}
		s.FileBytes += int64(chunk.Length)
		if stored {
			s.Blocks++
			s.CompressedBytes += int64(compressedLen)
		} else {
			s.DeduplicatedBlocks++
			s.DeduplicatedBytes += int64(chunk.Length)
		}
		addrs = append(addrs, addr)
	}

	if err := w.index.push(newIndexEntry(e, addrs)); err != nil {
		return stats.CopyStats{}, err
	}
	return s, nil
}

// Finish writes the remaining index entries and marks the band complete.
func (w *BackupWriter) Finish() (stats.CopyStats, error) {
	hunks, err := w.index.finish()
	if err != nil {
		return stats.CopyStats{IndexHunks: int64(hunks)}, err
	}
	if err := w.band.close(hunks); err != nil {
		return stats.CopyStats{IndexHunks: int64(hunks)}, errors.Wrap(err, "close band")
	}
	return stats.CopyStats{IndexHunks: int64(hunks)}, nil
}
