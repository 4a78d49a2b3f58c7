package archive

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bamsammich/stow/internal/errors"
)

const (
	bandHeadName      = "BANDHEAD"
	bandTailName      = "BANDTAIL"
	indexDirName      = "i"
	bandFormatVersion = "0.1"
)

// BandID identifies a band, formatted as "b0000". Numbers wider than four
// digits are written in full.
type BandID struct {
	n uint32
}

// NewBandID returns the ID of band number n.
func NewBandID(n uint32) BandID { return BandID{n: n} }

// ParseBandID parses a band ID such as "b0042".
func ParseBandID(s string) (BandID, error) {
	digits, ok := strings.CutPrefix(s, "b")
	if !ok || digits == "" {
		return BandID{}, errors.Errorf("invalid band id %q", s)
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return BandID{}, errors.Errorf("invalid band id %q", s)
	}
	return BandID{n: uint32(n)}, nil
}

func (b BandID) String() string { return fmt.Sprintf("b%04d", b.n) }

// Number returns the band's sequence number.
func (b BandID) Number() uint32 { return b.n }

// Next returns the ID of the band after b.
func (b BandID) Next() BandID { return BandID{n: b.n + 1} }

// CompareBandIDs orders bands by number.
func CompareBandIDs(a, b BandID) int { return cmp.Compare(a.n, b.n) }

type bandHead struct {
	StartTime         int64  `json:"start_time"`
	BandFormatVersion string `json:"band_format_version"`
}

type bandTail struct {
	EndTime        int64  `json:"end_time"`
	IndexHunkCount uint64 `json:"index_hunk_count"`
}

// Band is one version stored in an archive.
type Band struct {
	archive *Archive
	id      BandID
	path    string
	head    bandHead
}

// createBand starts the band after the newest one.
func (a *Archive) createBand() (*Band, error) {
	id := NewBandID(0)
	if last, ok, err := a.LastBand(); err != nil {
		return nil, err
	} else if ok {
		id = last.Next()
	}
	path := filepath.Join(a.path, id.String())
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create band %s", id)
	}
	if err := os.Mkdir(filepath.Join(path, indexDirName), 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	head := bandHead{StartTime: time.Now().Unix(), BandFormatVersion: bandFormatVersion}
	if err := writeJSON(filepath.Join(path, bandHeadName), head); err != nil {
		return nil, err
	}
	return &Band{archive: a, id: id, path: path, head: head}, nil
}

// OpenBand opens an existing band.
func (a *Archive) OpenBand(id BandID) (*Band, error) {
	path := filepath.Join(a.path, id.String())
	var head bandHead
	if err := readJSON(filepath.Join(path, bandHeadName), &head); err != nil {
		return nil, errors.Wrapf(err, "open band %s", id)
	}
	if head.BandFormatVersion != bandFormatVersion {
		return nil, errors.Errorf("band %s has unsupported format version %q", id, head.BandFormatVersion)
	}
	return &Band{archive: a, id: id, path: path, head: head}, nil
}

// ID returns the band's ID.
func (b *Band) ID() BandID { return b.id }

func (b *Band) indexDir() string { return filepath.Join(b.path, indexDirName) }

// IsComplete reports whether the backup that wrote the band finished.
func (b *Band) IsComplete() (bool, error) {
	_, err := os.Stat(filepath.Join(b.path, bandTailName))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, errors.WithStack(err)
}

func (b *Band) close(hunks uint64) error {
	tail := bandTail{EndTime: time.Now().Unix(), IndexHunkCount: hunks}
	return writeJSON(filepath.Join(b.path, bandTailName), tail)
}

// BandInfo describes a band, for listing versions.
type BandInfo struct {
	ID         BandID
	StartTime  time.Time
	EndTime    time.Time // zero while incomplete
	IndexHunks uint64
	Complete   bool
}

// Info reads the band's head and tail.
func (b *Band) Info() (BandInfo, error) {
	info := BandInfo{ID: b.id, StartTime: time.Unix(b.head.StartTime, 0)}
	var tail bandTail
	err := readJSON(filepath.Join(b.path, bandTailName), &tail)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return info, nil
	case err != nil:
		return info, err
	}
	info.Complete = true
	info.EndTime = time.Unix(tail.EndTime, 0)
	info.IndexHunks = tail.IndexHunkCount
	return info, nil
}
