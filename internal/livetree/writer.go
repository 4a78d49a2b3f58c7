package livetree

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/bamsammich/stow/internal/apath"
	"github.com/bamsammich/stow/internal/errors"
	"github.com/bamsammich/stow/internal/platform"
	"github.com/bamsammich/stow/internal/stats"
	"github.com/bamsammich/stow/internal/tree"
)

var _ tree.WriteTree = (*Writer)(nil)

// Writer recreates a tree in an empty local directory.
//
// Files are written under a temporary name and renamed into place once
// complete, so an interrupted restore never leaves a truncated file under
// its real name. Directory mtimes are set in Finish, after all their
// children have been created.
type Writer struct {
	root     string
	report   *stats.Report
	tmps     tmpRegistry
	dirTimes []dirTime
}

type dirTime struct {
	apath apath.Apath
	mtime time.Time
}

// NewWriter returns a Writer into root, creating it if needed. An existing
// root must be an empty directory.
func NewWriter(root string, rep *stats.Report) (*Writer, error) {
	if rep == nil {
		rep = stats.NewReport()
	}
	children, err := os.ReadDir(root)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create destination")
		}
	case err != nil:
		return nil, errors.Wrapf(err, "read destination")
	case len(children) > 0:
		return nil, errors.Errorf("destination directory %s is not empty", root)
	}
	return &Writer{root: root, report: rep}, nil
}

// Root returns the directory being written.
func (w *Writer) Root() string { return w.root }

func (w *Writer) CopyDir(e tree.Entry) error {
	if !e.Apath().IsRoot() {
		if err := os.Mkdir(e.Apath().Below(w.root), 0o755); err != nil {
			return errors.WithStack(err)
		}
	}
	w.dirTimes = append(w.dirTimes, dirTime{apath: e.Apath(), mtime: e.MTime()})
	return nil
}

func (w *Writer) CopyFile(e tree.Entry, from tree.ReadTree) (stats.CopyStats, error) {
	dstPath := e.Apath().Below(w.root)
	src, err := from.FileContents(e)
	if err != nil {
		return stats.CopyStats{}, err
	}
	defer src.Close()

	size, _ := e.Size()
	tmpPath := tempName(dstPath)
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return stats.CopyStats{}, fmt.Errorf("create temp %s: %w", tmpPath, err)
	}
	w.tmps.register(tmpPath)

	result, err := platform.CopyFile(platform.CopyFileParams{DstFd: f, Src: src, Size: size})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpPath, dstPath)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		w.tmps.deregister(tmpPath)
		return stats.CopyStats{}, fmt.Errorf("write %s: %w", e.Apath(), err)
	}
	w.tmps.deregister(tmpPath)

	if result.BytesWritten != size {
		w.report.Problem("file size differs from its entry",
			"path", e.Apath().String(), "expected", size, "written", result.BytesWritten)
	}
	if err := setMTime(dstPath, e.MTime()); err != nil {
		w.report.Problem("failed to set mtime", "path", e.Apath().String(), "error", err)
	}
	return stats.CopyStats{FileBytes: result.BytesWritten}, nil
}

func (w *Writer) CopySymlink(e tree.Entry) error {
	target, ok := e.SymlinkTarget()
	if !ok {
		return errors.Errorf("%s has no symlink target", e.Apath())
	}
	path := e.Apath().Below(w.root)
	if err := os.Symlink(target, path); err != nil {
		return errors.WithStack(err)
	}
	if err := setMTime(path, e.MTime()); err != nil {
		w.report.Problem("failed to set mtime", "path", e.Apath().String(), "error", err)
	}
	return nil
}

// Finish sets directory mtimes and removes any leftover temporary files.
func (w *Writer) Finish() (stats.CopyStats, error) {
	for i := len(w.dirTimes) - 1; i >= 0; i-- {
		dt := w.dirTimes[i]
		if err := setMTime(dt.apath.Below(w.root), dt.mtime); err != nil {
			w.report.Problem("failed to set mtime", "path", dt.apath.String(), "error", err)
		}
	}
	w.dirTimes = nil
	w.tmps.cleanup()
	return stats.CopyStats{}, nil
}

// Abort removes temporary files of copies still in progress. It is safe to
// call from another goroutine, such as a signal handler.
func (w *Writer) Abort() {
	w.tmps.cleanup()
}

func tempName(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s.stow-tmp", base, uuid.New().String()[:8]))
}

func setMTime(path string, mtime time.Time) error {
	ts := unix.NsecToTimespec(mtime.UnixNano())
	times := []unix.Timespec{ts, ts}
	if err := unix.UtimesNanoAt(unix.AT_FDCWD, path, times, unix.AT_SYMLINK_NOFOLLOW); err != nil {
		return fmt.Errorf("utimensat %s: %w", path, err)
	}
	return nil
}
