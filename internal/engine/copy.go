// Package engine replays the entries of one tree into another.
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bamsammich/stow/internal/errors"
	"github.com/bamsammich/stow/internal/event"
	"github.com/bamsammich/stow/internal/stats"
	"github.com/bamsammich/stow/internal/tree"
)

// Options control a tree copy.
type Options struct {
	// PrintFilenames writes each entry's apath to Out as it is copied.
	PrintFilenames bool
	// MeasureFirst walks the source once before copying, to know the total
	// size for progress.
	MeasureFirst bool

	Out      io.Writer          // defaults to os.Stdout
	Events   chan<- event.Event // optional; the caller must drain it
	Progress *stats.Progress    // optional
	Report   *stats.Report      // optional; receives destination failures
	Logger   *slog.Logger       // used when Report is nil; defaults to slog.Default
}

// CopyTree copies every entry of source into dest, in source order.
//
// A failure to copy one entry is logged, counted in the returned Errors and
// does not stop the copy. Entries of unknown kind are counted and skipped.
// The returned error is set only if the source cannot be walked at all or
// the destination cannot be finished.
func CopyTree(source tree.ReadTree, dest tree.WriteTree, opts Options) (stats.CopyStats, error) {
	c := &copier{source: source, dest: dest, opts: opts}
	if c.opts.Out == nil {
		c.opts.Out = os.Stdout
	}
	if c.opts.Logger == nil {
		c.opts.Logger = slog.Default()
	}
	return c.run()
}

type copier struct {
	source tree.ReadTree
	dest   tree.WriteTree
	opts   Options
	stats  stats.CopyStats
}

func (c *copier) run() (stats.CopyStats, error) {
	if c.opts.MeasureFirst {
		c.setPhase("Measuring")
		c.emit(event.Event{Type: event.MeasureStarted})
		size, err := c.source.Size()
		if err != nil {
			return c.stats, errors.Wrap(err, "measure source")
		}
		if c.opts.Progress != nil {
			c.opts.Progress.SetTotals(int64(size.Entries), int64(size.FileBytes))
		}
		c.emit(event.Event{
			Type:      event.MeasureComplete,
			Total:     int64(size.Entries),
			TotalSize: int64(size.FileBytes),
		})
	}

	it, err := c.source.IterEntries()
	if err != nil {
		return c.stats, err
	}
	c.setPhase("Copying")
	c.emit(event.Event{Type: event.CopyStarted})

	for {
		e, ok := it.Next()
		if !ok {
			break
		}
		c.copyEntry(e)
	}

	fin, err := c.dest.Finish()
	c.stats.Add(fin)
	if err != nil {
		return c.stats, errors.Wrap(err, "finish destination")
	}
	c.emit(event.Event{Type: event.CopyComplete, Size: c.stats.FileBytes})
	return c.stats, nil
}

func (c *copier) copyEntry(e tree.Entry) {
	path := e.Apath().String()
	if c.opts.PrintFilenames {
		fmt.Fprintln(c.opts.Out, path)
	}
	if c.opts.Progress != nil {
		c.opts.Progress.SetCurrent(path)
	}

	var typ event.Type
	var size int64
	var err error
	switch e.Kind() {
	case tree.Dir:
		c.stats.Directories++
		typ = event.DirCopied
		err = c.dest.CopyDir(e)
	case tree.File:
		c.stats.Files++
		typ = event.FileCopied
		var fs stats.CopyStats
		fs, err = c.dest.CopyFile(e, c.source)
		c.stats.Add(fs)
		size = fs.FileBytes
	case tree.Symlink:
		c.stats.Symlinks++
		typ = event.SymlinkCopied
		err = c.dest.CopySymlink(e)
	default:
		c.stats.UnknownKind++
		c.opts.Logger.Warn("skipping entry of unsupported kind", "path", path, "kind", e.Kind())
		c.emit(event.Event{Type: event.EntrySkipped, Path: path})
		return
	}

	if err != nil {
		c.stats.Errors++
		c.showError(err, path)
		if c.opts.Progress != nil {
			c.opts.Progress.AddErrors(1)
		}
		c.emit(event.Event{Type: event.EntryFailed, Path: path, Error: err})
		return
	}
	if c.opts.Progress != nil {
		c.opts.Progress.AddEntriesDone(1)
		c.opts.Progress.AddBytesDone(size)
	}
	c.emit(event.Event{Type: typ, Path: path, Size: size})
}

func (c *copier) showError(err error, path string) {
	if c.opts.Report != nil {
		c.opts.Report.ShowError(err, "path", path)
		return
	}
	c.opts.Logger.Error(err.Error(), "path", path)
}

func (c *copier) setPhase(phase string) {
	if c.opts.Progress != nil {
		c.opts.Progress.SetPhase(phase)
	}
}

func (c *copier) emit(e event.Event) {
	event.Emit(c.opts.Events, e)
}
