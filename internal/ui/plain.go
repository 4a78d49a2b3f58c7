package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/stow/internal/stats"
)

// plainPresenter outputs one line per copied file to stdout,
// and periodic progress to stderr when not a TTY.
type plainPresenter struct {
	w        io.Writer
	errW     io.Writer
	progress *stats.Progress
	verbose  bool
	interval time.Duration // zero means five seconds
}

func (p *plainPresenter) Run(events <-chan Event) error {
	interval := p.interval
	if interval == 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.progress.Tick()
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case MeasureComplete:
		fmt.Fprintf(p.errW, "measured: %s entries, %s\n",
			FormatCount(ev.Total), FormatBytes(ev.TotalSize))
	case FileCopied:
		fmt.Fprintf(p.w, "%s  %s\n", ev.Path, FormatBytes(ev.Size))
	case DirCopied, SymlinkCopied:
		if p.verbose {
			fmt.Fprintln(p.w, ev.Path)
		}
	case EntryFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "%s  %s\n", ev.Path, errMsg)
	case EntrySkipped:
		fmt.Fprintf(p.w, "%s  skipped\n", ev.Path)
	case VerifyStarted:
		fmt.Fprintln(p.w, "verifying...")
	case VerifyFailed:
		fmt.Fprintf(p.w, "MISMATCH: %s\n", ev.Path)
	case VerifyOK:
		// silent in plain mode
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.progress.Snapshot()
	if snap.BytesTotal > 0 {
		pct := float64(snap.BytesDone) / float64(snap.BytesTotal) * 100
		fmt.Fprintf(p.errW, "progress: %.0f%% %s/%s %s/%s entries %s eta %s\n",
			pct,
			FormatBytes(snap.BytesDone), FormatBytes(snap.BytesTotal),
			FormatCount(snap.EntriesDone), FormatCount(snap.EntriesTotal),
			FormatRate(p.progress.RollingSpeed(10)),
			FormatETA(p.progress.ETA()),
		)
	} else {
		fmt.Fprintf(p.errW, "progress: %s copied %s entries\n",
			FormatBytes(snap.BytesDone),
			FormatCount(snap.EntriesDone),
		)
	}
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.progress.Snapshot())
}
