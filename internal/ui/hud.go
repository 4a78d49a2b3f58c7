package ui

import (
	"fmt"
	"io"
	"path"
	"time"

	"github.com/bamsammich/stow/internal/stats"
)

// ANSI escape sequences.
const (
	ansiDim   = "\033[2m"
	ansiReset = "\033[0m"
)

// hudPresenter provides a TTY display with a scrolling feed of copied files
// and a 2-line HUD that redraws in place.
type hudPresenter struct {
	w        io.Writer
	progress *stats.Progress
	verbose  bool

	hudDrawn     bool
	hudLineCount int
	rateMode     bool
	rateSwitched bool
	lastHUDDraw  time.Time
}

const (
	rateThreshHigh   = 200.0
	rateThreshLow    = 100.0
	sparklineWidth   = 20
	progressBarWidth = 20
	hudMinInterval   = 50 * time.Millisecond
)

func (p *hudPresenter) Run(events <-chan Event) error {
	// Fire first tick quickly to seed the ring buffer, then every second.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	// Redraw while a large file is being copied and no events arrive.
	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearHUD()
				return nil
			}
			p.handleEvent(ev)
			p.maybeDrawHUD()

		case <-redrawTicker.C:
			p.maybeSwitch()
			p.drawHUD()

		case <-secTicker.C:
			p.progress.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(time.Second)
			}
		}
	}
}

func (p *hudPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case FileCopied:
		if !p.rateMode {
			p.feed(fmt.Sprintf("✓  %s  %10s", styledPath(ev.Path), FormatBytes(ev.Size)))
		}

	case DirCopied, SymlinkCopied:
		if p.verbose && !p.rateMode {
			p.feed(fmt.Sprintf("✓  %s", styledPath(ev.Path)))
		}

	case EntryFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		p.feed(fmt.Sprintf("✗  %s  %s", styledPath(ev.Path), errMsg))

	case EntrySkipped:
		if !p.rateMode {
			p.feed(fmt.Sprintf("–  %s  %sskipped%s", styledPath(ev.Path), ansiDim, ansiReset))
		}

	case MeasureStarted:
		p.feed(ansiDim + "measuring source..." + ansiReset)

	case VerifyStarted:
		p.feed(ansiDim + "verifying..." + ansiReset)

	case VerifyFailed:
		p.feed(fmt.Sprintf("✗  %s  MISMATCH", styledPath(ev.Path)))
	}
}

// feed prints a line above the HUD.
func (p *hudPresenter) feed(line string) {
	p.clearHUD()
	fmt.Fprintln(p.w, line)
	p.drawHUD()
}

func (p *hudPresenter) maybeSwitch() {
	eps := p.progress.RollingEntriesPerSec(2)

	if !p.rateMode && eps > rateThreshHigh {
		p.rateMode = true
		if !p.rateSwitched {
			p.rateSwitched = true
			p.clearHUD()
			fmt.Fprintf(p.w, "↯ rate view (%s entries/s)\n", FormatCount(int64(eps)))
		}
	} else if p.rateMode && eps < rateThreshLow {
		p.rateMode = false
	}
}

// maybeDrawHUD redraws the HUD if enough time has passed since the last draw.
func (p *hudPresenter) maybeDrawHUD() {
	if time.Since(p.lastHUDDraw) < hudMinInterval {
		return
	}
	p.drawHUD()
}

func (p *hudPresenter) drawHUD() {
	snap := p.progress.Snapshot()
	p.clearHUD()

	var pct float64
	if snap.BytesTotal > 0 {
		pct = float64(snap.BytesDone) / float64(snap.BytesTotal)
	}

	// Line 1: throughput sparkline, speed, byte totals.
	spark := Sparkline(p.progress.SparklineData(sparklineWidth), sparklineWidth)
	total := "?"
	if snap.BytesTotal > 0 {
		total = FormatBytes(snap.BytesTotal)
	}
	fmt.Fprintf(p.w, "%-10s %s   %s   %s / %s\n",
		snap.Phase, spark, FormatRate(p.progress.RollingSpeed(10)),
		FormatBytes(snap.BytesDone), total)

	// Line 2: progress bar, entries, eta.
	fmt.Fprintf(p.w, " %3.0f%%  %s   %s entries   eta %s\n",
		pct*100, ProgressBar(pct, progressBarWidth),
		FormatCount(snap.EntriesDone), FormatETA(p.progress.ETA()))

	p.hudDrawn = true
	p.hudLineCount = 2
	p.lastHUDDraw = time.Now()
}

func (p *hudPresenter) clearHUD() {
	if !p.hudDrawn {
		return
	}
	// Move cursor up N lines and clear to end of screen.
	fmt.Fprintf(p.w, "\033[%dA\033[J", p.hudLineCount)
	p.hudDrawn = false
}

func (p *hudPresenter) Summary() string {
	return CompletionSummary(p.progress.Snapshot())
}

// styledPath dims the directory part of an apath so the name stands out.
func styledPath(apath string) string {
	dir, base := path.Split(apath)
	if dir == "/" || dir == "" {
		return apath
	}
	return fmt.Sprintf("%s%s%s%s", ansiDim, dir, ansiReset, base)
}
