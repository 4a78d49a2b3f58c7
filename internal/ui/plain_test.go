package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/stow/internal/event"
	"github.com/bamsammich/stow/internal/stats"
)

func runPlain(t *testing.T, verbose bool, evs ...Event) (string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	p := &plainPresenter{w: &out, errW: &errOut, progress: stats.NewProgress(), verbose: verbose}

	events := make(chan Event, len(evs))
	for _, ev := range evs {
		events <- ev
	}
	close(events)
	require.NoError(t, p.Run(events))
	return out.String(), errOut.String()
}

func TestPlainPresenterFileCopied(t *testing.T) {
	out, _ := runPlain(t, false,
		Event{Type: event.FileCopied, Path: "/dir/file.txt", Size: 1024},
		Event{Type: event.FileCopied, Path: "/dir/big.bin", Size: 1024 * 1024 * 100},
	)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "/dir/file.txt  1.0 KiB", lines[0])
	assert.Equal(t, "/dir/big.bin  100.0 MiB", lines[1])
}

func TestPlainPresenterDirsOnlyWhenVerbose(t *testing.T) {
	evs := []Event{
		{Type: event.DirCopied, Path: "/dir"},
		{Type: event.SymlinkCopied, Path: "/dir/link"},
	}
	out, _ := runPlain(t, false, evs...)
	assert.Empty(t, out)

	out, _ = runPlain(t, true, evs...)
	assert.Equal(t, "/dir\n/dir/link\n", out)
}

func TestPlainPresenterEntryFailed(t *testing.T) {
	out, _ := runPlain(t, false, Event{Type: event.EntryFailed, Path: "/fail.txt", Error: assert.AnError})
	assert.Contains(t, out, "/fail.txt")
	assert.Contains(t, out, assert.AnError.Error())
}

func TestPlainPresenterEntrySkipped(t *testing.T) {
	out, _ := runPlain(t, false, Event{Type: event.EntrySkipped, Path: "/fifo"})
	assert.Equal(t, "/fifo  skipped\n", out)
}

func TestPlainPresenterMeasureComplete(t *testing.T) {
	_, errOut := runPlain(t, false, Event{Type: event.MeasureComplete, Total: 1500, TotalSize: 2048})
	assert.Equal(t, "measured: 1,500 entries, 2.0 KiB\n", errOut)
}

func TestPlainPresenterVerify(t *testing.T) {
	out, _ := runPlain(t, false,
		Event{Type: event.VerifyStarted},
		Event{Type: event.VerifyOK, Path: "/good.txt"},
		Event{Type: event.VerifyFailed, Path: "/bad/file.txt"},
	)
	assert.Equal(t, "verifying...\nMISMATCH: /bad/file.txt\n", out)
}

func TestPlainPresenterPeriodicProgress(t *testing.T) {
	var out, errOut bytes.Buffer
	progress := stats.NewProgress()
	progress.SetTotals(10, 2048)
	progress.AddBytesDone(1024)
	progress.AddEntriesDone(5)
	p := &plainPresenter{w: &out, errW: &errOut, progress: progress, interval: 10 * time.Millisecond}

	events := make(chan Event)
	done := make(chan error)
	go func() { done <- p.Run(events) }()
	time.Sleep(50 * time.Millisecond)
	close(events)
	require.NoError(t, <-done)

	assert.Contains(t, errOut.String(), "progress: 50% 1.0 KiB/2.0 KiB 5/10 entries")
}

func TestPlainPresenterSummary(t *testing.T) {
	progress := stats.NewProgress()
	progress.AddEntriesDone(100)
	progress.AddBytesDone(1024 * 1024)

	p := &plainPresenter{progress: progress}
	s := p.Summary()
	assert.Contains(t, s, "done ✓")
	assert.Contains(t, s, "entries 100")
	assert.Contains(t, s, "size 1.0 MiB")
	assert.Contains(t, s, "errors 0")

	progress.AddErrors(2)
	assert.Contains(t, p.Summary(), "done ✗")
	assert.Contains(t, p.Summary(), "errors 2")
}

func TestQuietPresenter(t *testing.T) {
	progress := stats.NewProgress()
	p := NewPresenter(Config{Quiet: true, Progress: progress})

	events := make(chan Event, 2)
	events <- Event{Type: event.FileCopied, Path: "/a"}
	close(events)
	require.NoError(t, p.Run(events))
	assert.Empty(t, p.Summary())

	progress.AddErrors(1)
	assert.Contains(t, p.Summary(), "errors 1")
}

func TestNewPresenterSelection(t *testing.T) {
	assert.IsType(t, &quietPresenter{}, NewPresenter(Config{Quiet: true, IsTTY: true}))
	assert.IsType(t, &plainPresenter{}, NewPresenter(Config{}))
	assert.IsType(t, &plainPresenter{}, NewPresenter(Config{IsTTY: true, NoProgress: true}))
	assert.IsType(t, &hudPresenter{}, NewPresenter(Config{IsTTY: true}))
}
