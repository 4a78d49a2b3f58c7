package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/bamsammich/stow/internal/engine"
	"github.com/bamsammich/stow/internal/event"
	"github.com/bamsammich/stow/internal/stats"
	"github.com/bamsammich/stow/internal/tree"
	"github.com/bamsammich/stow/internal/ui"
)

// copyJob is one run of the copy engine with progress display.
type copyJob struct {
	source         tree.ReadTree
	dest           tree.WriteTree
	report         *stats.Report
	printFilenames bool
	measureFirst   bool
}

// runCopy runs the engine in the foreground and the presenter in the
// background, then prints the summary.
func runCopy(job copyJob) (stats.CopyStats, error) {
	progress := stats.NewProgress()
	events := make(chan event.Event, 256)

	presenterEvents := (<-chan event.Event)(events)
	if globals.logFile != "" {
		presenterEvents = logEvents(events)
	}

	var out io.Writer = os.Stdout
	if job.printFilenames {
		// The engine owns stdout.
		out = io.Discard
	}
	presenter := ui.NewPresenter(ui.Config{
		Writer:     out,
		ErrWriter:  os.Stderr,
		Progress:   progress,
		IsTTY:      ui.IsTTY(os.Stderr),
		Quiet:      globals.quiet,
		Verbose:    globals.verbose,
		NoProgress: globals.noProgress,
	})

	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterEvents)
	}()

	s, err := engine.CopyTree(job.source, job.dest, engine.Options{
		PrintFilenames: job.printFilenames,
		MeasureFirst:   job.measureFirst,
		Out:            os.Stdout,
		Events:         events,
		Progress:       progress,
		Report:         job.report,
	})
	close(events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
	}

	if !globals.quiet || s.Errors > 0 {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(os.Stderr, summary)
		}
	}
	logCounters(job.report)
	return s, err
}

// copyResult maps the outcome of a copy to the process exit status: 1 when
// some entries failed, 2 (through the returned error) when the copy did not
// complete.
func copyResult(s stats.CopyStats, err error) error {
	if err != nil {
		return err
	}
	if s.Errors > 0 {
		slog.Error("some entries could not be copied", "errors", s.Errors)
		return &exitError{code: 1}
	}
	return nil
}
