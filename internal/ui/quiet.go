package ui

import "github.com/bamsammich/stow/internal/stats"

// quietPresenter drains events and prints only failures in the summary.
type quietPresenter struct {
	progress *stats.Progress
}

func (p *quietPresenter) Run(events <-chan Event) error {
	for range events {
		// Counters live on the Progress, written by the engine.
	}
	return nil
}

func (p *quietPresenter) Summary() string {
	if snap := p.progress.Snapshot(); snap.Errors > 0 {
		return CompletionSummary(snap)
	}
	return ""
}
