package ui

import (
	"fmt"

	"github.com/bamsammich/stow/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  entries 48,917  size 2.1 GiB  avg 641 MB/s  time 3m 17s  errors 0
func CompletionSummary(snap stats.ProgressSnapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesDone) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	if snap.Errors > 0 {
		icon = "✗"
	}

	return fmt.Sprintf("done %s  entries %s  size %s  avg %s  time %s  errors %d",
		icon,
		FormatCount(snap.EntriesDone),
		FormatBytes(snap.BytesDone),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
		snap.Errors,
	)
}
