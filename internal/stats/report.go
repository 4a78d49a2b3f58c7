package stats

import (
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// Counter names written by the tree walkers and the copy engine.
const (
	SourceSelected           = "source.selected"
	SourceVisitedDirectories = "source.visited.directories"
	SourceErrorMetadata      = "source.error.metadata"
	SkippedExcludedFiles     = "skipped.excluded.files"
	SkippedExcludedDirs      = "skipped.excluded.directories"
	SkippedExcludedSymlinks  = "skipped.excluded.symlinks"
	Problems                 = "problems"
	Errors                   = "errors"
)

// Report accumulates named counters and non-fatal problems for one
// traversal. It is passed explicitly to whatever writes into it; share one
// Report between the walker and the engine of a single copy, and give each
// independent walk its own.
type Report struct {
	mu     sync.Mutex
	counts map[string]int64
	logger *slog.Logger
}

// NewReport returns an empty Report that logs through slog.Default.
func NewReport() *Report {
	return &Report{counts: make(map[string]int64)}
}

// WithLogger directs problems and errors to l instead of slog.Default.
func (r *Report) WithLogger(l *slog.Logger) *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = l
	return r
}

func (r *Report) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// Increment adds n to the named counter.
func (r *Report) Increment(name string, n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name] += n
}

// Get returns the value of the named counter, zero if it was never set.
func (r *Report) Get(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

// Counts returns a copy of all counters.
func (r *Report) Counts() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.counts)
}

// Names returns the names of all counters that have been set, sorted.
func (r *Report) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.counts))
}

// Problem records something that went wrong but did not stop the
// operation, such as a file that disappeared during a walk.
func (r *Report) Problem(msg string, args ...any) {
	r.Increment(Problems, 1)
	r.log().Warn(msg, args...)
}

// ShowError reports an error, either one that was recovered from, or a
// fatal one that is about to be returned to the caller.
func (r *Report) ShowError(err error, args ...any) {
	r.Increment(Errors, 1)
	r.log().Error(err.Error(), args...)
}
