package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Progress tracks how far a copy has got, for display while it runs.
// Counters are atomic so a presenter goroutine can read them while the copy
// engine writes.
type Progress struct {
	entriesDone  atomic.Int64
	bytesDone    atomic.Int64
	errors       atomic.Int64
	bytesTotal   atomic.Int64
	entriesTotal atomic.Int64
	startTime    time.Time

	// Ring buffer, written only by the presenter's Tick.
	mu          sync.Mutex
	phase       string
	current     string
	throughput  [ringSize]int64 // bytes delta per second
	entriesRate [ringSize]int64 // entries delta per second
	ringIdx     int
	ringCount   int
	lastBytes   int64
	lastEntries int64
}

// NewProgress creates a Progress with its start time set to now.
func NewProgress() *Progress {
	return &Progress{startTime: time.Now()}
}

// SetTotals records the expected size of the copy, from a measuring pass.
func (p *Progress) SetTotals(entries, bytes int64) {
	p.entriesTotal.Store(entries)
	p.bytesTotal.Store(bytes)
}

func (p *Progress) AddEntriesDone(n int64) { p.entriesDone.Add(n) }
func (p *Progress) AddBytesDone(n int64)   { p.bytesDone.Add(n) }
func (p *Progress) AddErrors(n int64)      { p.errors.Add(n) }

// SetPhase names what the copy is currently doing, such as "Copying".
func (p *Progress) SetPhase(phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = phase
}

// SetCurrent records the path currently being copied.
func (p *Progress) SetCurrent(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = path
}

// ProgressSnapshot is a point-in-time read of a Progress.
type ProgressSnapshot struct {
	Phase        string
	Current      string
	EntriesDone  int64
	BytesDone    int64
	Errors       int64
	BytesTotal   int64
	EntriesTotal int64
	Elapsed      time.Duration
}

// Snapshot returns a point-in-time read of all counters.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	phase, current := p.phase, p.current
	p.mu.Unlock()
	return ProgressSnapshot{
		Phase:        phase,
		Current:      current,
		EntriesDone:  p.entriesDone.Load(),
		BytesDone:    p.bytesDone.Load(),
		Errors:       p.errors.Load(),
		BytesTotal:   p.bytesTotal.Load(),
		EntriesTotal: p.entriesTotal.Load(),
		Elapsed:      p.Elapsed(),
	}
}

// Tick snapshots byte/entry deltas into the ring buffer. Called once a
// second by the presenter.
func (p *Progress) Tick() {
	currentBytes := p.bytesDone.Load()
	currentEntries := p.entriesDone.Load()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.throughput[p.ringIdx] = currentBytes - p.lastBytes
	p.entriesRate[p.ringIdx] = currentEntries - p.lastEntries
	p.lastBytes = currentBytes
	p.lastEntries = currentEntries

	p.ringIdx = (p.ringIdx + 1) % ringSize
	if p.ringCount < ringSize {
		p.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (p *Progress) RollingSpeed(seconds int) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rollingAvg(p.throughput[:], seconds)
}

// RollingEntriesPerSec returns average entries/sec over the last n seconds.
func (p *Progress) RollingEntriesPerSec(seconds int) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rollingAvg(p.entriesRate[:], seconds)
}

func (p *Progress) rollingAvg(buf []int64, n int) float64 {
	count := min(n, p.ringCount)
	if count == 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (p.ringIdx - 1 - i + ringSize) % ringSize
		sum += buf[idx]
	}
	return float64(sum) / float64(count)
}

// SparklineData returns up to n per-second byte deltas, oldest first.
func (p *Progress) SparklineData(n int) []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := min(n, p.ringCount)
	if count == 0 {
		return nil
	}
	data := make([]float64, count)
	for i := range count {
		idx := (p.ringIdx - count + i + ringSize) % ringSize
		data[i] = float64(p.throughput[idx])
	}
	return data
}

// ETA estimates remaining time from the rolling speed and remaining bytes.
// It is zero when no total is known.
func (p *Progress) ETA() time.Duration {
	speed := p.RollingSpeed(10)
	if speed <= 0 {
		return 0
	}
	remaining := p.bytesTotal.Load() - p.bytesDone.Load()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/speed) * time.Second
}

// Elapsed returns time since the Progress was created.
func (p *Progress) Elapsed() time.Duration {
	return time.Since(p.startTime)
}

func (s ProgressSnapshot) String() string {
	if s.BytesTotal > 0 {
		pct := float64(s.BytesDone) / float64(s.BytesTotal) * 100
		return fmt.Sprintf("%s: %.0f%% %s/%s, %d entries",
			s.Phase, pct, FormatBytes(s.BytesDone), FormatBytes(s.BytesTotal), s.EntriesDone)
	}
	return fmt.Sprintf("%s: %s, %d entries", s.Phase, FormatBytes(s.BytesDone), s.EntriesDone)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
