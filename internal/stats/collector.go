package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Writer is the side of the collector the engine uses.
type Writer interface {
	SetEntries(n int64)
	AddFilesScanned(n int64)
	AddBytesHashed(n int64)
	AddFilesSkipped(n int64)
	AddFilesPlanned(n int64)
	AddFilesDownloaded(n int64)
	AddFilesFailed(n int64)
	AddBytesDownloaded(n int64)
	AddFailovers(n int64)
	AddWarnings(n int64)
}

// Reader is the side of the collector presenters use.
type Reader interface {
	Snapshot() Snapshot
	RollingSpeed(seconds int) float64
}

// ReadTicker is a Reader that presenters also drive once per second.
type ReadTicker interface {
	Reader
	Tick()
	SparklineData(n int) []float64
}

// Collector tracks synchronization statistics using lock-free atomic counters.
type Collector struct {
	entries         atomic.Int64
	filesScanned    atomic.Int64
	bytesHashed     atomic.Int64
	filesSkipped    atomic.Int64
	filesPlanned    atomic.Int64
	filesDownloaded atomic.Int64
	filesFailed     atomic.Int64
	bytesDownloaded atomic.Int64
	failovers       atomic.Int64
	warnings        atomic.Int64
	startTime       time.Time

	// Ring buffer, written only by the presenter's Tick().
	mu         sync.Mutex
	throughput [ringSize]int64 // bytes delta per second
	ringIdx    int
	ringCount  int // samples written, capped at ringSize
	lastBytes  int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// SetEntries records the manifest entry count (called once per pass).
func (c *Collector) SetEntries(n int64) { c.entries.Store(n) }

func (c *Collector) AddFilesScanned(n int64)    { c.filesScanned.Add(n) }
func (c *Collector) AddBytesHashed(n int64)     { c.bytesHashed.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)    { c.filesSkipped.Add(n) }
func (c *Collector) AddFilesPlanned(n int64)    { c.filesPlanned.Add(n) }
func (c *Collector) AddFilesDownloaded(n int64) { c.filesDownloaded.Add(n) }
func (c *Collector) AddFilesFailed(n int64)     { c.filesFailed.Add(n) }
func (c *Collector) AddBytesDownloaded(n int64) { c.bytesDownloaded.Add(n) }
func (c *Collector) AddFailovers(n int64)       { c.failovers.Add(n) }
func (c *Collector) AddWarnings(n int64)        { c.warnings.Add(n) }

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	Entries         int64
	FilesScanned    int64
	BytesHashed     int64
	FilesSkipped    int64
	FilesPlanned    int64
	FilesDownloaded int64
	FilesFailed     int64
	BytesDownloaded int64
	Failovers       int64
	Warnings        int64
	Elapsed         time.Duration
}

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Entries:         c.entries.Load(),
		FilesScanned:    c.filesScanned.Load(),
		BytesHashed:     c.bytesHashed.Load(),
		FilesSkipped:    c.filesSkipped.Load(),
		FilesPlanned:    c.filesPlanned.Load(),
		FilesDownloaded: c.filesDownloaded.Load(),
		FilesFailed:     c.filesFailed.Load(),
		BytesDownloaded: c.bytesDownloaded.Load(),
		Failovers:       c.failovers.Load(),
		Warnings:        c.warnings.Load(),
		Elapsed:         c.Elapsed(),
	}
}

// Tick snapshots the byte delta into the ring buffer. Called 1/sec by the presenter.
func (c *Collector) Tick() {
	current := c.bytesDownloaded.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = current - c.lastBytes
	c.lastBytes = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(seconds, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.throughput[idx]
	}
	return float64(sum) / float64(count)
}

// SparklineData returns the last n throughput samples, oldest first.
func (c *Collector) SparklineData(n int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(n, c.ringCount)
	out := make([]float64, count)
	for i := range count {
		idx := (c.ringIdx - count + i + ringSize) % ringSize
		out[i] = float64(c.throughput[idx])
	}
	return out
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"entries=%d scanned=%d skipped=%d planned=%d downloaded=%d failed=%d bytes=%d failovers=%d",
		s.Entries, s.FilesScanned, s.FilesSkipped, s.FilesPlanned,
		s.FilesDownloaded, s.FilesFailed, s.BytesDownloaded, s.Failovers,
	)
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
