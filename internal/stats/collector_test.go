package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	const goroutines = 100
	const opsPerGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range opsPerGoroutine {
				c.AddFilesScanned(1)
				c.AddFilesSkipped(1)
				c.AddFilesDownloaded(1)
				c.AddFilesFailed(1)
				c.AddBytesDownloaded(256)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	expected := int64(goroutines * opsPerGoroutine)
	assert.Equal(t, expected, s.FilesScanned)
	assert.Equal(t, expected, s.FilesSkipped)
	assert.Equal(t, expected, s.FilesDownloaded)
	assert.Equal(t, expected, s.FilesFailed)
	assert.Equal(t, expected*256, s.BytesDownloaded)
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{
		Entries:         10,
		FilesScanned:    10,
		FilesSkipped:    7,
		FilesPlanned:    3,
		FilesDownloaded: 2,
		FilesFailed:     1,
		BytesDownloaded: 4096,
		Failovers:       1,
	}
	expected := "entries=10 scanned=10 skipped=7 planned=3 downloaded=2 failed=1 bytes=4096 failovers=1"
	assert.Equal(t, expected, s.String())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{1073741824, "1.0 GiB"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, FormatBytes(tt.input))
		})
	}
}

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.startTime.IsZero())
	assert.InDelta(t, 0, c.Elapsed().Seconds(), 1)
}

func TestSetEntries(t *testing.T) {
	c := NewCollector()
	c.SetEntries(100)
	c.SetEntries(42)
	assert.Equal(t, int64(42), c.Snapshot().Entries)
}

func TestTickAndRollingSpeed(t *testing.T) {
	c := NewCollector()

	for range 5 {
		c.AddBytesDownloaded(1000)
		c.Tick()
	}

	assert.InDelta(t, 1000.0, c.RollingSpeed(5), 0.01)
}

func TestRollingSpeedPartialWindow(t *testing.T) {
	c := NewCollector()

	c.AddBytesDownloaded(500)
	c.Tick()
	c.AddBytesDownloaded(500)
	c.Tick()

	// Ask for 10 but only have 2.
	assert.InDelta(t, 500.0, c.RollingSpeed(10), 0.01)
}

func TestRollingSpeedNoSamples(t *testing.T) {
	c := NewCollector()
	assert.Equal(t, 0.0, c.RollingSpeed(5))
}

func TestRingWraparound(t *testing.T) {
	c := NewCollector()

	for range ringSize + 10 {
		c.AddBytesDownloaded(100)
		c.Tick()
	}

	assert.InDelta(t, 100.0, c.RollingSpeed(ringSize), 0.01)
}

func TestSnapshotIncludesElapsed(t *testing.T) {
	c := NewCollector()
	time.Sleep(10 * time.Millisecond)
	s := c.Snapshot()
	assert.Greater(t, s.Elapsed, time.Duration(0))
}

func TestCollectorImplementsInterfaces(t *testing.T) {
	var _ Writer = NewCollector()
	var _ ReadTicker = NewCollector()
}

func TestSparklineData(t *testing.T) {
	c := NewCollector()
	assert.Empty(t, c.SparklineData(5))

	for i := 1; i <= 3; i++ {
		c.AddBytesDownloaded(int64(i * 10))
		c.Tick()
	}

	assert.Equal(t, []float64{10, 20, 30}, c.SparklineData(5))
	assert.Equal(t, []float64{20, 30}, c.SparklineData(2))
}
