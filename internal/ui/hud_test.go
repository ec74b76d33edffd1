package ui

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/mirrorsync/internal/event"
	"github.com/bamsammich/mirrorsync/internal/stats"
)

func runHUD(t *testing.T, p *hudPresenter, evs ...Event) string {
	t.Helper()
	out, ok := p.w.(*bytes.Buffer)
	require.True(t, ok)

	events := make(chan Event, len(evs))
	for _, ev := range evs {
		events <- ev
	}
	close(events)
	require.NoError(t, p.Run(events))
	return out.String()
}

func TestHudPresenterFileCompleted(t *testing.T) {
	p := &hudPresenter{w: &bytes.Buffer{}, stats: stats.NewCollector()}

	output := runHUD(t, p,
		Event{Type: event.Planned, Total: 2},
		Event{Type: event.FileCompleted, Path: "/test/file.txt", Size: 1024},
	)

	assert.Contains(t, output, "file.txt")
	assert.Contains(t, output, "✓")
	// Directory portion is dimmed.
	assert.Contains(t, output, ansiDim+"test/"+ansiReset+"file.txt")
}

func TestHudPresenterFailoverAndWarning(t *testing.T) {
	p := &hudPresenter{w: &bytes.Buffer{}, stats: stats.NewCollector()}

	output := runHUD(t, p,
		Event{Type: event.FileFailed, Path: "/b/y.txt", Error: errors.New("HTTP 503")},
		Event{Type: event.Failover, Path: "/b/y.txt", Host: "mirror2.example.com", Total: 2},
		Event{Type: event.Warning, Path: "/b/y.txt", Error: errors.New("set mtime: denied")},
	)

	assert.Contains(t, output, "✗")
	assert.Contains(t, output, "HTTP 503")
	assert.Contains(t, output, "failing over to mirror2.example.com")
	assert.Contains(t, output, "(2 remaining)")
	assert.Contains(t, output, "set mtime: denied")
}

func TestHudPresenterSkippedOnlyWhenVerbose(t *testing.T) {
	quiet := &hudPresenter{w: &bytes.Buffer{}, stats: stats.NewCollector()}
	assert.NotContains(t, runHUD(t, quiet, Event{Type: event.FileSkipped, Path: "/same.txt"}), "same.txt")

	verbose := &hudPresenter{w: &bytes.Buffer{}, stats: stats.NewCollector(), verbose: true}
	assert.Contains(t, runHUD(t, verbose, Event{Type: event.FileSkipped, Path: "/same.txt"}), "up to date")
}

func TestHudDrawShowsCurrentFile(t *testing.T) {
	var out bytes.Buffer
	collector := stats.NewCollector()
	p := &hudPresenter{w: &out, stats: collector}

	p.handleEvent(Event{Type: event.Planned, Total: 4})
	p.handleEvent(Event{Type: event.FileStarted, Path: "/data/big.pak", Host: "cdn.example.com"})
	p.handleEvent(Event{Type: event.FileProgress, Path: "/data/big.pak", Size: 1024, TotalSize: 4096})
	p.drawHUD()

	output := out.String()
	assert.Contains(t, output, "0 / 4 files")
	assert.Contains(t, output, "data/big.pak")
	assert.Contains(t, output, "cdn.example.com")
	assert.Contains(t, output, "1.0 KiB / 4.0 KiB")
}

func TestHudPresenterSummary(t *testing.T) {
	collector := stats.NewCollector()
	collector.AddFilesPlanned(3)
	collector.AddFilesDownloaded(3)
	p := &hudPresenter{stats: collector}

	summary := p.Summary()
	assert.Contains(t, summary, "done ✓")
	assert.Contains(t, summary, "downloaded 3/3")
}

func TestHUDPathWidth(t *testing.T) {
	assert.Equal(t, 40, (&hudPresenter{}).pathWidth())
	assert.Equal(t, 16, (&hudPresenter{cols: 80}).pathWidth())
	assert.Equal(t, 50, (&hudPresenter{cols: 140}).pathWidth())
	assert.Equal(t, 60, (&hudPresenter{cols: 300}).pathWidth())
}

func TestStyledPath(t *testing.T) {
	assert.Equal(t, "file.txt", styledPath("/file.txt"))
	assert.Equal(t, fmt.Sprintf("%sa/b/%sc.txt", ansiDim, ansiReset), styledPath("/a/b/c.txt"))
}

func TestHudClearHUDSequence(t *testing.T) {
	var out bytes.Buffer
	p := &hudPresenter{w: &out, stats: stats.NewCollector()}

	p.drawHUD()
	require.True(t, p.hudDrawn)
	out.Reset()

	p.clearHUD()
	assert.Equal(t, "\033[2A\033[J", out.String())
	assert.False(t, p.hudDrawn)

	// Clearing twice is a no-op.
	out.Reset()
	p.clearHUD()
	assert.Empty(t, out.String())
}

func TestHudAlwaysRedrawsAfterFeedLine(t *testing.T) {
	var out bytes.Buffer
	p := &hudPresenter{w: &out, stats: stats.NewCollector()}

	p.handleEvent(Event{Type: event.FileCompleted, Path: "/a.txt", Size: 10})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 1+hudLines)
	assert.Contains(t, lines[0], "a.txt")
	assert.True(t, p.hudDrawn)
}
