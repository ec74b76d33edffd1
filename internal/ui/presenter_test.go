package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bamsammich/mirrorsync/internal/stats"
)

func TestNewPresenter(t *testing.T) {
	base := Config{Writer: &bytes.Buffer{}, ErrWriter: &bytes.Buffer{}, Stats: stats.NewCollector()}

	quiet := base
	quiet.Quiet = true
	assert.IsType(t, &quietPresenter{}, NewPresenter(quiet))

	assert.IsType(t, &plainPresenter{}, NewPresenter(base))

	tty := base
	tty.IsTTY = true
	assert.IsType(t, &hudPresenter{}, NewPresenter(tty))

	noProgress := tty
	noProgress.NoProgress = true
	assert.IsType(t, &plainPresenter{}, NewPresenter(noProgress))
}

func TestQuietPresenter(t *testing.T) {
	p := &quietPresenter{}
	events := make(chan Event, 1)
	events <- Event{Type: FileCompleted, Path: "/a"}
	close(events)

	assert.NoError(t, p.Run(events))
	assert.Empty(t, p.Summary())
}

func TestCompletionSummary(t *testing.T) {
	collector := stats.NewCollector()
	collector.AddFilesPlanned(2)
	collector.AddFilesDownloaded(2)
	collector.AddFilesSkipped(1204)
	collector.AddFailovers(1)

	summary := CompletionSummary(collector.Snapshot())
	assert.Contains(t, summary, "done ✓  downloaded 2/2  skipped 1,204")
	assert.Contains(t, summary, "failovers 1")
	assert.Contains(t, summary, "warnings 0")
}
