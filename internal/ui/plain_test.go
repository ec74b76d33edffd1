package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/mirrorsync/internal/stats"
)

type plainOutput struct {
	out, err bytes.Buffer
}

func newPlain(verbose bool) (*plainPresenter, *plainOutput) {
	o := &plainOutput{}
	return &plainPresenter{w: &o.out, errW: &o.err, stats: stats.NewCollector(), verbose: verbose}, o
}

func runPlain(t *testing.T, p *plainPresenter, evs ...Event) {
	t.Helper()
	events := make(chan Event, len(evs))
	for _, ev := range evs {
		events <- ev
	}
	close(events)
	require.NoError(t, p.Run(events))
}

func TestPlainPresenter_Lines(t *testing.T) {
	p, o := newPlain(false)

	runPlain(t, p,
		Event{Type: FileStarted, Path: "/a/x.txt", Host: "cdn.example.com"},
		Event{Type: FileCompleted, Path: "/a/x.txt", Host: "cdn.example.com", Size: 1024},
		Event{Type: FileFailed, Path: "/b/y.txt", Host: "cdn.example.com", Error: errors.New("HTTP 503")},
		Event{Type: Failover, Path: "/b/y.txt", Host: "mirror.example.com", Total: 2},
		Event{Type: FileSkipped, Path: "/c/z.txt"},
	)

	lines := strings.Split(strings.TrimSuffix(o.out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "fetched   a/x.txt  1.0 KiB  cdn.example.com"), lines[0])
	assert.Equal(t, "failed    b/y.txt  HTTP 503", lines[1])
	assert.Equal(t, "failover  mirror.example.com  2 remaining from b/y.txt", lines[2])
	assert.Empty(t, o.err.String())
}

func TestPlainPresenter_WarningGoesToStderr(t *testing.T) {
	p, o := newPlain(false)

	runPlain(t, p, Event{Type: Warning, Path: "/a.txt", Error: errors.New("set mtime: denied")})

	assert.Empty(t, o.out.String())
	assert.Equal(t, "warning   a.txt  set mtime: denied\n", o.err.String())
}

func TestPlainPresenter_VerboseSkips(t *testing.T) {
	p, o := newPlain(true)
	runPlain(t, p, Event{Type: FileSkipped, Path: "/skip.txt"})
	assert.Equal(t, "current   skip.txt\n", o.out.String())
}

func TestPlainPresenter_NothingPlanned(t *testing.T) {
	p, o := newPlain(false)
	runPlain(t, p, Event{Type: Planned, Total: 0}, Event{Type: Planned, Total: 3})
	assert.Equal(t, "nothing to download\n", o.out.String())
}

func TestPlainPresenter_Progress(t *testing.T) {
	p, o := newPlain(false)
	collector := stats.NewCollector()
	collector.AddFilesPlanned(4)
	collector.AddFilesDownloaded(1)
	collector.AddBytesDownloaded(2048)
	p.stats = collector

	p.printProgress()

	assert.True(t, strings.HasPrefix(o.err.String(), "progress  1/4 files  2.0 KiB"), o.err.String())
}

func TestPlainPresenter_Summary(t *testing.T) {
	collector := stats.NewCollector()
	collector.AddFilesFailed(1)
	p := &plainPresenter{stats: collector}

	assert.Contains(t, p.Summary(), "done ✗")
}
