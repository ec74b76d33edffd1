package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/mirrorsync/internal/stats"
)

// plainPresenter writes one line per file outcome, for pipes and log
// files. Every line starts with a fixed-width verb so output lines up and
// greps well.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   stats.ReadTicker
	verbose bool

	ticks int
}

// plainProgressEvery is how many one-second ticks pass between progress
// lines.
const plainProgressEvery = 5

func (p *plainPresenter) Run(events <-chan Event) error {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			p.stats.Tick()
			if p.ticks++; p.ticks%plainProgressEvery == 0 {
				p.printProgress()
			}
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	path := DisplayPath(ev.Path)
	switch ev.Type {
	case Planned:
		if ev.Total == 0 {
			fmt.Fprintln(p.w, "nothing to download")
		}
	case FileCompleted:
		p.line(p.w, "fetched", "%s  %s  %s  %s", path, FormatBytes(ev.Size), ev.Host, FormatRate(p.stats.RollingSpeed(5)))
	case FileFailed:
		p.line(p.w, "failed", "%s  %s", path, errString(ev.Error))
	case Failover:
		p.line(p.w, "failover", "%s  %d remaining from %s", ev.Host, ev.Total, path)
	case Warning:
		p.line(p.errW, "warning", "%s  %s", path, errString(ev.Error))
	case FileSkipped:
		if p.verbose {
			p.line(p.w, "current", "%s", path)
		}
	}
}

func (p *plainPresenter) line(w io.Writer, verb, format string, args ...any) {
	fmt.Fprintf(w, "%-8s  %s\n", verb, fmt.Sprintf(format, args...))
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	p.line(p.errW, "progress", "%s/%s files  %s  %s",
		FormatCount(snap.FilesDownloaded), FormatCount(snap.FilesPlanned),
		FormatBytes(snap.BytesDownloaded), FormatRate(p.stats.RollingSpeed(10)))
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
