package ui

import (
	"fmt"
	"io"
	"path"
	"time"

	"github.com/bamsammich/mirrorsync/internal/stats"
)

// ANSI escape sequences.
const (
	ansiDim   = "\033[2m"
	ansiReset = "\033[0m"
)

// hudPresenter provides a TTY display with a scrolling feed of downloaded
// files and a 2-line HUD that redraws in place.
type hudPresenter struct {
	w       io.Writer
	cols    int
	stats   stats.ReadTicker
	verbose bool

	planned     int64
	current     string // manifest path of the in-flight download
	currentHost string
	currentDone int64
	currentSize int64

	hudDrawn    bool
	lastHUDDraw time.Time
}

const (
	hudLines         = 2
	sparklineWidth   = 20
	progressBarWidth = 20
	hudMinInterval   = 50 * time.Millisecond // don't redraw faster than this
)

func (p *hudPresenter) Run(events <-chan Event) error {
	// Fire first tick quickly to seed the ring buffer, then every second.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	// Redraw while a single large file streams without other events.
	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearHUD()
				return nil
			}
			p.handleEvent(ev)
			p.maybeDrawHUD()

		case <-redrawTicker.C:
			p.drawHUD()

		case <-secTicker.C:
			p.stats.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(1 * time.Second)
			}
		}
	}
}

func (p *hudPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case Planned:
		p.planned = ev.Total

	case FileStarted:
		p.current, p.currentHost = ev.Path, ev.Host
		p.currentDone, p.currentSize = 0, -1

	case FileProgress:
		p.currentDone, p.currentSize = ev.Size, ev.TotalSize

	case FileCompleted:
		p.current = ""
		p.feed(func() { p.printFileCompleted(ev) })

	case FileFailed:
		p.current = ""
		p.feed(func() {
			fmt.Fprintf(p.w, "✗  %s  %s\n", styledPath(ev.Path), errString(ev.Error))
		})

	case Failover:
		p.feed(func() {
			fmt.Fprintf(p.w, "↪  failing over to %s  %s(%d remaining)%s\n",
				ev.Host, ansiDim, ev.Total, ansiReset)
		})

	case Warning:
		p.feed(func() {
			fmt.Fprintf(p.w, "!  %s  %s%s%s\n", styledPath(ev.Path), ansiDim, errString(ev.Error), ansiReset)
		})

	case FileSkipped:
		if p.verbose {
			p.feed(func() {
				fmt.Fprintf(p.w, "–  %s  %sup to date%s\n", styledPath(ev.Path), ansiDim, ansiReset)
			})
		}
	}
}

// feed prints a line above the HUD and redraws it below.
func (p *hudPresenter) feed(print func()) {
	p.clearHUD()
	print()
	p.drawHUD()
}

func (p *hudPresenter) printFileCompleted(ev Event) {
	speed := p.stats.RollingSpeed(5)
	if speed > 0 {
		fmt.Fprintf(p.w, "✓  %s  %10s  %s\n", styledPath(ev.Path), FormatBytes(ev.Size), FormatRate(speed))
	} else {
		fmt.Fprintf(p.w, "✓  %s  %10s\n", styledPath(ev.Path), FormatBytes(ev.Size))
	}
}

// maybeDrawHUD redraws the HUD if enough time has passed since the last draw.
func (p *hudPresenter) maybeDrawHUD() {
	if time.Since(p.lastHUDDraw) < hudMinInterval {
		return
	}
	p.drawHUD()
}

func (p *hudPresenter) drawHUD() {
	snap := p.stats.Snapshot()
	p.clearHUD()

	planned := p.planned
	if planned == 0 {
		planned = snap.FilesPlanned
	}
	var pct float64
	if planned > 0 {
		pct = float64(snap.FilesDownloaded) / float64(planned)
	}

	// Line 1: throughput sparkline + speed + bytes received.
	spark := Sparkline(p.stats.SparklineData(sparklineWidth), sparklineWidth)
	fmt.Fprintf(p.w, "       %s   %s   %s\n",
		spark, FormatRate(p.stats.RollingSpeed(10)), FormatBytes(snap.BytesDownloaded))

	// Line 2: progress bar + files + current file.
	fmt.Fprintf(p.w, " %3.0f%%  %s   %s / %s files",
		pct*100, ProgressBar(pct, progressBarWidth),
		FormatCount(snap.FilesDownloaded), FormatCount(planned))
	if p.current != "" {
		fmt.Fprintf(p.w, "   %s %s%s  %s%s",
			fitPath(DisplayPath(p.current), p.pathWidth()),
			ansiDim, p.currentHost, FormatTransfer(p.currentDone, p.currentSize), ansiReset)
	}
	fmt.Fprintln(p.w)

	p.hudDrawn = true
	p.lastHUDDraw = time.Now()
}

func (p *hudPresenter) clearHUD() {
	if !p.hudDrawn {
		return
	}
	// Move cursor up N lines and clear to end of screen.
	fmt.Fprintf(p.w, "\033[%dA\033[J", hudLines)
	p.hudDrawn = false
}

func (p *hudPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}

// styledPath returns the path with the directory portion dimmed and the
// filename in normal weight, making the actual filename stand out.
func styledPath(p string) string {
	p = DisplayPath(p)
	dir, base := path.Split(p)
	if dir == "" {
		return base
	}
	return fmt.Sprintf("%s%s%s%s", ansiDim, dir, ansiReset, base)
}

// pathWidth is the room left for the current file on the second HUD line
// once the bar, counts, host and transfer are drawn.
func (p *hudPresenter) pathWidth() int {
	if p.cols <= 0 {
		return 40
	}
	return min(max(p.cols-90, 16), 60)
}

func errString(err error) string {
	if err == nil {
		return "error"
	}
	return err.Error()
}
