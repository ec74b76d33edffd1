package ui

import (
	"fmt"
	"strings"

	"github.com/bamsammich/mirrorsync/internal/stats"
)

// CompletionSummary renders the line printed after a pass, e.g.
//
//	done ✓  downloaded 3/3  skipped 1,204  size 2.1 GiB  avg 41.0 MiB/s  time 53s  warnings 0
//
// Failovers are listed only when one happened.
func CompletionSummary(snap stats.Snapshot) string {
	icon := "✓"
	if snap.FilesFailed > 0 {
		icon = "✗"
	}
	var avg float64
	if secs := snap.Elapsed.Seconds(); secs > 0 {
		avg = float64(snap.BytesDownloaded) / secs
	}

	parts := []string{
		"done " + icon,
		"downloaded " + FormatCount(snap.FilesDownloaded) + "/" + FormatCount(snap.FilesPlanned),
		"skipped " + FormatCount(snap.FilesSkipped),
		"size " + FormatBytes(snap.BytesDownloaded),
		"avg " + FormatRate(avg),
		"time " + FormatDuration(snap.Elapsed),
	}
	if snap.Failovers > 0 {
		parts = append(parts, fmt.Sprintf("failovers %d", snap.Failovers))
	}
	parts = append(parts, fmt.Sprintf("warnings %d", snap.Warnings))
	return strings.Join(parts, "  ")
}
