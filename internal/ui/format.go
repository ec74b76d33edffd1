package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bamsammich/mirrorsync/internal/stats"
)

// FormatBytes renders a byte count with binary units.
func FormatBytes(b int64) string {
	return stats.FormatBytes(b)
}

// FormatRate renders a throughput in bytes per second.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec < 1 {
		return "0 B/s"
	}
	return stats.FormatBytes(int64(bytesPerSec)) + "/s"
}

// FormatCount renders n with thousands separators.
func FormatCount(n int64) string {
	digits := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}
	for i := len(digits) - 3; i > 0; i -= 3 {
		digits = digits[:i] + "," + digits[i:]
	}
	return sign + digits
}

// ProgressBar renders frac (clamped to [0,1]) as a bar of width cells.
func ProgressBar(frac float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(min(max(frac, 0), 1) * float64(width))
	return strings.Repeat("▪", filled) + strings.Repeat("□", width-filled)
}

// FormatDuration renders d rounded to the second, e.g. "3m 07s".
func FormatDuration(d time.Duration) string {
	secs := int64(d.Round(time.Second) / time.Second)
	h, m, s := secs/3600, secs/60%60, secs%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// DisplayPath renders a manifest path without its leading separator.
func DisplayPath(p string) string {
	return strings.TrimPrefix(p, "/")
}

// FormatTransfer renders bytes received so far against the declared
// length, or just the count when the length is unknown.
func FormatTransfer(done, total int64) string {
	if total < 0 {
		return FormatBytes(done)
	}
	return FormatBytes(done) + " / " + FormatBytes(total)
}

// fitPath shortens an ASCII path to at most width columns, keeping the
// tail where the file name is.
func fitPath(p string, width int) string {
	if len(p) <= width {
		return p
	}
	if width <= 1 {
		return p[len(p)-max(width, 0):]
	}
	return "…" + p[len(p)-width+1:]
}
