package ui

import (
	"math"
	"strings"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws the last width samples as block characters scaled to
// the largest of them. Shorter series are right-aligned on a flat baseline.
func Sparkline(samples []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}
	peak := 0.0
	for _, v := range samples {
		peak = max(peak, v)
	}

	top := len(sparkLevels) - 1
	var b strings.Builder
	b.WriteString(strings.Repeat(string(sparkLevels[0]), width-len(samples)))
	for _, v := range samples {
		level := 0
		if peak > 0 && v > 0 {
			level = min(top, int(math.Round(v/peak*float64(top))))
		}
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}
