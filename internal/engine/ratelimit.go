package engine

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

// maxBurst bounds the bytes a single read may draw from the bucket.
const maxBurst = 1 << 20

// NewBWLimiter returns a limiter admitting bytesPerSec bytes per second.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(bytesPerSec), int(min(bytesPerSec, maxBurst)))
}

// ParseBWLimit parses a bandwidth limit such as "2048", "500K", "10M",
// "1.5MiB" or "4MB/s" into bytes per second. Units are powers of 1024.
// The result must be at least one byte per second.
func ParseBWLimit(s string) (int64, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "/S")
	if t, ok := strings.CutSuffix(v, "IB"); ok {
		v = t
	} else {
		v = strings.TrimSuffix(v, "B")
	}

	shift := 0
	if n := len(v); n > 0 {
		if i := strings.IndexByte("KMGT", v[n-1]); i >= 0 {
			shift = 10 * (i + 1)
			v = v[:n-1]
		}
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("invalid bandwidth limit %q", s)
	}
	// float64(MaxInt64) rounds up to 2^63, which no longer fits.
	n := f * float64(int64(1)<<shift)
	if n < 1 || n >= math.MaxInt64 {
		return 0, fmt.Errorf("bandwidth limit %q out of range", s)
	}
	return int64(n), nil
}

// throttledReader charges every read against a limiter shared by all
// downloads of a pass.
type throttledReader struct {
	ctx context.Context
	src io.Reader
	lim *rate.Limiter
}

func throttle(ctx context.Context, src io.Reader, lim *rate.Limiter) io.Reader {
	if lim == nil {
		return src
	}
	return &throttledReader{ctx: ctx, src: src, lim: lim}
}

func (t *throttledReader) Read(p []byte) (int, error) {
	// WaitN rejects requests above the burst.
	if burst := t.lim.Burst(); burst > 0 && len(p) > burst {
		p = p[:burst]
	}
	n, err := t.src.Read(p)
	if n == 0 {
		return 0, err
	}
	if werr := t.lim.WaitN(t.ctx, n); werr != nil {
		return n, werr
	}
	return n, err
}
