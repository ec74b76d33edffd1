package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bamsammich/mirrorsync/internal/digest"
	"github.com/bamsammich/mirrorsync/internal/event"
	"github.com/bamsammich/mirrorsync/internal/platform"
	"github.com/bamsammich/mirrorsync/internal/stats"
	"github.com/bamsammich/mirrorsync/internal/transport"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

const chunkSize = 32 * 1024

// DownloaderConfig controls downloader behavior.
type DownloaderConfig struct {
	Digest    digest.Algorithm
	UserAgent string
	Fs        afero.Fs
	Limiter   *rate.Limiter // nil means unlimited
	Stats     stats.Writer
	Events    chan<- event.Event
	Logger    *slog.Logger
	// RoundTripper replaces the per-session connection pool (tests).
	RoundTripper http.RoundTripper
}

// Downloader fetches planned tasks from a primary host, failing over once
// to a secondary host.
type Downloader struct {
	cfg DownloaderConfig
	buf []byte
}

// NewDownloader creates a downloader with the given config.
func NewDownloader(cfg DownloaderConfig) *Downloader {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Digest == "" {
		cfg.Digest = digest.Default
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Downloader{cfg: cfg, buf: make([]byte, chunkSize)}
}

// Execute downloads tasks in order. The first failure on the primary host
// abandons the rest of its batch, and the remaining tasks, starting with
// the one that failed, are retried exactly once against secondary. A zero
// secondary disables failover.
func (d *Downloader) Execute(ctx context.Context, tasks []Task, primary, secondary transport.Host) Result {
	res := Result{Planned: len(tasks)}
	if len(tasks) == 0 {
		res.Success = true
		return res
	}

	hosts := []transport.Host{primary}
	if !secondary.IsZero() {
		hosts = append(hosts, secondary)
	}

	cursor := 0
	var err error
	for i, host := range hosts {
		if i > 0 {
			if ctx.Err() != nil {
				break
			}
			res.Failovers++
			d.cfg.Stats.AddFailovers(1)
			d.cfg.Logger.Warn("failing over",
				"from", hosts[i-1].String(), "to", host.String(),
				"remaining", len(tasks)-cursor, "error", err)
			emitEvent(d.cfg.Events, event.Event{
				Type:  event.Failover,
				Path:  tasks[cursor].Path,
				Host:  host.String(),
				Total: int64(len(tasks) - cursor),
				Error: err,
			})
		}

		var done int
		done, err = d.downloadAll(ctx, host, tasks[cursor:], &res)
		cursor += done
		res.Downloaded += done
		if err == nil {
			res.Success = true
			return res
		}
	}

	res.Err = err
	res.Path, res.Host = failedAt(err)
	if res.Path == "" {
		res.Path = tasks[cursor].Path
	}
	d.cfg.Stats.AddFilesFailed(1)
	return res
}

// downloadAll runs one batch attempt against host over a single session.
// It returns how many tasks completed before the first failure.
func (d *Downloader) downloadAll(ctx context.Context, host transport.Host, tasks []Task, res *Result) (int, error) {
	session := transport.NewSession(host, transport.SessionOpts{
		UserAgent:    d.cfg.UserAgent,
		RoundTripper: d.cfg.RoundTripper,
	})
	defer session.Close()

	d.cfg.Logger.Debug("batch started", "host", host.String(), "files", len(tasks))
	for i, task := range tasks {
		if err := d.download(ctx, session, task, res); err != nil {
			d.cfg.Logger.Error("download failed", "path", task.Path, "host", host.String(), "error", err)
			emitEvent(d.cfg.Events, event.Event{
				Type:  event.FileFailed,
				Path:  task.Path,
				Host:  host.String(),
				Error: err,
			})
			return i, err
		}
	}
	return len(tasks), nil
}

// download streams one file to disk, hashing as it goes, then verifies the
// digest and applies the server's Last-Modified time.
func (d *Downloader) download(ctx context.Context, session *transport.Session, task Task, res *Result) error {
	host := session.Host().String()
	emitEvent(d.cfg.Events, event.Event{Type: event.FileStarted, Path: task.Path, Host: host})

	resp, err := session.Get(ctx, task.RemotePath)
	if err != nil {
		return &TransportError{Host: host, Path: task.Path, Err: err}
	}
	if !resp.OK() {
		transport.Discard(resp.Body)
		return &StatusError{Host: host, Path: task.Path, RemotePath: task.RemotePath, Code: resp.StatusCode}
	}
	defer resp.Body.Close()

	if err := d.cfg.Fs.MkdirAll(filepath.Dir(task.LocalPath), 0o755); err != nil {
		return &LocalWriteError{Host: host, Path: task.Path, LocalPath: task.LocalPath, Err: err}
	}
	f, err := d.cfg.Fs.OpenFile(task.LocalPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &LocalWriteError{Host: host, Path: task.Path, LocalPath: task.LocalPath, Err: err}
	}
	if osf, ok := f.(*os.File); ok {
		if err := platform.Preallocate(osf, resp.ContentLength); err != nil && !errors.Is(err, errors.ErrUnsupported) {
			d.cfg.Logger.Debug("preallocation failed", "path", task.Path, "error", err)
		}
	}

	written, sum, err := d.stream(ctx, f, resp, task, host)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = &LocalWriteError{Host: host, Path: task.Path, LocalPath: task.LocalPath, Err: closeErr}
	}
	if err != nil {
		return err
	}

	if !digest.Equal(sum, task.Digest) {
		return &DigestMismatchError{Host: host, Path: task.Path, Expected: task.Digest, Actual: sum}
	}

	d.applyModTime(resp, task, res)

	d.cfg.Stats.AddFilesDownloaded(1)
	d.cfg.Logger.Debug("downloaded", "path", task.Path, "host", host, "bytes", written)
	emitEvent(d.cfg.Events, event.Event{Type: event.FileCompleted, Path: task.Path, Host: host, Size: written})
	return nil
}

func (d *Downloader) stream(
	ctx context.Context,
	w io.Writer,
	resp *transport.Response,
	task Task,
	host string,
) (int64, string, error) {
	body := throttle(ctx, resp.Body, d.cfg.Limiter)

	hasher := digest.NewHasher(d.cfg.Digest)
	var written int64
	for {
		n, rerr := body.Read(d.buf)
		if n > 0 {
			if _, werr := w.Write(d.buf[:n]); werr != nil {
				return written, "", &LocalWriteError{Host: host, Path: task.Path, LocalPath: task.LocalPath, Err: werr}
			}
			hasher.Write(d.buf[:n]) //nolint:errcheck // hash.Hash never errors
			written += int64(n)
			d.cfg.Stats.AddBytesDownloaded(int64(n))
			emitEvent(d.cfg.Events, event.Event{
				Type:      event.FileProgress,
				Path:      task.Path,
				Host:      host,
				Size:      written,
				TotalSize: resp.ContentLength,
			})
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return written, "", &TransportError{Host: host, Path: task.Path, Err: fmt.Errorf("read body: %w", rerr)}
		}
	}
	return written, hasher.Sum(), nil
}

// applyModTime sets the local mtime from Last-Modified. Failures are
// recorded as warnings and never fail the download.
func (d *Downloader) applyModTime(resp *transport.Response, task Task, res *Result) {
	mtime, ok, err := resp.ModTime()
	if err == nil && !ok {
		return
	}
	if err == nil {
		err = setModTime(d.cfg.Fs, task.LocalPath, mtime)
	}
	if err == nil {
		return
	}

	w := Warning{Path: task.Path, Err: fmt.Errorf("set mtime: %w", err)}
	res.Warnings = append(res.Warnings, w)
	d.cfg.Stats.AddWarnings(1)
	d.cfg.Logger.Warn("could not set modification time", "path", task.Path, "error", err)
	emitEvent(d.cfg.Events, event.Event{Type: event.Warning, Path: task.Path, Error: w.Err})
}
