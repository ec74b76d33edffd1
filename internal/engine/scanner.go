package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/bamsammich/mirrorsync/internal/digest"
	"github.com/bamsammich/mirrorsync/internal/event"
	"github.com/bamsammich/mirrorsync/internal/manifest"
	"github.com/bamsammich/mirrorsync/internal/stats"
	"github.com/bamsammich/mirrorsync/internal/transport"
	"github.com/spf13/afero"
)

// ScannerConfig controls scanner behavior.
type ScannerConfig struct {
	Root        string
	FilesPrefix string
	Digest      digest.Algorithm
	Fs          afero.Fs
	Stats       stats.Writer
	Events      chan<- event.Event
	Logger      *slog.Logger
}

// Scanner compares manifest entries against the local tree.
type Scanner struct {
	cfg ScannerConfig
}

// NewScanner creates a scanner with the given config.
func NewScanner(cfg ScannerConfig) *Scanner {
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
	return &Scanner{cfg: cfg}
}

// Diff returns one task for every entry whose local file is missing or
// whose digest differs, in manifest order. Entries whose local copy
// already matches are skipped. A local file that exists but cannot be
// read fails the whole scan with a *LocalReadError.
func (s *Scanner) Diff(ctx context.Context, entries []manifest.Entry) ([]Task, error) {
	emitEvent(s.cfg.Events, event.Event{Type: event.ScanStarted, Total: int64(len(entries))})

	tasks := make([]Task, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		task, needed, err := s.check(e)
		if err != nil {
			return nil, err
		}
		s.cfg.Stats.AddFilesScanned(1)
		if !needed {
			s.cfg.Stats.AddFilesSkipped(1)
			emitEvent(s.cfg.Events, event.Event{Type: event.FileSkipped, Path: e.Path})
			continue
		}
		tasks = append(tasks, task)
	}

	emitEvent(s.cfg.Events, event.Event{Type: event.ScanComplete, Total: int64(len(tasks))})
	return tasks, nil
}

func (s *Scanner) check(e manifest.Entry) (Task, bool, error) {
	task := Task{
		Path:       e.Path,
		RemotePath: transport.RemotePath(s.cfg.FilesPrefix, e.Path),
		LocalPath:  s.localPath(e),
		Digest:     e.Digest,
	}

	info, err := s.cfg.Fs.Stat(task.LocalPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		task.Reason = Missing
		return task, true, nil
	case err != nil:
		s.cfg.Logger.Debug("stat failed, downloading", "path", e.Path, "error", err)
		task.Reason = Missing
		return task, true, nil
	case info.IsDir():
		return task, false, &LocalReadError{Path: e.Path, Err: errors.New("is a directory")}
	}

	sum, err := digest.HashFile(s.cfg.Fs, s.cfg.Digest, task.LocalPath)
	if err != nil {
		return task, false, &LocalReadError{Path: e.Path, Err: err}
	}
	s.cfg.Stats.AddBytesHashed(info.Size())

	if digest.Equal(sum, e.Digest) {
		s.cfg.Logger.Debug("up to date", "path", e.Path)
		return task, false, nil
	}
	s.cfg.Logger.Debug("stale", "path", e.Path, "local", sum, "expected", e.Digest)
	task.Reason = Stale
	return task, true, nil
}

func (s *Scanner) localPath(e manifest.Entry) string {
	return filepath.Join(s.cfg.Root, filepath.FromSlash(e.RelPath()))
}
