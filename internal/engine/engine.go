package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bamsammich/mirrorsync/internal/digest"
	"github.com/bamsammich/mirrorsync/internal/event"
	"github.com/bamsammich/mirrorsync/internal/filter"
	"github.com/bamsammich/mirrorsync/internal/manifest"
	"github.com/bamsammich/mirrorsync/internal/stats"
	"github.com/bamsammich/mirrorsync/internal/transport"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Config describes a synchronization pass.
type Config struct {
	Root        string
	Source      manifest.Source
	Primary     transport.Host
	Secondary   transport.Host // zero disables failover
	FilesPrefix string
	Digest      digest.Algorithm
	Filter      *filter.Chain
	BWLimit     int64 // bytes/sec, 0 = unlimited
	UserAgent   string
	DryRun      bool

	Fs     afero.Fs
	Stats  *stats.Collector
	Events chan<- event.Event
	Logger *slog.Logger

	RoundTripper http.RoundTripper
}

// Result is the outcome of a synchronization pass.
type Result struct {
	Success    bool
	Err        error
	Path       string // manifest path of the failing file
	Host       string // host that produced the final failure
	Planned    int
	Downloaded int
	Failovers  int
	Warnings   []Warning
	Pending    []Task // filled on dry runs
	Stats      stats.Snapshot
}

// Run executes a synchronization pass, blocking until complete. A manifest
// error or local read error aborts before any download.
func Run(ctx context.Context, cfg Config) Result {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.FilesPrefix == "" {
		cfg.FilesPrefix = transport.DefaultFilesPrefix
	}
	logger := cfg.Logger.With("pass", uuid.NewString()[:8])

	res := run(ctx, cfg, logger)
	res.Stats = cfg.Stats.Snapshot()

	if res.Err != nil {
		logger.Error("pass failed", "error", res.Err, "path", res.Path, "host", res.Host)
	} else {
		logger.Info("pass complete",
			"planned", res.Planned, "downloaded", res.Downloaded,
			"failovers", res.Failovers, "warnings", len(res.Warnings),
			"elapsed", res.Stats.Elapsed.Round(time.Millisecond))
	}
	return res
}

// Synchronize brings root in line with the manifest from source. It is Run
// with the required arguments spelled out.
func Synchronize(ctx context.Context, root string, source manifest.Source, opts Config) Result {
	opts.Root = root
	opts.Source = source
	return Run(ctx, opts)
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) Result {
	if cfg.Root == "" {
		return Result{Err: errors.New("no destination root")}
	}
	if cfg.Source == nil {
		return Result{Err: errors.New("no manifest source")}
	}
	if cfg.Primary.IsZero() && !cfg.DryRun {
		return Result{Err: errors.New("no primary host")}
	}

	entries, err := cfg.Source.Fetch(ctx)
	if err != nil {
		return Result{Err: err}
	}
	cfg.Stats.SetEntries(int64(len(entries)))
	logger.Info("manifest fetched", "entries", len(entries))
	emitEvent(cfg.Events, event.Event{Type: event.ManifestFetched, Total: int64(len(entries))})

	entries = applyFilter(entries, cfg.Filter, logger)

	scanner := NewScanner(ScannerConfig{
		Root:        cfg.Root,
		FilesPrefix: cfg.FilesPrefix,
		Digest:      cfg.Digest,
		Fs:          cfg.Fs,
		Stats:       cfg.Stats,
		Events:      cfg.Events,
		Logger:      logger,
	})
	tasks, err := scanner.Diff(ctx, entries)
	if err != nil {
		return Result{Err: err, Path: localReadPath(err)}
	}

	plan := NewPlan(tasks, logger, cfg.Events)
	cfg.Stats.AddFilesPlanned(int64(plan.Len()))
	logger.Info("plan ready", "files", plan.Len(), "missing", plan.Missing, "stale", plan.Stale)

	if cfg.DryRun {
		return Result{Success: true, Planned: plan.Len(), Pending: plan.Tasks}
	}
	if plan.Empty() {
		logger.Info("tree is current")
		return Result{Success: true}
	}

	dl := DownloaderConfig{
		Digest:       cfg.Digest,
		UserAgent:    cfg.UserAgent,
		Fs:           cfg.Fs,
		Stats:        cfg.Stats,
		Events:       cfg.Events,
		Logger:       logger,
		RoundTripper: cfg.RoundTripper,
	}
	if cfg.BWLimit > 0 {
		dl.Limiter = NewBWLimiter(cfg.BWLimit)
	}

	return NewDownloader(dl).Execute(ctx, plan.Tasks, cfg.Primary, cfg.Secondary)
}

func applyFilter(entries []manifest.Entry, chain *filter.Chain, logger *slog.Logger) []manifest.Entry {
	if chain.Empty() {
		return entries
	}
	logger.Debug("filtering manifest", "rules", chain.Rules())
	kept := make([]manifest.Entry, 0, len(entries))
	for _, e := range entries {
		if !chain.Match(e.Path) {
			logger.Debug("filtered", "path", e.Path)
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func localReadPath(err error) string {
	var lre *LocalReadError
	if errors.As(err, &lre) {
		return lre.Path
	}
	return ""
}

// emitEvent sends an event without blocking; events are dropped when the
// presenter falls behind.
func emitEvent(ch chan<- event.Event, e event.Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}

// ExitCode maps a pass result to a process exit status: 0 on success, 1
// when some files landed before the failure, 2 when nothing did.
func (r Result) ExitCode() int {
	switch {
	case r.Err == nil:
		return 0
	case r.Downloaded > 0:
		return 1
	default:
		return 2
	}
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("failed: %v", r.Err)
	}
	return fmt.Sprintf("ok: %d/%d downloaded, %d failovers, %d warnings",
		r.Downloaded, r.Planned, r.Failovers, len(r.Warnings))
}
