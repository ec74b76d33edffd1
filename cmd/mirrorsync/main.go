package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/mirrorsync/internal/config"
	"github.com/bamsammich/mirrorsync/internal/digest"
	"github.com/bamsammich/mirrorsync/internal/engine"
	"github.com/bamsammich/mirrorsync/internal/event"
	"github.com/bamsammich/mirrorsync/internal/filter"
	"github.com/bamsammich/mirrorsync/internal/manifest"
	"github.com/bamsammich/mirrorsync/internal/stats"
	"github.com/bamsammich/mirrorsync/internal/transport"
	"github.com/bamsammich/mirrorsync/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared filter.Chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "string" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

// options holds every flag value for a pass.
type options struct {
	manifest    string
	primary     string
	secondary   string
	filesPrefix string
	digest      string
	bwLimit     string
	userAgent   string
	filterFile  string
	configFile  string
	logFile     string
	verbose     bool
	quiet       bool
	noProgress  bool
	showVersion bool

	chain *filter.Chain
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{chain: filter.NewChain()}

	rootCmd := &cobra.Command{
		Use:   "mirrorsync [flags] <root>",
		Short: "Keep a directory in sync with a published manifest, failing over between mirrors",
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				return nil
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(stdout, "mirrorsync %s\n", version)
				return nil
			}
			return runPass(cmd, opts, args[0], false, stdout, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	checkCmd := &cobra.Command{
		Use:           "check <root>",
		Short:         "Report which files would be downloaded without downloading them",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, opts, args[0], true, stdout, stderr)
		},
	}

	rootCmd.Flags().BoolVar(&opts.showVersion, "version", false, "print version and exit")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.manifest, "manifest", "", "manifest URL or local file")
	pf.StringVar(&opts.primary, "primary", "", "primary download host (e.g. cdn.example.com)")
	pf.StringVar(&opts.secondary, "secondary", "", "secondary host used once if the primary fails")
	pf.StringVar(&opts.filesPrefix, "files-prefix", transport.DefaultFilesPrefix, "remote path prefix for files")
	pf.StringVar(&opts.digest, "digest", string(digest.Default), "digest algorithm (md5, sha256, blake3)")
	pf.StringVar(&opts.bwLimit, "bwlimit", "", "bandwidth limit (e.g. 10M, 1G)")
	pf.StringVar(&opts.userAgent, "user-agent", "", "User-Agent header (default mirrorsync/<version>)")
	pf.StringVar(&opts.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/mirrorsync/config.toml)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors")
	pf.BoolVar(&opts.noProgress, "no-progress", false, "disable progress display")
	pf.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")

	// Filter flags use a custom pflag.Value to preserve CLI ordering.
	pf.Var(&filterFlag{chain: opts.chain, include: false}, "exclude", "skip manifest paths matching PATTERN (repeatable)")
	pf.Var(&filterFlag{chain: opts.chain, include: true}, "include", "keep manifest paths matching PATTERN (repeatable)")
	pf.StringVar(&opts.filterFile, "filter", "", "read filter rules from FILE")
	pf.VisitAll(func(f *pflag.Flag) {
		if f.Name == "exclude" || f.Name == "include" {
			f.NoOptDefVal = ""
		}
	})

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(newDocsCmd())
	return rootCmd
}

//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: CLI entry point wires every concern of a pass
func runPass(cmd *cobra.Command, opts *options, root string, dryRun bool, stdout, stderr io.Writer) error {
	// Load optional config file.
	var (
		cfg config.Config
		err error
	)
	if opts.configFile != "" {
		// An explicit --config must exist and parse.
		if cfg, err = config.LoadFile(opts.configFile); err != nil {
			return err
		}
	} else if cfg, err = config.Load(); err != nil {
		slog.Warn("failed to load config", "error", err)
	}

	// Apply config defaults for flags not explicitly set on CLI.
	applyConfigDefaults(cmd, cfg, opts)

	// Configure logging.
	logLevel := slog.LevelWarn
	if opts.verbose {
		logLevel = slog.LevelDebug
	} else if !opts.quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	var logHandler slog.Handler = textHandler
	if opts.logFile != "" {
		lf, lfErr := os.Create(opts.logFile)
		if lfErr != nil {
			return fmt.Errorf("open log file: %w", lfErr)
		}
		defer lf.Close()
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	engineCfg, err := buildEngineConfig(opts, cfg, root, dryRun)
	if err != nil {
		return err
	}
	engineCfg.Logger = logger

	if dryRun {
		slog.Info("dry run mode")
	}

	// Set up context with signal handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)
	engineCfg.Stats = collector
	engineCfg.Events = events

	// When --log is set, tee events through a logging goroutine
	// that writes structured records before forwarding to the presenter.
	presenterEvents := (<-chan event.Event)(events)
	if opts.logFile != "" {
		presenterEvents = teeEvents(events, logger)
	}

	presenter := ui.NewPresenter(ui.Config{
		Writer:     stdout,
		ErrWriter:  stderr,
		Stats:      collector,
		IsTTY:      ui.IsTerminal(stderr),
		Quiet:      opts.quiet,
		Verbose:    opts.verbose,
		NoProgress: opts.noProgress || dryRun,
	})

	slog.Debug("starting pass",
		"root", engineCfg.Root,
		"manifest", opts.manifest,
		"primary", engineCfg.Primary.String(),
		"secondary", engineCfg.Secondary.String(),
		"digest", engineCfg.Digest.String(),
	)

	// Run presenter in background, engine in foreground.
	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterEvents)
	}()

	result := engine.Run(ctx, engineCfg)
	stop()
	close(events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(stderr, "presenter: %v\n", presenterErr)
	}

	if dryRun {
		return reportPending(stdout, stderr, result)
	}

	if !opts.quiet {
		summary := presenter.Summary()
		if summary != "" {
			fmt.Fprintln(stderr, summary)
		}
	}

	if result.Err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", result.Err)
		return &exitError{code: result.ExitCode()}
	}
	return nil
}

// buildEngineConfig validates flag values and turns them into an engine
// configuration.
func buildEngineConfig(opts *options, cfg config.Config, root string, dryRun bool) (engine.Config, error) {
	if opts.manifest == "" {
		return engine.Config{}, errors.New("no manifest: pass --manifest or set sync.manifest in the config file")
	}

	var primary, secondary transport.Host
	var err error
	switch {
	case opts.primary != "":
		if primary, err = transport.ParseHost(opts.primary); err != nil {
			return engine.Config{}, fmt.Errorf("invalid --primary: %w", err)
		}
	case !dryRun:
		return engine.Config{}, errors.New("no primary host: pass --primary or set sync.primary in the config file")
	}
	if opts.secondary != "" {
		if secondary, err = transport.ParseHost(opts.secondary); err != nil {
			return engine.Config{}, fmt.Errorf("invalid --secondary: %w", err)
		}
	}

	alg, err := digest.Parse(opts.digest)
	if err != nil {
		return engine.Config{}, fmt.Errorf("invalid --digest: %w", err)
	}

	var bwLimit int64
	if opts.bwLimit != "" {
		bwLimit, err = engine.ParseBWLimit(opts.bwLimit)
		if err != nil {
			return engine.Config{}, fmt.Errorf("invalid --bwlimit: %w", err)
		}
	}

	// CLI rules were added during flag parsing and take precedence.
	if err := opts.chain.AddRules(cfg.Filter.Exclude, cfg.Filter.Include); err != nil {
		return engine.Config{}, fmt.Errorf("config filter: %w", err)
	}
	if opts.filterFile != "" {
		if err := opts.chain.LoadFile(afero.NewOsFs(), opts.filterFile); err != nil {
			return engine.Config{}, fmt.Errorf("load filter file: %w", err)
		}
	}

	userAgent := opts.userAgent
	if userAgent == "" {
		userAgent = "mirrorsync/" + version
	}

	engineCfg := engine.Config{
		Root:        root,
		Source:      manifest.NewSource(opts.manifest, userAgent),
		Primary:     primary,
		Secondary:   secondary,
		FilesPrefix: opts.filesPrefix,
		Digest:      alg,
		BWLimit:     bwLimit,
		UserAgent:   userAgent,
		DryRun:      dryRun,
	}

	// Only set filter if it has rules.
	if !opts.chain.Empty() {
		engineCfg.Filter = opts.chain
	}
	return engineCfg, nil
}

func teeEvents(events <-chan event.Event, logger *slog.Logger) <-chan event.Event {
	teed := make(chan event.Event, 256)
	go func() {
		for ev := range events {
			// Per-chunk progress would flood the log.
			if ev.Type != event.FileProgress {
				logger.LogAttrs(context.Background(), slog.LevelDebug, "mirrorsync.event", ev.Attrs()...)
			}
			teed <- ev
		}
		close(teed)
	}()
	return teed
}

// reportPending prints the dry-run plan and exits 1 when anything would be
// downloaded.
func reportPending(w, errW io.Writer, result engine.Result) error {
	if result.Err != nil {
		fmt.Fprintf(errW, "Error: %v\n", result.Err)
		return &exitError{code: 2}
	}
	for _, t := range result.Pending {
		fmt.Fprintf(w, "%-7s  %s\n", t.Reason, ui.DisplayPath(t.Path))
	}
	if len(result.Pending) > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, cfg config.Config, opts *options) {
	set := func(name string, dst *string, val *string) {
		if !cmd.Flags().Changed(name) && val != nil {
			*dst = *val
		}
	}
	set("manifest", &opts.manifest, cfg.Sync.Manifest)
	set("primary", &opts.primary, cfg.Sync.Primary)
	set("secondary", &opts.secondary, cfg.Sync.Secondary)
	set("files-prefix", &opts.filesPrefix, cfg.Sync.FilesPrefix)
	set("digest", &opts.digest, cfg.Sync.Digest)
	set("bwlimit", &opts.bwLimit, cfg.Sync.BWLimit)
	set("user-agent", &opts.userAgent, cfg.Sync.UserAgent)
	set("filter", &opts.filterFile, cfg.Filter.File)
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
