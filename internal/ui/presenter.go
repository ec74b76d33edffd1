package ui

import (
	"io"

	"github.com/bamsammich/mirrorsync/internal/stats"
)

// Presenter renders pass progress from the engine's event stream.
type Presenter interface {
	// Run drains events until the channel closes.
	Run(events <-chan Event) error
	// Summary is the one-line report printed after the pass.
	Summary() string
}

// Config selects and configures a Presenter.
type Config struct {
	Writer     io.Writer // per-file lines and the summary
	ErrWriter  io.Writer // warnings, and the HUD on a terminal
	Stats      stats.ReadTicker
	IsTTY      bool
	Quiet      bool
	Verbose    bool
	NoProgress bool
}

// NewPresenter picks the quiet, plain or HUD presenter for cfg.
//
//nolint:ireturn // callers only need the Presenter behavior
func NewPresenter(cfg Config) Presenter {
	switch {
	case cfg.Quiet:
		return &quietPresenter{}
	case cfg.IsTTY && !cfg.NoProgress:
		return &hudPresenter{
			w:       cfg.ErrWriter,
			cols:    Columns(cfg.ErrWriter),
			stats:   cfg.Stats,
			verbose: cfg.Verbose,
		}
	default:
		return &plainPresenter{
			w:       cfg.Writer,
			errW:    cfg.ErrWriter,
			stats:   cfg.Stats,
			verbose: cfg.Verbose,
		}
	}
}
