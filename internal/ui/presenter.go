package ui

import (
	"io"

	"github.com/bamsammich/stow/internal/stats"
)

// Presenter consumes events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer     io.Writer
	ErrWriter  io.Writer
	Progress   *stats.Progress
	IsTTY      bool
	Quiet      bool
	Verbose    bool // list every copied entry, not only files
	NoProgress bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if cfg.Progress == nil {
		cfg.Progress = stats.NewProgress()
	}
	if cfg.Quiet {
		return &quietPresenter{progress: cfg.Progress}
	}
	if !cfg.IsTTY || cfg.NoProgress {
		return &plainPresenter{
			w:        cfg.Writer,
			errW:     cfg.ErrWriter,
			progress: cfg.Progress,
			verbose:  cfg.Verbose,
		}
	}
	return &hudPresenter{
		w:        cfg.ErrWriter, // HUD renders to stderr (the TTY)
		progress: cfg.Progress,
		verbose:  cfg.Verbose,
	}
}
