package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/stow/internal/archive"
	"github.com/bamsammich/stow/internal/config"
	"github.com/bamsammich/stow/internal/errors"
	"github.com/bamsammich/stow/internal/event"
	"github.com/bamsammich/stow/internal/stats"
	"github.com/bamsammich/stow/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// globalOptions hold the persistent flags and the loaded config file.
type globalOptions struct {
	verbose    bool
	quiet      bool
	noProgress bool
	logFile    string
	configPath string

	cfg        config.Config
	blockCache int64
	closeLog   func()
}

var globals globalOptions

func newRootCmd() *cobra.Command {
	globals = globalOptions{}
	rootCmd := &cobra.Command{
		Use:           "stow",
		Short:         "Deduplicating backups of directory trees",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if globals.closeLog != nil {
				globals.closeLog()
			}
		},
	}

	f := rootCmd.PersistentFlags()
	f.BoolVarP(&globals.verbose, "verbose", "v", false, "verbose output")
	f.BoolVarP(&globals.quiet, "quiet", "q", false, "suppress all output except errors")
	f.BoolVar(&globals.noProgress, "no-progress", false, "disable progress display")
	f.StringVar(&globals.logFile, "log", "", "write structured JSON log to FILE")
	f.StringVar(&globals.configPath, "config", "", "read configuration from FILE (default: $XDG_CONFIG_HOME/stow/config.toml)")

	rootCmd.AddCommand(
		newInitCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newLsCmd(),
		newVersionsCmd(),
		newVerifyCmd(),
		newDocsCmd(),
	)
	return rootCmd
}

func run() int {
	err := newRootCmd().Execute()
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	// Fatal errors have already been logged where they happened.
	if !errors.IsFatal(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return 2
}

// setup loads the config file and configures logging.
func setup(cmd *cobra.Command) error {
	var err error
	if globals.configPath != "" {
		globals.cfg, err = config.LoadFile(globals.configPath)
	} else {
		globals.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("log") && globals.cfg.Defaults.Log != nil {
		globals.logFile = *globals.cfg.Defaults.Log
	}
	globals.blockCache, err = globals.cfg.Archive.BlockCacheBytes(archive.DefaultBlockCacheSize)
	if err != nil {
		return err
	}

	logLevel := slog.LevelWarn
	if globals.verbose {
		logLevel = slog.LevelDebug
	} else if !globals.quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	var logHandler slog.Handler = textHandler
	if globals.logFile != "" {
		lf, err := os.Create(globals.logFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		globals.closeLog = func() { _ = lf.Close() }
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))
	return nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly
// set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, printFilenames, measure *bool) {
	d := globals.cfg.Defaults
	if !cmd.Flags().Changed("print-filenames") && d.PrintFilenames != nil {
		*printFilenames = *d.PrintFilenames
	}
	if !cmd.Flags().Changed("measure") && d.MeasureFirst != nil {
		*measure = *d.MeasureFirst
	}
}

func openArchive(path string) (*archive.Archive, error) {
	return archive.Open(path, archive.WithBlockCache(globals.blockCache))
}

func parseBandFlag(s string) (*archive.BandID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := archive.ParseBandID(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --band: %w", err)
	}
	return &id, nil
}

// logEvents tees events into the log at debug level before forwarding them,
// so a --log file records every entry.
func logEvents(events <-chan event.Event) <-chan event.Event {
	teed := make(chan event.Event, 256)
	go func() {
		for ev := range events {
			attrs := []slog.Attr{
				slog.String("type", ev.Type.String()),
				slog.String("path", ev.Path),
				slog.Int64("size", ev.Size),
			}
			if ev.Error != nil {
				attrs = append(attrs, slog.String("error", ev.Error.Error()))
			}
			slog.LogAttrs(context.Background(), slog.LevelDebug, "stow.event", attrs...)
			teed <- ev
		}
		close(teed)
	}()
	return teed
}

// logCounters writes the walk counters at debug level.
func logCounters(rep *stats.Report) {
	for _, name := range rep.Names() {
		slog.Debug("counter", "name", name, "value", rep.Get(name))
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
