package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/stow/internal/archive"
	"github.com/bamsammich/stow/internal/livetree"
	"github.com/bamsammich/stow/internal/stats"
)

func newRestoreCmd() *cobra.Command {
	var printFilenames, measure bool
	var band string
	var fo *filterOptions

	cmd := &cobra.Command{
		Use:   "restore ARCHIVE DEST",
		Short: "Copy a stored version out of ARCHIVE into a new directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfigDefaults(cmd, &printFilenames, &measure)
			excludes, err := fo.matcher()
			if err != nil {
				return err
			}
			bandID, err := parseBandFlag(band)
			if err != nil {
				return err
			}

			a, err := openArchive(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			rep := stats.NewReport()
			st, err := archive.OpenStoredTree(a, bandID, rep)
			if err != nil {
				return err
			}
			st.WithExcludes(excludes)

			w, err := livetree.NewWriter(args[1], rep)
			if err != nil {
				return err
			}
			slog.Info("starting restore", "archive", a.Path(), "band", st.Band().ID().String(), "dest", w.Root())

			// Remove partial files if interrupted.
			stop := onInterrupt(func(sig os.Signal) {
				slog.Warn("interrupted, removing partial files", "dest", w.Root(), "signal", sig.String())
				w.Abort()
				os.Exit(130)
			})
			defer stop()

			s, err := runCopy(copyJob{
				source:         st,
				dest:           w,
				report:         rep,
				printFilenames: printFilenames,
				measureFirst:   measure,
			})
			return copyResult(s, err)
		},
	}
	cmd.Flags().BoolVar(&printFilenames, "print-filenames", false, "print each entry's path as it is restored")
	cmd.Flags().BoolVar(&measure, "measure", false, "measure the stored tree first, to show total progress")
	cmd.Flags().StringVarP(&band, "band", "b", "", "restore band `ID` (default: latest complete)")
	fo = addFilterFlags(cmd)
	return cmd
}
