package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bamsammich/stow/internal/archive"
	"github.com/bamsammich/stow/internal/engine"
	"github.com/bamsammich/stow/internal/livetree"
	"github.com/bamsammich/stow/internal/stats"
)

func newVerifyCmd() *cobra.Command {
	var band string
	var fo *filterOptions

	cmd := &cobra.Command{
		Use:   "verify ARCHIVE SOURCE",
		Short: "Compare a stored version with a source tree",
		Long: "Compare a stored version with a source tree, entry by entry. Files are\n" +
			"compared by BLAKE3 hash of their content. only-left entries exist only in\n" +
			"the archive, only-right entries only in the source. Exits 1 if any entry\n" +
			"differs.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			src, err := livetree.Open(args[1], rep)
			if err != nil {
				return err
			}
			src.WithExcludes(excludes)

			result, err := engine.Verify(st, src, engine.VerifyOptions{})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range result.Diffs {
				fmt.Fprintf(out, "%-16s %s\n", d.Kind, d.Path)
			}
			logCounters(rep)
			if !result.OK() {
				slog.Error("stored version differs from source",
					"band", st.Band().ID().String(), "differences", len(result.Diffs))
				return &exitError{code: 1}
			}
			if !globals.quiet {
				fmt.Fprintf(out, "verified %d entries\n", result.Verified)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&band, "band", "b", "", "verify band `ID` (default: latest complete)")
	fo = addFilterFlags(cmd)
	return cmd
}
