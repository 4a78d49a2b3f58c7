package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bamsammich/stow/internal/archive"
	"github.com/bamsammich/stow/internal/livetree"
	"github.com/bamsammich/stow/internal/stats"
)

func newBackupCmd() *cobra.Command {
	var printFilenames, measure bool
	var fo *filterOptions

	cmd := &cobra.Command{
		Use:   "backup ARCHIVE SOURCE",
		Short: "Store a new version of SOURCE in ARCHIVE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfigDefaults(cmd, &printFilenames, &measure)
			excludes, err := fo.matcher()
			if err != nil {
				return err
			}

			a, err := openArchive(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			rep := stats.NewReport()
			src, err := livetree.Open(args[1], rep)
			if err != nil {
				return err
			}
			src.WithExcludes(excludes)

			bw, err := archive.BeginBackup(a)
			if err != nil {
				return err
			}
			slog.Info("starting backup", "archive", a.Path(), "band", bw.Band().String(), "source", src.Root())

			s, err := runCopy(copyJob{
				source:         src,
				dest:           bw,
				report:         rep,
				printFilenames: printFilenames,
				measureFirst:   measure,
			})
			if err == nil {
				slog.Info("backup complete",
					"band", bw.Band().String(),
					"files", s.Files,
					"bytes", s.FileBytes,
					"new_blocks", s.Blocks,
					"deduplicated_blocks", s.DeduplicatedBlocks,
					"compressed_bytes", s.CompressedBytes,
					"index_hunks", s.IndexHunks,
				)
			}
			return copyResult(s, err)
		},
	}
	cmd.Flags().BoolVar(&printFilenames, "print-filenames", false, "print each entry's path as it is stored")
	cmd.Flags().BoolVar(&measure, "measure", false, "measure the source first, to show total progress")
	fo = addFilterFlags(cmd)
	return cmd
}
