package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bamsammich/stow/internal/archive"
)

func newVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions ARCHIVE",
		Short: "List the versions stored in ARCHIVE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openArchive(args[0])
			if err != nil {
				return err
			}
			defer a.Close()
			return listVersions(cmd.OutOrStdout(), a)
		},
	}
}

func listVersions(out io.Writer, a *archive.Archive) error {
	ids, err := a.ListBands()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, id := range ids {
		band, err := a.OpenBand(id)
		if err != nil {
			return err
		}
		info, err := band.Info()
		if err != nil {
			return err
		}
		status := "incomplete"
		if info.Complete {
			status = fmt.Sprintf("complete\t%s\t%d hunks",
				info.EndTime.Sub(info.StartTime).Round(time.Second), info.IndexHunks)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.ID, info.StartTime.Local().Format("2006-01-02 15:04:05"), status)
	}
	return tw.Flush()
}
