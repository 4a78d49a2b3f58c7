package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bamsammich/stow/internal/archive"
	"github.com/bamsammich/stow/internal/livetree"
	"github.com/bamsammich/stow/internal/stats"
	"github.com/bamsammich/stow/internal/tree"
	"github.com/bamsammich/stow/internal/ui"
)

func newLsCmd() *cobra.Command {
	var source, band string
	var long bool
	var fo *filterOptions

	cmd := &cobra.Command{
		Use:   "ls [ARCHIVE]",
		Short: "List the entries of a stored version, or of a source tree",
		Args: func(cmd *cobra.Command, args []string) error {
			if source != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if source != "" && band != "" {
				return errors.New("--band cannot be used with --source")
			}
			excludes, err := fo.matcher()
			if err != nil {
				return err
			}
			rep := stats.NewReport()

			var rt tree.ReadTree
			if source != "" {
				lt, err := livetree.Open(source, rep)
				if err != nil {
					return err
				}
				rt = lt.WithExcludes(excludes)
			} else {
				bandID, err := parseBandFlag(band)
				if err != nil {
					return err
				}
				a, err := openArchive(args[0])
				if err != nil {
					return err
				}
				defer a.Close()
				st, err := archive.OpenStoredTree(a, bandID, rep)
				if err != nil {
					return err
				}
				rt = st.WithExcludes(excludes)
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			defer w.Flush()
			if err := listEntries(w, rt, long); err != nil {
				return err
			}
			logCounters(rep)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "list the source `DIR` instead of an archive")
	cmd.Flags().StringVarP(&band, "band", "b", "", "list band `ID` (default: latest complete)")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "show kind, size and mtime")
	fo = addFilterFlags(cmd)
	return cmd
}

// listEntries writes one line per entry of rt, in apath order.
func listEntries(w io.Writer, rt tree.ReadTree, long bool) error {
	it, err := rt.IterEntries()
	if err != nil {
		return err
	}
	for {
		e, ok := it.Next()
		if !ok {
			return nil
		}
		if !long {
			fmt.Fprintln(w, e.Apath())
			continue
		}
		size := "-"
		if n, ok := e.Size(); ok {
			size = ui.FormatBytes(n)
		}
		line := fmt.Sprintf("%-7s %10s  %s  %s",
			e.Kind(), size, e.MTime().Local().Format("2006-01-02 15:04:05"), e.Apath())
		if target, ok := e.SymlinkTarget(); ok {
			line += " -> " + target
		}
		fmt.Fprintln(w, line)
	}
}
