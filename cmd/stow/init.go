package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bamsammich/stow/internal/archive"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init ARCHIVE",
		Short: "Create a new, empty archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := archive.Create(args[0])
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Created new archive in %s\n", a.Path())
			return nil
		},
	}
}
