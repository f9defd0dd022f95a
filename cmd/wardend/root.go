package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the wardend CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wardend",
		Short: "wardend - session authentication authority",
		Long: `wardend serves registration, password login, session management,
and single-use password resets over a pluggable credential store.`,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
