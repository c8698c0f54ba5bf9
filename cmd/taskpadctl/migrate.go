package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "schema ok (%s)\n", res.Branch)
			if res.MigratedTasks > 0 {
				fmt.Fprintf(out, "migrated %d legacy tasks to the demo user\n", res.MigratedTasks)
			}
			if res.ImportedTasks > 0 {
				fmt.Fprintf(out, "imported %d tasks from %s\n", res.ImportedTasks, a.cfg.LegacyTasksFile)
			}
			return nil
		},
	}
}
