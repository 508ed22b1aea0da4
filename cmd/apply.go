// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ZakSingh/pgmg/pkg/pgmg"
	"github.com/ZakSingh/pgmg/pkg/pgmglog"
)

func applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Reconcile the target database against migrations/ and code/",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := pgmg.Load()
			if err != nil {
				return err
			}

			sp, _ := pterm.DefaultSpinner.WithText("Applying...").Start()

			result, err := pgmg.Apply(cmd.Context(), cfg, pgmglog.New())
			if err != nil {
				sp.Fail(fmt.Sprintf("Apply failed: %s", err))
				return err
			}

			sp.Success(fmt.Sprintf(
				"Applied %d migration(s), created %d, updated %d, deleted %d object(s)",
				len(result.MigrationsApplied), len(result.ObjectsCreated), len(result.ObjectsUpdated), len(result.ObjectsDeleted),
			))
			if result.PlpgsqlErrorsFound > 0 || result.PlpgsqlWarningsFound > 0 {
				pterm.Warning.Printfln("plpgsql_check found %d error(s), %d warning(s)", result.PlpgsqlErrorsFound, result.PlpgsqlWarningsFound)
			}
			return nil
		},
	}
}
