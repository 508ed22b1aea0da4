// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ZakSingh/pgmg/pkg/db"
	"github.com/ZakSingh/pgmg/pkg/pgmg"
	"github.com/ZakSingh/pgmg/pkg/state"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the pgmg_migrations/pgmg_state catalog schema in the target database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := pgmg.Load()
			if err != nil {
				return err
			}

			rdb, err := db.Open(cfg.ConnectionString)
			if err != nil {
				return fmt.Errorf("opening connection: %w", err)
			}
			defer rdb.Close()

			sp, _ := pterm.DefaultSpinner.WithText("Initializing pgmg catalog schema...").Start()

			st := state.New(rdb.Raw(), cfg.CatalogSchema, state.WithEngineVersion(pgmg.Version))
			if err := st.Init(cmd.Context()); err != nil {
				sp.Fail(fmt.Sprintf("Failed to initialize catalog schema: %s", err))
				return err
			}

			sp.Success(fmt.Sprintf("Catalog schema %q ready", cfg.CatalogSchema))
			return nil
		},
	}
}
