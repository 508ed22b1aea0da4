// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZakSingh/pgmg/pkg/pgmg"
	"github.com/ZakSingh/pgmg/pkg/pgmglog"
)

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the migrations and object changes an apply would make, without making them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := pgmg.Load()
			if err != nil {
				return err
			}

			dotPath, _ := cmd.Flags().GetString("dot")

			result, err := pgmg.Plan(cmd.Context(), cfg, pgmglog.New(), dotPath)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
