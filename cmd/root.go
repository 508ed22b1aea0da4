// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ZakSingh/pgmg/pkg/pgmg"
)

// Version is the pgmg version, set at build time via -ldflags.
var Version = "development"

var rootCmd = &cobra.Command{
	Use:          "pgmg",
	Short:        "Reconcile declarative SQL objects and append-only migrations against a PostgreSQL database",
	SilenceUsage: true,
	Version:      Version,
}

func init() {
	pgmg.Version = Version
	rootCmd.PersistentFlags().String("dot", "", "write the dependency graph in Graphviz DOT format to this path (plan only)")
}

// Execute runs the pgmg CLI.
func Execute() error {
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(applyCmd())
	rootCmd.AddCommand(initCmd())

	return rootCmd.Execute()
}
