package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/tarifario/internal/migrations"
	"github.com/Simplici0/tarifario/internal/seed"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := migrations.Up(a.database); err != nil {
				return err
			}
			version, err := migrations.Version(a.database)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Store the configured default policy when none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := seed.Run(a.database, seed.Config{Policy: a.cfg.Policy.PricingPolicy()})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seed complete: %d inserted, %d skipped\n", stats.Inserts, stats.Skipped)
			return nil
		},
	}
}
