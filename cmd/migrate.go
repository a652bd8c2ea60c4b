package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/restaurant-ops/internal/config"
	"github.com/example/restaurant-ops/internal/db"
	"github.com/example/restaurant-ops/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := migrate.Up(ctx, d); err != nil {
				return err
			}
			files, err := migrate.Files()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%d migrations)\n", len(files))
			return nil
		},
	}
}
