package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/citycare/issue-service/internal/persistence"
)

func newMigrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, env *cliEnv) error {
				if !env.pg.Enabled() {
					return errors.New("migrate requires POSTGRES_DSN")
				}
				if dir == "" {
					dir = env.cfg.Postgres.MigrationsDir
				}
				if err := persistence.RunMigrations(ctx, env.pg.PoolHandle(), dir, env.logger); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("migrations applied from "+dir))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Migrations directory (defaults to POSTGRES_MIGRATIONS_DIR)")
	return cmd
}
