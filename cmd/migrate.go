package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/slotmatch/slotmatch/internal/config"
)

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		Long: `Create the events, windows and objections tables together with the
trigger that publishes row changes. Running it again is safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			cfg.StoreDriver = config.DriverPostgres
			if cmd.Flags().Changed("database-url") {
				cfg.DatabaseURL = databaseURL
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, cfg, nil, slog.Default())
			if err != nil {
				return err
			}
			defer a.Close()

			return migrateStore(ctx, a, slog.Default())
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string. Can also use DATABASE_URL env var.")
	return cmd
}

// migrateStore applies the schema of the postgres store.
func migrateStore(ctx context.Context, a *app, logger *slog.Logger) error {
	if a.pg == nil {
		return errors.New("migrations only apply to the postgres store")
	}
	logger.Info("applying schema")
	return a.pg.Migrate(ctx)
}
