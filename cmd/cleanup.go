package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/slotmatch/slotmatch/internal/config"
)

func newCleanupCmd() *cobra.Command {
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete events older than the retention period",
		Long: `Delete every event created before the retention period together with its
windows and responses. serve runs the same sweep on a schedule; use this
command from an external scheduler when the server is not running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if cmd.Flags().Changed("retention-days") {
				cfg.RetentionDays = retentionDays
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, cfg, nil, slog.Default())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := sweepExpired(ctx, a.store, time.Now(), cfg.Retention(), a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired events\n", n)
			return nil
		},
	}

	cmd.Flags().IntVar(&retentionDays, "retention-days", config.DefaultRetentionDays, "Days after which events are deleted. Can also use SLOTMATCH_RETENTION_DAYS env var.")
	return cmd
}
