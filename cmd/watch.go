package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/slotmatch/slotmatch/internal/config"
	"github.com/slotmatch/slotmatch/internal/instrumentation"
	"github.com/slotmatch/slotmatch/internal/live"
	"github.com/slotmatch/slotmatch/internal/logging"
	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/server"
)

const clearScreen = "\033[H\033[2J"

func newWatchCmd() *cobra.Command {
	var (
		eventID     string
		best        int
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the heatmap of an event and redraw it on every change",
		Long: `Subscribe to the change feed of an event and redraw the heatmap whenever
a window or a response changes. With the postgres store changes arrive as
notifications; with the memory store the event is polled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventID == "" {
				return errors.New("--event is required")
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runWatch(ctx, cmd.OutOrStdout(), config.FromEnv(), eventID, best, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&eventID, "event", "", "Event id")
	cmd.Flags().IntVar(&best, "best", DefaultBestSlots, "Number of best slots to list")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve change-feed metrics on this address while watching")
	return cmd
}

func runWatch(ctx context.Context, out io.Writer, cfg config.Config, eventID string, best int, metricsAddr string) error {
	logger := slog.Default()

	var metrics *instrumentation.Metrics
	if metricsAddr != "" {
		instrConfig := instrumentation.DefaultConfig()
		instrConfig.ServiceVersion = version
		provider, err := instrumentation.NewProvider(ctx, instrConfig)
		if err != nil {
			return fmt.Errorf("failed to create instrumentation provider: %w", err)
		}
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			_ = provider.Shutdown(flushCtx)
		}()
		if provider.Enabled() {
			metricsServer, err := startMetricsServer(metricsAddr, provider, logger)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
				defer shutdownCancel()
				_ = metricsServer.Shutdown(shutdownCtx)
			}()
		}
		metrics = provider.Metrics()
	}

	a, err := openApp(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ev, err := a.store.GetEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load event: %w", err)
	}

	metrics.IncrementActiveSubscriptions(ctx)
	defer metrics.DecrementActiveSubscriptions(context.Background())

	w := &live.Watcher{
		Reader:     a.store,
		Subscriber: a.feed,
		Logger:     logger,
		Recorder:   metrics,
	}
	return w.Run(ctx, eventID, redrawer(out, ev, best, logger))
}

// redrawer returns a snapshot callback that clears the terminal and renders
// the event again.
func redrawer(out io.Writer, ev schedule.Event, best int, logger *slog.Logger) func(live.Snapshot) {
	return func(snap live.Snapshot) {
		fmt.Fprint(out, clearScreen)
		if err := renderEvent(out, ev, snap, best); err != nil {
			logger.Warn("failed to render heatmap", logging.Err(err))
			return
		}
		fmt.Fprintf(out, "\nupdated %s, press Ctrl+C to stop\n", time.Now().Format("15:04:05"))
	}
}
