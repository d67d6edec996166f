package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/slotmatch/slotmatch/internal/logging"
	"github.com/slotmatch/slotmatch/internal/store"
)

// DefaultRetentionSchedule runs the sweep at the top of every hour.
const DefaultRetentionSchedule = "@hourly"

// sweepExpired deletes the events created before now minus retention.
func sweepExpired(ctx context.Context, st store.Store, now time.Time, retention time.Duration, logger *slog.Logger) (int, error) {
	cutoff := now.Add(-retention)
	n, err := st.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired events: %w", err)
	}
	if n > 0 {
		logger.Info("deleted expired events", slog.Int("count", n), slog.Time("cutoff", cutoff))
	} else {
		logger.Debug("no expired events", slog.Time("cutoff", cutoff))
	}
	return n, nil
}

// startRetentionSweeper runs sweepExpired on schedule until the returned
// cron is stopped.
func startRetentionSweeper(ctx context.Context, st store.Store, schedule string, retention time.Duration, loc *time.Location, logger *slog.Logger) (*cron.Cron, error) {
	logger = logging.WithOperation(logger, "retention.sweep")
	c := cron.New(
		cron.WithLogger(logging.NewCronAdapter(logger)),
		cron.WithLocation(loc),
	)
	_, err := c.AddFunc(schedule, func() {
		if _, err := sweepExpired(ctx, st, time.Now(), retention, logger); err != nil {
			logger.Error("retention sweep failed", logging.Err(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
