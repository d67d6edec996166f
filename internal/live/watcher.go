package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/slotmatch/slotmatch/internal/logging"
	"github.com/slotmatch/slotmatch/internal/store"
)

// ErrFeedClosed is returned by Run when the change feed ends before ctx.
var ErrFeedClosed = errors.New("change feed closed")

// ChangeRecorder receives one call per applied change. It is satisfied by
// *instrumentation.Metrics.
type ChangeRecorder interface {
	RecordChangeEvent(ctx context.Context, table, kind string)
}

// Watcher keeps a Snapshot of one event current.
type Watcher struct {
	Reader     store.Reader
	Subscriber store.Subscriber
	Logger     *slog.Logger
	Recorder   ChangeRecorder
}

// Run subscribes, loads the event and calls onSnapshot with the initial
// snapshot and again after every change. Subscribing happens before the load
// so no change between the two is missed; replaying a change already in the
// loaded state is harmless because Apply is idempotent.
//
// onSnapshot is called from a single goroutine. Run returns nil when ctx is
// done and ErrFeedClosed if the feed stops first.
func (w *Watcher) Run(ctx context.Context, eventID string, onSnapshot func(Snapshot)) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithEvent(logging.WithOperation(logger, "live.watch"), eventID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, err := w.Subscriber.Subscribe(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	snap, err := Load(ctx, w.Reader, eventID)
	if err != nil {
		return err
	}
	onSnapshot(snap)

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				logger.Warn("change feed closed")
				return ErrFeedClosed
			}
			if w.Recorder != nil {
				w.Recorder.RecordChangeEvent(ctx, string(c.Table), string(c.Kind))
			}
			snap = Apply(snap, c)
			onSnapshot(snap)
		}
	}
}
