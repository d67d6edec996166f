package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/slotmatch/slotmatch/internal/logging"
	"github.com/slotmatch/slotmatch/internal/schedule"
)

// DefaultPollInterval is how often a Poller reloads when no interval is set.
const DefaultPollInterval = 500 * time.Millisecond

// Poller is a Subscriber that reloads an event at a fixed interval and emits
// the difference to the previous load. It works with any Reader and is the
// fallback when a backend cannot push notifications.
type Poller struct {
	Reader   Reader
	Interval time.Duration
	Logger   *slog.Logger
}

// NewPoller creates a Poller. A non-positive interval uses DefaultPollInterval.
func NewPoller(r Reader, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{Reader: r, Interval: interval, Logger: logger}
}

type pollState struct {
	windows    map[string]schedule.Window
	objections map[string]schedule.Objection
}

// Subscribe takes an initial snapshot and then polls until ctx is done.
func (p *Poller) Subscribe(ctx context.Context, eventID string) (<-chan Change, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithEvent(logging.WithOperation(logger, "store.poll"), eventID)

	prev, err := p.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			cur, err := p.load(ctx, eventID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("poll failed", logging.Err(err))
				continue
			}
			for _, c := range diffStates(eventID, prev, cur) {
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
			prev = cur
		}
	}()
	return out, nil
}

func (p *Poller) load(ctx context.Context, eventID string) (pollState, error) {
	windows, err := p.Reader.ListWindows(ctx, eventID)
	if err != nil {
		return pollState{}, fmt.Errorf("failed to list windows: %w", err)
	}
	objections, err := p.Reader.ListObjections(ctx, schedule.WindowIDs(windows))
	if err != nil {
		return pollState{}, fmt.Errorf("failed to list objections: %w", err)
	}

	st := pollState{
		windows:    make(map[string]schedule.Window, len(windows)),
		objections: make(map[string]schedule.Objection, len(objections)),
	}
	for _, w := range windows {
		st.windows[w.ID] = w
	}
	for _, o := range objections {
		st.objections[o.ID] = o
	}
	return st, nil
}

// diffStates orders changes so that a consumer never sees an objection for a
// window it does not know: window inserts first, window deletes last.
func diffStates(eventID string, prev, cur pollState) []Change {
	var changes []Change

	for _, id := range sortedKeys(cur.windows) {
		w := cur.windows[id]
		old, ok := prev.windows[id]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: ChangeInsert, Table: TableWindows, EventID: eventID, Window: &w})
		case old != w:
			changes = append(changes, Change{Kind: ChangeUpdate, Table: TableWindows, EventID: eventID, Window: &w})
		}
	}

	for _, id := range sortedKeys(cur.objections) {
		o := cur.objections[id]
		old, ok := prev.objections[id]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: ChangeInsert, Table: TableObjections, EventID: eventID, Objection: &o})
		case !sameObjection(old, o):
			changes = append(changes, Change{Kind: ChangeUpdate, Table: TableObjections, EventID: eventID, Objection: &o})
		}
	}

	for _, id := range sortedKeys(prev.objections) {
		if _, ok := cur.objections[id]; !ok {
			o := prev.objections[id]
			changes = append(changes, Change{Kind: ChangeDelete, Table: TableObjections, EventID: eventID, Objection: &o})
		}
	}

	for _, id := range sortedKeys(prev.windows) {
		if _, ok := cur.windows[id]; !ok {
			w := prev.windows[id]
			changes = append(changes, Change{Kind: ChangeDelete, Table: TableWindows, EventID: eventID, Window: &w})
		}
	}
	return changes
}

func sameObjection(a, b schedule.Objection) bool {
	return a.Participant == b.Participant &&
		a.WindowID == b.WindowID &&
		a.UpdatedAt.Equal(b.UpdatedAt) &&
		slices.Equal(a.NGSlots, b.NGSlots)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
