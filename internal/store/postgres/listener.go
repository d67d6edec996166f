package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/slotmatch/slotmatch/internal/logging"
	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/store"
)

const (
	minReconnectInterval = 100 * time.Millisecond
	maxReconnectInterval = 10 * time.Second
	listenerPingInterval = 90 * time.Second
	subscriberBuffer     = 64
)

// notification is the JSON document the change trigger publishes.
type notification struct {
	Op      string          `json:"op"`
	Table   string          `json:"table"`
	EventID string          `json:"event_id"`
	Row     json.RawMessage `json:"row"`
}

type windowPayload struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

type objectionPayload struct {
	ID          string    `json:"id"`
	WindowID    string    `json:"window_id"`
	Participant string    `json:"participant"`
	NGSlots     []string  `json:"ng_slots"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DecodeNotification parses a trigger payload into a Change.
func DecodeNotification(payload string) (store.Change, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return store.Change{}, fmt.Errorf("failed to decode notification: %w", err)
	}

	c := store.Change{Kind: store.ChangeKind(n.Op), EventID: n.EventID, Table: store.Table(n.Table)}
	switch c.Kind {
	case store.ChangeInsert, store.ChangeUpdate, store.ChangeDelete:
	default:
		return store.Change{}, fmt.Errorf("unknown operation %q", n.Op)
	}

	switch c.Table {
	case store.TableWindows:
		var p windowPayload
		if err := json.Unmarshal(n.Row, &p); err != nil {
			return store.Change{}, fmt.Errorf("failed to decode window row: %w", err)
		}
		c.Window = &schedule.Window{
			ID:        p.ID,
			EventID:   p.EventID,
			Date:      p.Date,
			StartTime: p.StartTime,
			EndTime:   p.EndTime,
			CreatedAt: p.CreatedAt.UTC(),
		}
	case store.TableObjections:
		var p objectionPayload
		if err := json.Unmarshal(n.Row, &p); err != nil {
			return store.Change{}, fmt.Errorf("failed to decode objection row: %w", err)
		}
		c.Objection = &schedule.Objection{
			ID:          p.ID,
			WindowID:    p.WindowID,
			Participant: p.Participant,
			NGSlots:     schedule.NormalizeSlots(p.NGSlots),
			CreatedAt:   p.CreatedAt.UTC(),
			UpdatedAt:   p.UpdatedAt.UTC(),
		}
	default:
		return store.Change{}, fmt.Errorf("unknown table %q", n.Table)
	}
	return c, nil
}

type subscription struct {
	ctx context.Context
	ch  chan store.Change
}

// Listener fans notifications from one LISTEN connection out to per-event
// subscribers.
type Listener struct {
	dsn    string
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[string]map[*subscription]struct{}
	pql    *pq.Listener
	closed bool
}

// NewListener creates a Listener. Start must be called before Subscribe.
func NewListener(dsn string, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		dsn:    dsn,
		logger: logging.WithOperation(logging.WithBackend(logger, "postgres"), "store.listen"),
		subs:   make(map[string]map[*subscription]struct{}),
	}
}

var _ store.Subscriber = (*Listener)(nil)

// Start opens the LISTEN connection and dispatches until ctx is done.
func (l *Listener) Start(ctx context.Context) error {
	pql := pq.NewListener(l.dsn, minReconnectInterval, maxReconnectInterval, l.onConnectionEvent)
	if err := pql.Listen(NotifyChannel); err != nil {
		_ = pql.Close()
		return fmt.Errorf("failed to listen on %s: %w", NotifyChannel, err)
	}

	l.mu.Lock()
	l.pql = pql
	l.mu.Unlock()

	go l.run(ctx, pql)
	l.logger.Info("listening for changes", slog.String("channel", NotifyChannel))
	return nil
}

func (l *Listener) onConnectionEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnectionAttemptFailed:
		l.logger.Warn("listener connection attempt failed", logging.Err(err))
	case pq.ListenerEventDisconnected:
		l.logger.Warn("listener disconnected", logging.Err(err))
	case pq.ListenerEventReconnected:
		l.logger.Info("listener reconnected")
	}
}

func (l *Listener) run(ctx context.Context, pql *pq.Listener) {
	defer l.shutdown()

	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-pql.Notify:
			if !ok {
				return
			}
			// A nil notification follows a reconnect; anything sent while
			// the connection was down is gone.
			if n == nil {
				l.logger.Warn("notifications may have been lost during reconnect")
				continue
			}
			change, err := DecodeNotification(n.Extra)
			if err != nil {
				l.logger.Warn("dropping malformed notification", logging.Err(err))
				continue
			}
			l.dispatch(change)
		case <-ticker.C:
			if err := pql.Ping(); err != nil {
				l.logger.Warn("listener ping failed", logging.Err(err))
			}
		}
	}
}

func (l *Listener) dispatch(c store.Change) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for sub := range l.subs[c.EventID] {
		select {
		case sub.ch <- c:
		case <-sub.ctx.Done():
		}
	}
}

// Subscribe registers for changes to eventID until ctx is done.
func (l *Listener) Subscribe(ctx context.Context, eventID string) (<-chan store.Change, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, errors.New("listener is closed")
	}
	if l.pql == nil {
		return nil, errors.New("listener not started")
	}

	sub := &subscription{ctx: ctx, ch: make(chan store.Change, subscriberBuffer)}
	if l.subs[eventID] == nil {
		l.subs[eventID] = make(map[*subscription]struct{})
	}
	l.subs[eventID][sub] = struct{}{}

	go func() {
		<-ctx.Done()
		l.unsubscribe(eventID, sub)
	}()
	return sub.ch, nil
}

func (l *Listener) unsubscribe(eventID string, sub *subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()

	subs, ok := l.subs[eventID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(l.subs, eventID)
	}
	close(sub.ch)
}

func (l *Listener) shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	for _, subs := range l.subs {
		for sub := range subs {
			close(sub.ch)
		}
	}
	l.subs = make(map[string]map[*subscription]struct{})
	if l.pql != nil {
		if err := l.pql.Close(); err != nil {
			l.logger.Warn("failed to close listener", logging.Err(err))
		}
	}
}
