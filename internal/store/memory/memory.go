// Package memory is an in-process store used in demo mode and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/store"
)

// Store keeps events, windows and objections in maps guarded by one mutex.
type Store struct {
	mu         sync.RWMutex
	events     map[string]schedule.Event
	windows    map[string]schedule.Window
	objections map[string]schedule.Objection

	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests that need stable timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		events:     make(map[string]schedule.Event),
		windows:    make(map[string]schedule.Window),
		objections: make(map[string]schedule.Objection),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ store.Store         = (*Store)(nil)
	_ store.ObjectionRows = (*Store)(nil)
	_ store.Pinger        = (*Store)(nil)
)

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) CreateEvent(_ context.Context, title, description string, durationMinutes int) (schedule.Event, error) {
	if durationMinutes == 0 {
		durationMinutes = schedule.DefaultDurationMinutes
	}
	if err := schedule.ValidateEventInput(title, durationMinutes); err != nil {
		return schedule.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ev := schedule.Event{
		ID:              s.newID(),
		Title:           title,
		Description:     description,
		DurationMinutes: durationMinutes,
		CreatedAt:       s.now().UTC(),
	}
	s.events[ev.ID] = ev
	return ev, nil
}

func (s *Store) GetEvent(_ context.Context, id string) (schedule.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok {
		return schedule.Event{}, fmt.Errorf("event %q: %w", id, store.ErrNotFound)
	}
	return ev, nil
}

func (s *Store) ListRecentEvents(_ context.Context, since time.Time) ([]schedule.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := []schedule.Event{}
	for _, ev := range s.events {
		if !ev.CreatedAt.Before(since) {
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

func (s *Store) DeleteEventsBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, ev := range s.events {
		if ev.CreatedAt.Before(cutoff) {
			s.deleteWindowsLocked(id)
			delete(s.events, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) ListWindows(_ context.Context, eventID string) ([]schedule.Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	windows := []schedule.Window{}
	for _, w := range s.windows {
		if w.EventID == eventID {
			windows = append(windows, w)
		}
	}
	schedule.SortWindows(windows)
	return windows, nil
}

func (s *Store) ReplaceWindows(_ context.Context, eventID string, inputs []schedule.WindowInput) ([]schedule.Window, error) {
	for _, in := range inputs {
		if err := schedule.ValidateWindowInput(in); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[eventID]; !ok {
		return nil, fmt.Errorf("event %q: %w", eventID, store.ErrNotFound)
	}
	s.deleteWindowsLocked(eventID)

	created := make([]schedule.Window, 0, len(inputs))
	for _, in := range inputs {
		created = append(created, s.insertWindowLocked(eventID, in))
	}
	schedule.SortWindows(created)
	return created, nil
}

func (s *Store) AddWindow(_ context.Context, eventID string, in schedule.WindowInput) (schedule.Window, error) {
	if err := schedule.ValidateWindowInput(in); err != nil {
		return schedule.Window{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[eventID]; !ok {
		return schedule.Window{}, fmt.Errorf("event %q: %w", eventID, store.ErrNotFound)
	}
	return s.insertWindowLocked(eventID, in), nil
}

func (s *Store) insertWindowLocked(eventID string, in schedule.WindowInput) schedule.Window {
	w := schedule.Window{
		ID:        s.newID(),
		EventID:   eventID,
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		CreatedAt: s.now().UTC(),
	}
	s.windows[w.ID] = w
	return w
}

func (s *Store) deleteWindowsLocked(eventID string) {
	for id, w := range s.windows {
		if w.EventID != eventID {
			continue
		}
		for oid, o := range s.objections {
			if o.WindowID == id {
				delete(s.objections, oid)
			}
		}
		delete(s.windows, id)
	}
}

func (s *Store) ListObjections(_ context.Context, windowIDs []string) ([]schedule.Objection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(windowIDs))
	for _, id := range windowIDs {
		wanted[id] = true
	}

	objections := []schedule.Objection{}
	for _, o := range s.objections {
		if wanted[o.WindowID] {
			objections = append(objections, cloneObjection(o))
		}
	}
	sort.Slice(objections, func(i, j int) bool {
		a, b := objections[i], objections[j]
		if a.WindowID != b.WindowID {
			return a.WindowID < b.WindowID
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return objections, nil
}

// UpsertObjection stores a participant's NG slots through the shared
// read-then-write path.
func (s *Store) UpsertObjection(ctx context.Context, windowID, participant string, ngSlots []string) (schedule.Objection, error) {
	return store.UpsertObjection(ctx, s, windowID, participant, ngSlots)
}

func (s *Store) FindObjection(_ context.Context, windowID, participant string) (schedule.Objection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if o, ok := s.findLocked(windowID, participant); ok {
		return cloneObjection(o), nil
	}
	return schedule.Objection{}, store.ErrNotFound
}

func (s *Store) InsertObjection(_ context.Context, windowID, participant string, ngSlots []string) (schedule.Objection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.windows[windowID]; !ok {
		return schedule.Objection{}, fmt.Errorf("window %q: %w", windowID, store.ErrNotFound)
	}
	if _, ok := s.findLocked(windowID, participant); ok {
		return schedule.Objection{}, store.ErrConflict
	}

	now := s.now().UTC()
	o := schedule.Objection{
		ID:          s.newID(),
		WindowID:    windowID,
		Participant: participant,
		NGSlots:     schedule.NormalizeSlots(ngSlots),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.objections[o.ID] = o
	return cloneObjection(o), nil
}

func (s *Store) UpdateObjectionSlots(_ context.Context, id string, ngSlots []string) (schedule.Objection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.objections[id]
	if !ok {
		return schedule.Objection{}, fmt.Errorf("objection %q: %w", id, store.ErrNotFound)
	}
	o.NGSlots = schedule.NormalizeSlots(ngSlots)
	o.UpdatedAt = s.now().UTC()
	s.objections[id] = o
	return cloneObjection(o), nil
}

func (s *Store) findLocked(windowID, participant string) (schedule.Objection, bool) {
	for _, o := range s.objections {
		if o.WindowID == windowID && o.Participant == participant {
			return o, true
		}
	}
	return schedule.Objection{}, false
}

func cloneObjection(o schedule.Objection) schedule.Objection {
	o.NGSlots = append([]string{}, o.NGSlots...)
	return o
}
