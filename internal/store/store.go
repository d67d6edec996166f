package store

import (
	"context"
	"errors"
	"time"

	"github.com/slotmatch/slotmatch/internal/schedule"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an insert violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
)

// Reader is the read side consumed by aggregation and the change feeds.
type Reader interface {
	GetEvent(ctx context.Context, id string) (schedule.Event, error)

	// ListWindows returns the event's windows ordered by date and start time.
	ListWindows(ctx context.Context, eventID string) ([]schedule.Window, error)

	ListObjections(ctx context.Context, windowIDs []string) ([]schedule.Objection, error)
}

// Store is the full storage collaborator.
type Store interface {
	Reader

	CreateEvent(ctx context.Context, title, description string, durationMinutes int) (schedule.Event, error)

	// ListRecentEvents returns events created at or after since, newest first.
	ListRecentEvents(ctx context.Context, since time.Time) ([]schedule.Event, error)

	// DeleteEventsBefore removes events created before cutoff together with
	// their windows and objections, returning the number of events removed.
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int, error)

	// ReplaceWindows deletes every window of the event, dropping their
	// objections, then creates the given windows.
	ReplaceWindows(ctx context.Context, eventID string, windows []schedule.WindowInput) ([]schedule.Window, error)

	AddWindow(ctx context.Context, eventID string, in schedule.WindowInput) (schedule.Window, error)

	UpsertObjection(ctx context.Context, windowID, participant string, ngSlots []string) (schedule.Objection, error)

	Close() error
}

// Pinger is implemented by stores that can check their backend connection.
type Pinger interface {
	Ping(ctx context.Context) error
}
