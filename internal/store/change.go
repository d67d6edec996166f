package store

import (
	"context"

	"github.com/slotmatch/slotmatch/internal/schedule"
)

// ChangeKind is the row operation that produced a Change.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "INSERT"
	ChangeUpdate ChangeKind = "UPDATE"
	ChangeDelete ChangeKind = "DELETE"
)

// Table names the kind of row a Change carries.
type Table string

const (
	TableWindows    Table = "windows"
	TableObjections Table = "objections"
)

// Change is one row-level modification scoped to an event. Exactly one of
// Window and Objection is set, matching Table.
type Change struct {
	Kind      ChangeKind          `json:"kind"`
	Table     Table               `json:"table"`
	EventID   string              `json:"eventId"`
	Window    *schedule.Window    `json:"window,omitempty"`
	Objection *schedule.Objection `json:"objection,omitempty"`
}

// Subscriber streams changes for one event. The returned channel is closed
// once ctx is done or the feed fails permanently.
type Subscriber interface {
	Subscribe(ctx context.Context, eventID string) (<-chan Change, error)
}
