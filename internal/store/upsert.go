package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/slotmatch/slotmatch/internal/schedule"
)

// ObjectionRows is the row-level access a backend exposes so that
// UpsertObjection can implement read-then-insert-or-update.
type ObjectionRows interface {
	// FindObjection returns ErrNotFound when no row exists.
	FindObjection(ctx context.Context, windowID, participant string) (schedule.Objection, error)

	// InsertObjection returns ErrConflict when a row for the same window and
	// participant already exists.
	InsertObjection(ctx context.Context, windowID, participant string, ngSlots []string) (schedule.Objection, error)

	UpdateObjectionSlots(ctx context.Context, id string, ngSlots []string) (schedule.Objection, error)
}

// UpsertObjection stores the participant's NG slots for a window. It never
// creates a second row for the same participant: if another writer inserts
// first, the insert's conflict is absorbed by updating that row instead.
func UpsertObjection(ctx context.Context, rows ObjectionRows, windowID, participant string, ngSlots []string) (schedule.Objection, error) {
	participant, err := schedule.ValidateParticipant(participant)
	if err != nil {
		return schedule.Objection{}, err
	}
	ngSlots = schedule.NormalizeSlots(ngSlots)

	existing, err := rows.FindObjection(ctx, windowID, participant)
	switch {
	case err == nil:
		return rows.UpdateObjectionSlots(ctx, existing.ID, ngSlots)
	case !errors.Is(err, ErrNotFound):
		return schedule.Objection{}, fmt.Errorf("failed to look up objection: %w", err)
	}

	created, err := rows.InsertObjection(ctx, windowID, participant, ngSlots)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, ErrConflict) {
		return schedule.Objection{}, fmt.Errorf("failed to insert objection: %w", err)
	}

	existing, err = rows.FindObjection(ctx, windowID, participant)
	if err != nil {
		return schedule.Objection{}, fmt.Errorf("failed to reload objection after conflict: %w", err)
	}
	return rows.UpdateObjectionSlots(ctx, existing.ID, ngSlots)
}
