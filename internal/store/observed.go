package store

import (
	"context"
	"time"

	"github.com/slotmatch/slotmatch/internal/schedule"
)

// OperationRecorder receives the outcome of every call made through Observe.
type OperationRecorder interface {
	RecordStoreOperation(ctx context.Context, backend, operation, status string, duration time.Duration)
}

// Observe wraps s so that every operation is reported to rec under the given
// backend name. The result also implements Pinger, delegating when s does.
func Observe(s Store, backend string, rec OperationRecorder) Store {
	if rec == nil {
		return s
	}
	return &observed{next: s, backend: backend, rec: rec}
}

type observed struct {
	next    Store
	backend string
	rec     OperationRecorder
}

func (o *observed) record(ctx context.Context, op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	o.rec.RecordStoreOperation(ctx, o.backend, op, status, time.Since(start))
}

func (o *observed) GetEvent(ctx context.Context, id string) (schedule.Event, error) {
	start := time.Now()
	ev, err := o.next.GetEvent(ctx, id)
	o.record(ctx, "get_event", start, err)
	return ev, err
}

func (o *observed) ListWindows(ctx context.Context, eventID string) ([]schedule.Window, error) {
	start := time.Now()
	ws, err := o.next.ListWindows(ctx, eventID)
	o.record(ctx, "list_windows", start, err)
	return ws, err
}

func (o *observed) ListObjections(ctx context.Context, windowIDs []string) ([]schedule.Objection, error) {
	start := time.Now()
	obs, err := o.next.ListObjections(ctx, windowIDs)
	o.record(ctx, "list_objections", start, err)
	return obs, err
}

func (o *observed) CreateEvent(ctx context.Context, title, description string, durationMinutes int) (schedule.Event, error) {
	start := time.Now()
	ev, err := o.next.CreateEvent(ctx, title, description, durationMinutes)
	o.record(ctx, "create_event", start, err)
	return ev, err
}

func (o *observed) ListRecentEvents(ctx context.Context, since time.Time) ([]schedule.Event, error) {
	start := time.Now()
	evs, err := o.next.ListRecentEvents(ctx, since)
	o.record(ctx, "list_recent_events", start, err)
	return evs, err
}

func (o *observed) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	start := time.Now()
	n, err := o.next.DeleteEventsBefore(ctx, cutoff)
	o.record(ctx, "delete_events_before", start, err)
	return n, err
}

func (o *observed) ReplaceWindows(ctx context.Context, eventID string, windows []schedule.WindowInput) ([]schedule.Window, error) {
	start := time.Now()
	ws, err := o.next.ReplaceWindows(ctx, eventID, windows)
	o.record(ctx, "replace_windows", start, err)
	return ws, err
}

func (o *observed) AddWindow(ctx context.Context, eventID string, in schedule.WindowInput) (schedule.Window, error) {
	start := time.Now()
	w, err := o.next.AddWindow(ctx, eventID, in)
	o.record(ctx, "add_window", start, err)
	return w, err
}

func (o *observed) UpsertObjection(ctx context.Context, windowID, participant string, ngSlots []string) (schedule.Objection, error) {
	start := time.Now()
	obj, err := o.next.UpsertObjection(ctx, windowID, participant, ngSlots)
	o.record(ctx, "upsert_objection", start, err)
	return obj, err
}

func (o *observed) Ping(ctx context.Context) error {
	p, ok := o.next.(Pinger)
	if !ok {
		return nil
	}
	start := time.Now()
	err := p.Ping(ctx)
	o.record(ctx, "ping", start, err)
	return err
}

func (o *observed) Close() error {
	return o.next.Close()
}
