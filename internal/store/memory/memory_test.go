package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/store"
)

func newTestStore() *Store {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	n := 0
	return New(
		WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%03d", n)
		}),
	)
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	ev, err := s.CreateEvent(ctx, "Team sync", "weekly", 0)
	require.NoError(t, err)
	assert.Equal(t, schedule.DefaultDurationMinutes, ev.DurationMinutes)

	got, err := s.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev, got)

	_, err = s.CreateEvent(ctx, "  ", "", 30)
	assert.ErrorIs(t, err, schedule.ErrInvalidEvent)

	_, err = s.GetEvent(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWindowsAreSortedAndReplaced(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	ev, err := s.CreateEvent(ctx, "Offsite", "", 60)
	require.NoError(t, err)

	created, err := s.ReplaceWindows(ctx, ev.ID, []schedule.WindowInput{
		{Date: "2026-03-11", StartTime: "09:00", EndTime: "12:00"},
		{Date: "2026-03-10", StartTime: "13:00", EndTime: "15:00"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "2026-03-10", created[0].Date)

	_, err = s.UpsertObjection(ctx, created[0].ID, "Alice", []string{"13:00"})
	require.NoError(t, err)

	replaced, err := s.ReplaceWindows(ctx, ev.ID, []schedule.WindowInput{
		{Date: "2026-03-12", StartTime: "10:00", EndTime: "11:00"},
	})
	require.NoError(t, err)

	windows, err := s.ListWindows(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, replaced, windows)

	objs, err := s.ListObjections(ctx, []string{created[0].ID})
	require.NoError(t, err)
	assert.Empty(t, objs, "replacing windows drops their objections")
}

func TestReplaceWindowsValidatesBeforeDeleting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	ev, _ := s.CreateEvent(ctx, "Offsite", "", 60)
	_, err := s.AddWindow(ctx, ev.ID, schedule.WindowInput{Date: "2026-03-10", StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)

	_, err = s.ReplaceWindows(ctx, ev.ID, []schedule.WindowInput{
		{Date: "2026-03-10", StartTime: "11:00", EndTime: "10:00"},
	})
	assert.ErrorIs(t, err, schedule.ErrInvalidWindow)

	windows, _ := s.ListWindows(ctx, ev.ID)
	assert.Len(t, windows, 1)
}

func TestAddWindowUnknownEvent(t *testing.T) {
	s := newTestStore()
	_, err := s.AddWindow(context.Background(), "nope", schedule.WindowInput{Date: "2026-03-10", StartTime: "09:00", EndTime: "10:00"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpsertObjectionKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	ev, _ := s.CreateEvent(ctx, "Lunch", "", 60)
	w, err := s.AddWindow(ctx, ev.ID, schedule.WindowInput{Date: "2026-03-10", StartTime: "12:00", EndTime: "14:00"})
	require.NoError(t, err)

	first, err := s.UpsertObjection(ctx, w.ID, " Alice ", []string{"13:00", "12:00", "13:00"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", first.Participant)
	assert.Equal(t, []string{"12:00", "13:00"}, first.NGSlots)

	second, err := s.UpsertObjection(ctx, w.ID, "Alice", nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{}, second.NGSlots)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	objs, _ := s.ListObjections(ctx, []string{w.ID})
	assert.Len(t, objs, 1)
}

func TestConcurrentFirstResponses(t *testing.T) {
	ctx := context.Background()
	s := New()
	ev, _ := s.CreateEvent(ctx, "Lunch", "", 60)
	w, _ := s.AddWindow(ctx, ev.ID, schedule.WindowInput{Date: "2026-03-10", StartTime: "12:00", EndTime: "14:00"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.UpsertObjection(ctx, w.ID, "Bob", []string{fmt.Sprintf("1%d:00", 2+i%2)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	objs, err := s.ListObjections(ctx, []string{w.ID})
	require.NoError(t, err)
	assert.Len(t, objs, 1)
}

func TestInsertObjectionConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	ev, _ := s.CreateEvent(ctx, "Lunch", "", 60)
	w, _ := s.AddWindow(ctx, ev.ID, schedule.WindowInput{Date: "2026-03-10", StartTime: "12:00", EndTime: "14:00"})

	_, err := s.InsertObjection(ctx, w.ID, "Alice", nil)
	require.NoError(t, err)
	_, err = s.InsertObjection(ctx, w.ID, "Alice", nil)
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.InsertObjection(ctx, "missing", "Alice", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecentAndRetention(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := now.Add(-10 * 24 * time.Hour)
	s := New(WithClock(func() time.Time { return clock }))

	old, _ := s.CreateEvent(ctx, "old", "", 60)
	w, _ := s.AddWindow(ctx, old.ID, schedule.WindowInput{Date: "2026-03-01", StartTime: "09:00", EndTime: "10:00"})
	_, err := s.UpsertObjection(ctx, w.ID, "Alice", nil)
	require.NoError(t, err)

	clock = now.Add(-time.Hour)
	fresh, _ := s.CreateEvent(ctx, "fresh", "", 60)
	clock = now
	newest, _ := s.CreateEvent(ctx, "newest", "", 60)

	recent, err := s.ListRecentEvents(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, newest.ID, recent[0].ID)
	assert.Equal(t, fresh.ID, recent[1].ID)

	n, err := s.DeleteEventsBefore(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetEvent(ctx, old.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	objs, _ := s.ListObjections(ctx, []string{w.ID})
	assert.Empty(t, objs)
}

func TestListObjectionsReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	ev, _ := s.CreateEvent(ctx, "Lunch", "", 60)
	w, _ := s.AddWindow(ctx, ev.ID, schedule.WindowInput{Date: "2026-03-10", StartTime: "12:00", EndTime: "14:00"})
	_, _ = s.UpsertObjection(ctx, w.ID, "Alice", []string{"12:00"})

	objs, _ := s.ListObjections(ctx, []string{w.ID})
	objs[0].NGSlots[0] = "changed"

	again, _ := s.ListObjections(ctx, []string{w.ID})
	assert.Equal(t, []string{"12:00"}, again[0].NGSlots)
}
