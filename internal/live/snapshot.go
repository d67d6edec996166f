package live

import (
	"context"
	"fmt"

	"github.com/slotmatch/slotmatch/internal/aggregate"
	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/store"
)

// Snapshot is the state of one event as seen by a reader.
type Snapshot struct {
	EventID    string
	Windows    []schedule.Window
	Objections map[string][]schedule.Objection
}

// Load reads the current windows and objections of an event.
func Load(ctx context.Context, r store.Reader, eventID string) (Snapshot, error) {
	windows, err := r.ListWindows(ctx, eventID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load windows: %w", err)
	}
	objections, err := r.ListObjections(ctx, schedule.WindowIDs(windows))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load objections: %w", err)
	}

	snap := Snapshot{
		EventID:    eventID,
		Windows:    windows,
		Objections: make(map[string][]schedule.Objection, len(windows)),
	}
	for _, w := range windows {
		snap.Objections[w.ID] = []schedule.Objection{}
	}
	for id, objs := range schedule.GroupByWindow(objections) {
		if _, ok := snap.Objections[id]; ok {
			snap.Objections[id] = objs
		}
	}
	return snap, nil
}

// Heatmap aggregates the snapshot.
func (s Snapshot) Heatmap() aggregate.Heatmap {
	return aggregate.BuildHeatmap(s.Windows, s.Objections)
}

// Best returns up to n all-clear slots; n <= 0 uses the default bound.
func (s Snapshot) Best(n int) []aggregate.RankedSlot {
	participants := aggregate.Participants(s.Objections)
	return aggregate.Top(aggregate.FindBestSlots(s.Windows, s.Objections, participants), n)
}

func (s Snapshot) hasWindow(id string) bool {
	_, ok := s.Objections[id]
	return ok
}

// Apply returns the snapshot with c applied. The input snapshot is not
// modified. Changes that reference a window the snapshot does not hold are
// ignored.
func Apply(s Snapshot, c store.Change) Snapshot {
	if c.EventID != "" && s.EventID != "" && c.EventID != s.EventID {
		return s
	}

	switch c.Table {
	case store.TableObjections:
		if c.Objection == nil {
			return s
		}
		return applyObjection(s, c.Kind, *c.Objection)
	case store.TableWindows:
		if c.Window == nil {
			return s
		}
		return applyWindow(s, c.Kind, *c.Window)
	}
	return s
}

func applyObjection(s Snapshot, kind store.ChangeKind, o schedule.Objection) Snapshot {
	switch kind {
	case store.ChangeInsert, store.ChangeUpdate:
		if !s.hasWindow(o.WindowID) {
			return s
		}
		out := s.withObjections()
		objs := out.Objections[o.WindowID]
		for i := range objs {
			if objs[i].ID == o.ID {
				next := append([]schedule.Objection{}, objs...)
				next[i] = o
				out.Objections[o.WindowID] = next
				return out
			}
		}
		out.Objections[o.WindowID] = append(append([]schedule.Objection{}, objs...), o)
		return out

	case store.ChangeDelete:
		// Delete payloads may carry only the id, so search every window.
		for windowID, objs := range s.Objections {
			for i := range objs {
				if objs[i].ID != o.ID {
					continue
				}
				out := s.withObjections()
				next := make([]schedule.Objection, 0, len(objs)-1)
				next = append(next, objs[:i]...)
				next = append(next, objs[i+1:]...)
				out.Objections[windowID] = next
				return out
			}
		}
	}
	return s
}

func applyWindow(s Snapshot, kind store.ChangeKind, w schedule.Window) Snapshot {
	switch kind {
	case store.ChangeInsert, store.ChangeUpdate:
		if s.EventID != "" && w.EventID != "" && w.EventID != s.EventID {
			return s
		}
		out := s.withObjections()
		windows := make([]schedule.Window, 0, len(s.Windows)+1)
		replaced := false
		for _, existing := range s.Windows {
			if existing.ID == w.ID {
				windows = append(windows, w)
				replaced = true
				continue
			}
			windows = append(windows, existing)
		}
		if !replaced {
			if kind == store.ChangeUpdate {
				return s
			}
			windows = append(windows, w)
			out.Objections[w.ID] = []schedule.Objection{}
		}
		schedule.SortWindows(windows)
		out.Windows = windows
		return out

	case store.ChangeDelete:
		if !s.hasWindow(w.ID) {
			return s
		}
		out := s.withObjections()
		windows := make([]schedule.Window, 0, len(s.Windows))
		for _, existing := range s.Windows {
			if existing.ID != w.ID {
				windows = append(windows, existing)
			}
		}
		out.Windows = windows
		delete(out.Objections, w.ID)
		return out
	}
	return s
}

// withObjections returns a shallow copy whose objection map can be modified
// without touching the original. Slices are shared and must be replaced, not
// mutated.
func (s Snapshot) withObjections() Snapshot {
	m := make(map[string][]schedule.Objection, len(s.Objections)+1)
	for k, v := range s.Objections {
		m[k] = v
	}
	s.Objections = m
	return s
}
