package schedule

import (
	"sort"
	"time"
)

// DefaultDurationMinutes is the meeting length used when none is given.
const DefaultDurationMinutes = 60

// Event is a scheduling poll created by a leader.
type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"durationMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Window is one candidate date and time range proposed for an Event.
type Window struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	CreatedAt time.Time `json:"createdAt"`
}

// WindowInput describes a Window to be created.
type WindowInput struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Objection records the slots of one Window that a participant cannot attend.
// There is at most one Objection per (WindowID, Participant).
type Objection struct {
	ID          string    `json:"id"`
	WindowID    string    `json:"windowId"`
	Participant string    `json:"participant"`
	NGSlots     []string  `json:"ngSlots"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SortWindows orders windows by date, then start time, then id.
func SortWindows(windows []Window) {
	sort.SliceStable(windows, func(i, j int) bool {
		a, b := windows[i], windows[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}

// WindowIDs returns the ids of the given windows in order.
func WindowIDs(windows []Window) []string {
	ids := make([]string, 0, len(windows))
	for _, w := range windows {
		ids = append(ids, w.ID)
	}
	return ids
}

// GroupByWindow buckets objections by their window id, keeping input order
// within each bucket.
func GroupByWindow(objections []Objection) map[string][]Objection {
	grouped := make(map[string][]Objection)
	for _, o := range objections {
		grouped[o.WindowID] = append(grouped[o.WindowID], o)
	}
	return grouped
}

// NormalizeSlots returns a sorted copy of slots with duplicates and empty
// strings removed. The result is never nil.
func NormalizeSlots(slots []string) []string {
	seen := make(map[string]struct{}, len(slots))
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
