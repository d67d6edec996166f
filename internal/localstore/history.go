package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

const (
	historyScope = "history"
	historyKey   = "events"

	// DefaultRetention is how long created events stay in the history.
	DefaultRetention = 7 * 24 * time.Hour

	// DefaultHistoryLimit bounds the number of remembered events.
	DefaultHistoryLimit = 20
)

// HistoryItem is one event the user created.
type HistoryItem struct {
	EventID         string    `json:"eventId"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"durationMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
}

// History is the list of events the local user created, newest first.
type History struct {
	KV        KV
	Retention time.Duration
	Limit     int
}

// NewHistory creates a History with the default retention and limit.
func NewHistory(kv KV) *History {
	return &History{KV: kv, Retention: DefaultRetention, Limit: DefaultHistoryLimit}
}

func (h *History) retention() time.Duration {
	if h.Retention <= 0 {
		return DefaultRetention
	}
	return h.Retention
}

func (h *History) limit() int {
	if h.Limit <= 0 {
		return DefaultHistoryLimit
	}
	return h.Limit
}

func (h *History) load(ctx context.Context) ([]HistoryItem, error) {
	raw, ok, err := h.KV.Get(ctx, historyScope, historyKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []HistoryItem{}, nil
	}
	var items []HistoryItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return items, nil
}

func (h *History) save(ctx context.Context, items []HistoryItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return h.KV.Set(ctx, historyScope, historyKey, string(raw))
}

// Record puts item at the front, replacing an older entry for the same
// event, and drops the oldest entries beyond the limit.
func (h *History) Record(ctx context.Context, item HistoryItem) error {
	items, err := h.load(ctx)
	if err != nil {
		return err
	}
	next := make([]HistoryItem, 0, len(items)+1)
	next = append(next, item)
	for _, it := range items {
		if it.EventID != item.EventID {
			next = append(next, it)
		}
	}
	if len(next) > h.limit() {
		next = next[:h.limit()]
	}
	return h.save(ctx, next)
}

// Remove deletes the entry for eventID if present.
func (h *History) Remove(ctx context.Context, eventID string) error {
	items, err := h.load(ctx)
	if err != nil {
		return err
	}
	next := make([]HistoryItem, 0, len(items))
	for _, it := range items {
		if it.EventID != eventID {
			next = append(next, it)
		}
	}
	if len(next) == len(items) {
		return nil
	}
	return h.save(ctx, next)
}

// Recent returns the entries that have not expired at now.
func (h *History) Recent(ctx context.Context, now time.Time) ([]HistoryItem, error) {
	items, err := h.load(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := h.Cutoff(now)
	out := make([]HistoryItem, 0, len(items))
	for _, it := range items {
		if it.CreatedAt.After(cutoff) {
			out = append(out, it)
		}
	}
	return out, nil
}

// Cutoff is the creation time at or before which entries have expired.
func (h *History) Cutoff(now time.Time) time.Time {
	return now.Add(-h.retention())
}

// RemainingDays is the number of started days left before an event created
// at createdAt expires, never negative.
func (h *History) RemainingDays(createdAt, now time.Time) int {
	left := createdAt.Add(h.retention()).Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}
