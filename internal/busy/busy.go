package busy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/slotgrid"
)

const dateLayout = "2006-01-02"

// Interval is a half-open busy range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether i and [start, end) share any instant.
func (i Interval) Overlaps(start, end time.Time) bool {
	return start.Before(i.End) && end.After(i.Start)
}

// Source returns the busy intervals that overlap a local calendar day.
type Source interface {
	BusyTimes(ctx context.Context, date string) ([]Interval, error)
}

// None is a Source that is never busy.
type None struct{}

func (None) BusyTimes(context.Context, string) ([]Interval, error) {
	return []Interval{}, nil
}

// DayBounds returns local midnight of date and of the following day.
func DayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, date, locOrUTC(loc))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return day, day.AddDate(0, 0, 1), nil
}

// clockOn returns date at the given "HH:MM" in loc.
func clockOn(date, clock string, loc *time.Location) (time.Time, bool) {
	day, _, err := DayBounds(date, loc)
	if err != nil {
		return time.Time{}, false
	}
	m, ok := slotgrid.ParseClock(clock)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), m/60, m%60, 0, 0, day.Location()), true
}

// IsTimeBusy reports whether the instant date+clock falls inside a busy
// interval. Intervals are half-open, so a meeting ending at 10:00 does not
// make 10:00 busy.
func IsTimeBusy(date, clock string, busy []Interval, loc *time.Location) bool {
	t, ok := clockOn(date, clock, loc)
	if !ok {
		return false
	}
	for _, b := range busy {
		if !t.Before(b.Start) && t.Before(b.End) {
			return true
		}
	}
	return false
}

// IsTimeRangeBusy reports whether [start, end) on date overlaps any busy
// interval.
func IsTimeRangeBusy(date, start, end string, busy []Interval, loc *time.Location) bool {
	return len(Conflicts(date, start, end, busy, loc)) > 0
}

// Conflicts returns the busy intervals overlapping [start, end) on date.
func Conflicts(date, start, end string, busy []Interval, loc *time.Location) []Interval {
	from, ok := clockOn(date, start, loc)
	if !ok {
		return []Interval{}
	}
	to, ok := clockOn(date, end, loc)
	if !ok {
		return []Interval{}
	}
	out := []Interval{}
	for _, b := range busy {
		if b.Overlaps(from, to) {
			out = append(out, b)
		}
	}
	return out
}

// FormatBusyTimes renders each interval as "HH:MM〜HH:MM" in loc.
func FormatBusyTimes(busy []Interval, loc *time.Location) []string {
	loc = locOrUTC(loc)
	out := make([]string, 0, len(busy))
	for _, b := range busy {
		out = append(out, b.Start.In(loc).Format("15:04")+"〜"+b.End.In(loc).Format("15:04"))
	}
	return out
}

// SuggestNG returns the slots of w for which a meeting of durationMinutes
// starting at that slot would overlap a busy interval.
func SuggestNG(w schedule.Window, durationMinutes int, busy []Interval, loc *time.Location) []string {
	if durationMinutes <= 0 {
		durationMinutes = slotgrid.Step
	}
	out := []string{}
	for _, slot := range slotgrid.GenerateSlots(w.StartTime, w.EndTime) {
		start, ok := clockOn(w.Date, slot, loc)
		if !ok {
			continue
		}
		end := start.Add(time.Duration(durationMinutes) * time.Minute)
		for _, b := range busy {
			if b.Overlaps(start, end) {
				out = append(out, slot)
				break
			}
		}
	}
	return out
}

// SortIntervals orders by start, then end.
func SortIntervals(busy []Interval) {
	sort.Slice(busy, func(i, j int) bool {
		if !busy[i].Start.Equal(busy[j].Start) {
			return busy[i].Start.Before(busy[j].Start)
		}
		return busy[i].End.Before(busy[j].End)
	})
}

func locOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
