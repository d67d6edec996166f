package slotgrid

import (
	"fmt"
	"strings"

	"github.com/slotmatch/slotmatch/internal/schedule"
)

// Step is the width of one slot in minutes. It does not depend on the
// meeting duration.
const Step = 30

const minutesPerDay = 24 * 60

// ParseClock parses a zero-padded 24-hour "HH:MM" string into minutes after
// midnight.
func ParseClock(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// FormatClock renders minutes after midnight as "HH:MM", wrapping around the
// 24-hour clock in both directions.
func FormatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// GenerateSlots returns the slot starts of the window [start, end). Every
// slot fits entirely inside the window, so the end boundary is never emitted.
// Malformed input, start >= end, or a gap narrower than one step yields an
// empty slice.
func GenerateSlots(start, end string) []string {
	s, ok := ParseClock(start)
	if !ok {
		return []string{}
	}
	e, ok := ParseClock(end)
	if !ok || s >= e {
		return []string{}
	}
	slots := make([]string, 0, (e-s)/Step)
	for m := s; m+Step <= e; m += Step {
		slots = append(slots, FormatClock(m))
	}
	return slots
}

// SlotEndTime returns the time of day at which a meeting of durationMinutes
// starting at slot ends. Only the time of day is tracked, so "23:30" plus 60
// minutes is "00:30". A malformed slot yields "".
func SlotEndTime(slot string, durationMinutes int) string {
	m, ok := ParseClock(slot)
	if !ok {
		return ""
	}
	return FormatClock(m + durationMinutes)
}

// UnionSlotGrid returns the slots spanning the earliest start and latest end
// across windows. The envelope may contain slots that no single window
// covers; use Covers to test a particular window. Windows with malformed or
// empty ranges are ignored.
func UnionSlotGrid(windows []schedule.Window) []string {
	var minStart, maxEnd string
	for _, w := range windows {
		s, okStart := ParseClock(w.StartTime)
		e, okEnd := ParseClock(w.EndTime)
		if !okStart || !okEnd || s >= e {
			continue
		}
		// Zero-padded fixed-width clocks compare correctly as strings.
		if minStart == "" || w.StartTime < minStart {
			minStart = w.StartTime
		}
		if maxEnd == "" || w.EndTime > maxEnd {
			maxEnd = w.EndTime
		}
	}
	if minStart == "" {
		return []string{}
	}
	return GenerateSlots(minStart, maxEnd)
}

// Covers reports whether slot is one of the slots GenerateSlots produces for w.
func Covers(w schedule.Window, slot string) bool {
	s, ok := ParseClock(w.StartTime)
	if !ok {
		return false
	}
	e, ok := ParseClock(w.EndTime)
	if !ok {
		return false
	}
	t, ok := ParseClock(slot)
	if !ok {
		return false
	}
	return t >= s && t+Step <= e && (t-s)%Step == 0
}

// IsOnTheHour reports whether slot starts at a full hour.
func IsOnTheHour(slot string) bool {
	_, ok := ParseClock(slot)
	return ok && strings.HasSuffix(slot, ":00")
}

// Label is the row label shown next to slot: the full time on the hour and
// only the minutes otherwise, e.g. "10:00" and ":30".
func Label(slot string) string {
	if _, ok := ParseClock(slot); !ok {
		return slot
	}
	if IsOnTheHour(slot) {
		return slot
	}
	return slot[2:]
}
