// Package schedule defines the data model shared by every slotmatch component.
//
// An Event groups candidate Windows proposed by a leader. Each Window is a
// single date with an open time-of-day range. Participants answer per Window
// with an Objection listing the 30-minute slots they cannot attend; the
// absence of an Objection means the participant has not responded at all,
// which is different from an Objection with no slots.
//
// Dates are "YYYY-MM-DD" and times of day are zero-padded 24-hour "HH:MM"
// strings throughout.
package schedule
