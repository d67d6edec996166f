package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidEvent is returned for malformed event input.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidWindow is returned for malformed window input.
	ErrInvalidWindow = errors.New("invalid window")

	// ErrInvalidObjection is returned for malformed objection input.
	ErrInvalidObjection = errors.New("invalid objection")
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	// slotMinutes mirrors the fixed grid step; windows must align to it.
	slotMinutes = 30
)

// ValidateEventInput checks the fields a caller supplies when creating an event.
func ValidateEventInput(title string, durationMinutes int) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if durationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidEvent, durationMinutes)
	}
	return nil
}

// ValidateWindowInput checks date and time formats, ordering and slot alignment.
func ValidateWindowInput(in WindowInput) error {
	if _, err := time.Parse(dateLayout, in.Date); err != nil || len(in.Date) != len(dateLayout) {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidWindow, in.Date)
	}
	start, err := parseClock(in.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start %v", ErrInvalidWindow, err)
	}
	end, err := parseClock(in.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end %v", ErrInvalidWindow, err)
	}
	if start >= end {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidWindow, in.StartTime, in.EndTime)
	}
	if start%slotMinutes != 0 || end%slotMinutes != 0 {
		return fmt.Errorf("%w: %s-%s is not aligned to %d minutes", ErrInvalidWindow, in.StartTime, in.EndTime, slotMinutes)
	}
	return nil
}

// ValidateParticipant returns the trimmed participant name or an error if it is empty.
func ValidateParticipant(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: participant name is required", ErrInvalidObjection)
	}
	return name, nil
}

func parseClock(s string) (int, error) {
	if len(s) != len(clockLayout) {
		return 0, fmt.Errorf("%q must be HH:MM", s)
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%q must be HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
