package model

import (
	"fmt"
	"time"
)

const (
	// ClockLayout is the wall-clock format used for slot boundaries.
	ClockLayout = "15:04"
	// DateLayout is the calendar-date format used across the API.
	DateLayout = "2006-01-02"
)

// TimeSlot is a bookable window within a single provider day. Start and End
// are wall-clock times in ClockLayout, and Start must precede End.
type TimeSlot struct {
	Start string `json:"start" bson:"start" validate:"required,clock_time"`
	End   string `json:"end" bson:"end" validate:"required,clock_time"`
}

// BlockLength is the duration of one bookable slot, in minutes. Valid values
// are provider-defined; the supported set is served by the repository.
type BlockLength int

func (b BlockLength) Duration() time.Duration {
	return time.Duration(b) * time.Minute
}

func (b BlockLength) String() string {
	return fmt.Sprintf("%dm", int(b))
}

// ParseClock parses a wall-clock boundary ("09:00") into minutes from
// midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes from midnight back into ClockLayout.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Ordered reports whether the slot's start strictly precedes its end. Slots
// never span midnight, so plain minute comparison is enough.
func (s TimeSlot) Ordered() bool {
	start, err := ParseClock(s.Start)
	if err != nil {
		return false
	}
	end, err := ParseClock(s.End)
	if err != nil {
		return false
	}
	return start < end
}

// StartInstant resolves the slot's absolute start on the given date in the
// given time zone.
func (s TimeSlot) StartInstant(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+s.Start, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot start on %s: %w", date, err)
	}
	return t, nil
}
