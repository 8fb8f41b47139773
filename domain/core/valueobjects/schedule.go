package valueobjects

import (
	"time"

	pkgerrors "tripgraph/pkg/errors"
)

// Schedule is a value object placing an experience on a calendar day,
// optionally at a time of day, in a given timezone.
type Schedule struct {
	date     string // YYYY-MM-DD
	timeOfDay string // HH:MM, empty when the experience is all-day
	timezone string // IANA name, e.g. "Asia/Tokyo"
}

// NewSchedule creates a schedule with validation. timeOfDay may be empty.
func NewSchedule(date, timeOfDay, timezone string) (Schedule, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return Schedule{}, pkgerrors.NewValidationError("schedule date must be YYYY-MM-DD")
	}
	if timeOfDay != "" {
		if _, err := time.Parse("15:04", timeOfDay); err != nil {
			return Schedule{}, pkgerrors.NewValidationError("schedule time must be HH:MM")
		}
	}
	if timezone == "" {
		return Schedule{}, pkgerrors.NewValidationError("schedule timezone cannot be empty")
	}
	return Schedule{date: date, timeOfDay: timeOfDay, timezone: timezone}, nil
}

// Date returns the calendar day as YYYY-MM-DD
func (s Schedule) Date() string {
	return s.date
}

// TimeOfDay returns the HH:MM time, or empty for all-day entries
func (s Schedule) TimeOfDay() string {
	return s.timeOfDay
}

// Timezone returns the IANA timezone name
func (s Schedule) Timezone() string {
	return s.timezone
}

// HasTime checks whether a time of day is set
func (s Schedule) HasTime() bool {
	return s.timeOfDay != ""
}

// MinutesOfDay returns the time of day in minutes since midnight.
// Entries without a time sort after timed entries, so they report a
// sentinel larger than any valid time.
func (s Schedule) MinutesOfDay() int {
	if s.timeOfDay == "" {
		return 24*60 + 1
	}
	t, err := time.Parse("15:04", s.timeOfDay)
	if err != nil {
		return 24*60 + 1
	}
	return t.Hour()*60 + t.Minute()
}

// Equals checks if two schedules are equal
func (s Schedule) Equals(other Schedule) bool {
	return s.date == other.date &&
		s.timeOfDay == other.timeOfDay &&
		s.timezone == other.timezone
}
