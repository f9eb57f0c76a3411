package validation

import (
	"time"

	"carrental/internal/availability"
)

const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the UTC
// calendar date it names.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return availability.DateOf(t.UTC()), nil
}

// DateRange validates a requested rental period. The end must fall on a later
// day than the start and the start cannot be before the current UTC date.
func DateRange(startRaw, endRaw string, now time.Time) (start, end time.Time, err error) {
	if startRaw == "" || endRaw == "" {
		return time.Time{}, time.Time{}, newError("Start date and end date are required")
	}

	start, err = ParseDate(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, newError("Invalid start date; expected ISO-8601 date")
	}
	end, err = ParseDate(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, newError("Invalid end date; expected ISO-8601 date")
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, newError("End date must be after start date")
	}
	if start.Before(availability.DateOf(now.UTC())) {
		return time.Time{}, time.Time{}, newError("Start date cannot be in the past")
	}
	return start, end, nil
}
