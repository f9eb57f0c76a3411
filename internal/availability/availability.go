// Package availability decides whether a car is free for a requested date range.
//
// Ranges are calendar dates with inclusive ends: a booking that ends on day D
// conflicts with a request that starts on day D, so same-day turnover is never
// offered. Only pending and active bookings take part in the check.
//
// The check is a read. Nothing here reserves the car, so two callers can both
// see a range as free and then both insert a booking for it.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carrental/internal/db"
)

// ErrStore is returned when the booking store cannot be read.
var ErrStore = errors.New("booking store unavailable")

// BookingStore lists the bookings of a car that are pending or active.
type BookingStore interface {
	ListBlockingBookings(ctx context.Context, carID int64) ([]db.Booking, error)
}

// Range is an inclusive span of calendar dates.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange truncates both ends to their calendar date in UTC.
func NewRange(start, end time.Time) Range {
	return Range{Start: DateOf(start), End: DateOf(end)}
}

// Overlaps reports whether r and other share at least one calendar date.
func (r Range) Overlaps(other Range) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// DateOf drops the clock part of t, keeping the calendar date t shows.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Checker struct {
	store BookingStore
}

func NewChecker(store BookingStore) *Checker {
	return &Checker{store: store}
}

// IsAvailable reports whether no pending or active booking of carID overlaps
// [start, end]. The caller validates the range; an unknown car has no bookings
// and is reported as available.
func (c *Checker) IsAvailable(ctx context.Context, carID int64, start, end time.Time) (bool, error) {
	conflicts, err := c.Conflicts(ctx, carID, start, end)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// Conflicts returns the blocking bookings of carID that overlap [start, end].
func (c *Checker) Conflicts(ctx context.Context, carID int64, start, end time.Time) ([]db.Booking, error) {
	bookings, err := c.store.ListBlockingBookings(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("%w: car %d: %w", ErrStore, carID, err)
	}

	requested := NewRange(start, end)
	var conflicts []db.Booking
	for _, b := range bookings {
		if !b.Status.Blocking() {
			continue
		}
		if requested.Overlaps(NewRange(b.StartDate, b.EndDate)) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts, nil
}
