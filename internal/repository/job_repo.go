package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"carrental/internal/db"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{DB: db}
}

// moveBookings switches every booking in status from to status to when cond
// holds for day. The status guard keeps a booking cancelled in the meantime
// from being overwritten.
func (r *JobRepository) moveBookings(ctx context.Context, from, to db.BookingStatus, cond string, day time.Time) (int64, error) {
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE status = $2 AND ` + cond
	result, err := r.DB.ExecContext(ctx, query, string(to), string(from), day.Format(dateLayout))
	if err != nil {
		return 0, fmt.Errorf("error moving %s bookings to %s: %w", from, to, err)
	}
	return result.RowsAffected()
}

// ActivateStartedBookings marks pending bookings whose rental covers today as active.
func (r *JobRepository) ActivateStartedBookings(ctx context.Context, today time.Time) (int64, error) {
	return r.moveBookings(ctx, db.BookingPending, db.BookingActive, `start_date <= $3 AND end_date >= $3`, today)
}

// CompleteFinishedBookings marks active bookings that ended before today as completed.
func (r *JobRepository) CompleteFinishedBookings(ctx context.Context, today time.Time) (int64, error) {
	return r.moveBookings(ctx, db.BookingActive, db.BookingCompleted, `end_date < $3`, today)
}

// ExpireStalePending cancels pending bookings whose whole rental period is
// before day. They were never picked up, so they can no longer start.
func (r *JobRepository) ExpireStalePending(ctx context.Context, day time.Time) (int64, error) {
	return r.moveBookings(ctx, db.BookingPending, db.BookingCancelled, `end_date < $3`, day)
}
