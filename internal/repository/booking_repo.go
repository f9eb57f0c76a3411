package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carrental/internal/db"
	"github.com/lib/pq"
)

const dateLayout = "2006-01-02"

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{DB: db}
}

const bookingColumns = `id, user_id, car_id, start_date, end_date, total_price, status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*db.Booking, error) {
	var b db.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.CarID, &b.StartDate, &b.EndDate, &b.TotalPrice, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func blockingStatuses() []string {
	return statusStrings(db.BlockingStatuses)
}

func statusStrings(statuses []db.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// ListBlockingBookings returns the pending and active bookings of a car.
func (r *BookingRepository) ListBlockingBookings(ctx context.Context, carID int64) ([]db.Booking, error) {
	query := "SELECT " + bookingColumns + " FROM bookings WHERE car_id = $1 AND status = ANY($2) ORDER BY start_date"
	rows, err := r.DB.QueryContext(ctx, query, carID, pq.Array(blockingStatuses()))
	if err != nil {
		return nil, fmt.Errorf("error querying bookings of car %d: %w", carID, err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating bookings: %w", err)
	}
	return bookings, nil
}

func (r *BookingRepository) CountBlockingForCar(ctx context.Context, carID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE car_id = $1 AND status = ANY($2)",
		carID, pq.Array(blockingStatuses()),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting bookings of car %d: %w", carID, err)
	}
	return n, nil
}

// Create stores b. Dates are sent as plain calendar dates so the session time
// zone cannot shift them.
func (r *BookingRepository) Create(ctx context.Context, b *db.Booking) error {
	if b.Status == "" {
		b.Status = db.BookingPending
	}
	query := `
		INSERT INTO bookings (user_id, car_id, start_date, end_date, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		b.UserID, b.CarID, b.StartDate.Format(dateLayout), b.EndDate.Format(dateLayout), b.TotalPrice, string(b.Status),
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*db.Booking, error) {
	b, err := scanBooking(r.DB.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying booking %d: %w", id, err)
	}
	return b, nil
}

// ListByUser returns one page of a user's bookings, newest first, and their total count.
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]db.Booking, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings WHERE user_id = $1", userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting bookings of user %d: %w", userID, err)
	}

	query := "SELECT " + bookingColumns + " FROM bookings WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3"
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying bookings of user %d: %w", userID, err)
	}
	defer rows.Close()

	bookings := []db.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error after iterating bookings: %w", err)
	}
	return bookings, total, nil
}

// UpdateStatus sets the status of booking id. When from is given the row only
// changes while its current status is one of them, and ErrStatusChanged
// reports that it no longer was.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status db.BookingStatus, from ...db.BookingStatus) error {
	query := "UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2"
	args := []any{string(status), id}
	if len(from) > 0 {
		query += " AND status = ANY($3)"
		args = append(args, pq.Array(statusStrings(from)))
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating booking %d: %w", id, err)
	}
	err = expectAffected(res)
	if errors.Is(err, ErrNotFound) && len(from) > 0 {
		return ErrStatusChanged
	}
	return err
}
