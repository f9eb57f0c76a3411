package service

import (
	"context"
	"errors"
	"math"
	"time"

	"carrental/internal/db"
	"carrental/internal/entities"
	apperrors "carrental/internal/errors"
	"carrental/internal/metrics"
	"carrental/internal/repository"
	"carrental/internal/validation"
	"github.com/rs/zerolog"
)

type BookingStore interface {
	Create(ctx context.Context, b *db.Booking) error
	GetByID(ctx context.Context, id int64) (*db.Booking, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]db.Booking, int, error)
	UpdateStatus(ctx context.Context, id int64, status db.BookingStatus, from ...db.BookingStatus) error
}

type CarLookup interface {
	GetByIDAnyStatus(ctx context.Context, id int64) (*db.Car, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*db.User, error)
}

type BookingNotifier interface {
	BookingChanged(ctx context.Context, user *db.User, car *db.Car, b *db.Booking)
}

type BookingService struct {
	bookings BookingStore
	cars     CarLookup
	users    UserLookup
	checker  AvailabilityChecker
	notifier BookingNotifier
	log      *zerolog.Logger
	now      func() time.Time
	// async runs notification work off the request path.
	async func(func())
}

func NewBookingService(bookings BookingStore, cars CarLookup, users UserLookup, checker AvailabilityChecker, notifier BookingNotifier, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		bookings: bookings,
		cars:     cars,
		users:    users,
		checker:  checker,
		notifier: notifier,
		log:      logger,
		now:      time.Now,
		async:    func(f func()) { go f() },
	}
}

// Create books a car for the caller. The availability check and the insert are
// separate statements, so two concurrent requests for the same dates can both
// succeed.
func (s *BookingService) Create(ctx context.Context, userID int64, req *entities.CreateBookingRequest) (*db.Booking, error) {
	if err := validation.Struct(req); err != nil {
		return nil, invalid(err)
	}
	start, end, err := validation.DateRange(req.StartDate, req.EndDate, s.now())
	if err != nil {
		return nil, invalid(err)
	}

	car, err := s.cars.GetByIDAnyStatus(ctx, req.CarID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errCarNotFound
		}
		return nil, err
	}
	if car.Status != db.CarActive {
		return nil, apperrors.ErrBadRequest("Car is not available for booking")
	}

	available, err := s.checker.IsAvailable(ctx, car.ID, start, end)
	if err != nil {
		metrics.IncAvailabilityCheck("error")
		return nil, err
	}
	if !available {
		metrics.IncAvailabilityCheck("unavailable")
		return nil, apperrors.ErrConflict("Car is not available for the selected dates")
	}
	metrics.IncAvailabilityCheck("available")

	booking := &db.Booking{
		UserID:     userID,
		CarID:      car.ID,
		StartDate:  start,
		EndDate:    end,
		TotalPrice: TotalPrice(car.PricePerDay, start, end),
		Status:     db.BookingPending,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	metrics.IncBookingCreated()
	s.log.Info().Int64("booking_id", booking.ID).Int64("car_id", car.ID).Int64("user_id", userID).Msg("booking created")

	s.notify(ctx, userID, car, booking)
	return booking, nil
}

// TotalPrice charges one day per night between start and end.
func TotalPrice(pricePerDay float64, start, end time.Time) float64 {
	days := int(end.Sub(start).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return math.Round(float64(days)*pricePerDay*100) / 100
}

func (s *BookingService) List(ctx context.Context, userID int64, page, limit int) (*entities.BookingList, error) {
	if page < 1 {
		page = entities.DefaultPage
	}
	if limit < 1 || limit > 100 {
		limit = entities.DefaultLimit
	}
	bookings, total, err := s.bookings.ListByUser(ctx, userID, limit, entities.Offset(page, limit))
	if err != nil {
		return nil, err
	}
	return &entities.BookingList{Bookings: bookings, Pagination: entities.NewPagination(page, limit, total)}, nil
}

// Cancel cancels a pending or active booking. Customers may only cancel their own.
func (s *BookingService) Cancel(ctx context.Context, userID int64, isAdmin bool, bookingID int64) (*db.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != userID && !isAdmin {
		return nil, apperrors.ErrForbidden("You can only cancel your own bookings")
	}
	if !booking.Status.Blocking() {
		return nil, errNotCancellable
	}

	err = s.bookings.UpdateStatus(ctx, booking.ID, db.BookingCancelled, db.BlockingStatuses...)
	switch {
	case errors.Is(err, repository.ErrStatusChanged):
		return nil, errNotCancellable
	case err != nil:
		return nil, err
	}
	booking.Status = db.BookingCancelled
	metrics.IncBookingCancelled()
	s.log.Info().Int64("booking_id", booking.ID).Int64("by_user", userID).Msg("booking cancelled")

	if car, err := s.cars.GetByIDAnyStatus(ctx, booking.CarID); err == nil {
		s.notify(ctx, booking.UserID, car, booking)
	}
	return booking, nil
}

func (s *BookingService) notify(ctx context.Context, userID int64, car *db.Car, b *db.Booking) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	booking := *b
	s.async(func() {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Int64("booking_id", booking.ID).Msg("loading customer for notification")
			return
		}
		s.notifier.BookingChanged(ctx, user, car, &booking)
	})
}
