package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carrental/internal/db"
	"carrental/internal/entities"
	apperrors "carrental/internal/errors"
	"carrental/internal/metrics"
	"carrental/internal/repository"
	"carrental/internal/upload"
	"carrental/internal/validation"
	"github.com/rs/zerolog"
)

const recentReviewLimit = 5

type CarStore interface {
	List(ctx context.Context, f repository.CarFilter) ([]db.Car, int, error)
	GetByID(ctx context.Context, id int64) (*db.Car, error)
	GetByIDAnyStatus(ctx context.Context, id int64) (*db.Car, error)
	Exists(ctx context.Context, id int64) (bool, error)
	RecentReviews(ctx context.Context, carID int64, limit int) ([]db.Review, error)
	Create(ctx context.Context, car *db.Car) error
	Update(ctx context.Context, id int64, req *entities.CarUpdateRequest, imageURL string) error
	Delete(ctx context.Context, id int64) error
}

type BookingCounter interface {
	CountBlockingForCar(ctx context.Context, carID int64) (int, error)
}

type AvailabilityChecker interface {
	IsAvailable(ctx context.Context, carID int64, start, end time.Time) (bool, error)
}

type ImageStore interface {
	SaveCarImage(f entities.Upload) (string, error)
	Delete(url string) error
}

type CarCache interface {
	Get(ctx context.Context, id int64) (*entities.CarDetail, bool)
	Set(ctx context.Context, id int64, detail *entities.CarDetail)
	Invalidate(ctx context.Context, id int64)
}

type CarService struct {
	cars     CarStore
	bookings BookingCounter
	checker  AvailabilityChecker
	images   ImageStore
	cache    CarCache
	log      *zerolog.Logger
	now      func() time.Time
}

func NewCarService(cars CarStore, bookings BookingCounter, checker AvailabilityChecker, images ImageStore, cache CarCache, logger *zerolog.Logger) *CarService {
	if cache == nil {
		cache = nopCache{}
	}
	return &CarService{
		cars:     cars,
		bookings: bookings,
		checker:  checker,
		images:   images,
		cache:    cache,
		log:      logger,
		now:      time.Now,
	}
}

type nopCache struct{}

func (nopCache) Get(context.Context, int64) (*entities.CarDetail, bool) { return nil, false }
func (nopCache) Set(context.Context, int64, *entities.CarDetail)        {}
func (nopCache) Invalidate(context.Context, int64)                      {}

func (s *CarService) List(ctx context.Context, req entities.CarSearchRequest) (*entities.CarList, error) {
	if req.Page == 0 {
		req.Page = entities.DefaultPage
	}
	if req.Limit == 0 {
		req.Limit = entities.DefaultLimit
	}
	if err := validation.Struct(&req); err != nil {
		return nil, invalid(err)
	}

	cars, total, err := s.cars.List(ctx, repository.CarFilter{
		Brand:        req.Brand,
		Transmission: req.Transmission,
		FuelType:     req.FuelType,
		MinPrice:     req.MinPrice,
		MaxPrice:     req.MaxPrice,
		Seats:        req.Seats,
		Search:       req.Search,
		Status:       req.Status,
		SortBy:       req.SortBy,
		SortOrder:    req.SortOrder,
		Limit:        req.Limit,
		Offset:       entities.Offset(req.Page, req.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing cars: %w", err)
	}
	return &entities.CarList{Cars: cars, Pagination: entities.NewPagination(req.Page, req.Limit, total)}, nil
}

// Get returns an active car with its latest reviews.
func (s *CarService) Get(ctx context.Context, id int64) (*entities.CarDetail, error) {
	if detail, ok := s.cache.Get(ctx, id); ok {
		return detail, nil
	}

	car, err := s.cars.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errCarNotFound
		}
		return nil, err
	}
	reviews, err := s.cars.RecentReviews(ctx, id, recentReviewLimit)
	if err != nil {
		return nil, err
	}

	detail := &entities.CarDetail{Car: car, Reviews: reviews}
	s.cache.Set(ctx, id, detail)
	return detail, nil
}

func (s *CarService) Create(ctx context.Context, req *entities.CarRequest, image *entities.Upload) (*db.Car, error) {
	if err := validation.Struct(req); err != nil {
		return nil, invalid(err)
	}

	imageURL, err := s.saveImage(image)
	if err != nil {
		return nil, err
	}

	car := &db.Car{
		Brand:        req.Brand,
		Model:        req.Model,
		Year:         req.Year,
		Transmission: req.Transmission,
		FuelType:     req.FuelType,
		Seats:        req.Seats,
		PricePerDay:  req.PricePerDay,
		Description:  req.Description,
		Features:     req.Features,
		ImageURL:     imageURL,
		LicensePlate: req.LicensePlate,
		Status:       req.Status,
	}
	if err := s.cars.Create(ctx, car); err != nil {
		s.discardImage(imageURL)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.ErrConflict("A car with this license plate already exists")
		}
		return nil, err
	}

	s.log.Info().Int64("car_id", car.ID).Str("plate", car.LicensePlate).Msg("car created")
	return car, nil
}

// Update applies a partial update. A new image replaces the old file on disk.
func (s *CarService) Update(ctx context.Context, id int64, req *entities.CarUpdateRequest, image *entities.Upload) (*db.Car, error) {
	if err := validation.Struct(req); err != nil {
		return nil, invalid(err)
	}

	existing, err := s.cars.GetByIDAnyStatus(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errCarNotFound
		}
		return nil, err
	}

	imageURL, err := s.saveImage(image)
	if err != nil {
		return nil, err
	}

	if err := s.cars.Update(ctx, id, req, imageURL); err != nil {
		s.discardImage(imageURL)
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.ErrConflict("A car with this license plate already exists")
		case errors.Is(err, repository.ErrNotFound):
			return nil, errCarNotFound
		}
		return nil, err
	}
	if imageURL != "" && existing.ImageURL != "" {
		s.discardImage(existing.ImageURL)
	}
	s.cache.Invalidate(ctx, id)

	return s.cars.GetByIDAnyStatus(ctx, id)
}

// Delete removes a car that holds no pending or active booking.
func (s *CarService) Delete(ctx context.Context, id int64) error {
	existing, err := s.cars.GetByIDAnyStatus(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errCarNotFound
		}
		return err
	}

	n, err := s.bookings.CountBlockingForCar(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperrors.ErrBadRequest("Cannot delete car with active bookings")
	}

	if err := s.cars.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errCarNotFound
		}
		return err
	}
	s.discardImage(existing.ImageURL)
	s.cache.Invalidate(ctx, id)

	s.log.Info().Int64("car_id", id).Msg("car deleted")
	return nil
}

// CheckAvailability validates the requested dates and asks the checker whether
// the car is free on all of them.
func (s *CarService) CheckAvailability(ctx context.Context, id int64, req entities.AvailabilityRequest) (*entities.AvailabilityResponse, error) {
	start, end, err := validation.DateRange(req.StartDate, req.EndDate, s.now())
	if err != nil {
		return nil, invalid(err)
	}

	exists, err := s.cars.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errCarNotFound
	}

	available, err := s.checker.IsAvailable(ctx, id, start, end)
	if err != nil {
		metrics.IncAvailabilityCheck("error")
		return nil, err
	}
	if available {
		metrics.IncAvailabilityCheck("available")
	} else {
		metrics.IncAvailabilityCheck("unavailable")
	}

	return &entities.AvailabilityResponse{
		Available: available,
		CarID:     id,
		StartDate: start.Format(validation.DateLayout),
		EndDate:   end.Format(validation.DateLayout),
	}, nil
}

func (s *CarService) saveImage(image *entities.Upload) (string, error) {
	if image == nil {
		return "", nil
	}
	url, err := s.images.SaveCarImage(*image)
	if err == nil {
		return url, nil
	}

	var tooLarge *upload.TooLargeError
	switch {
	case errors.Is(err, upload.ErrInvalidType):
		return "", apperrors.ErrBadRequest("Invalid file type. Only JPEG, PNG, and WebP images are allowed.")
	case errors.As(err, &tooLarge):
		return "", apperrors.ErrBadRequest(fmt.Sprintf("File size too large. Maximum size is %gMB.", tooLarge.MaxMB()))
	}
	return "", fmt.Errorf("saving car image: %w", err)
}

func (s *CarService) discardImage(url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(url); err != nil {
		s.log.Warn().Err(err).Str("image", url).Msg("could not remove car image")
	}
}
