package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"carrental/internal/availability"
	"carrental/internal/db"
	"carrental/internal/entities"
	apperrors "carrental/internal/errors"
	"carrental/internal/repository"
	"carrental/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type carDeps struct {
	cars     *mockCarStore
	bookings *mockBookingCounter
	checker  *mockChecker
	images   *mockImages
	cache    *mockCache
}

func newCarService() (*CarService, carDeps) {
	d := carDeps{
		cars:     new(mockCarStore),
		bookings: new(mockBookingCounter),
		checker:  new(mockChecker),
		images:   new(mockImages),
		cache:    new(mockCache),
	}
	svc := NewCarService(d.cars, d.bookings, d.checker, d.images, d.cache, nopLogger())
	svc.now = fixedNow
	return svc, d
}

func requireHTTPError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	httpErr, ok := apperrors.As(err)
	require.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, code, httpErr.Code)
	assert.Equal(t, msg, httpErr.Message)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCarService_CheckAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("available", func(t *testing.T) {
		svc, d := newCarService()
		d.cars.On("Exists", ctx, int64(1)).Return(true, nil).Once()
		d.checker.On("IsAvailable", ctx, int64(1), day(2024, 1, 16), day(2024, 1, 20)).Return(true, nil).Once()

		resp, err := svc.CheckAvailability(ctx, 1, entities.AvailabilityRequest{StartDate: "2024-01-16", EndDate: "2024-01-20"})
		require.NoError(t, err)
		assert.Equal(t, &entities.AvailabilityResponse{Available: true, CarID: 1, StartDate: "2024-01-16", EndDate: "2024-01-20"}, resp)
		d.checker.AssertExpectations(t)
	})

	t.Run("unavailable", func(t *testing.T) {
		svc, d := newCarService()
		d.cars.On("Exists", ctx, int64(1)).Return(true, nil).Once()
		d.checker.On("IsAvailable", ctx, int64(1), mock.Anything, mock.Anything).Return(false, nil).Once()

		resp, err := svc.CheckAvailability(ctx, 1, entities.AvailabilityRequest{StartDate: "2024-01-15", EndDate: "2024-01-20"})
		require.NoError(t, err)
		assert.False(t, resp.Available)
	})

	t.Run("same day is rejected before the checker", func(t *testing.T) {
		svc, d := newCarService()

		_, err := svc.CheckAvailability(ctx, 1, entities.AvailabilityRequest{StartDate: "2024-01-15", EndDate: "2024-01-15"})
		requireHTTPError(t, err, http.StatusBadRequest, "End date must be after start date")
		d.checker.AssertNotCalled(t, "IsAvailable", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing dates", func(t *testing.T) {
		svc, _ := newCarService()

		_, err := svc.CheckAvailability(ctx, 1, entities.AvailabilityRequest{StartDate: "2024-01-15"})
		requireHTTPError(t, err, http.StatusBadRequest, "Start date and end date are required")
	})

	t.Run("unknown car", func(t *testing.T) {
		svc, d := newCarService()
		d.cars.On("Exists", ctx, int64(99)).Return(false, nil).Once()

		_, err := svc.CheckAvailability(ctx, 99, entities.AvailabilityRequest{StartDate: "2024-01-16", EndDate: "2024-01-20"})
		requireHTTPError(t, err, http.StatusNotFound, "Car not found")
	})

	t.Run("store failure", func(t *testing.T) {
		svc, d := newCarService()
		storeErr := errors.Join(availability.ErrStore, errors.New("timeout"))
		d.cars.On("Exists", ctx, int64(1)).Return(true, nil).Once()
		d.checker.On("IsAvailable", ctx, int64(1), mock.Anything, mock.Anything).Return(false, storeErr).Once()

		resp, err := svc.CheckAvailability(ctx, 1, entities.AvailabilityRequest{StartDate: "2024-01-16", EndDate: "2024-01-20"})
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, availability.ErrStore)
		_, isHTTP := apperrors.As(err)
		assert.False(t, isHTTP)
	})
}

func TestCarService_ListDefaults(t *testing.T) {
	ctx := context.Background()
	svc, d := newCarService()
	d.cars.On("List", ctx, repository.CarFilter{Limit: 10, Offset: 0}).Return([]db.Car{{ID: 1}}, 21, nil).Once()

	list, err := svc.List(ctx, entities.CarSearchRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Cars, 1)
	assert.Equal(t, entities.Pagination{Page: 1, Limit: 10, Total: 21, TotalPages: 3, HasMore: true}, list.Pagination)
}

func TestCarService_ListRejectsBadSort(t *testing.T) {
	svc, _ := newCarService()

	_, err := svc.List(context.Background(), entities.CarSearchRequest{SortBy: "id"})
	requireHTTPError(t, err, http.StatusBadRequest, "Sort field must be one of: price, year, brand, model, created_at")
}

func TestCarService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("from store, then cached", func(t *testing.T) {
		svc, d := newCarService()
		car := &db.Car{ID: 2, Brand: "Honda"}
		d.cache.On("Get", ctx, int64(2)).Return(nil, false).Once()
		d.cars.On("GetByID", ctx, int64(2)).Return(car, nil).Once()
		d.cars.On("RecentReviews", ctx, int64(2), 5).Return([]db.Review{}, nil).Once()
		d.cache.On("Set", ctx, int64(2), mock.AnythingOfType("*entities.CarDetail")).Once()

		detail, err := svc.Get(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, car, detail.Car)
		d.cache.AssertExpectations(t)
	})

	t.Run("cache hit skips the store", func(t *testing.T) {
		svc, d := newCarService()
		cached := &entities.CarDetail{Car: &db.Car{ID: 2}}
		d.cache.On("Get", ctx, int64(2)).Return(cached, true).Once()

		detail, err := svc.Get(ctx, 2)
		require.NoError(t, err)
		assert.Same(t, cached, detail)
		d.cars.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		svc, d := newCarService()
		d.cache.On("Get", ctx, int64(3)).Return(nil, false).Once()
		d.cars.On("GetByID", ctx, int64(3)).Return(nil, repository.ErrNotFound).Once()

		_, err := svc.Get(ctx, 3)
		requireHTTPError(t, err, http.StatusNotFound, "Car not found")
	})
}

func carRequest() *entities.CarRequest {
	return &entities.CarRequest{
		Brand:        "Toyota",
		Model:        "Camry",
		Year:         2023,
		Transmission: "automatic",
		FuelType:     "petrol",
		Seats:        5,
		PricePerDay:  45,
		LicensePlate: "CAM-2023",
	}
}

func TestCarService_CreateWithImage(t *testing.T) {
	ctx := context.Background()
	svc, d := newCarService()
	img := &entities.Upload{Filename: "a.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")}

	d.images.On("SaveCarImage", *img).Return("/uploads/cars/car-1.png", nil).Once()
	d.cars.On("Create", ctx, mock.MatchedBy(func(c *db.Car) bool {
		return c.ImageURL == "/uploads/cars/car-1.png" && c.LicensePlate == "CAM-2023"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*db.Car).ID = 10
	}).Return(nil).Once()

	car, err := svc.Create(ctx, carRequest(), img)
	require.NoError(t, err)
	assert.Equal(t, int64(10), car.ID)
}

func TestCarService_CreateDuplicateDiscardsImage(t *testing.T) {
	ctx := context.Background()
	svc, d := newCarService()
	img := &entities.Upload{Filename: "a.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")}

	d.images.On("SaveCarImage", *img).Return("/uploads/cars/car-1.png", nil).Once()
	d.cars.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicate).Once()
	d.images.On("Delete", "/uploads/cars/car-1.png").Return(nil).Once()

	_, err := svc.Create(ctx, carRequest(), img)
	requireHTTPError(t, err, http.StatusConflict, "A car with this license plate already exists")
	d.images.AssertExpectations(t)
}

func TestCarService_CreateRejectsBadImage(t *testing.T) {
	ctx := context.Background()
	svc, d := newCarService()
	img := &entities.Upload{Filename: "a.gif", ContentType: "image/gif"}
	d.images.On("SaveCarImage", *img).Return("", upload.ErrInvalidType).Once()

	_, err := svc.Create(ctx, carRequest(), img)
	requireHTTPError(t, err, http.StatusBadRequest, "Invalid file type. Only JPEG, PNG, and WebP images are allowed.")

	big := &entities.Upload{Filename: "a.png", ContentType: "image/png", Size: 10 << 20}
	d.images.On("SaveCarImage", *big).Return("", &upload.TooLargeError{Max: 5 << 20}).Once()
	_, err = svc.Create(ctx, carRequest(), big)
	requireHTTPError(t, err, http.StatusBadRequest, "File size too large. Maximum size is 5MB.")
	d.cars.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCarService_UpdateReplacesImage(t *testing.T) {
	ctx := context.Background()
	svc, d := newCarService()
	price := 55.0
	req := &entities.CarUpdateRequest{PricePerDay: &price}
	img := &entities.Upload{Filename: "b.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")}
	updated := &db.Car{ID: 4, PricePerDay: 55, ImageURL: "/uploads/cars/new.png"}

	d.cars.On("GetByIDAnyStatus", ctx, int64(4)).Return(&db.Car{ID: 4, ImageURL: "/uploads/cars/old.png"}, nil).Once()
	d.images.On("SaveCarImage", *img).Return("/uploads/cars/new.png", nil).Once()
	d.cars.On("Update", ctx, int64(4), req, "/uploads/cars/new.png").Return(nil).Once()
	d.images.On("Delete", "/uploads/cars/old.png").Return(nil).Once()
	d.cache.On("Invalidate", ctx, int64(4)).Once()
	d.cars.On("GetByIDAnyStatus", ctx, int64(4)).Return(updated, nil).Once()

	car, err := svc.Update(ctx, 4, req, img)
	require.NoError(t, err)
	assert.Equal(t, updated, car)
	d.images.AssertExpectations(t)
	d.cache.AssertExpectations(t)
}

func TestCarService_UpdateUnknownCar(t *testing.T) {
	ctx := context.Background()
	svc, d := newCarService()
	d.cars.On("GetByIDAnyStatus", ctx, int64(4)).Return(nil, repository.ErrNotFound).Once()

	_, err := svc.Update(ctx, 4, &entities.CarUpdateRequest{}, nil)
	requireHTTPError(t, err, http.StatusNotFound, "Car not found")
}

func TestCarService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("blocked by bookings", func(t *testing.T) {
		svc, d := newCarService()
		d.cars.On("GetByIDAnyStatus", ctx, int64(5)).Return(&db.Car{ID: 5}, nil).Once()
		d.bookings.On("CountBlockingForCar", ctx, int64(5)).Return(1, nil).Once()

		err := svc.Delete(ctx, 5)
		requireHTTPError(t, err, http.StatusBadRequest, "Cannot delete car with active bookings")
		d.cars.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("removes image and cache entry", func(t *testing.T) {
		svc, d := newCarService()
		d.cars.On("GetByIDAnyStatus", ctx, int64(5)).Return(&db.Car{ID: 5, ImageURL: "/uploads/cars/x.png"}, nil).Once()
		d.bookings.On("CountBlockingForCar", ctx, int64(5)).Return(0, nil).Once()
		d.cars.On("Delete", ctx, int64(5)).Return(nil).Once()
		d.images.On("Delete", "/uploads/cars/x.png").Return(nil).Once()
		d.cache.On("Invalidate", ctx, int64(5)).Once()

		require.NoError(t, svc.Delete(ctx, 5))
		d.images.AssertExpectations(t)
		d.cache.AssertExpectations(t)
	})

	t.Run("unknown car", func(t *testing.T) {
		svc, d := newCarService()
		d.cars.On("GetByIDAnyStatus", ctx, int64(6)).Return(nil, repository.ErrNotFound).Once()

		requireHTTPError(t, svc.Delete(ctx, 6), http.StatusNotFound, "Car not found")
	})
}
