package service

import (
	"context"
	"time"

	"carrental/internal/db"
	"carrental/internal/entities"
	"carrental/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func fixedNow() time.Time {
	return time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
}

type mockCarStore struct {
	mock.Mock
}

func (m *mockCarStore) List(ctx context.Context, f repository.CarFilter) ([]db.Car, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]db.Car), args.Int(1), args.Error(2)
}

func (m *mockCarStore) GetByID(ctx context.Context, id int64) (*db.Car, error) {
	args := m.Called(ctx, id)
	car, _ := args.Get(0).(*db.Car)
	return car, args.Error(1)
}

func (m *mockCarStore) GetByIDAnyStatus(ctx context.Context, id int64) (*db.Car, error) {
	args := m.Called(ctx, id)
	car, _ := args.Get(0).(*db.Car)
	return car, args.Error(1)
}

func (m *mockCarStore) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockCarStore) RecentReviews(ctx context.Context, carID int64, limit int) ([]db.Review, error) {
	args := m.Called(ctx, carID, limit)
	return args.Get(0).([]db.Review), args.Error(1)
}

func (m *mockCarStore) Create(ctx context.Context, car *db.Car) error {
	return m.Called(ctx, car).Error(0)
}

func (m *mockCarStore) Update(ctx context.Context, id int64, req *entities.CarUpdateRequest, imageURL string) error {
	return m.Called(ctx, id, req, imageURL).Error(0)
}

func (m *mockCarStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockBookingCounter struct {
	mock.Mock
}

func (m *mockBookingCounter) CountBlockingForCar(ctx context.Context, carID int64) (int, error) {
	args := m.Called(ctx, carID)
	return args.Int(0), args.Error(1)
}

type mockChecker struct {
	mock.Mock
}

func (m *mockChecker) IsAvailable(ctx context.Context, carID int64, start, end time.Time) (bool, error) {
	args := m.Called(ctx, carID, start, end)
	return args.Bool(0), args.Error(1)
}

type mockImages struct {
	mock.Mock
}

func (m *mockImages) SaveCarImage(f entities.Upload) (string, error) {
	args := m.Called(f)
	return args.String(0), args.Error(1)
}

func (m *mockImages) Delete(url string) error {
	return m.Called(url).Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, id int64) (*entities.CarDetail, bool) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*entities.CarDetail)
	return d, args.Bool(1)
}

func (m *mockCache) Set(ctx context.Context, id int64, detail *entities.CarDetail) {
	m.Called(ctx, id, detail)
}

func (m *mockCache) Invalidate(ctx context.Context, id int64) {
	m.Called(ctx, id)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *db.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*db.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*db.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*db.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id int64, firstName, lastName, phone *string) (*db.User, error) {
	args := m.Called(ctx, id, firstName, lastName, phone)
	u, _ := args.Get(0).(*db.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

type mockBookingStore struct {
	mock.Mock
}

func (m *mockBookingStore) Create(ctx context.Context, b *db.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingStore) GetByID(ctx context.Context, id int64) (*db.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*db.Booking)
	return b, args.Error(1)
}

func (m *mockBookingStore) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]db.Booking, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]db.Booking), args.Int(1), args.Error(2)
}

func (m *mockBookingStore) UpdateStatus(ctx context.Context, id int64, status db.BookingStatus, from ...db.BookingStatus) error {
	return m.Called(ctx, id, status, from).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) BookingChanged(ctx context.Context, user *db.User, car *db.Car, b *db.Booking) {
	m.Called(ctx, user, car, b)
}

type mockJobStore struct {
	mock.Mock
}

func (m *mockJobStore) ActivateStartedBookings(ctx context.Context, today time.Time) (int64, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockJobStore) CompleteFinishedBookings(ctx context.Context, today time.Time) (int64, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockJobStore) ExpireStalePending(ctx context.Context, day time.Time) (int64, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(int64), args.Error(1)
}
