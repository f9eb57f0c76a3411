package db

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// BlockingStatuses are the booking states that hold a car.
var BlockingStatuses = []BookingStatus{BookingPending, BookingActive}

// Blocking reports whether a booking in this state prevents other bookings of the same car.
func (s BookingStatus) Blocking() bool {
	return s == BookingPending || s == BookingActive
}

const (
	CarActive      = "active"
	CarInactive    = "inactive"
	CarMaintenance = "maintenance"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Car struct {
	ID            int64     `json:"id"`
	Brand         string    `json:"brand"`
	Model         string    `json:"model"`
	Year          int       `json:"year"`
	Transmission  string    `json:"transmission"`
	FuelType      string    `json:"fuelType"`
	Seats         int       `json:"seats"`
	PricePerDay   float64   `json:"pricePerDay"`
	Description   string    `json:"description"`
	Features      []string  `json:"features"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	LicensePlate  string    `json:"licensePlate"`
	Status        string    `json:"status"`
	AverageRating float64   `json:"averageRating"`
	ReviewCount   int       `json:"reviewCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Booking dates are calendar dates; both ends are inclusive.
type Booking struct {
	ID         int64         `json:"id"`
	UserID     int64         `json:"userId"`
	CarID      int64         `json:"carId"`
	StartDate  time.Time     `json:"startDate"`
	EndDate    time.Time     `json:"endDate"`
	TotalPrice float64       `json:"totalPrice"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

type Review struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}
