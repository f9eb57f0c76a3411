package entities

import (
	"io"

	"carrental/internal/db"
)

type CarRequest struct {
	Brand        string   `json:"brand" validate:"required,min=2,max=50"`
	Model        string   `json:"model" validate:"required,min=2,max=50"`
	Year         int      `json:"year" validate:"required,min=1990,maxyear"`
	Transmission string   `json:"transmission" validate:"required,oneof=manual automatic cvt"`
	FuelType     string   `json:"fuelType" validate:"required,oneof=petrol diesel electric hybrid"`
	Seats        int      `json:"seats" validate:"required,min=2,max=9"`
	PricePerDay  float64  `json:"pricePerDay" validate:"required,gt=0"`
	Description  string   `json:"description" validate:"max=1000"`
	Features     []string `json:"features" validate:"max=20,dive,max=100"`
	LicensePlate string   `json:"licensePlate" validate:"required,min=3,max=20,plate"`
	Status       string   `json:"status" validate:"omitempty,oneof=active inactive maintenance"`
}

// CarUpdateRequest is a partial update; nil fields are left unchanged.
type CarUpdateRequest struct {
	Brand        *string  `json:"brand" validate:"omitempty,min=2,max=50"`
	Model        *string  `json:"model" validate:"omitempty,min=2,max=50"`
	Year         *int     `json:"year" validate:"omitempty,min=1990,maxyear"`
	Transmission *string  `json:"transmission" validate:"omitempty,oneof=manual automatic cvt"`
	FuelType     *string  `json:"fuelType" validate:"omitempty,oneof=petrol diesel electric hybrid"`
	Seats        *int     `json:"seats" validate:"omitempty,min=2,max=9"`
	PricePerDay  *float64 `json:"pricePerDay" validate:"omitempty,gt=0"`
	Description  *string  `json:"description" validate:"omitempty,max=1000"`
	Features     []string `json:"features" validate:"omitempty,max=20,dive,max=100"`
	LicensePlate *string  `json:"licensePlate" validate:"omitempty,min=3,max=20,plate"`
	Status       *string  `json:"status" validate:"omitempty,oneof=active inactive maintenance"`
}

type CarSearchRequest struct {
	Page         int      `json:"page" validate:"min=1"`
	Limit        int      `json:"limit" validate:"min=1,max=100"`
	Brand        string   `json:"brand" validate:"max=50"`
	Transmission string   `json:"transmission" validate:"omitempty,oneof=manual automatic cvt"`
	FuelType     string   `json:"fuelType" validate:"omitempty,oneof=petrol diesel electric hybrid"`
	MinPrice     *float64 `json:"minPrice" validate:"omitempty,gt=0"`
	MaxPrice     *float64 `json:"maxPrice" validate:"omitempty,gt=0"`
	Seats        *int     `json:"seats" validate:"omitempty,min=2,max=9"`
	Search       string   `json:"search" validate:"max=100"`
	Status       string   `json:"status" validate:"omitempty,oneof=active inactive maintenance"`
	SortBy       string   `json:"sortBy" validate:"omitempty,oneof=price year brand model created_at"`
	SortOrder    string   `json:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type CarDetail struct {
	Car     *db.Car     `json:"car"`
	Reviews []db.Review `json:"reviews"`
}

// Upload is a file received with a car form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
