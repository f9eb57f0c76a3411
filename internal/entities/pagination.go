package entities

import "carrental/internal/db"

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

// Offset is the number of rows skipped before page.
func Offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

type CarList struct {
	Cars       []db.Car   `json:"cars"`
	Pagination Pagination `json:"pagination"`
}

type BookingList struct {
	Bookings   []db.Booking `json:"bookings"`
	Pagination Pagination   `json:"pagination"`
}
