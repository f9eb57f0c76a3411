package entities

type CreateBookingRequest struct {
	CarID     int64  `json:"carId" validate:"required,gt=0"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
