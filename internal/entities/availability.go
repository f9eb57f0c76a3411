package entities

// AvailabilityRequest carries ISO-8601 dates exactly as the client sent them.
type AvailabilityRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type AvailabilityResponse struct {
	Available bool   `json:"available"`
	CarID     int64  `json:"carId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
