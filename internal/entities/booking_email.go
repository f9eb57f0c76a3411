package entities

type BookingEmailData struct {
	UserName           string
	BookingID          int64
	CarName            string
	LicensePlate       string
	StartDateFormatted string
	EndDateFormatted   string
	TotalPrice         string
	Status             string
	CurrentYear        int
}
