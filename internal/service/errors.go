package service

import (
	"errors"

	apperrors "carrental/internal/errors"
	"carrental/internal/validation"
)

var (
	errCarNotFound     = apperrors.ErrNotFound("Car not found")
	errUserNotFound    = apperrors.ErrNotFound("User not found")
	errBookingNotFound = apperrors.ErrNotFound("Booking not found")
	errNotCancellable  = apperrors.ErrBadRequest("Only pending or active bookings can be cancelled")
)

// invalid turns a validation failure into a 400 and passes other errors through.
func invalid(err error) error {
	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		return apperrors.ErrValidation(verr.Message, verr.Fields)
	}
	return err
}
