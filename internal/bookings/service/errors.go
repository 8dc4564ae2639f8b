package service

import (
	"context"
	"errors"
	"net/http"

	bookingserrors "innkeep/internal/bookings/errors"
	apperrors "innkeep/pkg/errors"
)

// toAppError maps domain sentinels to the HTTP-facing error. The sentinel stays
// in the chain so errors.Is keeps working for callers.
func toAppError(err error, fallback string) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, bookingserrors.ErrInvalidRange):
		return apperrors.Wrap(err, bookingserrors.CodeInvalidRange, "Check-out date must be after check-in date", http.StatusBadRequest)
	case errors.Is(err, bookingserrors.ErrPastCheckIn):
		return apperrors.Wrap(err, bookingserrors.CodePastCheckIn, "Check-in date cannot be in the past", http.StatusBadRequest)
	case errors.Is(err, bookingserrors.ErrHotelNotFound):
		return apperrors.Wrap(err, bookingserrors.CodeHotelNotFound, "Hotel not found", http.StatusNotFound)
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.Wrap(err, apperrors.CodeNotFound, "Booking not found", http.StatusNotFound)
	case errors.Is(err, bookingserrors.ErrForbidden):
		return apperrors.Wrap(err, apperrors.CodeForbidden, "Booking belongs to another user", http.StatusForbidden)
	case errors.Is(err, bookingserrors.ErrIllegalTransition):
		return apperrors.Wrap(err, bookingserrors.CodeIllegalTransition, err.Error(), http.StatusConflict)
	case errors.Is(err, bookingserrors.ErrNoAvailability):
		return apperrors.Wrap(err, bookingserrors.CodeNoAvailability, "No rooms available for the selected dates", http.StatusConflict)
	case errors.Is(err, bookingserrors.ErrHotelHasBookings):
		return apperrors.Wrap(err, bookingserrors.CodeHotelHasBookings, "Hotel still has current or upcoming bookings", http.StatusConflict)
	case errors.Is(err, bookingserrors.ErrConflict):
		return apperrors.Wrap(err, apperrors.CodeConflict, "The hotel is busy with another booking, please retry", http.StatusConflict).
			WithDetail("retryable", true)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("Booking operation timed out")
	case apperrors.IsAppError(err):
		return err
	}
	return apperrors.Internal(fallback, err)
}
