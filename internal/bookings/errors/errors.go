package errors

import (
	"errors"
	"fmt"

	hotelserrors "innkeep/internal/hotels/errors"
	"innkeep/pkg/model"
)

var (
	ErrNotFound = errors.New("booking not found")

	// ErrInvalidID is a NotFound: no booking can have an id of the wrong shape.
	ErrInvalidID = fmt.Errorf("%w: invalid booking ID format", ErrNotFound)

	ErrInvalidRange = model.ErrInvalidRange

	ErrPastCheckIn = errors.New("check-in date cannot be in the past")

	// ErrHotelNotFound is the catalog's sentinel so lookups need no translation.
	ErrHotelNotFound = hotelserrors.ErrNotFound

	ErrForbidden = errors.New("booking belongs to another user")

	ErrIllegalTransition = errors.New("booking status does not allow this operation")

	ErrNoAvailability = errors.New("no rooms available for the selected dates")

	// ErrHotelHasBookings blocks deleting a hotel that still holds inventory for
	// a current or upcoming stay.
	ErrHotelHasBookings = errors.New("hotel has current or upcoming bookings")

	// ErrConflict means the hotel's serialization point could not be taken in time
	// or the store aborted the transaction. Callers may retry.
	ErrConflict = errors.New("concurrent booking conflict")
)

// Domain error codes carried on the AppError that wraps each sentinel.
const (
	CodeInvalidRange      = "INVALID_RANGE"
	CodePastCheckIn       = "PAST_CHECK_IN"
	CodeHotelNotFound     = "HOTEL_NOT_FOUND"
	CodeIllegalTransition = "ILLEGAL_TRANSITION"
	CodeNoAvailability    = "NO_AVAILABILITY"
	CodeHotelHasBookings  = "HOTEL_HAS_BOOKINGS"
)
