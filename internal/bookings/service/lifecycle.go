package service

import (
	"fmt"

	bookingserrors "innkeep/internal/bookings/errors"
	"innkeep/pkg/model"
)

func illegal(b *model.Booking, action string) error {
	return fmt.Errorf("%w: cannot %s a %s booking", bookingserrors.ErrIllegalTransition, action, b.Status)
}

func canModify(b *model.Booking) error {
	if b.Status != model.BookingConfirmed {
		return illegal(b, "modify")
	}
	return nil
}

// canCancel allows cancelling up to the day before check-in.
func canCancel(b *model.Booking, today model.Date) error {
	if b.Status != model.BookingConfirmed {
		return illegal(b, "cancel")
	}
	if !today.Before(b.CheckIn) {
		return fmt.Errorf("%w: check-in date %s has been reached", bookingserrors.ErrIllegalTransition, b.CheckIn)
	}
	return nil
}

func canComplete(b *model.Booking, today model.Date) error {
	if b.Status != model.BookingConfirmed {
		return illegal(b, "complete")
	}
	if today.Before(b.CheckOut) {
		return fmt.Errorf("%w: check-out date %s has not been reached", bookingserrors.ErrIllegalTransition, b.CheckOut)
	}
	return nil
}
