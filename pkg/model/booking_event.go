package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingModified  = "booking.modified"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
)

type BookingEvent struct {
	Type       string          `json:"type"`
	BookingID  string          `json:"booking_id"`
	HotelID    string          `json:"hotel_id"`
	UserID     string          `json:"user_id"`
	CheckIn    Date            `json:"check_in_date"`
	CheckOut   Date            `json:"check_out_date"`
	Status     BookingStatus   `json:"status"`
	TotalPrice decimal.Decimal `json:"total_price"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		HotelID:    b.HotelID,
		UserID:     b.UserID,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		Status:     b.Status,
		TotalPrice: b.TotalPrice,
		OccurredAt: at,
	}
}

// CheckoutEvent is emitted by the front desk when a guest leaves.
type CheckoutEvent struct {
	BookingID    string    `json:"booking_id"`
	CheckedOutAt time.Time `json:"checked_out_at"`
}
