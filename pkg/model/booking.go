package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) IsTerminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

type Booking struct {
	ID              string          `json:"id"`
	HotelID         string          `json:"hotel_id"`
	UserID          string          `json:"user_id"`
	CheckIn         Date            `json:"check_in_date"`
	CheckOut        Date            `json:"check_out_date"`
	NumGuests       int             `json:"num_guests"`
	RoomType        string          `json:"room_type"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Status          BookingStatus   `json:"status"`
	SpecialRequests string          `json:"special_requests,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (b *Booking) Range() DateRange {
	return DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

// BookingRequest is the create payload. Dates stay strings until the coordinator
// builds the range so malformed and inverted ranges are reported separately.
type BookingRequest struct {
	HotelID         string `json:"hotel_id" validate:"required,uuid"`
	CheckIn         string `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOut        string `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	NumGuests       int    `json:"num_guests" validate:"required,min=1,max=20"`
	RoomType        string `json:"room_type" validate:"required,room_type"`
	SpecialRequests string `json:"special_requests,omitempty" validate:"max=1000"`
}

type BookingUpdate struct {
	CheckIn         *string `json:"check_in_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CheckOut        *string `json:"check_out_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	NumGuests       *int    `json:"num_guests,omitempty" validate:"omitempty,min=1,max=20"`
	RoomType        *string `json:"room_type,omitempty" validate:"omitempty,room_type"`
	SpecialRequests *string `json:"special_requests,omitempty" validate:"omitempty,max=1000"`
}

func (u *BookingUpdate) ChangesDates() bool {
	return u.CheckIn != nil || u.CheckOut != nil
}

type Availability struct {
	HotelID        string          `json:"hotel_id"`
	CheckIn        Date            `json:"check_in"`
	CheckOut       Date            `json:"check_out"`
	Nights         int             `json:"nights"`
	RemainingRooms int             `json:"available_rooms"`
	TotalRooms     int             `json:"total_rooms"`
	PricePerNight  decimal.Decimal `json:"price_per_night"`
	EstimatedPrice decimal.Decimal `json:"estimated_price"`
	IsAvailable    bool            `json:"is_available"`
}
