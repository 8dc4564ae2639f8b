package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Hotel struct {
	ID             string          `json:"id"`
	Name           string          `json:"name" validate:"required,min=2,max=100"`
	Description    string          `json:"description,omitempty" validate:"max=2000"`
	Address        string          `json:"address" validate:"required,max=255"`
	City           string          `json:"city" validate:"required,max=100"`
	State          string          `json:"state,omitempty" validate:"max=100"`
	Country        string          `json:"country" validate:"required,max=100"`
	ZipCode        string          `json:"zip_code,omitempty" validate:"max=20"`
	Phone          string          `json:"phone,omitempty" validate:"omitempty,e164"`
	Email          string          `json:"email,omitempty" validate:"omitempty,email,max=120"`
	Website        string          `json:"website,omitempty" validate:"omitempty,url,max=255"`
	Rating         float64         `json:"rating" validate:"gte=0,lte=5"`
	PricePerNight  decimal.Decimal `json:"price_per_night" validate:"money"`
	TotalRooms     int             `json:"total_rooms" validate:"gte=0,max=100000"`
	AvailableRooms int             `json:"available_rooms" validate:"gte=0,ltefield=TotalRooms"`
	Amenities      []string        `json:"amenities" validate:"max=50,dive,min=1,max=50"`
	Images         []string        `json:"images" validate:"max=50,dive,url"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type HotelUpdate struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description    *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Address        *string          `json:"address,omitempty" validate:"omitempty,max=255"`
	City           *string          `json:"city,omitempty" validate:"omitempty,max=100"`
	State          *string          `json:"state,omitempty" validate:"omitempty,max=100"`
	Country        *string          `json:"country,omitempty" validate:"omitempty,max=100"`
	ZipCode        *string          `json:"zip_code,omitempty" validate:"omitempty,max=20"`
	Phone          *string          `json:"phone,omitempty"`
	Email          *string          `json:"email,omitempty" validate:"omitempty,email,max=120"`
	Website        *string          `json:"website,omitempty" validate:"omitempty,url,max=255"`
	Rating         *float64         `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	PricePerNight  *decimal.Decimal `json:"price_per_night,omitempty" validate:"omitempty,money"`
	TotalRooms     *int             `json:"total_rooms,omitempty" validate:"omitempty,gte=0,max=100000"`
	AvailableRooms *int             `json:"available_rooms,omitempty" validate:"omitempty,gte=0"`
	Amenities      *[]string        `json:"amenities,omitempty"`
	Images         *[]string        `json:"images,omitempty"`
}

// HotelFilter narrows catalog listings. Zero values mean "no constraint".
type HotelFilter struct {
	Query     string
	City      string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	MinRating *float64
}
