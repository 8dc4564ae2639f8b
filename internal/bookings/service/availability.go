package service

import (
	"context"
	"fmt"

	"innkeep/pkg/model"
)

// RemainingRooms never goes negative even if capacity was lowered below current bookings.
func RemainingRooms(availableRooms, overlappingConfirmed int) int {
	return max(0, availableRooms-overlappingConfirmed)
}

// remaining counts against the store every time; there is no cached counter.
func (s *bookingService) remaining(ctx context.Context, hotel *model.Hotel, rng model.DateRange, excludeID string) (int, error) {
	overlapping, err := s.repo.CountConfirmedOverlapping(ctx, hotel.ID, rng, excludeID)
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}
	return RemainingRooms(hotel.AvailableRooms, overlapping), nil
}

func newAvailability(hotel *model.Hotel, rng model.DateRange, remaining int) *model.Availability {
	return &model.Availability{
		HotelID:        hotel.ID,
		CheckIn:        rng.CheckIn,
		CheckOut:       rng.CheckOut,
		Nights:         rng.Nights(),
		RemainingRooms: remaining,
		TotalRooms:     hotel.TotalRooms,
		PricePerNight:  hotel.PricePerNight,
		EstimatedPrice: Price(rng.Nights(), hotel.PricePerNight),
		IsAvailable:    remaining > 0,
	}
}
