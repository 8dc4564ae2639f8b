package service

import (
	"context"
	"fmt"
	"time"

	bookingserrors "innkeep/internal/bookings/errors"
	"innkeep/internal/bookings/repository"
	"innkeep/pkg/config"
)

// HotelDeletionGuard lets the hotel catalog delete a hotel through the same
// serialization point bookings use, so no booking can land between the check
// and the delete.
type HotelDeletionGuard struct {
	svc *bookingService
}

func NewHotelDeletionGuard(repo repository.BookingRepository, locker repository.HotelLocker, cfg *config.Config, opts ...Option) *HotelDeletionGuard {
	s := &bookingService{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return &HotelDeletionGuard{svc: s}
}

// GuardHotelDeletion runs deleteFn inside the hotel's transaction unless the
// hotel still has confirmed bookings that have not checked out. Errors from
// deleteFn are returned as they are.
func (g *HotelDeletionGuard) GuardHotelDeletion(ctx context.Context, hotelID string, deleteFn func(ctx context.Context) error) error {
	s := g.svc

	var deleteErr error
	err := s.withConflictRetry(ctx, "delete hotel", func(ctx context.Context) error {
		deleteErr = nil
		return s.inHotelTransaction(ctx, hotelID, func(txCtx context.Context) error {
			active, err := s.repo.CountActiveByHotel(txCtx, hotelID, s.today())
			if err != nil {
				return err
			}
			if active > 0 {
				return fmt.Errorf("%w: %d active", bookingserrors.ErrHotelHasBookings, active)
			}
			deleteErr = deleteFn(txCtx)
			return deleteErr
		})
	})
	if deleteErr != nil {
		return deleteErr
	}
	if err != nil {
		s.cfg.Log.Warn("Hotel deletion refused", "hotel_id", hotelID, "error", err)
		return toAppError(err, "Failed to check hotel bookings")
	}
	return nil
}
