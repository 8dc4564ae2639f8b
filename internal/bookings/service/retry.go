package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "innkeep/internal/bookings/errors"
)

// withConflictRetry reruns fn while it fails with ErrConflict, up to
// BookingMaxRetries extra attempts with linear backoff. fn must redo its own
// availability check on every attempt.
func (s *bookingService) withConflictRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= s.cfg.BookingMaxRetries; attempt++ {
		if err = fn(ctx); !errors.Is(err, bookingserrors.ErrConflict) {
			return err
		}
		if attempt == s.cfg.BookingMaxRetries {
			break
		}

		backoff := s.cfg.BookingRetryBackoff * time.Duration(attempt+1)
		s.cfg.Log.Debug("Retrying after booking conflict",
			"operation", op,
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

// inHotelTransaction runs fn inside the hotel's serialization point and one
// store transaction. The lock is released only after commit or rollback, and
// the transaction is cut off once the lock lease could have expired.
func (s *bookingService) inHotelTransaction(ctx context.Context, hotelID string, fn func(txCtx context.Context) error) error {
	release, err := s.locker.Acquire(ctx, hotelID)
	if err != nil {
		return err
	}
	defer release()

	leaseCtx, cancel := s.leaseContext(ctx)
	defer cancel()

	err = s.repo.ExecuteTransaction(leaseCtx, func(txCtx context.Context) error {
		if err := s.repo.LockHotel(txCtx, hotelID); err != nil {
			return err
		}
		return fn(txCtx)
	})
	if err != nil && leaseCtx.Err() != nil && ctx.Err() == nil {
		return fmt.Errorf("%w: lease for hotel %s expired: %v", bookingserrors.ErrConflict, hotelID, err)
	}
	return err
}

func (s *bookingService) leaseContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.LockTTL <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.LockTTL)
}
