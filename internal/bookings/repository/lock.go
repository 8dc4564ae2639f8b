package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "innkeep/internal/bookings/errors"

	"github.com/google/uuid"
)

const lockKeyPrefix = "hotel_lock_"

func lockKey(hotelID string) string {
	return lockKeyPrefix + hotelID
}

func newOwnerToken() string {
	return uuid.NewString()
}

// pollAcquire calls try every interval until it reports success, fails, or
// timeout passes. A timeout surfaces as ErrConflict so the caller can retry.
func pollAcquire(ctx context.Context, hotelID string, timeout, interval time.Duration, try func(ctx context.Context) (bool, error)) error {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := try(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire lock for hotel %s: %w", hotelID, err)
		}
		if ok {
			return nil
		}
		if time.Now().Add(interval).After(deadline) {
			return fmt.Errorf("%w: lock for hotel %s is held", bookingserrors.ErrConflict, hotelID)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// releaseContext detaches release from the request so a cancelled caller still frees the lock.
func releaseContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

type noopLocker struct{}

// NewNoopLocker is used when the store serializes writers itself (row locks).
func NewNoopLocker() HotelLocker {
	return noopLocker{}
}

func (noopLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}
