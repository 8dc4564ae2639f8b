package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	bookingserrors "innkeep/internal/bookings/errors"
)

type memoryHotelLocker struct {
	mu      sync.Mutex
	slots   map[string]chan struct{}
	timeout time.Duration
}

// NewMemoryHotelLocker serializes writers within one process.
func NewMemoryHotelLocker(timeout time.Duration) HotelLocker {
	return &memoryHotelLocker{
		slots:   make(map[string]chan struct{}),
		timeout: timeout,
	}
}

func (l *memoryHotelLocker) slot(hotelID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[hotelID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[hotelID] = ch
	}
	return ch
}

func (l *memoryHotelLocker) Acquire(ctx context.Context, hotelID string) (func(), error) {
	ch := l.slot(hotelID)

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: lock for hotel %s is held", bookingserrors.ErrConflict, hotelID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
