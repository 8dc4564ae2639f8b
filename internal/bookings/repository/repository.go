package repository

import (
	"context"

	"innkeep/pkg/model"
)

type TransactionFunc func(ctx context.Context) error

// BookingRepository is the booking store. Every method called with the context
// handed to an ExecuteTransaction callback takes part in that transaction.
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	Update(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByUser(ctx context.Context, userID string, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, error)
	CountByUser(ctx context.Context, userID string, status model.BookingStatus) (int64, error)

	// CountConfirmedOverlapping counts confirmed bookings of hotelID whose stay
	// overlaps r, ignoring excludeID when it is not empty.
	CountConfirmedOverlapping(ctx context.Context, hotelID string, r model.DateRange, excludeID string) (int, error)

	// CountActiveByHotel counts confirmed bookings of hotelID that have not
	// checked out yet, i.e. check_out > today.
	CountActiveByHotel(ctx context.Context, hotelID string, today model.Date) (int, error)

	// FindDueForCompletion returns confirmed bookings with check_out <= today, oldest first.
	FindDueForCompletion(ctx context.Context, today model.Date, limit int) ([]*model.Booking, error)

	// LockHotel takes the store-native lock on the hotel row for the rest of the
	// transaction. Stores that rely on an external HotelLocker do nothing.
	LockHotel(ctx context.Context, hotelID string) error

	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

// HotelLocker is the per-hotel serialization point around count-then-write.
// Acquire waits a bounded time and fails with ErrConflict instead of blocking.
type HotelLocker interface {
	Acquire(ctx context.Context, hotelID string) (release func(), err error)
}
