package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	bookingserrors "innkeep/internal/bookings/errors"
	"innkeep/pkg/model"

	"github.com/google/uuid"
)

type memoryTxKey struct{}

// memoryTx stages writes until the callback returns without error.
type memoryTx struct {
	writes map[string]*model.Booking
	order  []string
}

type memoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*model.Booking
}

// NewMemoryBookingRepository keeps bookings in process. It gives all-or-nothing
// commits but no isolation, so it must be paired with a HotelLocker.
func NewMemoryBookingRepository() BookingRepository {
	return &memoryBookingRepository{
		bookings: make(map[string]*model.Booking),
	}
}

func clone(b *model.Booking) *model.Booking {
	c := *b
	return &c
}

func txFrom(ctx context.Context) *memoryTx {
	tx, _ := ctx.Value(memoryTxKey{}).(*memoryTx)
	return tx
}

func (r *memoryBookingRepository) lookup(ctx context.Context, id string) (*model.Booking, bool) {
	if tx := txFrom(ctx); tx != nil {
		if b, ok := tx.writes[id]; ok {
			return b, true
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	return b, ok
}

// snapshot returns committed bookings overlaid with the writes staged in ctx.
func (r *memoryBookingRepository) snapshot(ctx context.Context) []*model.Booking {
	r.mu.RLock()
	merged := make(map[string]*model.Booking, len(r.bookings))
	for id, b := range r.bookings {
		merged[id] = b
	}
	r.mu.RUnlock()

	if tx := txFrom(ctx); tx != nil {
		for id, b := range tx.writes {
			merged[id] = b
		}
	}

	out := make([]*model.Booking, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	return out
}

func (r *memoryBookingRepository) write(ctx context.Context, b *model.Booking) {
	if tx := txFrom(ctx); tx != nil {
		if _, staged := tx.writes[b.ID]; !staged {
			tx.order = append(tx.order, b.ID)
		}
		tx.writes[b.ID] = clone(b)
		return
	}
	r.mu.Lock()
	r.bookings[b.ID] = clone(b)
	r.mu.Unlock()
}

func (r *memoryBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if _, exists := r.lookup(ctx, booking.ID); exists {
		return fmt.Errorf("%w: booking %s already exists", bookingserrors.ErrConflict, booking.ID)
	}
	r.write(ctx, booking)
	return nil
}

func (r *memoryBookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	if _, exists := r.lookup(ctx, booking.ID); !exists {
		return bookingserrors.ErrNotFound
	}
	r.write(ctx, booking)
	return nil
}

func (r *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	b, ok := r.lookup(ctx, id)
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return clone(b), nil
}

func (r *memoryBookingRepository) filterUser(ctx context.Context, userID string, status model.BookingStatus) []*model.Booking {
	var out []*model.Booking
	for _, b := range r.snapshot(ctx) {
		if b.UserID != userID || (status != "" && b.Status != status) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (r *memoryBookingRepository) FindByUser(ctx context.Context, userID string, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, error) {
	matched := r.filterUser(ctx, userID, status)
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	bookings := make([]*model.Booking, 0, limit)
	for i := offset; i < int64(len(matched)) && len(bookings) < limit; i++ {
		bookings = append(bookings, clone(matched[i]))
	}
	return bookings, nil
}

func (r *memoryBookingRepository) CountByUser(ctx context.Context, userID string, status model.BookingStatus) (int64, error) {
	return int64(len(r.filterUser(ctx, userID, status))), nil
}

func (r *memoryBookingRepository) CountConfirmedOverlapping(ctx context.Context, hotelID string, rng model.DateRange, excludeID string) (int, error) {
	count := 0
	for _, b := range r.snapshot(ctx) {
		if b.HotelID != hotelID || b.Status != model.BookingConfirmed || b.ID == excludeID {
			continue
		}
		if b.Range().Overlaps(rng) {
			count++
		}
	}
	return count, nil
}

func (r *memoryBookingRepository) CountActiveByHotel(ctx context.Context, hotelID string, today model.Date) (int, error) {
	count := 0
	for _, b := range r.snapshot(ctx) {
		if b.HotelID == hotelID && b.Status == model.BookingConfirmed && b.CheckOut.After(today) {
			count++
		}
	}
	return count, nil
}

func (r *memoryBookingRepository) FindDueForCompletion(ctx context.Context, today model.Date, limit int) ([]*model.Booking, error) {
	var due []*model.Booking
	for _, b := range r.snapshot(ctx) {
		if b.Status == model.BookingConfirmed && !b.CheckOut.After(today) {
			due = append(due, b)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].CheckOut.Equal(due[j].CheckOut) {
			return due[i].CheckOut.Before(due[j].CheckOut)
		}
		return due[i].ID < due[j].ID
	})
	if len(due) > limit {
		due = due[:limit]
	}

	out := make([]*model.Booking, 0, len(due))
	for _, b := range due {
		out = append(out, clone(b))
	}
	return out, nil
}

func (r *memoryBookingRepository) LockHotel(context.Context, string) error {
	return nil
}

func (r *memoryBookingRepository) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx := &memoryTx{writes: make(map[string]*model.Booking)}
	if err := fn(context.WithValue(ctx, memoryTxKey{}, tx)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range tx.order {
		r.bookings[id] = tx.writes[id]
	}
	return nil
}
