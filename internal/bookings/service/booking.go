package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "innkeep/internal/bookings/errors"
	"innkeep/internal/bookings/repository"
	"innkeep/internal/bookings/validator"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/model"
	"innkeep/pkg/sanitizer"

	"github.com/google/uuid"
)

type BookingService interface {
	Create(ctx context.Context, userID string, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id, userID string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID string, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, int64, error)
	Modify(ctx context.Context, id, userID string, updates *model.BookingUpdate) (*model.Booking, error)
	Cancel(ctx context.Context, id, userID string) (*model.Booking, error)
	Complete(ctx context.Context, id string) (*model.Booking, error)
	CompleteDue(ctx context.Context) (int, error)
	CheckAvailability(ctx context.Context, hotelID string, checkIn, checkOut model.Date) (*model.Availability, error)
}

// HotelCatalog resolves a hotel's capacity and nightly rate. A missing hotel
// must be reported with an error matching hotels' ErrNotFound.
type HotelCatalog interface {
	GetByID(ctx context.Context, id string) (*model.Hotel, error)
}

// EventPublisher receives lifecycle events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, event model.BookingEvent) error
}

type Option func(*bookingService)

// WithClock replaces time.Now, mostly for tests that need a fixed "today".
func WithClock(now func() time.Time) Option {
	return func(s *bookingService) {
		s.now = now
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(s *bookingService) {
		s.publisher = p
	}
}

type bookingService struct {
	repo      repository.BookingRepository
	locker    repository.HotelLocker
	hotels    HotelCatalog
	publisher EventPublisher
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	locker repository.HotelLocker,
	hotels HotelCatalog,
	validator *validator.BookingValidator,
	cfg *config.Config,
	opts ...Option,
) BookingService {
	s := &bookingService{
		repo:      repo,
		locker:    locker,
		hotels:    hotels,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bookingService) today() model.Date {
	loc := s.cfg.HotelLocation
	if loc == nil {
		loc = time.UTC
	}
	return model.DateOf(s.now().In(loc))
}

func (s *bookingService) Create(ctx context.Context, userID string, req *model.BookingRequest) (*model.Booking, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("User identity is required")
	}

	s.sanitizeRequest(req)
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	rng, err := parseRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, toAppError(err, "")
	}
	if rng.CheckIn.Before(s.today()) {
		return nil, toAppError(bookingserrors.ErrPastCheckIn, "")
	}

	booking := &model.Booking{
		ID:              uuid.NewString(),
		HotelID:         req.HotelID,
		UserID:          userID,
		CheckIn:         rng.CheckIn,
		CheckOut:        rng.CheckOut,
		NumGuests:       req.NumGuests,
		RoomType:        req.RoomType,
		Status:          model.BookingConfirmed,
		SpecialRequests: req.SpecialRequests,
	}

	err = s.withConflictRetry(ctx, "create", func(ctx context.Context) error {
		return s.inHotelTransaction(ctx, booking.HotelID, func(txCtx context.Context) error {
			hotel, err := s.lookupHotel(txCtx, booking.HotelID)
			if err != nil {
				return err
			}

			remaining, err := s.remaining(txCtx, hotel, rng, "")
			if err != nil {
				return err
			}
			if remaining <= 0 {
				return bookingserrors.ErrNoAvailability
			}

			now := s.now().UTC()
			booking.TotalPrice = Price(rng.Nights(), hotel.PricePerNight)
			booking.CreatedAt = now
			booking.UpdatedAt = now
			return s.repo.Create(txCtx, booking)
		})
	})
	if err != nil {
		s.logFailure("create", booking, err)
		return nil, toAppError(err, "Failed to create booking")
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"hotel_id", booking.HotelID,
		"user_id", userID,
		"check_in", booking.CheckIn,
		"check_out", booking.CheckOut,
		"total_price", booking.TotalPrice,
	)
	s.publish(ctx, model.EventBookingCreated, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id, userID string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, toAppError(err, "Failed to retrieve booking")
	}
	if booking.UserID != userID {
		return nil, toAppError(bookingserrors.ErrForbidden, "")
	}
	return booking, nil
}

func (s *bookingService) ListByUser(ctx context.Context, userID string, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, int64, error) {
	if userID == "" {
		return nil, 0, apperrors.Unauthorized("User identity is required")
	}
	if status != "" && !status.Valid() {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Unknown booking status %q", status))
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByUser(ctx, userID, status)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "user_id", userID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByUser(ctx, userID, status, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"user_id", userID,
				"limit", limit,
				"offset", offset,
				"error", errFind,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) Modify(ctx context.Context, id, userID string, updates *model.BookingUpdate) (*model.Booking, error) {
	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	hotelID, err := s.hotelOf(ctx, id)
	if err != nil {
		return nil, toAppError(err, "Failed to retrieve booking")
	}

	var modified *model.Booking
	err = s.withConflictRetry(ctx, "modify", func(ctx context.Context) error {
		return s.inHotelTransaction(ctx, hotelID, func(txCtx context.Context) error {
			current, err := s.loadOwned(txCtx, id, userID)
			if err != nil {
				return err
			}
			if err := canModify(current); err != nil {
				return err
			}

			next, err := s.applyUpdate(txCtx, current, updates)
			if err != nil {
				return err
			}
			if err := s.repo.Update(txCtx, next); err != nil {
				return err
			}
			modified = next
			return nil
		})
	})
	if err != nil {
		s.logFailure("modify", &model.Booking{ID: id, HotelID: hotelID, UserID: userID}, err)
		return nil, toAppError(err, "Failed to update booking")
	}

	s.cfg.Log.Info("Booking modified successfully",
		"id", id,
		"hotel_id", hotelID,
		"check_in", modified.CheckIn,
		"check_out", modified.CheckOut,
		"total_price", modified.TotalPrice,
	)
	s.publish(ctx, model.EventBookingModified, modified)
	return modified, nil
}

// applyUpdate returns a copy of current with the edits applied. Date changes
// re-run range, past and availability checks and reprice the stay.
func (s *bookingService) applyUpdate(ctx context.Context, current *model.Booking, updates *model.BookingUpdate) (*model.Booking, error) {
	next := *current

	if updates.NumGuests != nil {
		next.NumGuests = *updates.NumGuests
	}
	if updates.RoomType != nil {
		next.RoomType = *updates.RoomType
	}
	if updates.SpecialRequests != nil {
		next.SpecialRequests = *updates.SpecialRequests
	}

	if updates.ChangesDates() {
		checkIn, checkOut := current.CheckIn.String(), current.CheckOut.String()
		if updates.CheckIn != nil {
			checkIn = *updates.CheckIn
		}
		if updates.CheckOut != nil {
			checkOut = *updates.CheckOut
		}

		rng, err := parseRange(checkIn, checkOut)
		if err != nil {
			return nil, err
		}

		if !rng.CheckIn.Equal(current.CheckIn) || !rng.CheckOut.Equal(current.CheckOut) {
			if !rng.CheckIn.Equal(current.CheckIn) && rng.CheckIn.Before(s.today()) {
				return nil, bookingserrors.ErrPastCheckIn
			}

			hotel, err := s.lookupHotel(ctx, current.HotelID)
			if err != nil {
				return nil, err
			}
			remaining, err := s.remaining(ctx, hotel, rng, current.ID)
			if err != nil {
				return nil, err
			}
			if remaining <= 0 {
				return nil, bookingserrors.ErrNoAvailability
			}

			next.CheckIn = rng.CheckIn
			next.CheckOut = rng.CheckOut
			next.TotalPrice = Price(rng.Nights(), hotel.PricePerNight)
		}
	}

	next.UpdatedAt = s.now().UTC()
	return &next, nil
}

func (s *bookingService) Cancel(ctx context.Context, id, userID string) (*model.Booking, error) {
	return s.transition(ctx, id, "cancel", model.EventBookingCancelled, func(txCtx context.Context) (*model.Booking, error) {
		b, err := s.loadOwned(txCtx, id, userID)
		if err != nil {
			return nil, err
		}
		if err := canCancel(b, s.today()); err != nil {
			return nil, err
		}
		b.Status = model.BookingCancelled
		return b, nil
	})
}

func (s *bookingService) Complete(ctx context.Context, id string) (*model.Booking, error) {
	return s.transition(ctx, id, "complete", model.EventBookingCompleted, func(txCtx context.Context) (*model.Booking, error) {
		b, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := canComplete(b, s.today()); err != nil {
			return nil, err
		}
		b.Status = model.BookingCompleted
		return b, nil
	})
}

// transition runs a status change under the hotel's serialization point so two
// status changes of the same booking never interleave.
func (s *bookingService) transition(ctx context.Context, id, action, eventType string, decide func(txCtx context.Context) (*model.Booking, error)) (*model.Booking, error) {
	hotelID, err := s.hotelOf(ctx, id)
	if err != nil {
		return nil, toAppError(err, "Failed to retrieve booking")
	}

	var updated *model.Booking
	err = s.withConflictRetry(ctx, action, func(ctx context.Context) error {
		return s.inHotelTransaction(ctx, hotelID, func(txCtx context.Context) error {
			b, err := decide(txCtx)
			if err != nil {
				return err
			}
			b.UpdatedAt = s.now().UTC()
			if err := s.repo.Update(txCtx, b); err != nil {
				return err
			}
			updated = b
			return nil
		})
	})
	if err != nil {
		s.logFailure(action, &model.Booking{ID: id, HotelID: hotelID}, err)
		return nil, toAppError(err, fmt.Sprintf("Failed to %s booking", action))
	}

	s.cfg.Log.Info("Booking status changed",
		"id", id,
		"hotel_id", hotelID,
		"status", updated.Status,
	)
	s.publish(ctx, eventType, updated)
	return updated, nil
}

// CompleteDue completes one batch of confirmed bookings whose check-out has
// passed. Bookings changed concurrently are skipped.
func (s *bookingService) CompleteDue(ctx context.Context) (int, error) {
	due, err := s.repo.FindDueForCompletion(ctx, s.today(), s.cfg.CompletionBatchSize)
	if err != nil {
		return 0, apperrors.Internal("Failed to find bookings due for completion", err)
	}

	completed := 0
	for _, b := range due {
		if ctx.Err() != nil {
			return completed, ctx.Err()
		}
		if _, err := s.Complete(ctx, b.ID); err != nil {
			if errors.Is(err, bookingserrors.ErrIllegalTransition) || errors.Is(err, bookingserrors.ErrNotFound) {
				continue
			}
			return completed, err
		}
		completed++
	}
	return completed, nil
}

func (s *bookingService) CheckAvailability(ctx context.Context, hotelID string, checkIn, checkOut model.Date) (*model.Availability, error) {
	rng, err := model.NewDateRange(checkIn, checkOut)
	if err != nil {
		return nil, toAppError(err, "")
	}

	hotel, err := s.lookupHotel(ctx, hotelID)
	if err != nil {
		return nil, toAppError(err, "Failed to retrieve hotel")
	}

	remaining, err := s.remaining(ctx, hotel, rng, "")
	if err != nil {
		s.cfg.Log.Error("Failed to check availability", "hotel_id", hotelID, "error", err)
		return nil, toAppError(err, "Failed to check availability")
	}

	return newAvailability(hotel, rng, remaining), nil
}

// --- Helpers ---

func parseRange(checkIn, checkOut string) (model.DateRange, error) {
	in, err := model.ParseDate(checkIn)
	if err != nil {
		return model.DateRange{}, fmt.Errorf("%w: %v", bookingserrors.ErrInvalidRange, err)
	}
	out, err := model.ParseDate(checkOut)
	if err != nil {
		return model.DateRange{}, fmt.Errorf("%w: %v", bookingserrors.ErrInvalidRange, err)
	}
	return model.NewDateRange(in, out)
}

func (s *bookingService) lookupHotel(ctx context.Context, hotelID string) (*model.Hotel, error) {
	if _, err := uuid.Parse(hotelID); err != nil {
		return nil, bookingserrors.ErrHotelNotFound
	}
	hotel, err := s.hotels.GetByID(ctx, hotelID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrHotelNotFound) {
			return nil, bookingserrors.ErrHotelNotFound
		}
		return nil, fmt.Errorf("failed to look up hotel %s: %w", hotelID, err)
	}
	return hotel, nil
}

// hotelOf reads the booking outside any lock to learn which hotel to lock.
// The hotel of a booking never changes.
func (s *bookingService) hotelOf(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", bookingserrors.ErrInvalidID
	}
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return b.HotelID, nil
}

func (s *bookingService) loadOwned(ctx context.Context, id, userID string) (*model.Booking, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, bookingserrors.ErrForbidden
	}
	return b, nil
}

func (s *bookingService) sanitizeRequest(req *model.BookingRequest) {
	req.HotelID = sanitizer.TrimAndNormalize(req.HotelID)
	req.CheckIn = sanitizer.TrimAndNormalize(req.CheckIn)
	req.CheckOut = sanitizer.TrimAndNormalize(req.CheckOut)
	req.RoomType = sanitizer.NormalizeLabel(req.RoomType)
	req.SpecialRequests = sanitizer.NormalizeText(req.SpecialRequests)
}

func (s *bookingService) sanitizeUpdate(u *model.BookingUpdate) {
	if u.CheckIn != nil {
		v := sanitizer.TrimAndNormalize(*u.CheckIn)
		u.CheckIn = &v
	}
	if u.CheckOut != nil {
		v := sanitizer.TrimAndNormalize(*u.CheckOut)
		u.CheckOut = &v
	}
	if u.RoomType != nil {
		v := sanitizer.NormalizeLabel(*u.RoomType)
		u.RoomType = &v
	}
	if u.SpecialRequests != nil {
		v := sanitizer.NormalizeText(*u.SpecialRequests)
		u.SpecialRequests = &v
	}
}

// logFailure keeps expected business outcomes at warn level.
func (s *bookingService) logFailure(action string, b *model.Booking, err error) {
	attrs := []any{"action", action, "id", b.ID, "hotel_id", b.HotelID, "error", err}
	switch {
	case errors.Is(err, bookingserrors.ErrNoAvailability),
		errors.Is(err, bookingserrors.ErrIllegalTransition),
		errors.Is(err, bookingserrors.ErrForbidden),
		errors.Is(err, bookingserrors.ErrNotFound),
		errors.Is(err, bookingserrors.ErrHotelNotFound),
		errors.Is(err, bookingserrors.ErrInvalidRange),
		errors.Is(err, bookingserrors.ErrPastCheckIn):
		s.cfg.Log.Info("Booking operation rejected", attrs...)
	case errors.Is(err, bookingserrors.ErrConflict):
		s.cfg.Log.Warn("Booking operation gave up after conflicts", attrs...)
	default:
		s.cfg.Log.Error("Booking operation failed", attrs...)
	}
}

func (s *bookingService) publish(ctx context.Context, eventType string, b *model.Booking) {
	if s.publisher == nil {
		return
	}
	event := model.NewBookingEvent(eventType, b, s.now().UTC())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to publish booking event",
			"type", eventType,
			"id", b.ID,
			"error", err,
		)
	}
}
