package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	hotelserrors "innkeep/internal/hotels/errors"
	"innkeep/internal/hotels/repository"
	"innkeep/internal/hotels/validator"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/model"
	"innkeep/pkg/sanitizer"

	"github.com/google/uuid"
)

type HotelService interface {
	Create(ctx context.Context, hotel *model.Hotel) (*model.Hotel, error)
	GetByID(ctx context.Context, id string) (*model.Hotel, error)
	Update(ctx context.Context, id string, updates *model.HotelUpdate) (*model.Hotel, error)
	Search(ctx context.Context, filter model.HotelFilter, limit int, offset int64) ([]*model.Hotel, int64, error)
	Delete(ctx context.Context, id string) error
}

// BookingGuard runs a hotel deletion while new bookings for the hotel are held
// off, and refuses it while the hotel has current or upcoming stays.
type BookingGuard interface {
	GuardHotelDeletion(ctx context.Context, hotelID string, deleteFn func(ctx context.Context) error) error
}

type unguarded struct{}

func (unguarded) GuardHotelDeletion(ctx context.Context, _ string, deleteFn func(ctx context.Context) error) error {
	return deleteFn(ctx)
}

type Option func(*hotelService)

func WithBookingGuard(guard BookingGuard) Option {
	return func(s *hotelService) {
		s.guard = guard
	}
}

type hotelService struct {
	repo      repository.HotelRepository
	validator *validator.HotelValidator
	guard     BookingGuard
	cfg       *config.Config
	now       func() time.Time
}

func NewHotelService(
	repo repository.HotelRepository,
	validator *validator.HotelValidator,
	cfg *config.Config,
	opts ...Option,
) HotelService {
	s := &hotelService{
		repo:      repo,
		validator: validator,
		guard:     unguarded{},
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// toAppError keeps the hotels sentinel in the chain; the booking coordinator
// relies on errors.Is(err, ErrNotFound) through this service.
func toAppError(err error, id, fallback string) error {
	switch {
	case errors.Is(err, hotelserrors.ErrNotFound):
		return apperrors.Wrap(err, apperrors.CodeNotFound, "Hotel not found", http.StatusNotFound).
			WithDetail("id", id)
	case errors.Is(err, hotelserrors.ErrInvalidID):
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "Invalid hotel ID format", http.StatusBadRequest)
	case errors.Is(err, hotelserrors.ErrInvalidFilter):
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("Hotel operation timed out")
	case apperrors.IsAppError(err):
		return err
	}
	return apperrors.Internal(fallback, err)
}

func (s *hotelService) Create(ctx context.Context, hotel *model.Hotel) (*model.Hotel, error) {
	s.sanitize(hotel)

	if err := s.validator.Validate(hotel); err != nil {
		s.cfg.Log.Warn("Hotel validation failed",
			"name", hotel.Name,
			"city", hotel.City,
			"error", err,
		)
		return nil, apperrors.Validation("Hotel validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	now := s.now().UTC()
	hotel.ID = uuid.NewString()
	hotel.CreatedAt = now
	hotel.UpdatedAt = now

	if err := s.repo.Create(ctx, hotel); err != nil {
		s.cfg.Log.Error("Failed to create hotel",
			"name", hotel.Name,
			"error", err,
		)
		return nil, toAppError(err, hotel.ID, "Failed to create hotel")
	}

	s.cfg.Log.Info("Hotel created successfully",
		"id", hotel.ID,
		"name", hotel.Name,
		"city", hotel.City,
		"available_rooms", hotel.AvailableRooms,
	)
	return hotel, nil
}

func (s *hotelService) GetByID(ctx context.Context, id string) (*model.Hotel, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Hotel ID cannot be empty")
	}

	hotel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, hotelserrors.ErrNotFound) && !errors.Is(err, hotelserrors.ErrInvalidID) {
			s.cfg.Log.Error("Failed to get hotel by ID",
				"id", id,
				"error", err,
			)
		}
		return nil, toAppError(err, id, "Failed to retrieve hotel")
	}
	return hotel, nil
}

// Delete removes a hotel that has no confirmed stay left to serve. Past,
// cancelled and completed bookings keep their hotel_id as history.
func (s *hotelService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Hotel ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return toAppError(fmt.Errorf("%w: %s", hotelserrors.ErrInvalidID, id), id, "")
	}

	err := s.guard.GuardHotelDeletion(ctx, id, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		if !errors.Is(err, hotelserrors.ErrNotFound) && !apperrors.IsAppError(err) {
			s.cfg.Log.Error("Failed to delete hotel",
				"id", id,
				"error", err,
			)
		}
		return toAppError(err, id, "Failed to delete hotel")
	}

	s.cfg.Log.Info("Hotel deleted successfully", "id", id)
	return nil
}

func (s *hotelService) Update(ctx context.Context, id string, updates *model.HotelUpdate) (*model.Hotel, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Hotel ID cannot be empty")
	}

	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, apperrors.Validation("Hotel validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, toAppError(err, id, "Failed to check hotel existence")
	}

	merged := mergeHotelUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Hotel validation failed",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Validation("Hotel validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	merged.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, merged); err != nil {
		s.cfg.Log.Error("Failed to update hotel",
			"id", id,
			"error", err,
		)
		return nil, toAppError(err, id, "Failed to update hotel")
	}

	s.cfg.Log.Info("Hotel updated successfully",
		"id", id,
		"name", merged.Name,
	)
	return merged, nil
}

func (s *hotelService) Search(ctx context.Context, filter model.HotelFilter, limit int, offset int64) ([]*model.Hotel, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	filter.Query = sanitizer.TrimAndNormalize(filter.Query)
	filter.City = sanitizer.NormalizeCity(filter.City)
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, 0, toAppError(
			fmt.Errorf("%w: min_price cannot exceed max_price", hotelserrors.ErrInvalidFilter), "", "")
	}

	var count int64
	var hotels []*model.Hotel
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count hotels", "error", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		hotels, errFind = s.repo.Search(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to search hotels",
				"limit", limit,
				"offset", offset,
				"error", errFind,
			)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, toAppError(errCount, "", "Failed to count hotels")
	}
	if errFind != nil {
		return nil, 0, toAppError(errFind, "", "Failed to retrieve hotels")
	}
	return hotels, count, nil
}

func (s *hotelService) sanitize(h *model.Hotel) {
	h.Name = sanitizer.NormalizeName(h.Name)
	h.Description = sanitizer.NormalizeText(h.Description)
	h.Address = sanitizer.TrimAndNormalize(h.Address)
	h.City = sanitizer.NormalizeCity(h.City)
	h.State = sanitizer.TrimAndNormalize(h.State)
	h.Country = sanitizer.TrimAndNormalize(h.Country)
	h.ZipCode = sanitizer.TrimAndNormalize(h.ZipCode)
	h.Phone = sanitizer.NormalizePhone(h.Phone)
	h.Email = sanitizer.TrimAndNormalize(h.Email)
	h.Website = sanitizer.NormalizeURL(h.Website)
	h.Amenities = sanitizer.NormalizeAmenities(h.Amenities)
	h.Images = sanitizer.NormalizeImages(h.Images)
}

func (s *hotelService) sanitizeUpdate(u *model.HotelUpdate) {
	normalize := func(p *string, fn func(string) string) {
		if p != nil {
			*p = fn(*p)
		}
	}
	normalize(u.Name, sanitizer.NormalizeName)
	normalize(u.Description, sanitizer.NormalizeText)
	normalize(u.Address, sanitizer.TrimAndNormalize)
	normalize(u.City, sanitizer.NormalizeCity)
	normalize(u.State, sanitizer.TrimAndNormalize)
	normalize(u.Country, sanitizer.TrimAndNormalize)
	normalize(u.ZipCode, sanitizer.TrimAndNormalize)
	normalize(u.Phone, sanitizer.NormalizePhone)
	normalize(u.Email, sanitizer.TrimAndNormalize)
	normalize(u.Website, sanitizer.NormalizeURL)
	if u.Amenities != nil {
		amenities := sanitizer.NormalizeAmenities(*u.Amenities)
		u.Amenities = &amenities
	}
	if u.Images != nil {
		images := sanitizer.NormalizeImages(*u.Images)
		u.Images = &images
	}
}

func mergeHotelUpdates(existing *model.Hotel, u *model.HotelUpdate) *model.Hotel {
	merged := *existing

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&merged.Name, u.Name)
	setString(&merged.Description, u.Description)
	setString(&merged.Address, u.Address)
	setString(&merged.City, u.City)
	setString(&merged.State, u.State)
	setString(&merged.Country, u.Country)
	setString(&merged.ZipCode, u.ZipCode)
	setString(&merged.Phone, u.Phone)
	setString(&merged.Email, u.Email)
	setString(&merged.Website, u.Website)

	if u.Rating != nil {
		merged.Rating = *u.Rating
	}
	if u.PricePerNight != nil {
		merged.PricePerNight = *u.PricePerNight
	}
	if u.TotalRooms != nil {
		merged.TotalRooms = *u.TotalRooms
	}
	if u.AvailableRooms != nil {
		merged.AvailableRooms = *u.AvailableRooms
	}
	if u.Amenities != nil {
		merged.Amenities = *u.Amenities
	}
	if u.Images != nil {
		merged.Images = *u.Images
	}
	return &merged
}
