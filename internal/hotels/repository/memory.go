package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	hotelserrors "innkeep/internal/hotels/errors"
	"innkeep/pkg/model"

	"github.com/google/uuid"
)

type memoryHotelRepository struct {
	mu     sync.RWMutex
	hotels map[string]*model.Hotel
}

func NewMemoryHotelRepository() HotelRepository {
	return &memoryHotelRepository{hotels: make(map[string]*model.Hotel)}
}

func cloneHotel(h *model.Hotel) *model.Hotel {
	c := *h
	c.Amenities = append([]string(nil), h.Amenities...)
	c.Images = append([]string(nil), h.Images...)
	return &c
}

func (r *memoryHotelRepository) Create(_ context.Context, hotel *model.Hotel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.hotels[hotel.ID]; exists {
		return fmt.Errorf("hotel %s already exists", hotel.ID)
	}
	r.hotels[hotel.ID] = cloneHotel(hotel)
	return nil
}

func (r *memoryHotelRepository) FindByID(_ context.Context, id string) (*model.Hotel, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", hotelserrors.ErrInvalidID, id)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hotels[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", hotelserrors.ErrNotFound, id)
	}
	return cloneHotel(h), nil
}

func (r *memoryHotelRepository) Update(_ context.Context, hotel *model.Hotel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hotels[hotel.ID]; !ok {
		return fmt.Errorf("%w: %s", hotelserrors.ErrNotFound, hotel.ID)
	}
	r.hotels[hotel.ID] = cloneHotel(hotel)
	return nil
}

func (r *memoryHotelRepository) Delete(_ context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", hotelserrors.ErrInvalidID, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hotels[id]; !ok {
		return fmt.Errorf("%w: %s", hotelserrors.ErrNotFound, id)
	}
	delete(r.hotels, id)
	return nil
}

func matches(h *model.Hotel, f model.HotelFilter) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		found := false
		for _, field := range []string{h.Name, h.Description, h.City, h.Address} {
			if strings.Contains(strings.ToLower(field), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.City != "" && !strings.EqualFold(h.City, f.City) {
		return false
	}
	if f.MinPrice != nil && h.PricePerNight.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && h.PricePerNight.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.MinRating != nil && h.Rating < *f.MinRating {
		return false
	}
	return true
}

func (r *memoryHotelRepository) filter(f model.HotelFilter) []*model.Hotel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Hotel
	for _, h := range r.hotels {
		if matches(h, f) {
			out = append(out, h)
		}
	}
	return out
}

func (r *memoryHotelRepository) Search(_ context.Context, f model.HotelFilter, limit int, offset int64) ([]*model.Hotel, error) {
	matched := r.filter(f)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	hotels := make([]*model.Hotel, 0, limit)
	for i := offset; i < int64(len(matched)) && len(hotels) < limit; i++ {
		hotels = append(hotels, cloneHotel(matched[i]))
	}
	return hotels, nil
}

func (r *memoryHotelRepository) Count(_ context.Context, f model.HotelFilter) (int64, error) {
	return int64(len(r.filter(f))), nil
}
