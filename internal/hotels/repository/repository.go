package repository

import (
	"context"

	"innkeep/pkg/model"
)

type HotelRepository interface {
	Create(ctx context.Context, hotel *model.Hotel) error
	FindByID(ctx context.Context, id string) (*model.Hotel, error)
	Update(ctx context.Context, hotel *model.Hotel) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, filter model.HotelFilter, limit int, offset int64) ([]*model.Hotel, error)
	Count(ctx context.Context, filter model.HotelFilter) (int64, error)
}
