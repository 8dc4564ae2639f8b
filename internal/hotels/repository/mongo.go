package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	hotelserrors "innkeep/internal/hotels/errors"
	"innkeep/pkg/config"
	"innkeep/pkg/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Hotels"
)

type hotelDocument struct {
	ID             string               `bson:"_id"`
	Name           string               `bson:"name"`
	Description    string               `bson:"description,omitempty"`
	Address        string               `bson:"address"`
	City           string               `bson:"city"`
	State          string               `bson:"state,omitempty"`
	Country        string               `bson:"country"`
	ZipCode        string               `bson:"zip_code,omitempty"`
	Phone          string               `bson:"phone,omitempty"`
	Email          string               `bson:"email,omitempty"`
	Website        string               `bson:"website,omitempty"`
	Rating         float64              `bson:"rating"`
	PricePerNight  primitive.Decimal128 `bson:"price_per_night"`
	TotalRooms     int                  `bson:"total_rooms"`
	AvailableRooms int                  `bson:"available_rooms"`
	Amenities      []string             `bson:"amenities"`
	Images         []string             `bson:"images"`
	CreatedAt      time.Time            `bson:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to encode decimal %s: %w", d, err)
	}
	return v, nil
}

func toDocument(h *model.Hotel) (*hotelDocument, error) {
	price, err := toDecimal128(h.PricePerNight)
	if err != nil {
		return nil, err
	}
	return &hotelDocument{
		ID:             h.ID,
		Name:           h.Name,
		Description:    h.Description,
		Address:        h.Address,
		City:           h.City,
		State:          h.State,
		Country:        h.Country,
		ZipCode:        h.ZipCode,
		Phone:          h.Phone,
		Email:          h.Email,
		Website:        h.Website,
		Rating:         h.Rating,
		PricePerNight:  price,
		TotalRooms:     h.TotalRooms,
		AvailableRooms: h.AvailableRooms,
		Amenities:      h.Amenities,
		Images:         h.Images,
		CreatedAt:      h.CreatedAt,
		UpdatedAt:      h.UpdatedAt,
	}, nil
}

func (d *hotelDocument) toModel() (*model.Hotel, error) {
	price, err := decimal.NewFromString(d.PricePerNight.String())
	if err != nil {
		return nil, fmt.Errorf("failed to decode price of hotel %s: %w", d.ID, err)
	}
	return &model.Hotel{
		ID:             d.ID,
		Name:           d.Name,
		Description:    d.Description,
		Address:        d.Address,
		City:           d.City,
		State:          d.State,
		Country:        d.Country,
		ZipCode:        d.ZipCode,
		Phone:          d.Phone,
		Email:          d.Email,
		Website:        d.Website,
		Rating:         d.Rating,
		PricePerNight:  price,
		TotalRooms:     d.TotalRooms,
		AvailableRooms: d.AvailableRooms,
		Amenities:      d.Amenities,
		Images:         d.Images,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}

type mongoHotelRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoHotelRepository(cfg *config.Config) HotelRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHotelRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout leaves session-bound contexts alone so reads made inside a
// booking transaction stay in it.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongo.SessionFromContext(ctx) != nil {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoHotelRepository) Create(ctx context.Context, hotel *model.Hotel) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	doc, err := toDocument(hotel)
	if err != nil {
		return err
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create hotel: %w", err)
	}
	return nil
}

func (r *mongoHotelRepository) FindByID(ctx context.Context, id string) (*model.Hotel, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", hotelserrors.ErrInvalidID, id)
	}

	var doc hotelDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", hotelserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find hotel: %w", err)
	}
	return doc.toModel()
}

func (r *mongoHotelRepository) Update(ctx context.Context, hotel *model.Hotel) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	doc, err := toDocument(hotel)
	if err != nil {
		return err
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return fmt.Errorf("failed to update hotel: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", hotelserrors.ErrNotFound, doc.ID)
	}
	return nil
}

func (r *mongoHotelRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", hotelserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete hotel: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", hotelserrors.ErrNotFound, id)
	}
	return nil
}

func buildFilter(f model.HotelFilter) (bson.M, error) {
	filter := bson.M{}

	if f.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"city": pattern},
			bson.M{"address": pattern},
		}
	}
	if f.City != "" {
		filter["city"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.City) + "$", Options: "i"}
	}

	price := bson.M{}
	if f.MinPrice != nil {
		v, err := toDecimal128(*f.MinPrice)
		if err != nil {
			return nil, err
		}
		price["$gte"] = v
	}
	if f.MaxPrice != nil {
		v, err := toDecimal128(*f.MaxPrice)
		if err != nil {
			return nil, err
		}
		price["$lte"] = v
	}
	if len(price) > 0 {
		filter["price_per_night"] = price
	}

	if f.MinRating != nil {
		filter["rating"] = bson.M{"$gte": *f.MinRating}
	}
	return filter, nil
}

func (r *mongoHotelRepository) Search(ctx context.Context, f model.HotelFilter, limit int, offset int64) ([]*model.Hotel, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter, err := buildFilter(f)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query hotels: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []hotelDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode hotels: %w", err)
	}

	hotels := make([]*model.Hotel, 0, len(docs))
	for i := range docs {
		h, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		hotels = append(hotels, h)
	}
	return hotels, nil
}

func (r *mongoHotelRepository) Count(ctx context.Context, f model.HotelFilter) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter, err := buildFilter(f)
	if err != nil {
		return 0, err
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count hotels: %w", err)
	}
	return count, nil
}
