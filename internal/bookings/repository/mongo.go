package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "innkeep/internal/bookings/errors"
	"innkeep/pkg/config"
	mongotx "innkeep/pkg/db/mongo"
	"innkeep/pkg/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName       = "Bookings"
	MarkerCollectionName = "Hotel_write_markers"
)

type bookingDocument struct {
	ID              string               `bson:"_id"`
	HotelID         string               `bson:"hotel_id"`
	UserID          string               `bson:"user_id"`
	CheckIn         time.Time            `bson:"check_in_date"`
	CheckOut        time.Time            `bson:"check_out_date"`
	NumGuests       int                  `bson:"num_guests"`
	RoomType        string               `bson:"room_type"`
	TotalPrice      primitive.Decimal128 `bson:"total_price"`
	Status          string               `bson:"status"`
	SpecialRequests string               `bson:"special_requests,omitempty"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

func toDocument(b *model.Booking) (*bookingDocument, error) {
	price, err := primitive.ParseDecimal128(b.TotalPrice.String())
	if err != nil {
		return nil, fmt.Errorf("failed to encode total price %s: %w", b.TotalPrice, err)
	}
	return &bookingDocument{
		ID:              b.ID,
		HotelID:         b.HotelID,
		UserID:          b.UserID,
		CheckIn:         b.CheckIn.Time(),
		CheckOut:        b.CheckOut.Time(),
		NumGuests:       b.NumGuests,
		RoomType:        b.RoomType,
		TotalPrice:      price,
		Status:          string(b.Status),
		SpecialRequests: b.SpecialRequests,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}, nil
}

func (d *bookingDocument) toModel() (*model.Booking, error) {
	price, err := decimal.NewFromString(d.TotalPrice.String())
	if err != nil {
		return nil, fmt.Errorf("failed to decode total price of booking %s: %w", d.ID, err)
	}
	return &model.Booking{
		ID:              d.ID,
		HotelID:         d.HotelID,
		UserID:          d.UserID,
		CheckIn:         model.DateOf(d.CheckIn.UTC()),
		CheckOut:        model.DateOf(d.CheckOut.UTC()),
		NumGuests:       d.NumGuests,
		RoomType:        d.RoomType,
		TotalPrice:      price,
		Status:          model.BookingStatus(d.Status),
		SpecialRequests: d.SpecialRequests,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	markers    *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		markers:    db.Collection(MarkerCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout bounds standalone calls. Inside a transaction the session context
// is returned unchanged so the operation stays bound to the session.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongo.SessionFromContext(ctx) != nil {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}

	return context.WithTimeout(ctx, timeout)
}

func mongoWriteError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) || mongotx.IsTransient(err) {
		return fmt.Errorf("%w: %s: %v", bookingserrors.ErrConflict, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	doc, err := toDocument(booking)
	if err != nil {
		return err
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return mongoWriteError("create booking", err)
	}
	return nil
}

func (r *mongoBookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	doc, err := toDocument(booking)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"check_in_date":    doc.CheckIn,
			"check_out_date":   doc.CheckOut,
			"num_guests":       doc.NumGuests,
			"room_type":        doc.RoomType,
			"total_price":      doc.TotalPrice,
			"status":           doc.Status,
			"special_requests": doc.SpecialRequests,
			"updated_at":       doc.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": doc.ID}, update)
	if err != nil {
		return mongoWriteError("update booking", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var doc bookingDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return doc.toModel()
}

func userFilter(userID string, status model.BookingStatus) bson.M {
	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = string(status)
	}
	return filter
}

func (r *mongoBookingRepository) FindByUser(ctx context.Context, userID string, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, userFilter(userID, status), opts)
}

func (r *mongoBookingRepository) CountByUser(ctx context.Context, userID string, status model.BookingStatus) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, userFilter(userID, status))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) CountConfirmedOverlapping(ctx context.Context, hotelID string, rng model.DateRange, excludeID string) (int, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"hotel_id":       hotelID,
		"status":         string(model.BookingConfirmed),
		"check_in_date":  bson.M{"$lt": rng.CheckOut.Time()},
		"check_out_date": bson.M{"$gt": rng.CheckIn.Time()},
	}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}
	return int(count), nil
}

func (r *mongoBookingRepository) CountActiveByHotel(ctx context.Context, hotelID string, today model.Date) (int, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"hotel_id":       hotelID,
		"status":         string(model.BookingConfirmed),
		"check_out_date": bson.M{"$gt": today.Time()},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count active bookings: %w", err)
	}
	return int(count), nil
}

func (r *mongoBookingRepository) FindDueForCompletion(ctx context.Context, today model.Date, limit int) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":         string(model.BookingConfirmed),
		"check_out_date": bson.M{"$lte": today.Time()},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "check_out_date", Value: 1}}).
		SetLimit(int64(limit))

	return r.find(ctx, filter, opts)
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bookingDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	bookings := make([]*model.Booking, 0, len(docs))
	for i := range docs {
		b, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

// LockHotel bumps the hotel's write marker inside the transaction. A second
// transaction on the same hotel then hits a write conflict and fails with
// ErrConflict, whether or not the lock lease is still held.
func (r *mongoBookingRepository) LockHotel(ctx context.Context, hotelID string) error {
	if mongo.SessionFromContext(ctx) == nil {
		return fmt.Errorf("LockHotel requires a transaction")
	}

	_, err := r.markers.UpdateOne(ctx,
		bson.M{"_id": hotelID},
		bson.M{
			"$inc": bson.M{"version": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// The conflict is wrapped without its labels so the driver does not
		// rerun the callback; the service retry redoes the availability check.
		return mongoWriteError("mark hotel write", err)
	}
	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	err := r.txManager.ExecuteTransaction(ctx, mongotx.TransactionFunc(fn))
	if err != nil && mongotx.IsTransient(err) && !errors.Is(err, bookingserrors.ErrConflict) {
		return fmt.Errorf("%w: %v", bookingserrors.ErrConflict, err)
	}
	return err
}
