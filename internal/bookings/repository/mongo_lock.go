package repository

import (
	"context"
	"time"

	"innkeep/pkg/config"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Hotel_locks"

type mongoHotelLocker struct {
	collection *mongo.Collection
	ttl        time.Duration
	timeout    time.Duration
	interval   time.Duration
	log        *logger.Logger
	now        func() time.Time
}

// NewMongoHotelLocker stores one document per held lock. The unique _id makes a
// second insert fail, and expires_at lets a stale holder be taken over.
func NewMongoHotelLocker(cfg *config.Config) HotelLocker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHotelLocker{
		collection: db.Collection(LockCollectionName),
		ttl:        cfg.LockTTL,
		timeout:    cfg.LockAcquireTimeout,
		interval:   cfg.LockRetryInterval,
		log:        cfg.Log,
		now:        time.Now,
	}
}

func (l *mongoHotelLocker) Acquire(ctx context.Context, hotelID string) (func(), error) {
	key := lockKey(hotelID)
	owner := newOwnerToken()

	err := pollAcquire(ctx, hotelID, l.timeout, l.interval, func(ctx context.Context) (bool, error) {
		return l.tryAcquire(ctx, key, hotelID, owner)
	})
	if err != nil {
		return nil, err
	}

	return func() {
		ctx, cancel := releaseContext()
		defer cancel()
		if _, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": owner}); err != nil {
			l.log.Warn("failed to release hotel lock",
				"hotel_id", hotelID,
				"error", err,
			)
		}
	}, nil
}

func (l *mongoHotelLocker) tryAcquire(ctx context.Context, key, hotelID, owner string) (bool, error) {
	now := l.now()
	lock := model.HotelLock{
		ID:        key,
		HotelID:   hotelID,
		Owner:     owner,
		ExpiresAt: now.Add(l.ttl),
		CreatedAt: now,
	}

	_, err := l.collection.InsertOne(ctx, lock)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, err
	}

	// Held. Take it over only if the holder let it expire.
	result, err := l.collection.UpdateOne(ctx,
		bson.M{"_id": key, "expires_at": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{
			"owner":      owner,
			"expires_at": lock.ExpiresAt,
			"created_at": now,
		}},
	)
	if err != nil {
		return false, err
	}
	if result.ModifiedCount == 1 {
		l.log.Warn("took over expired hotel lock", "hotel_id", hotelID)
		return true, nil
	}
	return false, nil
}
