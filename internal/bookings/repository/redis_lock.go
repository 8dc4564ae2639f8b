package repository

import (
	"context"
	"time"

	"innkeep/pkg/config"
	"innkeep/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisHotelLocker struct {
	client   *redis.Client
	ttl      time.Duration
	timeout  time.Duration
	interval time.Duration
	log      *logger.Logger
}

func NewRedisHotelLocker(cfg *config.Config) HotelLocker {
	return &redisHotelLocker{
		client:   cfg.Client.Redis,
		ttl:      cfg.LockTTL,
		timeout:  cfg.LockAcquireTimeout,
		interval: cfg.LockRetryInterval,
		log:      cfg.Log,
	}
}

func (l *redisHotelLocker) Acquire(ctx context.Context, hotelID string) (func(), error) {
	key := lockKey(hotelID)
	owner := newOwnerToken()

	err := pollAcquire(ctx, hotelID, l.timeout, l.interval, func(ctx context.Context) (bool, error) {
		return l.client.SetNX(ctx, key, owner, l.ttl).Result()
	})
	if err != nil {
		return nil, err
	}

	return func() {
		ctx, cancel := releaseContext()
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, owner).Err(); err != nil {
			l.log.Warn("failed to release hotel lock",
				"hotel_id", hotelID,
				"error", err,
			)
		}
	}, nil
}
