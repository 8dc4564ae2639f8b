package config

const (
	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvStoreDriver = "STORE_DRIVER"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPostgresDSN          = "POSTGRES_DSN"
	EnvPostgresMaxOpenConns = "POSTGRES_MAX_OPEN_CONNS"
	EnvPostgresLockTimeout  = "POSTGRES_LOCK_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvLockDriver         = "LOCK_DRIVER"
	EnvLockTTL            = "LOCK_TTL"
	EnvLockAcquireTimeout = "LOCK_ACQUIRE_TIMEOUT"
	EnvLockRetryInterval  = "LOCK_RETRY_INTERVAL"

	EnvBookingMaxRetries   = "BOOKING_MAX_RETRIES"
	EnvBookingRetryBackoff = "BOOKING_RETRY_BACKOFF"
	EnvHotelTimezone       = "HOTEL_TIMEZONE"

	EnvCompletionSweepEnabled  = "COMPLETION_SWEEP_ENABLED"
	EnvCompletionSweepInterval = "COMPLETION_SWEEP_INTERVAL"
	EnvCompletionBatchSize     = "COMPLETION_BATCH_SIZE"

	EnvKafkaEnabled       = "KAFKA_ENABLED"
	EnvBookingEventsTopic = "BOOKING_EVENTS_TOPIC"
	EnvBookingEventsDLQ   = "BOOKING_EVENTS_DLQ"
	EnvCheckoutTopic      = "CHECKOUT_TOPIC"
	EnvCheckoutGroupID    = "CHECKOUT_GROUP_ID"
	EnvCheckoutDLQ        = "CHECKOUT_DLQ"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
