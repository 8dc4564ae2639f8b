package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"innkeep/pkg/client"
	"innkeep/pkg/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	LogLevel string

	StoreDriver string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	PostgresDSN          string
	PostgresMaxOpenConns int
	PostgresLockTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LockDriver         string
	LockTTL            time.Duration
	LockAcquireTimeout time.Duration
	LockRetryInterval  time.Duration

	BookingMaxRetries   int
	BookingRetryBackoff time.Duration
	HotelTimezone       string
	HotelLocation       *time.Location

	CompletionSweepEnabled  bool
	CompletionSweepInterval time.Duration
	CompletionBatchSize     int

	KafkaEnabled       bool
	BookingEventsTopic string
	BookingEventsDLQ   string
	CheckoutTopic      string
	CheckoutGroupID    string
	CheckoutDLQ        string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := FromViper(NewViper())
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// NewViper reads the environment and, when present, ./config/config.yaml.
// Environment variables win over the file.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Sprintf("failed to read config file: %v", err))
		}
	}

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(EnvPort, DefaultPort)
	v.SetDefault(EnvLogLevel, DefaultLogLevel)
	v.SetDefault(EnvStoreDriver, DefaultStoreDriver)
	v.SetDefault(EnvMongoURI, DefaultMongoURI)
	v.SetDefault(EnvMongoDatabaseName, DefaultMongoDatabaseName)
	v.SetDefault(EnvMongoConnTimeout, DefaultMongoConnTimeout)
	v.SetDefault(EnvPostgresDSN, DefaultPostgresDSN)
	v.SetDefault(EnvPostgresMaxOpenConns, DefaultPostgresMaxOpenConns)
	v.SetDefault(EnvPostgresLockTimeout, DefaultPostgresLockTimeout)
	v.SetDefault(EnvRedisAddr, DefaultRedisAddr)
	v.SetDefault(EnvRedisDB, DefaultRedisDB)
	v.SetDefault(EnvLockTTL, DefaultLockTTL)
	v.SetDefault(EnvLockAcquireTimeout, DefaultLockAcquireTimeout)
	v.SetDefault(EnvLockRetryInterval, DefaultLockRetryInterval)
	v.SetDefault(EnvBookingMaxRetries, DefaultBookingMaxRetries)
	v.SetDefault(EnvBookingRetryBackoff, DefaultBookingRetryBackoff)
	v.SetDefault(EnvHotelTimezone, DefaultHotelTimezone)
	v.SetDefault(EnvCompletionSweepEnabled, DefaultCompletionSweepEnabled)
	v.SetDefault(EnvCompletionSweepInterval, DefaultCompletionSweepInterval)
	v.SetDefault(EnvCompletionBatchSize, DefaultCompletionBatchSize)
	v.SetDefault(EnvKafkaEnabled, DefaultKafkaEnabled)
	v.SetDefault(EnvBookingEventsTopic, DefaultBookingEventsTopic)
	v.SetDefault(EnvBookingEventsDLQ, DefaultBookingEventsDLQ)
	v.SetDefault(EnvCheckoutTopic, DefaultCheckoutTopic)
	v.SetDefault(EnvCheckoutGroupID, DefaultCheckoutGroupID)
	v.SetDefault(EnvCheckoutDLQ, DefaultCheckoutDLQ)
	v.SetDefault(EnvRateLimitRequests, DefaultRateLimitRequests)
	v.SetDefault(EnvRateLimitWindow, DefaultRateLimitWindow)
	v.SetDefault(EnvRequestTimeout, DefaultRequestTimeout)
	v.SetDefault(EnvIdempotencyTTL, DefaultIdempotencyTTL)
	v.SetDefault(EnvMaxRequestSize, DefaultMaxRequestSize)
	v.SetDefault(EnvReadTimeout, DefaultReadTimeout)
	v.SetDefault(EnvWriteTimeout, DefaultWriteTimeout)
	v.SetDefault(EnvIdleTimeout, DefaultIdleTimeout)
	v.SetDefault(EnvShutdownTimeout, DefaultShutdownTimeout)
}

// FromViper builds a Config without logger or clients. Validate reports bad values.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Port:     v.GetString(EnvPort),
		LogLevel: v.GetString(EnvLogLevel),

		StoreDriver: v.GetString(EnvStoreDriver),

		MongoURI:          v.GetString(EnvMongoURI),
		MongoDatabaseName: v.GetString(EnvMongoDatabaseName),
		MongoConnTimeout:  v.GetDuration(EnvMongoConnTimeout),

		PostgresDSN:          v.GetString(EnvPostgresDSN),
		PostgresMaxOpenConns: v.GetInt(EnvPostgresMaxOpenConns),
		PostgresLockTimeout:  v.GetDuration(EnvPostgresLockTimeout),

		RedisAddr:     v.GetString(EnvRedisAddr),
		RedisPassword: v.GetString(EnvRedisPassword),
		RedisDB:       v.GetInt(EnvRedisDB),

		LockDriver:         v.GetString(EnvLockDriver),
		LockTTL:            v.GetDuration(EnvLockTTL),
		LockAcquireTimeout: v.GetDuration(EnvLockAcquireTimeout),
		LockRetryInterval:  v.GetDuration(EnvLockRetryInterval),

		BookingMaxRetries:   v.GetInt(EnvBookingMaxRetries),
		BookingRetryBackoff: v.GetDuration(EnvBookingRetryBackoff),
		HotelTimezone:       v.GetString(EnvHotelTimezone),

		CompletionSweepEnabled:  v.GetBool(EnvCompletionSweepEnabled),
		CompletionSweepInterval: v.GetDuration(EnvCompletionSweepInterval),
		CompletionBatchSize:     v.GetInt(EnvCompletionBatchSize),

		KafkaEnabled:       v.GetBool(EnvKafkaEnabled),
		BookingEventsTopic: v.GetString(EnvBookingEventsTopic),
		BookingEventsDLQ:   v.GetString(EnvBookingEventsDLQ),
		CheckoutTopic:      v.GetString(EnvCheckoutTopic),
		CheckoutGroupID:    v.GetString(EnvCheckoutGroupID),
		CheckoutDLQ:        v.GetString(EnvCheckoutDLQ),

		RateLimitRequests: v.GetInt(EnvRateLimitRequests),
		RateLimitWindow:   v.GetDuration(EnvRateLimitWindow),

		RequestTimeout: v.GetDuration(EnvRequestTimeout),
		IdempotencyTTL: v.GetDuration(EnvIdempotencyTTL),
		MaxRequestSize: v.GetInt(EnvMaxRequestSize),

		ReadTimeout:     v.GetDuration(EnvReadTimeout),
		WriteTimeout:    v.GetDuration(EnvWriteTimeout),
		IdleTimeout:     v.GetDuration(EnvIdleTimeout),
		ShutdownTimeout: v.GetDuration(EnvShutdownTimeout),
	}

	if cfg.LockDriver == "" {
		cfg.LockDriver = defaultLockDriver(cfg.StoreDriver)
	}
	if loc, err := time.LoadLocation(cfg.HotelTimezone); err == nil {
		cfg.HotelLocation = loc
	}

	return cfg
}

// defaultLockDriver pairs each store with the serialization point it ships with.
func defaultLockDriver(storeDriver string) string {
	switch storeDriver {
	case StorePostgres:
		return LockNone
	case StoreMemory:
		return LockMemory
	default:
		return LockMongo
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetPostgres() {
	cfg.Client.SetPostgres(cfg.Log, cfg.PostgresDSN, cfg.PostgresMaxOpenConns, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

// SetStores connects exactly the backends the selected drivers need.
func (cfg *Config) SetStores() {
	switch cfg.StoreDriver {
	case StoreMongo:
		cfg.SetMongo()
	case StorePostgres:
		cfg.SetPostgres()
	}

	switch cfg.LockDriver {
	case LockRedis:
		cfg.SetRedis()
	case LockMongo:
		if cfg.Client.Mongo == nil {
			cfg.SetMongo()
		}
	}
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreDriver {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		errs = append(errs, fmt.Sprintf("StoreDriver must be one of [mongo, postgres, memory], got: %s", cfg.StoreDriver))
	}

	switch cfg.LockDriver {
	case LockMongo, LockRedis:
	case LockMemory:
		// A process-local lock cannot serialize instances sharing one database.
		if cfg.StoreDriver != StoreMemory {
			errs = append(errs, fmt.Sprintf("LockDriver 'memory' is only valid with the memory store, got store: %s", cfg.StoreDriver))
		}
	case LockNone:
		if cfg.StoreDriver != StorePostgres {
			errs = append(errs, "LockDriver 'none' is only valid with the postgres store")
		}
	default:
		errs = append(errs, fmt.Sprintf("LockDriver must be one of [mongo, redis, memory, none], got: %s", cfg.LockDriver))
	}

	if cfg.StoreDriver == StoreMongo || cfg.LockDriver == LockMongo {
		if cfg.MongoURI == "" {
			errs = append(errs, "MongoURI cannot be empty")
		} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errs = append(errs, "MongoURI must start with 'mongodb://' or 'mongodb+srv://'")
		}
		if cfg.MongoDatabaseName == "" {
			errs = append(errs, "MongoDatabaseName cannot be empty")
		}
	}

	if cfg.StoreDriver == StorePostgres {
		if u, err := url.Parse(cfg.PostgresDSN); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errs = append(errs, "PostgresDSN must be a postgres:// URL")
		}
		if cfg.PostgresMaxOpenConns <= 0 {
			errs = append(errs, fmt.Sprintf("PostgresMaxOpenConns must be positive, got: %d", cfg.PostgresMaxOpenConns))
		}
		if cfg.PostgresLockTimeout <= 0 {
			errs = append(errs, fmt.Sprintf("PostgresLockTimeout must be positive, got: %s", cfg.PostgresLockTimeout))
		}
	}

	if cfg.LockDriver == LockRedis && cfg.RedisAddr == "" {
		errs = append(errs, "RedisAddr cannot be empty when LockDriver is redis")
	}

	if cfg.HotelLocation == nil {
		errs = append(errs, fmt.Sprintf("HotelTimezone must be a valid IANA zone, got: %s", cfg.HotelTimezone))
	}
	if cfg.BookingMaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("BookingMaxRetries cannot be negative, got: %d", cfg.BookingMaxRetries))
	}
	if cfg.BookingRetryBackoff < 0 {
		errs = append(errs, fmt.Sprintf("BookingRetryBackoff cannot be negative, got: %s", cfg.BookingRetryBackoff))
	}

	if cfg.LockTTL <= cfg.LockAcquireTimeout {
		errs = append(errs, fmt.Sprintf("LockTTL (%s) must exceed LockAcquireTimeout (%s)", cfg.LockTTL, cfg.LockAcquireTimeout))
	}
	if cfg.LockAcquireTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("LockAcquireTimeout must be positive, got: %s", cfg.LockAcquireTimeout))
	}
	if cfg.LockRetryInterval <= 0 {
		errs = append(errs, fmt.Sprintf("LockRetryInterval must be positive, got: %s", cfg.LockRetryInterval))
	}

	if cfg.CompletionSweepEnabled {
		if cfg.CompletionSweepInterval <= 0 {
			errs = append(errs, fmt.Sprintf("CompletionSweepInterval must be positive, got: %s", cfg.CompletionSweepInterval))
		}
		if cfg.CompletionBatchSize <= 0 {
			errs = append(errs, fmt.Sprintf("CompletionBatchSize must be positive, got: %d", cfg.CompletionBatchSize))
		}
	}

	if cfg.KafkaEnabled {
		if cfg.BookingEventsTopic == "" || cfg.CheckoutTopic == "" {
			errs = append(errs, "BookingEventsTopic and CheckoutTopic are required when Kafka is enabled")
		}
		if cfg.CheckoutGroupID == "" {
			errs = append(errs, "CheckoutGroupID cannot be empty when Kafka is enabled")
		}
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"store_driver", cfg.StoreDriver,
		"lock_driver", cfg.LockDriver,
		"mongo_uri", redactURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"postgres_dsn", redactURI(cfg.PostgresDSN),
		"postgres_max_open_conns", cfg.PostgresMaxOpenConns,
		"postgres_lock_timeout", cfg.PostgresLockTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"lock_ttl", cfg.LockTTL,
		"lock_acquire_timeout", cfg.LockAcquireTimeout,
		"booking_max_retries", cfg.BookingMaxRetries,
		"booking_retry_backoff", cfg.BookingRetryBackoff,
		"hotel_timezone", cfg.HotelTimezone,
		"completion_sweep_enabled", cfg.CompletionSweepEnabled,
		"completion_sweep_interval", cfg.CompletionSweepInterval,
		"kafka_enabled", cfg.KafkaEnabled,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

var credentialRegex = regexp.MustCompile(`^([a-z+]+://)[^:/@]+:[^@]+@`)

func redactURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
