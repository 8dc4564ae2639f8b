package main

import (
	"innkeep/internal/bookings/consumer"
	"innkeep/internal/bookings/events"
	bookinghandler "innkeep/internal/bookings/handler"
	bookingrepo "innkeep/internal/bookings/repository"
	bookingservice "innkeep/internal/bookings/service"
	bookingvalidator "innkeep/internal/bookings/validator"
	"innkeep/internal/bookings/worker"
	"innkeep/internal/health"
	hotelhandler "innkeep/internal/hotels/handler"
	hotelrepo "innkeep/internal/hotels/repository"
	hotelservice "innkeep/internal/hotels/service"
	hotelvalidator "innkeep/internal/hotels/validator"
	"innkeep/pkg/app"
	"innkeep/pkg/config"
	"innkeep/pkg/kafka"
	kafka_config "innkeep/pkg/kafka/config"
	kafka_middleware "innkeep/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStores()

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)

	// Bookings and hotel deletion share one store and one serialization point.
	bookingRepo := newBookingRepository(cfg)
	locker := newHotelLocker(cfg)

	hotels := initHotels(cfg, bookingservice.NewHotelDeletionGuard(bookingRepo, locker, cfg))
	bookings, metrics := initBookings(cfg, serverApp, hotels, bookingRepo, locker)

	serverApp.SetApp(
		health.NewHealthHandler(health.PingersFor(cfg.Client), metrics, cfg.Log),
		hotelhandler.NewHotelHandler(hotels, cfg.Log),
		bookinghandler.NewBookingHandler(bookings, cfg.Log),
	)

	if cfg.CompletionSweepEnabled {
		serverApp.AddWorker(worker.NewCompletionWorker(
			bookings,
			cfg.CompletionSweepInterval,
			cfg.CompletionBatchSize,
			cfg.Log,
		))
	}

	serverApp.Run()
}

func initHotels(cfg *config.Config, guard hotelservice.BookingGuard) hotelservice.HotelService {
	var repo hotelrepo.HotelRepository
	switch cfg.StoreDriver {
	case config.StorePostgres:
		repo = hotelrepo.NewPostgresHotelRepository(cfg)
	case config.StoreMemory:
		repo = hotelrepo.NewMemoryHotelRepository()
	default:
		repo = hotelrepo.NewMongoHotelRepository(cfg)
	}

	svc := hotelservice.NewHotelService(repo, hotelvalidator.NewHotelValidator(cfg.Log), cfg,
		hotelservice.WithBookingGuard(guard),
	)
	cfg.Log.Info("Hotel service initialized", "store", cfg.StoreDriver)
	return svc
}

func newBookingRepository(cfg *config.Config) bookingrepo.BookingRepository {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		return bookingrepo.NewPostgresBookingRepository(cfg)
	case config.StoreMemory:
		return bookingrepo.NewMemoryBookingRepository()
	default:
		return bookingrepo.NewMongoBookingRepository(cfg)
	}
}

func newHotelLocker(cfg *config.Config) bookingrepo.HotelLocker {
	switch cfg.LockDriver {
	case config.LockRedis:
		return bookingrepo.NewRedisHotelLocker(cfg)
	case config.LockMemory:
		return bookingrepo.NewMemoryHotelLocker(cfg.LockAcquireTimeout)
	case config.LockNone:
		return bookingrepo.NewNoopLocker()
	default:
		return bookingrepo.NewMongoHotelLocker(cfg)
	}
}

// initBookings builds the booking coordinator. When Kafka is enabled it also
// wires the lifecycle event publisher and the checkout consumer.
func initBookings(
	cfg *config.Config,
	serverApp *app.Application,
	hotels hotelservice.HotelService,
	repo bookingrepo.BookingRepository,
	locker bookingrepo.HotelLocker,
) (bookingservice.BookingService, *kafka_middleware.Metrics) {
	var opts []bookingservice.Option
	var metrics *kafka_middleware.Metrics
	var kafkaCfg *kafka_config.Config

	if cfg.KafkaEnabled {
		var err error
		kafkaCfg, err = kafka_config.Load()
		if err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)
		metrics = kafka_middleware.NewMetrics()

		producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQ, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics))
		serverApp.AddCloser(producer)

		opts = append(opts, bookingservice.WithPublisher(events.NewKafkaPublisher(producer)))
	}

	svc := bookingservice.NewBookingService(
		repo,
		locker,
		hotels,
		bookingvalidator.NewBookingValidator(cfg.Log),
		cfg,
		opts...,
	)

	if cfg.KafkaEnabled {
		checkout := consumer.NewCheckoutHandler(svc, cfg.Log)
		kafkaConsumer, err := kafka.NewConsumer(kafkaCfg, cfg.CheckoutTopic, cfg.CheckoutGroupID, cfg.CheckoutDLQ, checkout.Handle, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
		}
		kafkaConsumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		kafkaConsumer.Use(kafka_middleware.MetricsConsumerMiddleware(metrics))
		checkoutWorker := consumer.NewWorker(kafkaConsumer, cfg.Log)
		serverApp.AddWorker(checkoutWorker)
		serverApp.AddCloser(checkoutWorker)
	}

	cfg.Log.Info("Booking service initialized",
		"store", cfg.StoreDriver,
		"lock", cfg.LockDriver,
		"kafka", cfg.KafkaEnabled,
	)
	return svc, metrics
}
