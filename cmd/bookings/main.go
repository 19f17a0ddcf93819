package main

import (
	availabilityhandler "detailbook/internal/availability/handler"
	availabilityservice "detailbook/internal/availability/service"
	bookingshandler "detailbook/internal/bookings/handler"
	bookingsrepo "detailbook/internal/bookings/repository"
	bookingsservice "detailbook/internal/bookings/service"
	bookingsvalidator "detailbook/internal/bookings/validator"
	calendarhandler "detailbook/internal/calendar/handler"
	calendarrepo "detailbook/internal/calendar/repository"
	calendarservice "detailbook/internal/calendar/service"
	catalogrepo "detailbook/internal/catalog/repository"
	catalogservice "detailbook/internal/catalog/service"
	customersrepo "detailbook/internal/customers/repository"
	"detailbook/internal/events"
	"detailbook/internal/payments/gateway"
	paymentshandler "detailbook/internal/payments/handler"
	paymentsrepo "detailbook/internal/payments/repository"
	paymentsservice "detailbook/internal/payments/service"
	paymentsvalidator "detailbook/internal/payments/validator"
	"detailbook/pkg/app"
	"detailbook/pkg/config"
	"detailbook/pkg/contracts"
	mongotx "detailbook/pkg/db/mongo"
	"detailbook/pkg/kafka"
	kafka_config "detailbook/pkg/kafka/config"
	kafka_middleware "detailbook/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")

	serverApp := app.NewApplication()
	publisher, closePublisher := initPublisher(cfg)
	webhook, handlers := initHandlers(cfg, publisher)

	serverApp.SetApp(cfg, webhook, paymentshandler.WebhookPath, gateway.SignatureHeader, handlers...)
	serverApp.OnShutdown(closePublisher)
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

func initPublisher(cfg *config.Config) (events.Publisher, func()) {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, domain events will not be published")
		return events.NopPublisher{}, func() {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, "", cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	metrics := kafka_middleware.NewMetrics()
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(metrics.ProducerMiddleware())

	closeFn := func() {
		snap := metrics.Snapshot()
		cfg.Log.Info("Closing Kafka producer", "published", snap.Published, "failed", snap.PublishedFailed)
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
	return events.NewKafkaPublisher(producer, ServiceName, cfg.Log), closeFn
}

func initHandlers(cfg *config.Config, publisher events.Publisher) (contracts.Handler, []contracts.Handler) {
	tx := mongotx.NewTransactionManager(cfg.Client.Mongo)

	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingsrepo.NewMongoBookingLockRepository(cfg)
	customerRepo := customersrepo.NewMongoCustomerRepository(cfg)
	paymentRepo := paymentsrepo.NewMongoPaymentRepository(cfg)

	catalog := catalogservice.NewCatalogService(catalogrepo.NewMongoCatalogRepository(cfg), cfg)
	policy := calendarservice.NewCalendarPolicy(calendarrepo.NewMongoCalendarRepository(cfg), cfg)
	slots := availabilityservice.NewSlotCalculator(policy, catalog, bookingRepo, cfg)

	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		lockRepo,
		customerRepo,
		catalog,
		policy,
		paymentRepo,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	gw := gateway.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	paymentService := paymentsservice.NewPaymentService(
		paymentRepo,
		bookingRepo,
		gw,
		paymentsvalidator.NewPaymentValidator(cfg.Log),
		cfg,
	)
	reconciler := paymentsservice.NewReconciler(paymentRepo, bookingRepo, tx, gw, publisher, cfg)

	cfg.Log.Info("Booking services initialized", "database", cfg.MongoDatabaseName)

	return paymentshandler.NewWebhookHandler(reconciler, cfg.Log), []contracts.Handler{
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(slots, cfg.Log),
		calendarhandler.NewCalendarHandler(policy, cfg.Log),
		paymentshandler.NewPaymentHandler(paymentService, cfg.Log),
	}
}
