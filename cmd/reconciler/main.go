package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	bookingsrepo "detailbook/internal/bookings/repository"
	"detailbook/internal/events"
	"detailbook/internal/payments/gateway"
	paymentshandler "detailbook/internal/payments/handler"
	paymentsrepo "detailbook/internal/payments/repository"
	paymentsservice "detailbook/internal/payments/service"
	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	"detailbook/pkg/kafka"
	kafka_config "detailbook/pkg/kafka/config"
	kafka_middleware "detailbook/pkg/kafka/middleware"
)

const ServiceName = "reconciler"

// The reconciler applies payment gateway events relayed onto Kafka. It is the
// asynchronous twin of the webhook endpoint and shares its verification.
func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	publisher := events.Publisher(events.NopPublisher{})
	if cfg.KafkaEnabled {
		producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, "", cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		defer producer.Close()
		publisher = events.NewKafkaPublisher(producer, ServiceName, cfg.Log)
	}

	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	paymentRepo := paymentsrepo.NewMongoPaymentRepository(cfg)
	reconciler := paymentsservice.NewReconciler(
		paymentRepo,
		bookingRepo,
		mongotx.NewTransactionManager(cfg.Client.Mongo),
		gateway.NewStripeVerifier(cfg.StripeWebhookSecret),
		publisher,
		cfg,
	)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.PaymentEventsTopic,
		cfg.PaymentEventsGroup,
		cfg.PaymentEventsDLQ,
		paymentshandler.NewEventConsumer(reconciler, cfg.Log),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	metrics := kafka_middleware.NewMetrics()
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(metrics.ConsumerMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting payment event consumer",
		"topic", cfg.PaymentEventsTopic,
		"group", cfg.PaymentEventsGroup,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Payment event consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	snap := metrics.Snapshot()
	cfg.Log.Info("Reconciler stopped",
		"consumed", snap.Consumed,
		"failed", snap.ConsumedFailed,
		"avg_duration", snap.AvgConsumeDuration,
	)
}
