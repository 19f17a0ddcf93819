package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "detailbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = ""
	DefaultRedisDB   = 0

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultCurrency      = "usd"
	DefaultDepositAmount = "35.00"

	DefaultDurationMin    = 60
	DefaultSlotStepMin    = 30
	DefaultBookingLockTTL = 10 * time.Second

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultKafkaEnabled       = false
	DefaultBookingEventsTopic = "detailbook.booking-events"
	DefaultPaymentEventsTopic = "detailbook.payment-events"
	DefaultPaymentEventsGroup = "detailbook-reconciler"
	DefaultPaymentEventsDLQ   = "detailbook.payment-events.dlq"

	DefaultPaginationLimit = 100
)
