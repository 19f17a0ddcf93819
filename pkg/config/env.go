package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvStripeSecretKey     = "STRIPE_SECRET_KEY"
	EnvStripeWebhookSecret = "STRIPE_WEBHOOK_SECRET"
	EnvCurrency            = "PAYMENT_CURRENCY"
	EnvDepositAmount       = "DEPOSIT_AMOUNT"

	EnvDefaultDurationMin = "DEFAULT_DURATION_MIN"
	EnvSlotStepMin        = "SLOT_STEP_MIN"
	EnvBookingLockTTL     = "BOOKING_LOCK_TTL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvKafkaEnabled       = "KAFKA_ENABLED"
	EnvBookingEventsTopic = "BOOKING_EVENTS_TOPIC"
	EnvPaymentEventsTopic = "PAYMENT_EVENTS_TOPIC"
	EnvPaymentEventsGroup = "PAYMENT_EVENTS_GROUP"
	EnvPaymentEventsDLQ   = "PAYMENT_EVENTS_DLQ"
)
