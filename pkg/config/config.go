package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"detailbook/pkg/client"
	"detailbook/pkg/logger"
	"detailbook/pkg/money"

	"github.com/spf13/viper"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
	DepositAmount       string
	DepositCents        int64

	DefaultDurationMin int
	SlotStepMin        int
	BookingLockTTL     time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	KafkaEnabled       bool
	BookingEventsTopic string
	PaymentEventsTopic string
	PaymentEventsGroup string
	PaymentEventsDLQ   string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads configuration from the environment, falling back to an optional
// config.yaml and then to the package defaults.
func Load(serviceName string) *Config {
	v := newViper()

	cfg := &Config{
		MongoURI:          v.GetString(EnvMongoURI),
		MongoDatabaseName: v.GetString(EnvMongoDatabaseName),
		MongoConnTimeout:  v.GetDuration(EnvMongoConnTimeout),

		RedisAddr:     v.GetString(EnvRedisAddr),
		RedisPassword: v.GetString(EnvRedisPassword),
		RedisDB:       v.GetInt(EnvRedisDB),

		Port: v.GetString(EnvPort),

		StripeSecretKey:     v.GetString(EnvStripeSecretKey),
		StripeWebhookSecret: v.GetString(EnvStripeWebhookSecret),
		Currency:            strings.ToLower(v.GetString(EnvCurrency)),
		DepositAmount:       v.GetString(EnvDepositAmount),

		DefaultDurationMin: v.GetInt(EnvDefaultDurationMin),
		SlotStepMin:        v.GetInt(EnvSlotStepMin),
		BookingLockTTL:     v.GetDuration(EnvBookingLockTTL),

		RateLimitRequests: v.GetInt(EnvRateLimitRequests),
		RateLimitWindow:   v.GetDuration(EnvRateLimitWindow),

		RequestTimeout: v.GetDuration(EnvRequestTimeout),
		IdempotencyTTL: v.GetDuration(EnvIdempotencyTTL),
		MaxRequestSize: v.GetInt(EnvMaxRequestSize),

		ReadTimeout:     v.GetDuration(EnvReadTimeout),
		WriteTimeout:    v.GetDuration(EnvWriteTimeout),
		IdleTimeout:     v.GetDuration(EnvIdleTimeout),
		ShutdownTimeout: v.GetDuration(EnvShutdownTimeout),

		KafkaEnabled:       v.GetBool(EnvKafkaEnabled),
		BookingEventsTopic: v.GetString(EnvBookingEventsTopic),
		PaymentEventsTopic: v.GetString(EnvPaymentEventsTopic),
		PaymentEventsGroup: v.GetString(EnvPaymentEventsGroup),
		PaymentEventsDLQ:   v.GetString(EnvPaymentEventsDLQ),

		Log: logger.New(logger.Config{
			Level:     v.GetString(EnvLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault(EnvMongoURI, DefaultMongoURI)
	v.SetDefault(EnvMongoDatabaseName, DefaultMongoDatabaseName)
	v.SetDefault(EnvMongoConnTimeout, DefaultMongoConnTimeout)
	v.SetDefault(EnvRedisAddr, DefaultRedisAddr)
	v.SetDefault(EnvRedisPassword, "")
	v.SetDefault(EnvRedisDB, DefaultRedisDB)
	v.SetDefault(EnvPort, DefaultPort)
	v.SetDefault(EnvLogLevel, DefaultLogLevel)
	v.SetDefault(EnvStripeSecretKey, "")
	v.SetDefault(EnvStripeWebhookSecret, "")
	v.SetDefault(EnvCurrency, DefaultCurrency)
	v.SetDefault(EnvDepositAmount, DefaultDepositAmount)
	v.SetDefault(EnvDefaultDurationMin, DefaultDurationMin)
	v.SetDefault(EnvSlotStepMin, DefaultSlotStepMin)
	v.SetDefault(EnvBookingLockTTL, DefaultBookingLockTTL)
	v.SetDefault(EnvRateLimitRequests, DefaultRateLimitRequests)
	v.SetDefault(EnvRateLimitWindow, DefaultRateLimitWindow)
	v.SetDefault(EnvRequestTimeout, DefaultRequestTimeout)
	v.SetDefault(EnvIdempotencyTTL, DefaultIdempotencyTTL)
	v.SetDefault(EnvMaxRequestSize, DefaultMaxRequestSize)
	v.SetDefault(EnvReadTimeout, DefaultReadTimeout)
	v.SetDefault(EnvWriteTimeout, DefaultWriteTimeout)
	v.SetDefault(EnvIdleTimeout, DefaultIdleTimeout)
	v.SetDefault(EnvShutdownTimeout, DefaultShutdownTimeout)
	v.SetDefault(EnvKafkaEnabled, DefaultKafkaEnabled)
	v.SetDefault(EnvBookingEventsTopic, DefaultBookingEventsTopic)
	v.SetDefault(EnvPaymentEventsTopic, DefaultPaymentEventsTopic)
	v.SetDefault(EnvPaymentEventsGroup, DefaultPaymentEventsGroup)
	v.SetDefault(EnvPaymentEventsDLQ, DefaultPaymentEventsDLQ)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Printf("config: ignoring unreadable config file: %v\n", err)
		}
	}
	return v
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects the shared Redis client when an address is configured.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("Redis address not set, using in-memory idempotency store")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	if len(cfg.Currency) != 3 {
		errors = append(errors, fmt.Sprintf("Currency must be a 3-letter ISO code, got: %s", cfg.Currency))
	}

	deposit, err := money.Parse(cfg.DepositAmount)
	if err != nil {
		errors = append(errors, fmt.Sprintf("DepositAmount is invalid: %v", err))
	} else if deposit <= 0 {
		errors = append(errors, fmt.Sprintf("DepositAmount must be positive, got: %s", cfg.DepositAmount))
	} else {
		cfg.DepositCents = deposit
	}

	if cfg.DefaultDurationMin <= 0 {
		errors = append(errors, fmt.Sprintf("DefaultDurationMin must be positive, got: %d", cfg.DefaultDurationMin))
	}
	if cfg.SlotStepMin <= 0 || cfg.SlotStepMin > 24*60 {
		errors = append(errors, fmt.Sprintf("SlotStepMin must be between 1 and 1440, got: %d", cfg.SlotStepMin))
	}
	if cfg.BookingLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("BookingLockTTL must be positive, got: %s", cfg.BookingLockTTL))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.KafkaEnabled {
		if cfg.BookingEventsTopic == "" {
			errors = append(errors, "BookingEventsTopic cannot be empty when Kafka is enabled")
		}
		if cfg.PaymentEventsTopic == "" {
			errors = append(errors, "PaymentEventsTopic cannot be empty when Kafka is enabled")
		}
		if cfg.PaymentEventsGroup == "" {
			errors = append(errors, "PaymentEventsGroup cannot be empty when Kafka is enabled")
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_db", cfg.RedisDB,
		"port", cfg.Port,
		"stripe_key_set", cfg.StripeSecretKey != "",
		"stripe_webhook_secret_set", cfg.StripeWebhookSecret != "",
		"currency", cfg.Currency,
		"deposit_amount", money.Format(cfg.DepositCents),
		"default_duration_min", cfg.DefaultDurationMin,
		"slot_step_min", cfg.SlotStepMin,
		"booking_lock_ttl", cfg.BookingLockTTL,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"kafka_enabled", cfg.KafkaEnabled,
		"booking_events_topic", cfg.BookingEventsTopic,
		"payment_events_topic", cfg.PaymentEventsTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
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
