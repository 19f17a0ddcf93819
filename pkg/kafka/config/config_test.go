package kafka_config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Brokers:                   []string{"localhost:9092"},
		ProducerMaxAttempts:       DefaultProducerMaxAttempts,
		ProducerBatchTimeout:      DefaultProducerBatchTimeout,
		ProducerRequireAcks:       DefaultProducerRequireAcks,
		ProducerCompression:       DefaultProducerCompression,
		ConsumerStartOffset:       DefaultConsumerStartOffset,
		ConsumerMinBytes:          DefaultConsumerMinBytes,
		ConsumerMaxBytes:          DefaultConsumerMaxBytes,
		ConsumerMaxWait:           DefaultConsumerMaxWait,
		ConsumerHeartbeatInterval: DefaultConsumerHeartbeatInterval,
		ConsumerSessionTimeout:    DefaultConsumerSessionTimeout,
		ConsumerRebalanceTimeout:  DefaultConsumerRebalanceTimeout,
		ConsumerMaxRetries:        DefaultConsumerMaxRetries,
		ConsumerRetryBackoff:      DefaultConsumerRetryBackoff,
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Brokers = []string{""}
	cfg.ProducerCompression = "brotli"
	cfg.ConsumerMaxRetries = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"Broker 0", "ProducerCompression", "ConsumerMaxRetries"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "kafka-1:9092, kafka-2:9092")
	t.Setenv(EnvKafkaConsumerMaxRetries, "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "kafka-2:9092" {
		t.Errorf("brokers = %v", cfg.Brokers)
	}
	if cfg.ConsumerMaxRetries != 5 {
		t.Errorf("max retries = %d, want 5", cfg.ConsumerMaxRetries)
	}
}
