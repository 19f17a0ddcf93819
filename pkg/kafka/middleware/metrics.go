package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"detailbook/pkg/kafka"
)

// Metrics counts message outcomes for one producer or consumer.
type Metrics struct {
	published       atomic.Int64
	publishedFailed atomic.Int64
	consumed        atomic.Int64
	consumedFailed  atomic.Int64
	consumeNanos    atomic.Int64
}

type Snapshot struct {
	Published          int64
	PublishedFailed    int64
	Consumed           int64
	ConsumedFailed     int64
	AvgConsumeDuration time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Published:       m.published.Load(),
		PublishedFailed: m.publishedFailed.Load(),
		Consumed:        m.consumed.Load(),
		ConsumedFailed:  m.consumedFailed.Load(),
	}
	if total := s.Consumed + s.ConsumedFailed; total > 0 {
		s.AvgConsumeDuration = time.Duration(m.consumeNanos.Load() / total)
	}
	return s
}

func (m *Metrics) ProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		err := next(ctx, msg)
		if err != nil {
			m.publishedFailed.Add(1)
		} else {
			m.published.Add(1)
		}
		return err
	}
}

func (m *Metrics) ConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.consumeNanos.Add(int64(time.Since(start)))
		if err != nil {
			m.consumedFailed.Add(1)
		} else {
			m.consumed.Add(1)
		}
		return err
	}
}
