package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"detailbook/pkg/kafka"
)

func TestMetrics_ConsumerMiddleware(t *testing.T) {
	m := NewMetrics()
	mw := m.ConsumerMiddleware()

	ok := func(context.Context, kafka.Message) error { return nil }
	fail := func(context.Context, kafka.Message) error { return errors.New("boom") }

	_ = mw(context.Background(), kafka.Message{}, ok)
	_ = mw(context.Background(), kafka.Message{}, ok)
	_ = mw(context.Background(), kafka.Message{}, fail)

	s := m.Snapshot()
	if s.Consumed != 2 || s.ConsumedFailed != 1 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestMetrics_ProducerMiddleware(t *testing.T) {
	m := NewMetrics()
	mw := m.ProducerMiddleware()

	_ = mw(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error { return nil })
	_ = mw(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error { return errors.New("down") })

	s := m.Snapshot()
	if s.Published != 1 || s.PublishedFailed != 1 {
		t.Errorf("snapshot = %+v", s)
	}
}
