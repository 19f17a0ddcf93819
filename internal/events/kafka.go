package events

import (
	"context"
	"errors"
	"fmt"

	"detailbook/pkg/kafka"
	"detailbook/pkg/logger"
)

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

// NewKafkaPublisher publishes events keyed by booking id, so each booking's
// events stay ordered within a partition.
func NewKafkaPublisher(producer *kafka.Producer, source string, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, events ...*Event) error {
	var errs []error
	for _, e := range events {
		msg, err := kafka.NewMessage().
			WithKey(e.BookingID).
			WithValue(e).
			WithEventID(e.ID).
			WithEventType(string(e.Type)).
			WithSchemaVersion(SchemaVersion).
			WithSource(p.source).
			Build()
		if err != nil {
			errs = append(errs, fmt.Errorf("build %s event: %w", e.Type, err))
			continue
		}
		if err := p.producer.Publish(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("publish %s event: %w", e.Type, err))
		}
	}
	return errors.Join(errs...)
}
