package handler

import (
	"context"

	"detailbook/internal/payments/service"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/kafka"
	"detailbook/pkg/logger"
)

// NewEventConsumer applies gateway payloads relayed onto a topic. The
// message value is the raw webhook body and the signature travels in a
// header, so verification is identical to the HTTP path.
func NewEventConsumer(reconciler service.Reconciler, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		signature, _ := msg.GetHeader(kafka.HeaderSignature)

		outcome, err := reconciler.HandleEvent(ctx, msg.Value, signature)
		if err != nil {
			switch {
			case apperrors.HasCode(err, apperrors.CodeUnavailable), apperrors.HasCode(err, apperrors.CodeTimeout):
				return kafka.NewTransientError("payment store unavailable", err)
			default:
				return kafka.NewPermanentError("payment event rejected", err)
			}
		}

		log.Debug("Relayed payment event settled",
			"event_id", msg.GetEventID(),
			"offset", msg.Offset,
			"action", outcome.Action,
		)
		return nil
	}
}
