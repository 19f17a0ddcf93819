package kafka

import (
	"context"
	"errors"
	"testing"

	"detailbook/pkg/logger"
)

func newTestConsumer(maxRetries int, handler MessageHandler) *Consumer {
	return &Consumer{
		topic:      "payment-events",
		groupID:    "reconciler",
		maxRetries: maxRetries,
		handler:    handler,
		log:        logger.NewNop(),
	}
}

func TestProcessMessage_RetriesTransient(t *testing.T) {
	calls := 0
	c := newTestConsumer(3, func(context.Context, Message) error {
		calls++
		if calls < 3 {
			return NewTransientError("store unavailable", nil)
		}
		return nil
	})

	if err := c.processMessage(context.Background(), Message{Headers: map[string]string{}}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3", calls)
	}
}

func TestProcessMessage_StopsAtMaxRetries(t *testing.T) {
	calls := 0
	c := newTestConsumer(2, func(context.Context, Message) error {
		calls++
		return NewTransientError("store unavailable", nil)
	})

	if err := c.processMessage(context.Background(), Message{Headers: map[string]string{}}); err == nil {
		t.Fatal("expected error once retries are exhausted")
	}
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3 (1 + 2 retries)", calls)
	}
}

func TestProcessMessage_PermanentNotRetried(t *testing.T) {
	calls := 0
	c := newTestConsumer(5, func(context.Context, Message) error {
		calls++
		return NewPermanentError("bad signature", errors.New("mismatch"))
	})

	_ = c.processMessage(context.Background(), Message{Headers: map[string]string{}})
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
}

func TestProcessMessage_MiddlewareOrder(t *testing.T) {
	var order []string
	c := newTestConsumer(0, func(context.Context, Message) error {
		order = append(order, "handler")
		return nil
	})
	for _, name := range []string{"outer", "inner"} {
		c.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
			order = append(order, name)
			return next(ctx, msg)
		})
	}

	if err := c.processMessage(context.Background(), Message{}); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != "outer" || order[1] != "inner" || order[2] != "handler" {
		t.Errorf("order = %v", order)
	}
}

func TestParkMessage_NoDLQCommits(t *testing.T) {
	c := newTestConsumer(0, nil)
	if !c.parkMessage(context.Background(), Message{}, errors.New("boom")) {
		t.Error("without a DLQ the offset should be committed")
	}
}
