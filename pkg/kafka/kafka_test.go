package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"innkeep/pkg/logger"
)

func TestMessageBuilder(t *testing.T) {
	msg := NewMessage().
		WithKey("hotel-1").
		WithValue(map[string]string{"booking_id": "b-1"}).
		WithEventType("booking.created").
		WithCorrelationID("req-1").
		WithSource("bookings").
		Build()

	if msg.Key != "hotel-1" {
		t.Errorf("expected key hotel-1, got %s", msg.Key)
	}
	if msg.GetEventID() == "" {
		t.Error("expected generated event id")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("expected timestamp header")
	}
	if msg.GetEventType() != "booking.created" || msg.GetCorrelationID() != "req-1" {
		t.Errorf("unexpected headers %v", msg.Headers)
	}

	var payload map[string]string
	if err := msg.DecodeValue(&payload); err != nil || payload["booking_id"] != "b-1" {
		t.Errorf("unexpected payload %v (%v)", payload, err)
	}
}

func TestMessage_IncrementRetryCount(t *testing.T) {
	msg := Message{}
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	if got := msg.GetRetryCount(); got != 12 {
		t.Errorf("expected retry count 12, got %d", got)
	}
	if msg.Headers[HeaderRetryCount] != "12" {
		t.Errorf("expected decimal header, got %q", msg.Headers[HeaderRetryCount])
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"business", NewBusinessError("illegal transition", errors.New("x")), ErrorTypeBusiness},
		{"wrapped transient", fmt.Errorf("complete: %w", NewTransientError("db down", nil)), ErrorTypeTransient},
		{"deadline", context.DeadlineExceeded, ErrorTypeTransient},
		{"network text", errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{"unknown", errors.New("weird"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestConsumer_ProcessMessageRetriesTransientOnly(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	calls := 0
	c := &Consumer{
		topic:      "guest-checkouts",
		maxRetries: 2,
		log:        logger.Discard(),
		handler: func(ctx context.Context, msg Message) error {
			calls++
			if calls < 3 {
				return NewTransientError("store unavailable", nil)
			}
			return nil
		},
	}

	if err := c.processMessage(ctx, Message{Headers: map[string]string{}}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}

	calls = 0
	c.handler = func(ctx context.Context, msg Message) error {
		calls++
		return NewBusinessError("booking already cancelled", nil)
	}
	if err := c.processMessage(ctx, Message{Headers: map[string]string{}}); err == nil {
		t.Fatal("expected business error to surface")
	}
	if calls != 1 {
		t.Errorf("business errors must not be retried, got %d attempts", calls)
	}
}

func TestConsumer_MiddlewareOrder(t *testing.T) {
	var order []string
	c := &Consumer{
		log: logger.Discard(),
		handler: func(ctx context.Context, msg Message) error {
			order = append(order, "handler")
			return nil
		},
	}
	for _, name := range []string{"first", "second"} {
		name := name
		c.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
			order = append(order, name)
			return next(ctx, msg)
		})
	}

	if err := c.processMessage(context.Background(), Message{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(order) != "[first second handler]" {
		t.Errorf("unexpected order %v", order)
	}
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p := &Producer{topic: "booking-events", log: logger.Discard()}

	if err := p.Publish(context.Background(), Message{Value: []byte("{}")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "h"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}

	p.closed = true
	if err := p.Publish(context.Background(), Message{Key: "h", Value: []byte("{}")}); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("expected ErrProducerClosed, got %v", err)
	}
}
