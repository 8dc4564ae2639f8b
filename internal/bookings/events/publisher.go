package events

import (
	"context"
	"fmt"

	"innkeep/pkg/kafka"
	"innkeep/pkg/middleware"
	"innkeep/pkg/model"
)

const (
	Source        = "innkeep-bookings"
	SchemaVersion = "1"
)

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher writes booking lifecycle events keyed by hotel id, so every
// event of one hotel lands on the same partition in commit order.
type KafkaPublisher struct {
	producer messagePublisher
}

func NewKafkaPublisher(producer messagePublisher) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event model.BookingEvent) error {
	builder := kafka.NewMessage().
		WithKey(event.HotelID).
		WithValue(event).
		WithEventID("").
		WithEventType(event.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source)
	if requestID := middleware.RequestID(ctx); requestID != "" {
		builder = builder.WithCorrelationID(requestID)
	}

	if err := p.producer.Publish(ctx, builder.Build()); err != nil {
		return fmt.Errorf("failed to publish %s for booking %s: %w", event.Type, event.BookingID, err)
	}
	return nil
}
