package events

import (
	"context"

	"reservd/pkg/kafka"
)

// Publisher is the port through which the reservation lifecycle emits events.
// Publishing is best effort from the lifecycle's point of view: a failed
// publish is logged by the caller, never allowed to block a hold transition.
type Publisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
}

// KafkaPublisher publishes lifecycle events to the reservation stream,
// partitioned by reservation id so per-reservation ordering is preserved.
type KafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		source:   source,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event ReservationEvent) error {
	msg := kafka.NewMessage().
		WithKey(event.ReservationID).
		WithValue(event).
		WithEventType(event.Type).
		WithSource(p.source).
		Build()

	return p.producer.Publish(ctx, msg)
}

// NopPublisher discards events. Used when the service runs without a broker
// and by tests that do not assert on the stream.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReservationEvent) error { return nil }
