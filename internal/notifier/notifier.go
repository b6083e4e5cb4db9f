package notifier

import (
	"context"
	"fmt"

	"reservd/pkg/events"
	"reservd/pkg/kafka"
	"reservd/pkg/logger"
)

// Notifier consumes reservation lifecycle events and relays user-facing
// notices. The current sink is the structured log; a messaging provider slots
// in behind Notify without touching the consume path.
type Notifier struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Notifier {
	return &Notifier{log: log}
}

// Handle is the kafka message handler. Unknown event types are skipped, not
// failed: a schema addition upstream must not poison the consumer group.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	var event events.ReservationEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("failed to decode reservation event: %w", err)
	}

	switch event.Type {
	case events.TypeReservationCreated:
		return n.Notify(ctx, event, "Your reservation is held. Confirm it before the hold expires to keep the slot.")
	case events.TypeReservationConfirmed:
		return n.Notify(ctx, event, "Your reservation is confirmed.")
	case events.TypeReservationDeleted:
		return n.Notify(ctx, event, "Your reservation was cancelled.")
	case events.TypeReservationExpired:
		return n.Notify(ctx, event, "Your reservation hold expired and the slot was released.")
	default:
		n.log.Debug("Skipping unknown event type", "type", event.Type, "event_id", msg.GetEventID())
		return nil
	}
}

func (n *Notifier) Notify(_ context.Context, event events.ReservationEvent, notice string) error {
	n.log.Info("Reservation notice",
		"type", event.Type,
		"reservation_id", event.ReservationID,
		"provider_id", event.ProviderID,
		"user_id", event.UserID,
		"date", event.Date,
		"occurred_at", event.OccurredAt,
		"notice", notice,
	)
	return nil
}
