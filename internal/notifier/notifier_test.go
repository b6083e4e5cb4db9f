package notifier

import (
	"context"
	"testing"
	"time"

	"reservd/pkg/events"
	"reservd/pkg/kafka"
	"reservd/pkg/logger"
)

func TestHandle(t *testing.T) {
	n := New(logger.New(logger.Config{Level: logger.ERROR, Service: "test"}))

	tests := []struct {
		name      string
		eventType string
	}{
		{"created notice", events.TypeReservationCreated},
		{"confirmed notice", events.TypeReservationConfirmed},
		{"deleted notice", events.TypeReservationDeleted},
		{"expired notice", events.TypeReservationExpired},
		{"unknown type is skipped", "reservation.rescheduled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := kafka.NewMessage().
				WithKey("res-1").
				WithValue(events.ReservationEvent{
					Type:          tt.eventType,
					ReservationID: "res-1",
					ProviderID:    "provider-1",
					UserID:        "user-1",
					Date:          "2026-03-20",
					OccurredAt:    time.Now().UTC(),
				}).
				WithEventType(tt.eventType).
				Build()

			if err := n.Handle(context.Background(), msg); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestHandle_MalformedPayload(t *testing.T) {
	n := New(logger.New(logger.Config{Level: logger.ERROR, Service: "test"}))

	msg := kafka.NewMessage().
		WithKey("res-1").
		WithRawValue([]byte("not json")).
		Build()

	if err := n.Handle(context.Background(), msg); err == nil {
		t.Fatal("expected decode error for malformed payload")
	}
}
