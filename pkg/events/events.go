package events

import "time"

// Reservation lifecycle event types. Consumers key off these to decide what a
// hold did: was created, was confirmed, was deleted by the client, or lapsed.
const (
	TypeReservationCreated   = "reservation.created"
	TypeReservationConfirmed = "reservation.confirmed"
	TypeReservationDeleted   = "reservation.deleted"
	TypeReservationExpired   = "reservation.expired"
)

// TopicReservations is the stream carrying all reservation lifecycle events,
// partitioned by reservation id.
const TopicReservations = "reservation-events"

// ReservationEvent is the payload published for every lifecycle transition.
// Expiration events tell downstream consumers "this hold lapsed — re-query
// its state"; they carry no snapshot of the released record.
type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	ProviderID    string    `json:"provider_id,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	Date          string    `json:"date,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
