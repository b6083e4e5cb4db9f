package model

import (
	"time"
)

// Reservation is a client's hold on a provider time slot. It is created
// unconfirmed (a pending hold) and either confirmed, deleted, or released by
// the expiration monitor when its hold window lapses.
type Reservation struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty"`
	UserID      string    `json:"user_id" bson:"user_id" validate:"required"`
	ProviderID  string    `json:"provider_id" bson:"provider_id" validate:"required"`
	Date        string    `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot    TimeSlot  `json:"time_slot" bson:"time_slot" validate:"required"`
	IsConfirmed bool      `json:"is_confirmed" bson:"is_confirmed"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// SlotLock is an advisory lock preventing two clients from racing to hold the
// same provider slot. Locks carry a short TTL so an abandoned request cannot
// wedge a slot.
type SlotLock struct {
	ID        string    `json:"id" bson:"_id"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
