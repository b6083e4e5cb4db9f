package model

import (
	"time"
)

// Schedule is one provider-day's slot template: the ordered set of bookable
// slots a provider offers on a calendar date.
type Schedule struct {
	ID         string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty"`
	ProviderID string     `json:"provider_id" bson:"provider_id" validate:"required"`
	Date       string     `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	TimeZone   string     `json:"time_zone" bson:"time_zone" validate:"required,timezone"`
	TimeSlots  []TimeSlot `json:"time_slots" bson:"time_slots" validate:"required,min=1,dive"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Location resolves the schedule's IANA time zone, falling back to UTC when
// unset.
func (s *Schedule) Location() (*time.Location, error) {
	if s.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.TimeZone)
}

// ScheduleSubmission is a provider's request to publish the same slot template
// across an inclusive date range. EndDate may be empty, meaning a single day.
type ScheduleSubmission struct {
	ProviderID string     `json:"provider_id" validate:"required"`
	StartDate  string     `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string     `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TimeZone   string     `json:"time_zone,omitempty" validate:"omitempty,timezone"`
	TimeSlots  []TimeSlot `json:"time_slots" validate:"required,min=1,dive"`
}
