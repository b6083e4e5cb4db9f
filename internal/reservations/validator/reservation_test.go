package validator

import (
	"errors"
	"testing"
	"time"

	"reservd/pkg/logger"
	"reservd/pkg/model"
)

func newTestValidator(t *testing.T) *ReservationValidator {
	t.Helper()
	return NewReservationValidator(logger.New(logger.Config{Level: logger.ERROR, Service: "test"}))
}

func validReservation() *model.Reservation {
	return &model.Reservation{
		UserID:     "user-1",
		ProviderID: "provider-1",
		Date:       "2026-03-14",
		TimeSlot:   model.TimeSlot{Start: "10:00", End: "11:00"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.Reservation)
		wantErr bool
	}{
		{
			name:    "valid reservation",
			mutate:  func(r *model.Reservation) {},
			wantErr: false,
		},
		{
			name:    "missing user id",
			mutate:  func(r *model.Reservation) { r.UserID = "" },
			wantErr: true,
		},
		{
			name:    "missing provider id",
			mutate:  func(r *model.Reservation) { r.ProviderID = "" },
			wantErr: true,
		},
		{
			name:    "date not in calendar format",
			mutate:  func(r *model.Reservation) { r.Date = "14/03/2026" },
			wantErr: true,
		},
		{
			name:    "slot start is not a clock time",
			mutate:  func(r *model.Reservation) { r.TimeSlot.Start = "25:99" },
			wantErr: true,
		},
		{
			name:    "slot end is not a clock time",
			mutate:  func(r *model.Reservation) { r.TimeSlot.End = "noon" },
			wantErr: true,
		},
		{
			name:    "slot start equals end",
			mutate:  func(r *model.Reservation) { r.TimeSlot = model.TimeSlot{Start: "10:00", End: "10:00"} },
			wantErr: true,
		},
		{
			name:    "slot start after end",
			mutate:  func(r *model.Reservation) { r.TimeSlot = model.TimeSlot{Start: "11:00", End: "10:00"} },
			wantErr: true,
		},
	}

	v := newTestValidator(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReservation()
			tt.mutate(r)

			err := v.Validate(r)
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
			if tt.wantErr {
				var validationErrs ValidationErrors
				if !errors.As(err, &validationErrs) {
					t.Fatalf("expected ValidationErrors, got %T", err)
				}
			}
		})
	}
}

func TestCheckLeadTime(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 13, 10, 0, 0, 0, loc)
	leadTime := 24 * time.Hour

	tests := []struct {
		name    string
		date    string
		slot    model.TimeSlot
		wantErr bool
	}{
		{
			name:    "slot well beyond lead time",
			date:    "2026-03-20",
			slot:    model.TimeSlot{Start: "10:00", End: "11:00"},
			wantErr: false,
		},
		{
			name:    "slot exactly at lead time boundary",
			date:    "2026-03-14",
			slot:    model.TimeSlot{Start: "10:00", End: "11:00"},
			wantErr: false,
		},
		{
			name:    "slot one minute inside lead time",
			date:    "2026-03-14",
			slot:    model.TimeSlot{Start: "09:59", End: "10:59"},
			wantErr: true,
		},
		{
			name:    "slot in the past",
			date:    "2026-03-12",
			slot:    model.TimeSlot{Start: "10:00", End: "11:00"},
			wantErr: true,
		},
		{
			name:    "unparseable date",
			date:    "not-a-date",
			slot:    model.TimeSlot{Start: "10:00", End: "11:00"},
			wantErr: true,
		},
	}

	v := newTestValidator(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.CheckLeadTime(now, tt.date, tt.slot, loc, leadTime)
			if tt.wantErr && err == nil {
				t.Fatal("expected lead-time error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected lead-time error: %v", err)
			}
		})
	}
}
