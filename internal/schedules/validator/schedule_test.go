package validator

import (
	"testing"

	"reservd/pkg/logger"
	"reservd/pkg/model"
)

func newTestValidator(t *testing.T) *ScheduleValidator {
	t.Helper()
	return NewScheduleValidator(logger.New(logger.Config{Level: logger.ERROR, Service: "test"}))
}

func TestExpandDateRange(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		want    []string
		wantErr bool
	}{
		{
			name:  "three day range",
			start: "2024-01-10",
			end:   "2024-01-12",
			want:  []string{"2024-01-10", "2024-01-11", "2024-01-12"},
		},
		{
			name:  "single day when end equals start",
			start: "2024-01-10",
			end:   "2024-01-10",
			want:  []string{"2024-01-10"},
		},
		{
			name:  "empty end means single day",
			start: "2024-01-10",
			end:   "",
			want:  []string{"2024-01-10"},
		},
		{
			name:  "range crosses a month boundary",
			start: "2024-01-30",
			end:   "2024-02-02",
			want:  []string{"2024-01-30", "2024-01-31", "2024-02-01", "2024-02-02"},
		},
		{
			name:    "inverted range fails",
			start:   "2024-01-12",
			end:     "2024-01-10",
			wantErr: true,
		},
		{
			name:    "unparseable start fails",
			start:   "10-01-2024",
			end:     "2024-01-12",
			wantErr: true,
		},
		{
			name:    "unparseable end fails",
			start:   "2024-01-10",
			end:     "tomorrow",
			wantErr: true,
		},
	}

	v := newTestValidator(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ExpandDateRange(tt.start, tt.end)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d dates, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("date %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func validSubmission() *model.ScheduleSubmission {
	return &model.ScheduleSubmission{
		ProviderID: "provider-1",
		StartDate:  "2024-01-10",
		EndDate:    "2024-01-12",
		TimeZone:   "America/New_York",
		TimeSlots: []model.TimeSlot{
			{Start: "09:00", End: "10:00"},
			{Start: "10:00", End: "11:00"},
		},
	}
}

func TestValidateSubmission(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.ScheduleSubmission)
		wantErr bool
	}{
		{
			name:   "valid submission",
			mutate: func(s *model.ScheduleSubmission) {},
		},
		{
			name:   "empty end date allowed",
			mutate: func(s *model.ScheduleSubmission) { s.EndDate = "" },
		},
		{
			name:   "empty time zone allowed",
			mutate: func(s *model.ScheduleSubmission) { s.TimeZone = "" },
		},
		{
			name:    "missing provider id",
			mutate:  func(s *model.ScheduleSubmission) { s.ProviderID = "" },
			wantErr: true,
		},
		{
			name:    "empty slot set",
			mutate:  func(s *model.ScheduleSubmission) { s.TimeSlots = nil },
			wantErr: true,
		},
		{
			name:    "inverted date range",
			mutate:  func(s *model.ScheduleSubmission) { s.StartDate, s.EndDate = s.EndDate, s.StartDate },
			wantErr: true,
		},
		{
			name: "slot with start after end",
			mutate: func(s *model.ScheduleSubmission) {
				s.TimeSlots = append(s.TimeSlots, model.TimeSlot{Start: "14:00", End: "13:00"})
			},
			wantErr: true,
		},
		{
			name:    "bogus time zone",
			mutate:  func(s *model.ScheduleSubmission) { s.TimeZone = "Mars/Olympus" },
			wantErr: true,
		},
	}

	v := newTestValidator(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			tt.mutate(s)

			err := v.ValidateSubmission(s)
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}
