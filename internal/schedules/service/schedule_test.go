package service

import (
	"context"
	"testing"
	"time"

	"reservd/internal/schedules/repository"
	"reservd/internal/schedules/validator"
	"reservd/pkg/config"
	apperrors "reservd/pkg/errors"
	"reservd/pkg/logger"
	"reservd/pkg/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Log:          logger.New(logger.Config{Level: logger.ERROR, Service: "test"}),
		WorkDayStart: "09:00",
		WorkDayEnd:   "17:00",
		BlockLengths: []int{15, 30, 60},
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	}
}

func newService(t *testing.T, reserved repository.ReservedSlotSource) (ScheduleService, *repository.InMemoryScheduleRepository) {
	t.Helper()
	cfg := testConfig(t)
	repo := repository.NewInMemoryScheduleRepository(cfg.BlockLengths, reserved)
	svc := NewScheduleService(repo, validator.NewScheduleValidator(cfg.Log), cfg)
	return svc, repo
}

func submission() *model.ScheduleSubmission {
	return &model.ScheduleSubmission{
		ProviderID: "provider-1",
		StartDate:  "2024-01-10",
		EndDate:    "2024-01-12",
		TimeZone:   "UTC",
		TimeSlots: []model.TimeSlot{
			{Start: "09:00", End: "10:00"},
			{Start: "10:00", End: "11:00"},
		},
	}
}

func TestSubmit(t *testing.T) {
	svc, _ := newService(t, nil)

	created, err := svc.Submit(context.Background(), submission())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("expected one schedule per day of the range, got %d", len(created))
	}
	for i, want := range []string{"2024-01-10", "2024-01-11", "2024-01-12"} {
		if created[i].Date != want {
			t.Errorf("schedule %d date = %s, want %s", i, created[i].Date, want)
		}
		if created[i].ID == "" {
			t.Errorf("schedule %d has no store-assigned ID", i)
		}
	}
}

func TestSubmit_SingleDayWhenEndEmpty(t *testing.T) {
	svc, _ := newService(t, nil)

	sub := submission()
	sub.EndDate = ""

	created, err := svc.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected a single schedule, got %d", len(created))
	}
}

func TestSubmit_InvertedRange(t *testing.T) {
	svc, _ := newService(t, nil)

	sub := submission()
	sub.StartDate, sub.EndDate = sub.EndDate, sub.StartDate

	_, err := svc.Submit(context.Background(), sub)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected %s, got %v", apperrors.CodeValidation, err)
	}
}

func TestSubmit_DuplicateDay(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, submission()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	overlapping := submission()
	overlapping.StartDate = "2024-01-12"
	overlapping.EndDate = "2024-01-14"

	_, err := svc.Submit(ctx, overlapping)
	if err == nil {
		t.Fatal("expected conflict on overlapping submission")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected %s, got %v", apperrors.CodeConflict, err)
	}
}

func TestGetAvailableSlots(t *testing.T) {
	reserved := func(_ context.Context, providerID, date string) ([]model.TimeSlot, error) {
		if providerID == "provider-1" && date == "2024-01-10" {
			return []model.TimeSlot{{Start: "09:00", End: "10:00"}}, nil
		}
		return nil, nil
	}
	svc, _ := newService(t, reserved)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, submission()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	available, err := svc.GetAvailableSlots(ctx, "provider-1", "2024-01-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(available) != 1 {
		t.Fatalf("expected 1 free slot, got %d: %v", len(available), available)
	}
	if available[0] != (model.TimeSlot{Start: "10:00", End: "11:00"}) {
		t.Fatalf("wrong free slot: %v", available[0])
	}

	// A day with no reservations serves the full template.
	full, err := svc.GetAvailableSlots(ctx, "provider-1", "2024-01-11")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(full) != 2 {
		t.Fatalf("expected 2 free slots, got %d", len(full))
	}
}

func TestGetAvailableSlots_NoSchedule(t *testing.T) {
	svc, _ := newService(t, nil)

	_, err := svc.GetAvailableSlots(context.Background(), "provider-1", "2024-01-10")
	if err == nil {
		t.Fatal("expected not found error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected %s, got %v", apperrors.CodeNotFound, err)
	}
}

func TestGenerateSlots(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	generated, err := svc.GenerateSlots(ctx, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(generated) != 8 {
		t.Fatalf("expected 8 hour slots in a 09:00-17:00 day, got %d", len(generated))
	}

	_, err = svc.GenerateSlots(ctx, 45)
	if err == nil {
		t.Fatal("expected validation error for unsupported block length")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected %s, got %v", apperrors.CodeValidation, err)
	}
}

func TestDelete(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	created, err := svc.Submit(ctx, submission())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Delete(ctx, created[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetByProviderDay(ctx, "provider-1", created[0].Date); err == nil {
		t.Fatal("deleted schedule still retrievable")
	}

	err = svc.Delete(ctx, created[0].ID)
	if err == nil {
		t.Fatal("expected not found on double delete")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected %s, got %v", apperrors.CodeNotFound, err)
	}
}
