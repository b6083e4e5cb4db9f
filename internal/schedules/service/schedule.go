package service

import (
	"context"
	"errors"
	"slices"

	schederrors "reservd/internal/schedules/errors"
	"reservd/internal/schedules/repository"
	"reservd/internal/schedules/slots"
	"reservd/internal/schedules/validator"
	"reservd/pkg/config"
	apperrors "reservd/pkg/errors"
	"reservd/pkg/model"
)

// ScheduleService publishes provider-day schedules and serves the
// availability views derived from them.
type ScheduleService interface {
	Submit(ctx context.Context, submission *model.ScheduleSubmission) ([]*model.Schedule, error)
	GetByProviderDay(ctx context.Context, providerID, date string) (*model.Schedule, error)
	Delete(ctx context.Context, id string) error
	GetAvailableSlots(ctx context.Context, providerID, date string) ([]model.TimeSlot, error)
	GenerateSlots(ctx context.Context, block model.BlockLength) ([]model.TimeSlot, error)
	GetSupportedBlockLengths(ctx context.Context) ([]model.BlockLength, error)
}

type scheduleService struct {
	repo      repository.ScheduleRepository
	validator *validator.ScheduleValidator
	cfg       *config.Config
}

func NewScheduleService(
	repo repository.ScheduleRepository,
	validator *validator.ScheduleValidator,
	cfg *config.Config,
) ScheduleService {
	return &scheduleService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

// Submit materializes a submission into one schedule per day of its inclusive
// range. A day already published by the provider fails the whole submission
// before anything is written.
func (s *scheduleService) Submit(ctx context.Context, submission *model.ScheduleSubmission) ([]*model.Schedule, error) {
	if err := s.validator.ValidateSubmission(submission); err != nil {
		return nil, apperrors.Validation("Invalid schedule submission", map[string]any{"error": err.Error()})
	}

	dates, err := s.validator.ExpandDateRange(submission.StartDate, submission.EndDate)
	if err != nil {
		return nil, apperrors.Validation("Invalid date range", map[string]any{"error": err.Error()})
	}

	for _, date := range dates {
		if _, err := s.repo.GetSchedule(ctx, submission.ProviderID, date); err == nil {
			return nil, apperrors.Conflict("Schedule already exists for " + date)
		} else if !errors.Is(err, schederrors.ErrNotFound) {
			return nil, apperrors.Repository("Failed to check existing schedules", err)
		}
	}

	created := make([]*model.Schedule, 0, len(dates))
	for _, date := range dates {
		schedule, err := s.repo.AddSchedule(ctx, &model.Schedule{
			ProviderID: submission.ProviderID,
			Date:       date,
			TimeZone:   submission.TimeZone,
			TimeSlots:  submission.TimeSlots,
		})
		if err != nil {
			if errors.Is(err, schederrors.ErrDuplicateDay) {
				return created, apperrors.Conflict("Schedule already exists for " + date)
			}
			s.cfg.Log.Error("Failed to create schedule",
				"provider_id", submission.ProviderID,
				"date", date,
				"error", err,
			)
			return created, apperrors.Repository("Failed to create schedule", err)
		}
		created = append(created, schedule)
	}

	s.cfg.Log.Info("Schedules published",
		"provider_id", submission.ProviderID,
		"start_date", submission.StartDate,
		"end_date", submission.EndDate,
		"days", len(created),
	)
	return created, nil
}

func (s *scheduleService) GetByProviderDay(ctx context.Context, providerID, date string) (*model.Schedule, error) {
	if providerID == "" || date == "" {
		return nil, apperrors.InvalidInput("ProviderID and Date are required")
	}

	schedule, err := s.repo.GetSchedule(ctx, providerID, date)
	if err != nil {
		if errors.Is(err, schederrors.ErrNotFound) {
			return nil, apperrors.NotFound("Schedule")
		}
		return nil, apperrors.Repository("Failed to retrieve schedule", err)
	}
	return schedule, nil
}

func (s *scheduleService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Schedule ID cannot be empty")
	}

	if err := s.repo.DeleteSchedule(ctx, id); err != nil {
		if errors.Is(err, schederrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Schedule", id)
		}
		if errors.Is(err, schederrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid schedule ID format")
		}
		return apperrors.Repository("Failed to delete schedule", err)
	}

	s.cfg.Log.Info("Schedule deleted", "id", id)
	return nil
}

func (s *scheduleService) GetAvailableSlots(ctx context.Context, providerID, date string) ([]model.TimeSlot, error) {
	if providerID == "" || date == "" {
		return nil, apperrors.InvalidInput("ProviderID and Date are required")
	}

	available, err := s.repo.GetAvailableSlots(ctx, providerID, date)
	if err != nil {
		if errors.Is(err, schederrors.ErrNotFound) {
			return nil, apperrors.NotFound("Schedule")
		}
		return nil, apperrors.Repository("Failed to retrieve available slots", err)
	}
	return available, nil
}

// GenerateSlots enumerates a work day in blocks of the requested length. The
// length must be one of the supported set.
func (s *scheduleService) GenerateSlots(ctx context.Context, block model.BlockLength) ([]model.TimeSlot, error) {
	supported, err := s.repo.GetSupportedBlockLengths(ctx)
	if err != nil {
		return nil, apperrors.Repository("Failed to retrieve supported block lengths", err)
	}
	if !slices.Contains(supported, block) {
		return nil, apperrors.Validation("Unsupported block length", map[string]any{
			"block_length": int(block),
			"supported":    supported,
		})
	}

	generated, err := slots.Generate(block, s.cfg.WorkDayStart, s.cfg.WorkDayEnd)
	if err != nil {
		return nil, apperrors.Validation("Failed to generate slots", map[string]any{"error": err.Error()})
	}
	return generated, nil
}

func (s *scheduleService) GetSupportedBlockLengths(ctx context.Context) ([]model.BlockLength, error) {
	supported, err := s.repo.GetSupportedBlockLengths(ctx)
	if err != nil {
		return nil, apperrors.Repository("Failed to retrieve supported block lengths", err)
	}
	return supported, nil
}
