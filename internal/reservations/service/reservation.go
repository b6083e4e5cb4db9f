package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	reserrors "reservd/internal/reservations/errors"
	"reservd/internal/reservations/monitor"
	"reservd/internal/reservations/repository"
	"reservd/internal/reservations/validator"
	"reservd/pkg/config"
	apperrors "reservd/pkg/errors"
	"reservd/pkg/events"
	"reservd/pkg/model"
)

// ScheduleDirectory resolves the time zone a provider's schedule lives in.
// Lead-time math needs the zone of the targeted day, nothing else from the
// schedule.
type ScheduleDirectory interface {
	Location(ctx context.Context, providerID, date string) (*time.Location, error)
}

// FixedLocation is a ScheduleDirectory that answers with one zone for every
// provider. Used for standalone runs and tests.
type FixedLocation struct {
	Loc *time.Location
}

func (f FixedLocation) Location(context.Context, string, string) (*time.Location, error) {
	if f.Loc == nil {
		return time.UTC, nil
	}
	return f.Loc, nil
}

// ReservationService drives the hold lifecycle: Pending is the only state
// with outgoing transitions, and Confirm, Delete, and expiry are all
// terminal.
type ReservationService interface {
	Reserve(ctx context.Context, reservation *model.Reservation) (*model.Reservation, error)
	Confirm(ctx context.Context, id string) (*model.Reservation, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
	Lookup(ctx context.Context, providerID, userID string) (*model.Reservation, error)
	StartMonitoring(id string, createdAt time.Time, onExpired monitor.OnExpired)
	StopMonitoring(id string)
	ResumeMonitoring(ctx context.Context) error
}

type reservationService struct {
	repo      repository.ReservationRepository
	lockRepo  repository.SlotLockRepository
	validator *validator.ReservationValidator
	monitor   *monitor.ExpirationMonitor
	publisher events.Publisher
	schedules ScheduleDirectory
	clock     clockwork.Clock
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.SlotLockRepository,
	validator *validator.ReservationValidator,
	mon *monitor.ExpirationMonitor,
	publisher events.Publisher,
	schedules ScheduleDirectory,
	clock clockwork.Clock,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		monitor:   mon,
		publisher: publisher,
		schedules: schedules,
		clock:     clock,
		cfg:       cfg,
	}
}

func (s *reservationService) Reserve(ctx context.Context, reservation *model.Reservation) (*model.Reservation, error) {
	reservation.ID = ""
	reservation.IsConfirmed = false
	reservation.CreatedAt = s.clock.Now().UTC()

	if err := s.validator.Validate(reservation); err != nil {
		return nil, apperrors.Validation("Invalid reservation input", map[string]any{"error": err.Error()})
	}

	loc, err := s.schedules.Location(ctx, reservation.ProviderID, reservation.Date)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve schedule time zone",
			"provider_id", reservation.ProviderID,
			"date", reservation.Date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to resolve schedule time zone", err)
	}
	if err := s.validator.CheckLeadTime(s.clock.Now(), reservation.Date, reservation.TimeSlot, loc, s.cfg.LeadTime); err != nil {
		return nil, apperrors.Validation("Reservation violates lead time", map[string]any{"error": err.Error()})
	}

	// Advisory lock so two clients racing for the same slot cannot both pass
	// the duplicate check.
	lockID, err := s.acquireSlotLock(ctx, reservation.ProviderID, reservation.Date, reservation.TimeSlot)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	if err := s.verifySlotFree(ctx, reservation); err != nil {
		return nil, err
	}

	created, err := s.repo.AddReservation(ctx, reservation)
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation", "provider_id", reservation.ProviderID, "error", err)
		if errors.Is(err, reserrors.ErrNoID) {
			return nil, apperrors.Repository("Store accepted the reservation but assigned no ID", err)
		}
		return nil, apperrors.Repository("Failed to create reservation", err)
	}

	s.monitor.Monitor(created.ID, s.cfg.HoldTTL, s.onExpired)

	s.publish(ctx, events.TypeReservationCreated, created)
	s.cfg.Log.Info("Reservation created",
		"id", created.ID,
		"provider_id", created.ProviderID,
		"user_id", created.UserID,
		"date", created.Date,
		"hold_ttl", s.cfg.HoldTTL,
	)
	return created, nil
}

func (s *reservationService) Confirm(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	confirmed, err := s.repo.ConfirmReservation(ctx, id)
	if err != nil {
		if errors.Is(err, reserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Repository("Failed to confirm reservation", err)
	}

	s.monitor.StopMonitor(id)

	s.publish(ctx, events.TypeReservationConfirmed, confirmed)
	s.cfg.Log.Info("Reservation confirmed", "id", id)
	return confirmed, nil
}

func (s *reservationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	deleted, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid reservation ID format")
		}
		return apperrors.Repository("Failed to check reservation existence", err)
	}

	if err := s.repo.DeleteReservation(ctx, id); err != nil {
		if errors.Is(err, reserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Reservation", id)
		}
		return apperrors.Repository("Failed to delete reservation", err)
	}

	s.monitor.StopMonitor(id)

	s.publish(ctx, events.TypeReservationDeleted, deleted)
	s.cfg.Log.Info("Reservation deleted", "id", id)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Repository("Failed to retrieve reservation", err)
	}
	return reservation, nil
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Repository("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Repository("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

// Lookup finds the reservation a user currently holds with a provider.
func (s *reservationService) Lookup(ctx context.Context, providerID, userID string) (*model.Reservation, error) {
	if providerID == "" || userID == "" {
		return nil, apperrors.InvalidInput("ProviderID and UserID are required")
	}

	reservation, err := s.repo.GetReservation(ctx, providerID, userID)
	if err != nil {
		if errors.Is(err, reserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Reservation")
		}
		return nil, apperrors.Repository("Failed to retrieve reservation", err)
	}
	return reservation, nil
}

// StartMonitoring arms the expiration timer for a hold whose window may be
// partially elapsed. A window that already lapsed takes the immediate-expiry
// path rather than arming a negative timer.
func (s *reservationService) StartMonitoring(id string, createdAt time.Time, onExpired monitor.OnExpired) {
	if onExpired == nil {
		onExpired = s.onExpired
	}

	remaining := s.cfg.HoldTTL - s.clock.Now().Sub(createdAt)
	s.monitor.Monitor(id, remaining, onExpired)
}

func (s *reservationService) StopMonitoring(id string) {
	s.monitor.StopMonitor(id)
}

// ResumeMonitoring re-arms timers for every pending hold found in the store.
// Called once at startup; holds whose window lapsed while the process was
// down expire immediately.
func (s *reservationService) ResumeMonitoring(ctx context.Context) error {
	pending, err := s.repo.FindPending(ctx)
	if err != nil {
		return apperrors.Repository("Failed to list pending reservations", err)
	}

	for _, reservation := range pending {
		s.StartMonitoring(reservation.ID, reservation.CreatedAt, s.onExpired)
	}

	s.cfg.Log.Info("Resumed expiration monitoring", "pending", len(pending))
	return nil
}

// onExpired is the default expiry action: release the lapsed hold from the
// store (best effort) and tell downstream consumers the hold lapsed. Both
// failures are logged; an expired timer has already fired and cannot be
// re-armed by a failed cleanup.
func (s *reservationService) onExpired(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, reserrors.ErrNotFound) {
			s.cfg.Log.Error("Failed to load expired reservation",
				"id", id,
				"error", apperrors.SchedulingFault("Expiry cleanup lookup failed", err),
			)
		}
		return
	}
	if reservation.IsConfirmed {
		// Confirmed between the deadline and this callback running; the
		// monitor entry for the old arming already backed out.
		return
	}

	if err := s.repo.DeleteReservation(ctx, id); err != nil && !errors.Is(err, reserrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to release expired reservation",
			"id", id,
			"error", apperrors.SchedulingFault("Expiry cleanup delete failed", err),
		)
		return
	}

	s.publish(ctx, events.TypeReservationExpired, reservation)
	s.cfg.Log.Info("Reservation expired",
		"id", id,
		"provider_id", reservation.ProviderID,
		"user_id", reservation.UserID,
	)
}

// --- Helpers ---

func (s *reservationService) verifySlotFree(ctx context.Context, reservation *model.Reservation) error {
	existing, err := s.repo.FindBySlot(ctx, reservation.ProviderID, reservation.Date, reservation.TimeSlot)
	if err != nil {
		if errors.Is(err, reserrors.ErrNotFound) {
			return nil
		}
		return apperrors.Repository("Failed to check slot availability", err)
	}
	if existing != nil {
		return apperrors.Conflict("Slot is already reserved")
	}
	return nil
}

func (s *reservationService) acquireSlotLock(ctx context.Context, providerID, date string, slot model.TimeSlot) (string, error) {
	lockID := fmt.Sprintf("%s:%s:%s-%s", providerID, date, slot.Start, slot.End)
	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: s.clock.Now().Add(s.cfg.SlotLockTTL),
	}

	if _, err := s.lockRepo.Create(ctx, lock); err != nil {
		if errors.Is(err, reserrors.ErrSlotHeld) {
			return "", apperrors.Conflict("Slot is being reserved by another request")
		}
		return "", apperrors.Repository("Failed to acquire slot lock", err)
	}
	return lockID, nil
}

func (s *reservationService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

func (s *reservationService) publish(ctx context.Context, eventType string, reservation *model.Reservation) {
	event := events.ReservationEvent{
		Type:          eventType,
		ReservationID: reservation.ID,
		ProviderID:    reservation.ProviderID,
		UserID:        reservation.UserID,
		Date:          reservation.Date,
		OccurredAt:    s.clock.Now().UTC(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish reservation event",
			"type", eventType,
			"id", reservation.ID,
			"error", err,
		)
	}
}
