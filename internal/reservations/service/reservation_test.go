package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	reserrors "reservd/internal/reservations/errors"
	"reservd/internal/reservations/monitor"
	"reservd/internal/reservations/repository"
	"reservd/internal/reservations/validator"
	"reservd/pkg/config"
	apperrors "reservd/pkg/errors"
	"reservd/pkg/events"
	"reservd/pkg/logger"
	"reservd/pkg/model"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.ReservationEvent
}

func (p *capturePublisher) Publish(_ context.Context, event events.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) byType(eventType string) []events.ReservationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.ReservationEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// failingReservationRepo wraps the in-memory store and fails selected calls.
type failingReservationRepo struct {
	*repository.InMemoryReservationRepository
	addErr error
}

func (r *failingReservationRepo) AddReservation(ctx context.Context, reservation *model.Reservation) (*model.Reservation, error) {
	if r.addErr != nil {
		return nil, r.addErr
	}
	return r.InMemoryReservationRepository.AddReservation(ctx, reservation)
}

type fixture struct {
	service   ReservationService
	repo      *repository.InMemoryReservationRepository
	monitor   *monitor.ExpirationMonitor
	publisher *capturePublisher
	clock     clockwork.FakeClock
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Log:          logger.New(logger.Config{Level: logger.ERROR, Service: "test"}),
		HoldTTL:      30 * time.Minute,
		LeadTime:     24 * time.Hour,
		SlotLockTTL:  10 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testConfig(t)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 13, 10, 0, 0, 0, time.UTC))
	repo := repository.NewInMemoryReservationRepository()
	mon := monitor.New(clock, cfg.Log)
	publisher := &capturePublisher{}

	svc := NewReservationService(
		repo,
		repository.NewInMemorySlotLockRepository(),
		validator.NewReservationValidator(cfg.Log),
		mon,
		publisher,
		FixedLocation{Loc: time.UTC},
		clock,
		cfg,
	)

	return &fixture{
		service:   svc,
		repo:      repo,
		monitor:   mon,
		publisher: publisher,
		clock:     clock,
	}
}

func pendingReservation() *model.Reservation {
	return &model.Reservation{
		UserID:     "user-1",
		ProviderID: "provider-1",
		Date:       "2026-03-20",
		TimeSlot:   model.TimeSlot{Start: "10:00", End: "11:00"},
	}
}

// waitUntil polls cond with a real-time deadline; fake-clock timer callbacks
// may run on their own goroutine.
func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestReserve(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Reserve(context.Background(), pendingReservation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected store-assigned reservation ID")
	}
	if created.IsConfirmed {
		t.Fatal("new reservation must start unconfirmed")
	}
	if !f.monitor.Armed(created.ID) {
		t.Fatal("expected expiration timer armed for new reservation")
	}
	if got := f.publisher.byType(events.TypeReservationCreated); len(got) != 1 {
		t.Fatalf("expected 1 created event, got %d", len(got))
	}
}

func TestReserve_LeadTime(t *testing.T) {
	// Fake now is 2026-03-13 10:00 UTC; the boundary slot starts exactly
	// 24h later.
	tests := []struct {
		name    string
		date    string
		slot    model.TimeSlot
		wantErr bool
	}{
		{
			name: "slot exactly 24h away is accepted",
			date: "2026-03-14",
			slot: model.TimeSlot{Start: "10:00", End: "11:00"},
		},
		{
			name:    "slot one minute under 24h is rejected",
			date:    "2026-03-14",
			slot:    model.TimeSlot{Start: "09:59", End: "10:59"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			r := pendingReservation()
			r.Date = tt.date
			r.TimeSlot = tt.slot

			_, err := f.service.Reserve(context.Background(), r)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected lead-time validation error")
			}
			appErr := apperrors.AsAppError(err)
			if appErr == nil || appErr.Code != apperrors.CodeValidation {
				t.Fatalf("expected %s, got %v", apperrors.CodeValidation, err)
			}
		})
	}
}

func TestReserve_SlotAlreadyReserved(t *testing.T) {
	f := newFixture(t)

	if _, err := f.service.Reserve(context.Background(), pendingReservation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := pendingReservation()
	second.UserID = "user-2"
	_, err := f.service.Reserve(context.Background(), second)
	if err == nil {
		t.Fatal("expected conflict on double-reserved slot")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected %s, got %v", apperrors.CodeConflict, err)
	}
}

func TestReserve_RepositoryFailure(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig(t)

	repo := &failingReservationRepo{
		InMemoryReservationRepository: repository.NewInMemoryReservationRepository(),
		addErr:                        reserrors.ErrNoID,
	}
	svc := NewReservationService(
		repo,
		repository.NewInMemorySlotLockRepository(),
		validator.NewReservationValidator(cfg.Log),
		f.monitor,
		events.NopPublisher{},
		FixedLocation{},
		f.clock,
		cfg,
	)

	_, err := svc.Reserve(context.Background(), pendingReservation())
	if err == nil {
		t.Fatal("expected repository error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeRepository {
		t.Fatalf("expected %s, got %v", apperrors.CodeRepository, err)
	}
	if f.monitor.Len() != 0 {
		t.Fatal("no timer may be armed for a rejected reservation")
	}
}

func TestHoldExpiresAfterWindow(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Reserve(context.Background(), pendingReservation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.clock.Advance(30 * time.Minute)

	waitUntil(t, func() bool {
		_, err := f.repo.FindByID(context.Background(), created.ID)
		return errors.Is(err, reserrors.ErrNotFound)
	}, "expired hold was not released from the store")

	waitUntil(t, func() bool {
		return len(f.publisher.byType(events.TypeReservationExpired)) == 1
	}, "expected exactly one expired event")

	if f.monitor.Armed(created.ID) {
		t.Fatal("expired hold must not keep an armed timer")
	}

	// A later tick must not fire the callback again.
	f.clock.Advance(time.Hour)
	time.Sleep(10 * time.Millisecond)
	if got := len(f.publisher.byType(events.TypeReservationExpired)); got != 1 {
		t.Fatalf("expired event fired %d times, want 1", got)
	}
}

func TestConfirmStopsExpiration(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Reserve(context.Background(), pendingReservation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.clock.Advance(5 * time.Minute)
	confirmed, err := f.service.Confirm(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !confirmed.IsConfirmed {
		t.Fatal("expected confirmed reservation")
	}
	if f.monitor.Armed(created.ID) {
		t.Fatal("confirm must disarm the expiration timer")
	}

	f.clock.Advance(30 * time.Minute)
	time.Sleep(10 * time.Millisecond)

	stored, err := f.repo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("confirmed reservation vanished: %v", err)
	}
	if !stored.IsConfirmed {
		t.Fatal("confirmed reservation lost its confirmation")
	}
	if got := len(f.publisher.byType(events.TypeReservationExpired)); got != 0 {
		t.Fatalf("confirmed hold expired anyway: %d expired events", got)
	}
}

func TestConfirm_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Confirm(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected not found error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected %s, got %v", apperrors.CodeNotFound, err)
	}
}

func TestDeleteStopsExpiration(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Reserve(context.Background(), pendingReservation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.service.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.monitor.Armed(created.ID) {
		t.Fatal("delete must disarm the expiration timer")
	}
	if got := f.publisher.byType(events.TypeReservationDeleted); len(got) != 1 {
		t.Fatalf("expected 1 deleted event, got %d", len(got))
	}

	f.clock.Advance(time.Hour)
	time.Sleep(10 * time.Millisecond)
	if got := len(f.publisher.byType(events.TypeReservationExpired)); got != 0 {
		t.Fatalf("deleted hold expired anyway: %d expired events", got)
	}
}

func TestStartMonitoring_PartiallyElapsedWindow(t *testing.T) {
	f := newFixture(t)

	var fired []string
	var mu sync.Mutex
	onExpired := func(id string) {
		mu.Lock()
		fired = append(fired, id)
		mu.Unlock()
	}

	// 10 minutes of the window already elapsed; the timer must fire after
	// the remaining 20, not after a fresh 30.
	createdAt := f.clock.Now().Add(-10 * time.Minute)
	f.service.StartMonitoring("res-1", createdAt, onExpired)

	f.clock.Advance(19 * time.Minute)
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	early := len(fired)
	mu.Unlock()
	if early != 0 {
		t.Fatal("timer fired before the remaining window elapsed")
	}

	f.clock.Advance(time.Minute)
	waitUntil(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 1
	}, "timer did not fire after the remaining window")
}

func TestStartMonitoring_LapsedWindowExpiresImmediately(t *testing.T) {
	f := newFixture(t)

	var fired []string
	var mu sync.Mutex
	onExpired := func(id string) {
		mu.Lock()
		fired = append(fired, id)
		mu.Unlock()
	}

	createdAt := f.clock.Now().Add(-45 * time.Minute)
	f.service.StartMonitoring("res-stale", createdAt, onExpired)

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 {
		t.Fatalf("lapsed window fired %d times, want immediate single fire", len(fired))
	}
	if f.monitor.Armed("res-stale") {
		t.Fatal("lapsed window must not leave an armed timer")
	}
}

func TestResumeMonitoring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fresh, err := f.repo.AddReservation(ctx, &model.Reservation{
		UserID:     "user-1",
		ProviderID: "provider-1",
		Date:       "2026-03-20",
		TimeSlot:   model.TimeSlot{Start: "10:00", End: "11:00"},
		CreatedAt:  f.clock.Now().Add(-5 * time.Minute),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stale, err := f.repo.AddReservation(ctx, &model.Reservation{
		UserID:     "user-2",
		ProviderID: "provider-1",
		Date:       "2026-03-20",
		TimeSlot:   model.TimeSlot{Start: "11:00", End: "12:00"},
		CreatedAt:  f.clock.Now().Add(-2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.service.ResumeMonitoring(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The stale hold lapsed while the process was down and is released on
	// resume; the fresh one stays armed for its remaining window.
	waitUntil(t, func() bool {
		_, err := f.repo.FindByID(ctx, stale.ID)
		return errors.Is(err, reserrors.ErrNotFound)
	}, "stale hold was not released on resume")

	if !f.monitor.Armed(fresh.ID) {
		t.Fatal("fresh hold must stay monitored after resume")
	}

	f.clock.Advance(25 * time.Minute)
	waitUntil(t, func() bool {
		_, err := f.repo.FindByID(ctx, fresh.ID)
		return errors.Is(err, reserrors.ErrNotFound)
	}, "fresh hold did not expire after its remaining window")
}
