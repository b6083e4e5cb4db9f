package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	reserrors "reservd/internal/reservations/errors"
	"reservd/pkg/model"
)

// InMemoryReservationRepository is a process-local store with uuid-assigned
// ids. It backs tests and broker-less standalone runs; a durable store
// implementing the same contract is a drop-in replacement.
type InMemoryReservationRepository struct {
	mu           sync.RWMutex
	reservations map[string]*model.Reservation
}

func NewInMemoryReservationRepository() *InMemoryReservationRepository {
	return &InMemoryReservationRepository{
		reservations: make(map[string]*model.Reservation),
	}
}

func (r *InMemoryReservationRepository) AddReservation(_ context.Context, reservation *model.Reservation) (*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *reservation
	stored.ID = uuid.New().String()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.reservations[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (r *InMemoryReservationRepository) ConfirmReservation(_ context.Context, id string) (*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reservation, ok := r.reservations[id]
	if !ok {
		return nil, reserrors.ErrNotFound
	}
	reservation.IsConfirmed = true

	result := *reservation
	return &result, nil
}

func (r *InMemoryReservationRepository) DeleteReservation(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reservations[id]; !ok {
		return reserrors.ErrNotFound
	}
	delete(r.reservations, id)
	return nil
}

func (r *InMemoryReservationRepository) FindByID(_ context.Context, id string) (*model.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reservation, ok := r.reservations[id]
	if !ok {
		return nil, reserrors.ErrNotFound
	}
	result := *reservation
	return &result, nil
}

func (r *InMemoryReservationRepository) GetReservation(_ context.Context, providerID, userID string) (*model.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, reservation := range r.reservations {
		if reservation.ProviderID == providerID && reservation.UserID == userID {
			result := *reservation
			return &result, nil
		}
	}
	return nil, reserrors.ErrNotFound
}

func (r *InMemoryReservationRepository) FindBySlot(_ context.Context, providerID, date string, slot model.TimeSlot) (*model.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, reservation := range r.reservations {
		if reservation.ProviderID == providerID && reservation.Date == date && reservation.TimeSlot == slot {
			result := *reservation
			return &result, nil
		}
	}
	return nil, reserrors.ErrNotFound
}

func (r *InMemoryReservationRepository) FindAll(_ context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*model.Reservation, 0, len(r.reservations))
	for _, reservation := range r.reservations {
		result := *reservation
		all = append(all, &result)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= int64(len(all)) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *InMemoryReservationRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.reservations)), nil
}

func (r *InMemoryReservationRepository) FindPending(_ context.Context) ([]*model.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []*model.Reservation
	for _, reservation := range r.reservations {
		if !reservation.IsConfirmed {
			result := *reservation
			pending = append(pending, &result)
		}
	}
	return pending, nil
}

// InMemorySlotLockRepository mirrors the advisory-lock contract for
// broker-less runs and tests. Expired locks are reaped lazily on the next
// conflicting Create.
type InMemorySlotLockRepository struct {
	mu    sync.Mutex
	locks map[string]*model.SlotLock
}

func NewInMemorySlotLockRepository() *InMemorySlotLockRepository {
	return &InMemorySlotLockRepository{
		locks: make(map[string]*model.SlotLock),
	}
}

func (r *InMemorySlotLockRepository) Create(_ context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.locks[lock.ID]; ok {
		if time.Now().Before(existing.ExpiresAt) {
			return nil, reserrors.ErrSlotHeld
		}
		delete(r.locks, lock.ID)
	}

	lock.CreatedAt = time.Now()
	r.locks[lock.ID] = lock
	return lock, nil
}

func (r *InMemorySlotLockRepository) Delete(_ context.Context, lockID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, lockID)
	return nil
}
