package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	schederrors "reservd/internal/schedules/errors"
	"reservd/pkg/model"
)

// ReservedSlotSource tells the in-memory store which slots of a provider day
// are already held. Nil means no slot is ever reserved.
type ReservedSlotSource func(ctx context.Context, providerID, date string) ([]model.TimeSlot, error)

// InMemoryScheduleRepository is a process-local schedule store with
// uuid-assigned ids, backing tests and broker-less standalone runs.
type InMemoryScheduleRepository struct {
	mu           sync.RWMutex
	schedules    map[string]*model.Schedule
	blockLengths []model.BlockLength
	reserved     ReservedSlotSource
}

func NewInMemoryScheduleRepository(blockLengths []int, reserved ReservedSlotSource) *InMemoryScheduleRepository {
	lengths := make([]model.BlockLength, 0, len(blockLengths))
	for _, b := range blockLengths {
		lengths = append(lengths, model.BlockLength(b))
	}
	return &InMemoryScheduleRepository{
		schedules:    make(map[string]*model.Schedule),
		blockLengths: lengths,
		reserved:     reserved,
	}
}

func (r *InMemoryScheduleRepository) AddSchedule(_ context.Context, schedule *model.Schedule) (*model.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.schedules {
		if existing.ProviderID == schedule.ProviderID && existing.Date == schedule.Date {
			return nil, schederrors.ErrDuplicateDay
		}
	}

	stored := *schedule
	stored.ID = uuid.New().String()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.schedules[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (r *InMemoryScheduleRepository) GetSchedule(_ context.Context, providerID, date string) (*model.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, schedule := range r.schedules {
		if schedule.ProviderID == providerID && schedule.Date == date {
			result := *schedule
			return &result, nil
		}
	}
	return nil, schederrors.ErrNotFound
}

func (r *InMemoryScheduleRepository) FindByID(_ context.Context, id string) (*model.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schedule, ok := r.schedules[id]
	if !ok {
		return nil, schederrors.ErrNotFound
	}
	result := *schedule
	return &result, nil
}

func (r *InMemoryScheduleRepository) DeleteSchedule(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schedules[id]; !ok {
		return schederrors.ErrNotFound
	}
	delete(r.schedules, id)
	return nil
}

func (r *InMemoryScheduleRepository) GetAvailableSlots(ctx context.Context, providerID, date string) ([]model.TimeSlot, error) {
	schedule, err := r.GetSchedule(ctx, providerID, date)
	if err != nil {
		return nil, err
	}

	reserved := make(map[model.TimeSlot]struct{})
	if r.reserved != nil {
		held, err := r.reserved(ctx, providerID, date)
		if err != nil {
			return nil, err
		}
		for _, slot := range held {
			reserved[slot] = struct{}{}
		}
	}

	var available []model.TimeSlot
	for _, slot := range schedule.TimeSlots {
		if _, held := reserved[slot]; !held {
			available = append(available, slot)
		}
	}
	return available, nil
}

func (r *InMemoryScheduleRepository) GetSupportedBlockLengths(_ context.Context) ([]model.BlockLength, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lengths := make([]model.BlockLength, len(r.blockLengths))
	copy(lengths, r.blockLengths)
	return lengths, nil
}
