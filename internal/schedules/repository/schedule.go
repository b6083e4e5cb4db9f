package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	schederrors "reservd/internal/schedules/errors"
	"reservd/pkg/config"
	"reservd/pkg/model"
)

const (
	CollectionName = "Schedules"

	// reservationsCollection is read (never written) to subtract held slots
	// from a day's template when computing availability.
	reservationsCollection = "Reservations"
)

// ScheduleRepository owns provider-day schedule storage and the availability
// view derived from it.
type ScheduleRepository interface {
	AddSchedule(ctx context.Context, schedule *model.Schedule) (*model.Schedule, error)
	GetSchedule(ctx context.Context, providerID, date string) (*model.Schedule, error)
	FindByID(ctx context.Context, id string) (*model.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
	GetAvailableSlots(ctx context.Context, providerID, date string) ([]model.TimeSlot, error)
	GetSupportedBlockLengths(ctx context.Context) ([]model.BlockLength, error)
}

type mongoScheduleRepository struct {
	cfg          *config.Config
	collection   *mongo.Collection
	reservations *mongo.Collection
}

func NewMongoScheduleRepository(cfg *config.Config) ScheduleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoScheduleRepository{
		cfg:          cfg,
		collection:   db.Collection(CollectionName),
		reservations: db.Collection(reservationsCollection),
	}
}

type scheduleDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ProviderID string             `bson:"provider_id"`
	Date       string             `bson:"date"`
	TimeZone   string             `bson:"time_zone"`
	TimeSlots  []model.TimeSlot   `bson:"time_slots"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (d *scheduleDoc) toModel() *model.Schedule {
	return &model.Schedule{
		ID:         d.ID.Hex(),
		ProviderID: d.ProviderID,
		Date:       d.Date,
		TimeZone:   d.TimeZone,
		TimeSlots:  d.TimeSlots,
		CreatedAt:  d.CreatedAt,
	}
}

func (r *mongoScheduleRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoScheduleRepository) AddSchedule(ctx context.Context, schedule *model.Schedule) (*model.Schedule, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	doc := scheduleDoc{
		ProviderID: schedule.ProviderID,
		Date:       schedule.Date,
		TimeZone:   schedule.TimeZone,
		TimeSlots:  schedule.TimeSlots,
		CreatedAt:  schedule.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		// Unique index on (provider_id, date).
		if mongo.IsDuplicateKeyError(err) {
			return nil, schederrors.ErrDuplicateDay
		}
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("store assigned no schedule ID")
	}
	doc.ID = oid
	return doc.toModel(), nil
}

func (r *mongoScheduleRepository) GetSchedule(ctx context.Context, providerID, date string) (*model.Schedule, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"provider_id": providerID, "date": date}

	var doc scheduleDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, schederrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find schedule: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoScheduleRepository) FindByID(ctx context.Context, id string) (*model.Schedule, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", schederrors.ErrInvalidID, id)
	}

	var doc scheduleDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, schederrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find schedule: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", schederrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if result.DeletedCount == 0 {
		return schederrors.ErrNotFound
	}
	return nil
}

// GetAvailableSlots returns the day's template slots minus every slot a
// reservation currently holds, pending or confirmed.
func (r *mongoScheduleRepository) GetAvailableSlots(ctx context.Context, providerID, date string) ([]model.TimeSlot, error) {
	schedule, err := r.GetSchedule(ctx, providerID, date)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.reservations.Find(ctx, bson.M{"provider_id": providerID, "date": date})
	if err != nil {
		return nil, fmt.Errorf("failed to load reserved slots: %w", err)
	}
	defer cursor.Close(ctx)

	reserved := make(map[model.TimeSlot]struct{})
	for cursor.Next(ctx) {
		var doc struct {
			TimeSlot model.TimeSlot `bson:"time_slot"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode reserved slot: %w", err)
		}
		reserved[doc.TimeSlot] = struct{}{}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to load reserved slots: %w", err)
	}

	var available []model.TimeSlot
	for _, slot := range schedule.TimeSlots {
		if _, held := reserved[slot]; !held {
			available = append(available, slot)
		}
	}
	return available, nil
}

// GetSupportedBlockLengths serves the configured block-length set. Kept on the
// repository so a provider-specific store can replace the static set without
// touching callers.
func (r *mongoScheduleRepository) GetSupportedBlockLengths(_ context.Context) ([]model.BlockLength, error) {
	lengths := make([]model.BlockLength, 0, len(r.cfg.BlockLengths))
	for _, b := range r.cfg.BlockLengths {
		lengths = append(lengths, model.BlockLength(b))
	}
	return lengths, nil
}
