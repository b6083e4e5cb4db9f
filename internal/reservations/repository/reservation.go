package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	reserrors "reservd/internal/reservations/errors"
	"reservd/pkg/config"
	"reservd/pkg/model"
)

const (
	CollectionName = "Reservations"
)

// ReservationRepository owns durable reservation storage and id assignment.
// The lifecycle core treats every call as atomic and never holds its own
// locks across one.
type ReservationRepository interface {
	AddReservation(ctx context.Context, reservation *model.Reservation) (*model.Reservation, error)
	ConfirmReservation(ctx context.Context, id string) (*model.Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	GetReservation(ctx context.Context, providerID, userID string) (*model.Reservation, error)
	FindBySlot(ctx context.Context, providerID, date string, slot model.TimeSlot) (*model.Reservation, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error)
	Count(ctx context.Context) (int64, error)
	FindPending(ctx context.Context) ([]*model.Reservation, error)
}

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// reservationDoc is the stored shape; ids are ObjectIDs in Mongo and hex
// strings everywhere else.
type reservationDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"user_id"`
	ProviderID  string             `bson:"provider_id"`
	Date        string             `bson:"date"`
	TimeSlot    model.TimeSlot     `bson:"time_slot"`
	IsConfirmed bool               `bson:"is_confirmed"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (d *reservationDoc) toModel() *model.Reservation {
	return &model.Reservation{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		ProviderID:  d.ProviderID,
		Date:        d.Date,
		TimeSlot:    d.TimeSlot,
		IsConfirmed: d.IsConfirmed,
		CreatedAt:   d.CreatedAt,
	}
}

// withTimeout bounds a single store call without overriding a tighter caller
// deadline.
func (r *mongoReservationRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoReservationRepository) AddReservation(ctx context.Context, reservation *model.Reservation) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	doc := reservationDoc{
		UserID:      reservation.UserID,
		ProviderID:  reservation.ProviderID,
		Date:        reservation.Date,
		TimeSlot:    reservation.TimeSlot,
		IsConfirmed: reservation.IsConfirmed,
		CreatedAt:   reservation.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, reserrors.ErrNoID
	}
	doc.ID = oid
	return doc.toModel(), nil
}

func (r *mongoReservationRepository) ConfirmReservation(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reserrors.ErrInvalidID, id)
	}

	var updated reservationDoc
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"is_confirmed": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to confirm reservation: %w", err)
	}
	return updated.toModel(), nil
}

func (r *mongoReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", reserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	if result.DeletedCount == 0 {
		return reserrors.ErrNotFound
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reserrors.ErrInvalidID, id)
	}

	var doc reservationDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoReservationRepository) GetReservation(ctx context.Context, providerID, userID string) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"provider_id": providerID, "user_id": userID}

	var doc reservationDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoReservationRepository) FindBySlot(ctx context.Context, providerID, date string, slot model.TimeSlot) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"provider_id":     providerID,
		"date":            date,
		"time_slot.start": slot.Start,
		"time_slot.end":   slot.End,
	}

	var doc reservationDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoReservationRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	for cursor.Next(ctx) {
		var doc reservationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode reservation: %w", err)
		}
		reservations = append(reservations, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

func (r *mongoReservationRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

func (r *mongoReservationRepository) FindPending(ctx context.Context) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"is_confirmed": false})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	for cursor.Next(ctx) {
		var doc reservationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode pending reservation: %w", err)
		}
		reservations = append(reservations, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pending reservations: %w", err)
	}
	return reservations, nil
}
