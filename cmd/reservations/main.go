package main

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"reservd/internal/reservations/handler"
	"reservd/internal/reservations/monitor"
	"reservd/internal/reservations/repository"
	"reservd/internal/reservations/service"
	"reservd/internal/reservations/validator"
	schederrors "reservd/internal/schedules/errors"
	schedrepo "reservd/internal/schedules/repository"
	"reservd/pkg/app"
	"reservd/pkg/config"
	"reservd/pkg/events"
	"reservd/pkg/kafka"
	kafka_config "reservd/pkg/kafka/config"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Reservations service")

	producer, err := kafka.NewProducer(
		kafka_config.Load(),
		events.TopicReservations,
		events.TopicReservations+".dlq",
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	reservationService := initServices(cfg, producer)

	// Holds that were pending when the previous process stopped get their
	// timers back; lapsed ones expire immediately.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ReadTimeout)
	if err := reservationService.ResumeMonitoring(ctx); err != nil {
		cfg.Log.Error("Failed to resume expiration monitoring", "error", err)
	}
	cancel()

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewReservationHandler(reservationService, cfg.Log))
	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})
	serverApp.Run()
}

func initServices(cfg *config.Config, producer *kafka.Producer) service.ReservationService {
	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	lockRepo := repository.NewMongoSlotLockRepository(cfg)
	expirationMonitor := monitor.New(clockwork.NewRealClock(), cfg.Log)
	publisher := events.NewKafkaPublisher(producer, ServiceName)

	reservationService := service.NewReservationService(
		reservationRepo,
		lockRepo,
		reservationValidator,
		expirationMonitor,
		publisher,
		&scheduleDirectory{schedules: schedrepo.NewMongoScheduleRepository(cfg)},
		clockwork.NewRealClock(),
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName)
	return reservationService
}

// scheduleDirectory answers lead-time queries with the time zone of the
// provider's published schedule for the day. Days without a published
// schedule fall back to UTC.
type scheduleDirectory struct {
	schedules schedrepo.ScheduleRepository
}

func (d *scheduleDirectory) Location(ctx context.Context, providerID, date string) (*time.Location, error) {
	schedule, err := d.schedules.GetSchedule(ctx, providerID, date)
	if err != nil {
		if errors.Is(err, schederrors.ErrNotFound) {
			return time.UTC, nil
		}
		return nil, err
	}
	return schedule.Location()
}
