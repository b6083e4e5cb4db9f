package main

import (
	"reservd/internal/schedules/handler"
	"reservd/internal/schedules/repository"
	"reservd/internal/schedules/service"
	"reservd/internal/schedules/validator"
	"reservd/pkg/app"
	"reservd/pkg/config"
)

const ServiceName = "schedules"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Schedules service")
	scheduleService := initServices(cfg)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewScheduleHandler(scheduleService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ScheduleService {
	scheduleValidator := validator.NewScheduleValidator(cfg.Log)
	scheduleRepo := repository.NewMongoScheduleRepository(cfg)
	scheduleService := service.NewScheduleService(
		scheduleRepo,
		scheduleValidator,
		cfg,
	)

	cfg.Log.Info("Schedule service initialized", "database", cfg.MongoDatabaseName)
	return scheduleService
}
