package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"reservd/internal/notifier"
	"reservd/pkg/config"
	"reservd/pkg/events"
	"reservd/pkg/kafka"
	kafka_config "reservd/pkg/kafka/config"
)

const (
	ServiceName   = "notifier"
	consumerGroup = "reservation-notifier"
)

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Notifier service")

	n := notifier.New(cfg.Log)
	consumer, err := kafka.NewConsumer(
		kafka_config.Load(),
		events.TopicReservations,
		consumerGroup,
		events.TopicReservations+".dlq",
		n.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}
