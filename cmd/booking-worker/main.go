package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shotbook/shotbook-api/internal/config"
	"github.com/shotbook/shotbook-api/internal/domain/booking"
	"github.com/shotbook/shotbook-api/internal/pkg/database"
	"github.com/shotbook/shotbook-api/internal/pkg/events"
	"github.com/shotbook/shotbook-api/internal/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})

	if cfg.RabbitMQURL == "" {
		log.Fatal().Msg("RABBITMQ_URL is required for booking-worker")
	}

	log.Info().Str("queue", cfg.EventsQueue).Msg("Starting booking-worker")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	consumer := events.NewConsumer(cfg.RabbitMQURL, cfg.EventsQueue, cfg.EventsPrefetch,
		recordActivity(booking.NewActivityRepository(db)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("booking-worker stopped")
		}
		return
	case <-sigChan:
		log.Info().Msg("Shutdown signal received")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		log.Warn().Msg("booking-worker forced to stop")
	}
	log.Info().Msg("booking-worker stopped")
}

// recordActivity stores every event in the booking activity log
func recordActivity(repo booking.ActivityRepository) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		if err := repo.Record(ctx, event); err != nil {
			log.Error().Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", string(event.Type)).
				Msg("Failed to record booking activity")
			return err
		}

		log.Debug().
			Str("event_id", event.ID.String()).
			Str("event_type", string(event.Type)).
			Str("booking_id", event.BookingID.String()).
			Msg("Booking activity recorded")
		return nil
	}
}
