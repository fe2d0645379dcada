package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shotbook/shotbook-api/internal/config"
	"github.com/shotbook/shotbook-api/internal/domain/auth"
	"github.com/shotbook/shotbook-api/internal/domain/booking"
	"github.com/shotbook/shotbook-api/internal/domain/catalog"
	"github.com/shotbook/shotbook-api/internal/domain/delivery"
	"github.com/shotbook/shotbook-api/internal/domain/realtime"
	"github.com/shotbook/shotbook-api/internal/domain/user"
	"github.com/shotbook/shotbook-api/internal/middleware"
	"github.com/shotbook/shotbook-api/internal/pkg/cache"
	"github.com/shotbook/shotbook-api/internal/pkg/database"
	"github.com/shotbook/shotbook-api/internal/pkg/events"
	"github.com/shotbook/shotbook-api/internal/pkg/imaging"
	"github.com/shotbook/shotbook-api/internal/pkg/jwt"
	"github.com/shotbook/shotbook-api/internal/pkg/logger"
	"github.com/shotbook/shotbook-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Shotbook API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// ---------- Events ----------
	hub := realtime.NewHub(redis)
	go hub.Run()
	defer hub.Shutdown()

	rabbit := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.EventsQueue)
	if rabbit == nil {
		log.Warn().Msg("RabbitMQ URL not configured, booking events are not queued")
	} else {
		defer rabbit.Close()
	}
	publisher := events.NewFanout(rabbit, hub)

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)
	bookingRepo := booking.NewRepository(db)
	activityRepo := booking.NewActivityRepository(db)
	deliveryRepo := delivery.NewRepository(db)

	// ---------- Services ----------
	authService := auth.NewService(userRepo, jwtService, auth.NewTokenStore(redis))
	catalogService := catalog.NewService(catalogRepo, cache.New(redis, "catalog", cfg.CatalogCacheTTL))
	bookingService := booking.NewService(bookingRepo, activityRepo, catalogService, publisher)
	deliveryService := delivery.NewService(deliveryRepo, bookingRepo, publisher)

	mediaStore, mediaDir := setupMediaStorage(cfg)
	if mediaStore != nil {
		deliveryService.WithMedia(mediaStore, imaging.NewProcessor(imaging.DefaultConfig()), cfg.MaxUploadBytes())
	}

	if cfg.BootstrapAdminEmail != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := authService.EnsureAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
			log.Error().Err(err).Str("email", cfg.BootstrapAdminEmail).Msg("Failed to ensure bootstrap admin")
		}
		cancel()
	}

	checks := []healthCheck{
		{name: "database", ping: func(ctx context.Context) error { return database.PingPostgres(ctx, db) }},
		{name: "redis", ping: func(ctx context.Context) error { return database.PingRedis(ctx, redis) }},
	}
	if rabbit != nil {
		checks = append(checks, healthCheck{name: "rabbitmq", ping: func(context.Context) error { return rabbit.Ping() }})
	}

	router := newRouter(cfg, routerDeps{
		jwt:         jwtService,
		auth:        authService,
		catalog:     catalogService,
		booking:     bookingService,
		delivery:    deliveryService,
		hub:         hub,
		rateCounter: middleware.NewRedisWindowCounter(redis),
		mediaDir:    mediaDir,
		checks:      checks,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// setupMediaStorage returns the store used for delivery uploads. Without
// bucket credentials development falls back to local disk, served by the API
// itself; the returned directory is empty otherwise.
func setupMediaStorage(cfg *config.Config) (storage.Storage, string) {
	if cfg.StorageEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s3Store, err := storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Bucket:          cfg.S3Bucket,
			PublicURL:       cfg.S3PublicURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 storage")
		}
		if err := s3Store.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("bucket", cfg.S3Bucket).Msg("Media bucket is not reachable yet")
		}
		return s3Store, ""
	}

	if !cfg.IsDevelopment() {
		log.Warn().Msg("Media storage not configured, delivery uploads are disabled")
		return nil, ""
	}

	local, err := storage.NewLocalStorage(cfg.MediaLocalDir, cfg.PublicBaseURL+mediaPrefix)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create local media storage")
	}
	log.Info().Str("dir", cfg.MediaLocalDir).Msg("Using local media storage")
	return local, local.BasePath()
}
