package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/shotbook/shotbook-api/internal/config"
	"github.com/shotbook/shotbook-api/internal/domain/auth"
	"github.com/shotbook/shotbook-api/internal/domain/booking"
	"github.com/shotbook/shotbook-api/internal/domain/catalog"
	"github.com/shotbook/shotbook-api/internal/domain/delivery"
	"github.com/shotbook/shotbook-api/internal/domain/realtime"
	"github.com/shotbook/shotbook-api/internal/middleware"
	"github.com/shotbook/shotbook-api/internal/pkg/jwt"
	"github.com/shotbook/shotbook-api/internal/pkg/response"
)

const mediaPrefix = "/media"

type healthCheck struct {
	name string
	ping func(ctx context.Context) error
}

type routerDeps struct {
	jwt         *jwt.Service
	auth        *auth.Service
	catalog     *catalog.Service
	booking     *booking.Service
	delivery    *delivery.Service
	hub         *realtime.Hub
	rateCounter middleware.WindowCounter
	mediaDir    string
	checks      []healthCheck
}

func newRouter(cfg *config.Config, deps routerDeps) chi.Router {
	authMiddleware := middleware.Auth(deps.jwt)
	authLimiter := middleware.RateLimit(deps.rateCounter, "auth", cfg.AuthRateLimitPerMinute, time.Minute)

	authHandler := auth.NewHandler(deps.auth)
	catalogHandler := catalog.NewHandler(deps.catalog)
	bookingHandler := booking.NewHandler(deps.booking)
	deliveryHandler := delivery.NewHandler(deps.delivery)
	realtimeHandler := realtime.NewHandler(deps.hub, cfg.AllowedOrigins)

	r := chi.NewRouter()

	r.Use(middleware.TrustedRealIP(cfg.TrustedProxies))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", healthHandler(deps.checks))

	if deps.mediaDir != "" {
		r.Handle(mediaPrefix+"/*", http.StripPrefix(mediaPrefix, http.FileServer(http.Dir(deps.mediaDir))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint (before Compress)
		r.Mount("/ws", realtimeHandler.Routes(authMiddleware))

		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5))

			r.Mount("/auth", authHandler.Routes(authMiddleware, authLimiter))
			r.Mount("/packages", catalogHandler.PackageRoutes(authMiddleware))
			r.Mount("/addons", catalogHandler.AddOnRoutes(authMiddleware))
			r.Mount("/bookings", bookingHandler.Routes(authMiddleware))
			r.Mount("/delivery", deliveryHandler.Routes(authMiddleware))
		})
	})

	return r
}

// healthHandler handles GET /health
func healthHandler(checks []healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.ping(ctx); err != nil {
				log.Warn().Err(err).Str("component", c.name).Msg("Health check failed")
				components[c.name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			components[c.name] = "up"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		response.JSON(w, status, map[string]interface{}{
			"status":     overall,
			"components": components,
		})
	}
}
