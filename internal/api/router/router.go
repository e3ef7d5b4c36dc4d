// Package router assembles the portal's HTTP surface.
package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/spring2life/telehealth-portal/internal/appointments"
	"github.com/spring2life/telehealth-portal/internal/availability"
	httpmiddleware "github.com/spring2life/telehealth-portal/internal/http/middleware"
	"github.com/spring2life/telehealth-portal/internal/notify"
	"github.com/spring2life/telehealth-portal/internal/profiles"
	"github.com/spring2life/telehealth-portal/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger               *logging.Logger
	ProfilesHandler      *profiles.Handler
	AvailabilityHandler  *availability.Handler
	AppointmentsHandler  *appointments.Handler
	NotificationsHandler *notify.Handler
	MetricsHandler       http.Handler

	JWTSecret          string
	CORSAllowedOrigins []string

	// Per-IP limiting. Redis takes precedence when configured so several
	// API instances share one window.
	RateLimitPerSecond float64
	RateLimitBurst     int
	RedisClient        *redis.Client
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RedisClient != nil {
		limit := int(cfg.RateLimitPerSecond)
		if limit <= 0 {
			limit = 5
		}
		limiter := httpmiddleware.NewRedisRateLimiter(cfg.RedisClient, limit*60, time.Minute, "portal")
		r.Use(limiter.Middleware(cfg.Logger, true))
	} else if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints: health, metrics, provider discovery, slot browsing.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.ProfilesHandler != nil {
			public.Get("/providers", cfg.ProfilesHandler.ListProviders)
			public.Get("/providers/{providerID}", cfg.ProfilesHandler.GetProvider)
		}
		if cfg.AppointmentsHandler != nil {
			public.Get("/providers/{providerID}/slots", cfg.AppointmentsHandler.Slots)
		}
		if cfg.AvailabilityHandler != nil {
			public.Get("/providers/{providerID}/availability", cfg.AvailabilityHandler.GetWeek)
		}
	})

	// Authenticated endpoints.
	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.ActorJWT(cfg.JWTSecret))

		if cfg.AvailabilityHandler != nil {
			private.Put("/providers/{providerID}/availability", cfg.AvailabilityHandler.ReplaceWeek)
		}
		if cfg.AppointmentsHandler != nil {
			private.Post("/appointments", cfg.AppointmentsHandler.Book)
			private.Get("/appointments", cfg.AppointmentsHandler.List)
			private.Get("/appointments/{id}", cfg.AppointmentsHandler.Get)
			private.Post("/appointments/{id}/{op}", cfg.AppointmentsHandler.Transition)
		}
		if cfg.NotificationsHandler != nil {
			private.Get("/notifications", cfg.NotificationsHandler.List)
			private.Post("/notifications/{id}/read", cfg.NotificationsHandler.MarkRead)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
