package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/spring2life/telehealth-portal/cmd/mainconfig"
	"github.com/spring2life/telehealth-portal/internal/api/router"
	"github.com/spring2life/telehealth-portal/internal/appointments"
	"github.com/spring2life/telehealth-portal/internal/availability"
	appconfig "github.com/spring2life/telehealth-portal/internal/config"
	"github.com/spring2life/telehealth-portal/internal/notify"
	"github.com/spring2life/telehealth-portal/internal/observability/metrics"
	"github.com/spring2life/telehealth-portal/internal/profiles"
	"github.com/spring2life/telehealth-portal/pkg/logging"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting telehealth portal API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence: Postgres when configured, in-memory otherwise.
	var (
		profileRepo profiles.Repository
		availRepo   availability.Repository
		apptRepo    appointments.Repository
		notifyRepo  notify.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		profileRepo = profiles.NewPostgresRepository(pool)
		availRepo = availability.NewPostgresRepository(pool)
		apptRepo = appointments.NewPostgresRepository(pool)
		notifyRepo = notify.NewPostgresRepository(pool)
		logger.Info("using postgres storage")
	} else {
		profileRepo = profiles.NewInMemoryRepository()
		availRepo = availability.NewInMemoryRepository()
		apptRepo = appointments.NewInMemoryRepository()
		notifyRepo = notify.NewInMemoryRepository()
		logger.Info("DATABASE_URL not set, using in-memory storage")
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = redisClient.Close() }()
	}

	emailSender := buildEmailSender(ctx, cfg, logger)
	sink := notify.NewFeedSink(notifyRepo, profileRepo, emailSender, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	availService := availability.NewService(availRepo, profileRepo, logger)
	apptService := appointments.NewService(apptRepo, profileRepo, availRepo, sink, bookingMetrics, logger,
		cfg.SlotHorizonDays, cfg.SlotGranularityMinutes)

	completer := appointments.NewCompleter(apptService, logger).
		WithInterval(cfg.CompletionSweepInterval)
	go completer.Run(ctx)

	r := router.New(&router.Config{
		Logger:               logger,
		ProfilesHandler:      profiles.NewHandler(profileRepo, logger),
		AvailabilityHandler:  availability.NewHandler(availService, logger),
		AppointmentsHandler:  appointments.NewHandler(apptService, logger),
		NotificationsHandler: notify.NewHandler(notifyRepo, logger),
		MetricsHandler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		JWTSecret:            cfg.JWTSecret,
		CORSAllowedOrigins:   cfg.CORSOrigins,
		RateLimitPerSecond:   cfg.RateLimitPerSecond,
		RateLimitBurst:       cfg.RateLimitBurst,
		RedisClient:          redisClient,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildEmailSender picks the configured delivery backend, falling back to
// the logging stub when a provider is missing its credentials.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Error("sendgrid selected but SENDGRID_API_KEY missing, using stub")
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config, using stub email", "error", err)
			break
		}
		if sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); sender != nil {
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}
