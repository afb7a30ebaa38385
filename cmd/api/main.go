package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hakeemhq/clinic-agent-platform/internal/api/router"
	"github.com/hakeemhq/clinic-agent-platform/internal/appointments"
	"github.com/hakeemhq/clinic-agent-platform/internal/availability"
	appconfig "github.com/hakeemhq/clinic-agent-platform/internal/config"
	"github.com/hakeemhq/clinic-agent-platform/internal/observability/metrics"
	"github.com/hakeemhq/clinic-agent-platform/internal/patients"
	"github.com/hakeemhq/clinic-agent-platform/internal/services"
	"github.com/hakeemhq/clinic-agent-platform/internal/settings"
	"github.com/hakeemhq/clinic-agent-platform/internal/webhook"
	"github.com/hakeemhq/clinic-agent-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-agent-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting will fail open", "error", err)
	}

	registry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	settingsStore := settings.NewStore(pool)
	dispatcher := webhook.NewDispatcher(settingsStore, logger,
		webhook.WithHTTPClient(&http.Client{Timeout: cfg.WebhookTimeout}),
		webhook.WithMetrics(webhookMetrics),
	)

	patientsRepo := patients.NewRepository(pool)
	appointmentsRepo := appointments.NewRepository(pool)
	servicesRepo := services.NewRepository(pool)

	bookingService := appointments.NewService(appointmentsRepo, patientsRepo, dispatcher, webhookMetrics, logger)
	availabilityEngine := availability.NewEngine(appointmentsRepo)

	r := router.New(&router.Config{
		Logger:              logger,
		PatientsHandler:     patients.NewHandler(patientsRepo, dispatcher, logger),
		AppointmentsHandler: appointments.NewHandler(bookingService, appointmentsRepo, logger),
		AvailabilityHandler: availability.NewHandler(availabilityEngine, logger),
		ServicesHandler:     services.NewHandler(servicesRepo, logger),
		SettingsHandler:     settings.NewHandler(settingsStore, logger),
		WebhookHandler:      webhook.NewHandler(dispatcher, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  strings.Split(cfg.CORSAllowedOrigins, ","),
		RateLimitRedis:      rdb,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
