// Package router wires the HTTP surface: patient directory, booking,
// availability, settings and the agent webhook test endpoint.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/hakeemhq/clinic-agent-platform/internal/appointments"
	"github.com/hakeemhq/clinic-agent-platform/internal/availability"
	httpmiddleware "github.com/hakeemhq/clinic-agent-platform/internal/http/middleware"
	"github.com/hakeemhq/clinic-agent-platform/internal/patients"
	"github.com/hakeemhq/clinic-agent-platform/internal/services"
	"github.com/hakeemhq/clinic-agent-platform/internal/settings"
	"github.com/hakeemhq/clinic-agent-platform/internal/webhook"
	"github.com/hakeemhq/clinic-agent-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	PatientsHandler     *patients.Handler
	AppointmentsHandler *appointments.Handler
	AvailabilityHandler *availability.Handler
	ServicesHandler     *services.Handler
	SettingsHandler     *settings.Handler
	WebhookHandler      *webhook.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	RateLimitRedis      *redis.Client
	RateLimitPerSecond  float64
	RateLimitBurst      int
}

// New creates a new Chi router with all routes configured.
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

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimitRedis != nil && cfg.RateLimitPerSecond > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitRedis, cfg.RateLimitPerSecond, cfg.RateLimitBurst, cfg.Logger))
		}

		api.Route("/patients", func(r chi.Router) {
			r.Post("/", cfg.PatientsHandler.Create)
			r.Patch("/", cfg.PatientsHandler.Update)
			r.Get("/", cfg.PatientsHandler.Get)
		})

		api.Route("/appointments", func(r chi.Router) {
			r.Post("/", cfg.AppointmentsHandler.Book)
			r.Get("/", cfg.AppointmentsHandler.ListByDate)
			r.Patch("/{id}/status", cfg.AppointmentsHandler.ChangeStatus)
		})

		api.Get("/availability", cfg.AvailabilityHandler.Check)
		api.Get("/services", cfg.ServicesHandler.Get)

		api.Route("/settings", func(r chi.Router) {
			r.Get("/", cfg.SettingsHandler.GetSettings)
			r.Put("/", cfg.SettingsHandler.UpdateSettings)
			r.Post("/test-webhook", cfg.WebhookHandler.TestWebhook)
		})
	})

	return r
}
