package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sentiment-watchdog/internal/api/http/handlers"
	"github.com/spec-kit/sentiment-watchdog/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Webhooks       *handlers.WebhookHandler
	Dashboard      *handlers.DashboardHandler
	Auth           *handlers.AuthHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Webhook ingestion stays open: the forms
// post anonymously. The dashboard group is guarded when auth is configured.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/debug/metrics", cfg.Metrics.Snapshot)

	webhook := app.Group("/webhook")
	webhook.Post("/contact-form", cfg.Webhooks.ContactForm)
	webhook.Post("/feedback", cfg.Webhooks.Feedback)
	webhook.Post("/support", cfg.Webhooks.Support)
	webhook.Post("/custom", cfg.Webhooks.Custom)

	app.Post("/auth/token", cfg.Auth.Token)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)
	api.Get("/stats", cfg.Dashboard.Stats)
	api.Get("/tickets/recent", cfg.Dashboard.RecentTickets)
	api.Get("/tickets/:id", cfg.Dashboard.GetTicket)
	api.Post("/tickets/:id/requeue", cfg.Dashboard.RequeueTicket)
	api.Get("/tickets", cfg.Dashboard.Tickets)
	api.Get("/trend", cfg.Dashboard.Trend)
	api.Get("/sources", cfg.Dashboard.Sources)
	api.Get("/alerts", cfg.Dashboard.Alerts)
}
