package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/school-portal/internal/api/http/handlers"
	"github.com/spec-kit/school-portal/internal/auth"
	"github.com/spec-kit/school-portal/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Dashboard  *handlers.DashboardHandler
	Metrics    *observability.Metrics
	CookieName string
	Sessions   *auth.SessionMiddleware
	Guard      *auth.Guard
	Policy     *auth.Policy
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	client := app.Group("", auth.ClientContext(cfg.CookieName), cfg.Sessions.Handle)

	client.Get(cfg.Policy.Landing(), cfg.Auth.Landing)

	authGroup := client.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/session", cfg.Auth.Session)
	authGroup.Get("/demo-credentials", cfg.Auth.DemoCredentials)

	for _, route := range cfg.Policy.Routes() {
		client.Get(route, cfg.Guard.RequireRoute(route), cfg.Dashboard.Show)
	}
}
