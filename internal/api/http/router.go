package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/tecnochamados/internal/api/http/handlers"
	"github.com/spec-kit/tecnochamados/internal/auth"
	"github.com/spec-kit/tecnochamados/internal/permission"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Activation     *handlers.ActivationHandler
	Clients        *handlers.ClientsHandler
	Tickets        *handlers.TicketsHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	Engine         *permission.Engine
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// Activation links are opened before the invitee has credentials.
	app.Get("/invite", cfg.Activation.Preview)
	app.Post("/invite", cfg.Activation.Activate)

	app.Post("/auth/login", cfg.Auth.Login)

	authed := func(extra ...fiber.Handler) []fiber.Handler {
		return append([]fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireOperator()}, extra...)
	}
	can := func(caps ...permission.Capability) fiber.Handler {
		return auth.RequireCapability(cfg.Engine, caps...)
	}

	session := app.Group("/auth", authed()...)
	session.Post("/logout", cfg.Auth.Logout)
	session.Get("/me", cfg.Auth.Me)

	app.Get("/dashboard", append(authed(can(permission.ViewDashboard)), cfg.Dashboard.Summary)...)

	tickets := app.Group("/tickets", authed(can(permission.ViewTickets))...)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/", can(permission.EditTickets), cfg.Tickets.CreateTicket)
	tickets.Put("/:id", can(permission.EditTickets), cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", can(permission.DeleteTickets), cfg.Tickets.DeleteTicket)

	clients := app.Group("/clients", authed(can(permission.ManageClients))...)
	clients.Get("/", cfg.Clients.List)
	clients.Get("/:id", cfg.Clients.Get)
	clients.Post("/", cfg.Clients.Create)
	clients.Put("/:id", cfg.Clients.Update)
	clients.Delete("/:id", cfg.Clients.Delete)

	users := app.Group("/users", authed(can(permission.ManageUsers))...)
	users.Post("/invitations", cfg.Users.Invite)
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Post("/", cfg.Users.Create)
	users.Put("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)
}
