package relay

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/spec-kit/tecnochamados/internal/observability"
)

// NewApp wires the relay routes. Only corsOrigin may call it from a browser.
func NewApp(h *Handler, corsOrigin string, metrics *observability.Metrics, logger *zap.Logger) *fiber.App {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               "tecnochamados-mailer",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigin,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET,POST,OPTIONS",
	}))
	app.Use(observability.RequestLogger(logger))
	app.Use(metrics.Middleware())

	api := app.Group("/api")
	api.Post("/send-invite-gmail", h.SendInvite)
	api.Get("/health", h.Health)

	return app
}
