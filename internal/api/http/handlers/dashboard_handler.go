package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tecnochamados/internal/service"
)

type DashboardHandler struct {
	service *service.DashboardService
}

func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboard}
}

// Summary GET /dashboard.
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	summary, err := h.service.Summary(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}
