package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tecnochamados/internal/api/dto"
	"github.com/spec-kit/tecnochamados/internal/service"
)

// ActivationHandler serves the public activation endpoints. Both read the
// invitation from the untouched query string of the link.
type ActivationHandler struct {
	service *service.ActivationService
}

func NewActivationHandler(activation *service.ActivationService) *ActivationHandler {
	return &ActivationHandler{service: activation}
}

func rawQuery(c *fiber.Ctx) string {
	return string(c.Request().URI().QueryString())
}

// Preview GET /invite?data=... returns the invitee profile for the form.
func (h *ActivationHandler) Preview(c *fiber.Ctx) error {
	page := h.service.Open(rawQuery(c))
	payload, ok := page.Payload()
	if !ok {
		return page.Err()
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"state":  page.State(),
		"invite": payload,
	}})
}

// Activate POST /invite?data=...
func (h *ActivationHandler) Activate(c *fiber.Ctx) error {
	var req dto.ActivationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	res, err := h.service.Activate(c.UserContext(), rawQuery(c), req.Password, req.ConfirmPassword)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ActivationResponse{
		User:                dto.NewUserResponse(res.User),
		ConfirmationPending: res.ConfirmationPending,
		Message:             res.Message,
	}})
}
