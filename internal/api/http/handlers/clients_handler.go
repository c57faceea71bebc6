package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tecnochamados/internal/api/dto"
	"github.com/spec-kit/tecnochamados/internal/repository"
	"github.com/spec-kit/tecnochamados/internal/service"
)

type ClientsHandler struct {
	service *service.ClientService
}

func NewClientsHandler(clientService *service.ClientService) *ClientsHandler {
	return &ClientsHandler{service: clientService}
}

// List GET /clients.
func (h *ClientsHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, offset := page(c)
	clients, err := h.service.List(c.UserContext(), actor, repository.ClientFilter{
		City:   c.Query("city"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clients})
}

// Get GET /clients/:id.
func (h *ClientsHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	client, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": client})
}

// Create POST /clients.
func (h *ClientsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ClientRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	client, err := h.service.Create(c.UserContext(), actor, req.Client())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": client})
}

// Update PUT /clients/:id.
func (h *ClientsHandler) Update(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ClientRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	client, err := h.service.Update(c.UserContext(), actor, c.Params("id"), req.Client())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": client})
}

// Delete DELETE /clients/:id.
func (h *ClientsHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
