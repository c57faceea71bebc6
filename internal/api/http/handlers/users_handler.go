package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tecnochamados/internal/api/dto"
	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/repository"
	"github.com/spec-kit/tecnochamados/internal/service"
)

// UsersHandler exposes operator management and invitations.
type UsersHandler struct {
	users       *service.UserService
	invitations *service.InvitationService
}

func NewUsersHandler(users *service.UserService, invitations *service.InvitationService) *UsersHandler {
	return &UsersHandler{users: users, invitations: invitations}
}

// List GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, offset := page(c)
	users, err := h.users.List(c.UserContext(), actor, repository.UserFilter{
		Email:  c.Query("email"),
		Role:   domain.Role(c.Query("role")),
		Status: domain.UserStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Create POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), actor, userInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Update PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), actor, c.Params("id"), userInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Delete DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Invite POST /users/invitations. Mode defaults to e-mail delivery.
func (h *UsersHandler) Invite(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.InvitationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	mode := service.ModeEmail
	if req.Mode != "" {
		mode = service.InvitationMode(req.Mode)
	}
	res, err := h.invitations.CreateInvitation(c.UserContext(), actor, service.InvitationProfile{
		Name:       req.Name,
		Email:      req.Email,
		Role:       req.Role,
		Department: req.Department,
	}, mode)
	if err != nil {
		return err
	}

	body := dto.InvitationResponse{
		User:       dto.NewUserResponse(res.User),
		InviteLink: res.Link,
		Mode:       string(res.Mode),
	}
	if res.Delivery != nil {
		body.MessageID = res.Delivery.MessageID
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": body})
}

func userInput(req dto.UserRequest) service.UserInput {
	return service.UserInput{
		Name:       req.Name,
		Email:      req.Email,
		Role:       req.Role,
		Department: req.Department,
		Status:     req.Status,
	}
}
