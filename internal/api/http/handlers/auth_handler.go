package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tecnochamados/internal/api/dto"
	"github.com/spec-kit/tecnochamados/internal/auth"
	"github.com/spec-kit/tecnochamados/internal/service"
)

// AuthHandler serves login, logout and the current operator.
type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      dto.NewUserResponse(res.User),
		Grants:    dto.NewGrantsView(res.Grants),
	}})
}

// Logout POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	holder, _ := auth.HolderFromContext(c)
	if err := h.service.Logout(c.UserContext(), holder); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user":   dto.NewUserResponse(user),
		"grants": dto.NewGrantsView(h.service.Grants(user)),
	}})
}
