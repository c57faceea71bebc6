package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tecnochamados/internal/api/dto"
	"github.com/spec-kit/tecnochamados/internal/auth"
	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/pkg/util"
)

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return nil, util.NewUnauthorized("login required")
	}
	return user, nil
}

// bind parses the body into req and runs tag validation.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

func page(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 100)
	offset = c.QueryInt("offset", 0)
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
