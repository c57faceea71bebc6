package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tecnochamados/internal/permission"
)

// RequireCapability ensures the operator's role grants every listed capability.
func RequireCapability(engine *permission.Engine, caps ...permission.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		for _, cp := range caps {
			if !engine.Can(user, cp) {
				return fiber.NewError(http.StatusForbidden, "permissão insuficiente: "+string(cp))
			}
		}
		return c.Next()
	}
}

// RequireOperator ensures the caller is authenticated.
func RequireOperator() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
