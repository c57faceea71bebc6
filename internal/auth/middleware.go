package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/session"
	"github.com/spec-kit/tecnochamados/pkg/util"
)

const (
	userKey    = "auth_user"
	holderKey  = "auth_session"
	sessionKey = "auth_session_info"
)

// AuthMiddleware validates bearer tokens and restores the session they name.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions *session.Manager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions *session.Manager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return util.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return util.NewUnauthorized("invalid authorization header")
	}

	sess, err := m.tokens.Parse(parts[1])
	if err != nil {
		return util.NewUnauthorized("invalid token")
	}

	holder, err := m.sessions.Open(c.UserContext(), sess.ID)
	if err != nil {
		return util.MapError(err)
	}
	user, ok := holder.CurrentUser()
	if !ok {
		return util.NewUnauthorized("session expired")
	}

	c.Locals(userKey, user)
	c.Locals(holderKey, holder)
	c.Locals(sessionKey, sess)
	return c.Next()
}

// UserFromContext retrieves the authenticated operator.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(userKey).(*domain.User)
	return user, ok && user != nil
}

// HolderFromContext retrieves the session holder of the request.
func HolderFromContext(c *fiber.Ctx) (*session.Holder, bool) {
	holder, ok := c.Locals(holderKey).(*session.Holder)
	return holder, ok && holder != nil
}

// SessionFromContext returns the token-derived session info.
func SessionFromContext(c *fiber.Ctx) (domain.Session, bool) {
	sess, ok := c.Locals(sessionKey).(domain.Session)
	return sess, ok
}
