package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tecnochamados/internal/auth"
	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/permission"
	"github.com/spec-kit/tecnochamados/internal/repository"
	"github.com/spec-kit/tecnochamados/internal/session"
	"github.com/spec-kit/tecnochamados/pkg/util"
)

const msgBadCredentials = "E-mail ou senha inválidos"

// LoginResult is returned after a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
	Grants    map[permission.Capability]bool
}

// AuthService coordinates login and logout.
type AuthService struct {
	users    repository.UserRepository
	accounts repository.AccountRepository
	hasher   *auth.Hasher
	tokens   *auth.TokenManager
	sessions *session.Manager
	engine   *permission.Engine
	logger   *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	Users    repository.UserRepository
	Accounts repository.AccountRepository
	Hasher   *auth.Hasher
	Tokens   *auth.TokenManager
	Sessions *session.Manager
	Engine   *permission.Engine
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:    deps.Users,
		accounts: deps.Accounts,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		sessions: deps.Sessions,
		engine:   deps.Engine,
		logger:   logger,
	}
}

// Login verifies credentials, opens a session holding the operator's
// profile and returns a token naming it. Only Active operators may log in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, util.NewValidationError("e-mail e senha são obrigatórios", nil)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if util.IsNotFound(err) {
			return nil, util.NewUnauthorized(msgBadCredentials)
		}
		return nil, err
	}
	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, util.NewUnauthorized(msgBadCredentials)
		}
		return nil, util.NewInternalError(err)
	}

	user, err := s.profileFor(ctx, account)
	if err != nil {
		if util.IsNotFound(err) {
			return nil, util.NewUnauthorized(msgBadCredentials)
		}
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, util.NewForbidden("usuário não está ativo")
	}

	holder, err := s.sessions.Start(ctx, user)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	token, sess, err := s.tokens.Issue(holder.Key(), user.ID)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	s.logger.Info("operator logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &LoginResult{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		User:      user,
		Grants:    s.engine.Grants(user),
	}, nil
}

// profileFor resolves the operator row behind account. Activation rebinds the
// row id to the account id, so later invitations for the same e-mail never
// shadow it. Rows provisioned without activation fall back to the newest
// Active row, then to the newest row of any status.
func (s *AuthService) profileFor(ctx context.Context, account *domain.Account) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, account.ID)
	if err == nil {
		return user, nil
	}
	if !util.IsNotFound(err) {
		return nil, err
	}
	active, err := s.users.List(ctx, repository.UserFilter{Email: account.Email, Status: domain.UserStatusActive, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return &active[0], nil
	}
	return s.users.GetByEmail(ctx, account.Email)
}

// Logout ends the session held by holder.
func (s *AuthService) Logout(ctx context.Context, holder *session.Holder) error {
	if holder == nil {
		return nil
	}
	return holder.Logout(ctx)
}

// Grants reports the capabilities of user.
func (s *AuthService) Grants(user *domain.User) map[permission.Capability]bool {
	return s.engine.Grants(user)
}
