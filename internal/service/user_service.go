package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/permission"
	"github.com/spec-kit/tecnochamados/internal/repository"
	"github.com/spec-kit/tecnochamados/pkg/util"
)

const MsgEmailLocked = "O e-mail de um usuário com conta ativa não pode ser alterado"

// UserInput carries editable user fields.
type UserInput struct {
	Name       string
	Email      string
	Role       domain.Role
	Department string
	Status     domain.UserStatus
}

// UserService manages operator records directly, outside the invitation flow.
type UserService struct {
	users    repository.UserRepository
	accounts repository.AccountRepository
	engine   *permission.Engine
	logger   *zap.Logger
}

func NewUserService(users repository.UserRepository, accounts repository.AccountRepository, engine *permission.Engine, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, accounts: accounts, engine: engine, logger: logger}
}

// List returns users newest first.
func (s *UserService) List(ctx context.Context, actor *domain.User, filter repository.UserFilter) ([]domain.User, error) {
	if !s.engine.CanManageUsers(actor) {
		return nil, util.NewForbidden("sem permissão para gerenciar usuários")
	}
	return s.users.List(ctx, filter)
}

func (s *UserService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if !s.engine.CanManageUsers(actor) {
		return nil, util.NewForbidden("sem permissão para gerenciar usuários")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if util.IsNotFound(err) {
			return nil, util.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, err
	}
	return user, nil
}

// Create inserts a user that is Active immediately unless another status
// is given.
func (s *UserService) Create(ctx context.Context, actor *domain.User, in UserInput) (*domain.User, error) {
	in = normalizeUserInput(in)
	if in.Status == "" {
		in.Status = domain.UserStatusActive
	}
	if err := validateUserInput(in); err != nil {
		return nil, err
	}
	if err := s.authorizeRole(actor, in.Role); err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:       in.Name,
		Email:      in.Email,
		Role:       in.Role,
		Department: in.Department,
		Status:     in.Status,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update replaces the editable fields of user id. Promoting to
// Administrador needs create_admin; demoting one needs delete_admin.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id string, in UserInput) (*domain.User, error) {
	existing, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in = normalizeUserInput(in)
	if in.Status == "" {
		in.Status = existing.Status
	}
	if err := validateUserInput(in); err != nil {
		return nil, err
	}
	if in.Role != existing.Role {
		if err := s.authorizeRole(actor, in.Role); err != nil {
			return nil, err
		}
		if existing.Role == domain.RoleAdministrator && !s.engine.CanDeleteAdmin(actor) {
			return nil, util.NewForbidden("sem permissão para rebaixar administradores")
		}
	}

	if in.Email != existing.Email {
		if err := s.ensureUnbound(ctx, existing); err != nil {
			return nil, err
		}
	}

	existing.Name = in.Name
	existing.Email = in.Email
	existing.Role = in.Role
	existing.Department = in.Department
	existing.Status = in.Status
	if err := s.users.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// ensureUnbound refuses changes that would detach user from the account
// its login resolves through.
func (s *UserService) ensureUnbound(ctx context.Context, user *domain.User) error {
	account, err := s.accounts.GetByEmail(ctx, user.Email)
	if err != nil {
		if util.IsNotFound(err) {
			return nil
		}
		return err
	}
	if account.ID == user.ID {
		return util.NewConflict(MsgEmailLocked, map[string]any{"id": user.ID})
	}
	return nil
}

// Delete removes user id. Administrators can only be removed by holders
// of delete_admin.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, id string) error {
	existing, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if existing.Role == domain.RoleAdministrator && !s.engine.CanDeleteAdmin(actor) {
		return util.NewForbidden("sem permissão para excluir administradores")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

func (s *UserService) authorizeRole(actor *domain.User, role domain.Role) error {
	if !s.engine.CanManageUsers(actor) {
		return util.NewForbidden("sem permissão para gerenciar usuários")
	}
	if role == domain.RoleAdministrator && !s.engine.CanCreateAdmin(actor) {
		return util.NewForbidden("sem permissão para criar administradores")
	}
	return nil
}

func normalizeUserInput(in UserInput) UserInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Department = strings.TrimSpace(in.Department)
	return in
}

func validateUserInput(in UserInput) error {
	if in.Name == "" || in.Email == "" || in.Department == "" {
		return util.NewValidationError("Todos os campos são obrigatórios", nil)
	}
	if !in.Role.Valid() {
		return util.NewValidationError("função inválida", map[string]any{"role": in.Role})
	}
	if !in.Status.Valid() {
		return util.NewValidationError("status inválido", map[string]any{"status": in.Status})
	}
	return nil
}
