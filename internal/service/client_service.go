package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/permission"
	"github.com/spec-kit/tecnochamados/internal/repository"
	"github.com/spec-kit/tecnochamados/pkg/util"
)

// ClientService is CRUD over customer accounts, gated by manage_clients.
type ClientService struct {
	clients repository.ClientRepository
	engine  *permission.Engine
}

func NewClientService(clients repository.ClientRepository, engine *permission.Engine) *ClientService {
	return &ClientService{clients: clients, engine: engine}
}

func (s *ClientService) authorize(actor *domain.User) error {
	if !s.engine.CanManageClients(actor) {
		return util.NewForbidden("sem permissão para gerenciar clientes")
	}
	return nil
}

// List returns clients ordered by name.
func (s *ClientService) List(ctx context.Context, actor *domain.User, filter repository.ClientFilter) ([]domain.Client, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	return s.clients.List(ctx, filter)
}

func (s *ClientService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Client, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if util.IsNotFound(err) {
			return nil, util.NewNotFound("client", map[string]any{"id": id})
		}
		return nil, err
	}
	return client, nil
}

func (s *ClientService) Create(ctx context.Context, actor *domain.User, client domain.Client) (*domain.Client, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if err := validateClient(&client); err != nil {
		return nil, err
	}
	if err := s.clients.Create(ctx, &client); err != nil {
		return nil, clientStoreError(err)
	}
	return &client, nil
}

func (s *ClientService) Update(ctx context.Context, actor *domain.User, id string, client domain.Client) (*domain.Client, error) {
	existing, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validateClient(&client); err != nil {
		return nil, err
	}
	client.ID = existing.ID
	client.CreatedAt = existing.CreatedAt
	if err := s.clients.Update(ctx, &client); err != nil {
		return nil, clientStoreError(err)
	}
	return &client, nil
}

func (s *ClientService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := s.authorize(actor); err != nil {
		return err
	}
	if err := s.clients.Delete(ctx, id); err != nil {
		if util.IsNotFound(err) {
			return util.NewNotFound("client", map[string]any{"id": id})
		}
		return err
	}
	return nil
}

func validateClient(c *domain.Client) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if c.Name == "" || c.Unit == "" || c.Phone == "" || c.Email == "" || c.City == "" {
		return util.NewValidationError("Todos os campos são obrigatórios", nil)
	}
	if c.ActiveTickets < 0 {
		return util.NewValidationError("chamados ativos não pode ser negativo", nil)
	}
	return nil
}

func clientStoreError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return util.NewConflict("já existe um cliente com este e-mail", nil)
	}
	return err
}
