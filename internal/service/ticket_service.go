package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/events"
	"github.com/spec-kit/tecnochamados/internal/permission"
	"github.com/spec-kit/tecnochamados/internal/repository"
	"github.com/spec-kit/tecnochamados/pkg/util"
)

// TicketService manages tickets. Status changes are free: any status may
// follow any other.
type TicketService struct {
	tickets    repository.TicketRepository
	engine     *permission.Engine
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func NewTicketService(tickets repository.TicketRepository, engine *permission.Engine, dispatcher events.Dispatcher, logger *zap.Logger) *TicketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{tickets: tickets, engine: engine, dispatcher: dispatcher, logger: logger}
}

// List returns tickets newest first.
func (s *TicketService) List(ctx context.Context, actor *domain.User, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if !s.engine.Can(actor, permission.ViewTickets) {
		return nil, util.NewForbidden("sem permissão para visualizar chamados")
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, util.NewValidationError("status inválido", map[string]any{"status": st})
		}
	}
	return s.tickets.List(ctx, filter)
}

func (s *TicketService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Ticket, error) {
	if !s.engine.Can(actor, permission.ViewTickets) {
		return nil, util.NewForbidden("sem permissão para visualizar chamados")
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if util.IsNotFound(err) {
			return nil, util.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) Create(ctx context.Context, actor *domain.User, ticket domain.Ticket) (*domain.Ticket, error) {
	if !s.engine.CanEditTickets(actor) {
		return nil, util.NewForbidden("sem permissão para editar chamados")
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusPending
	}
	if err := validateTicket(&ticket); err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, &ticket); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, events.EventTicketCreated, ticket.ID, events.ActorOf(actor), events.TicketChangedPayload{
		Client:     ticket.Client,
		Technician: ticket.Technician,
		NewStatus:  ticket.Status,
	})
	return &ticket, nil
}

func (s *TicketService) Update(ctx context.Context, actor *domain.User, id string, ticket domain.Ticket) (*domain.Ticket, error) {
	if !s.engine.CanEditTickets(actor) {
		return nil, util.NewForbidden("sem permissão para editar chamados")
	}
	existing, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status == "" {
		ticket.Status = existing.Status
	}
	if err := validateTicket(&ticket); err != nil {
		return nil, err
	}
	ticket.ID = existing.ID
	ticket.CreatedAt = existing.CreatedAt
	if err := s.tickets.Update(ctx, &ticket); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, events.EventTicketUpdated, ticket.ID, events.ActorOf(actor), events.TicketChangedPayload{
		Client:     ticket.Client,
		Technician: ticket.Technician,
		OldStatus:  existing.Status,
		NewStatus:  ticket.Status,
	})
	return &ticket, nil
}

func (s *TicketService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if !s.engine.CanDeleteTickets(actor) {
		return util.NewForbidden("sem permissão para excluir chamados")
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		if util.IsNotFound(err) {
			return util.NewNotFound("ticket", map[string]any{"id": id})
		}
		return err
	}
	publish(ctx, s.dispatcher, events.EventTicketDeleted, id, events.ActorOf(actor), nil)
	return nil
}

func validateTicket(t *domain.Ticket) error {
	t.Client = strings.TrimSpace(t.Client)
	t.Subject = strings.TrimSpace(t.Subject)
	if t.Client == "" || t.Subject == "" || t.Category == "" || t.Technician == "" || t.Date == "" {
		return util.NewValidationError("Todos os campos são obrigatórios", nil)
	}
	if !t.Status.Valid() {
		return util.NewValidationError("status inválido", map[string]any{"status": t.Status})
	}
	if !t.Priority.Valid() {
		return util.NewValidationError("prioridade inválida", map[string]any{"priority": t.Priority})
	}
	return nil
}
