package service

import (
	"context"

	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/permission"
	"github.com/spec-kit/tecnochamados/internal/repository"
	"github.com/spec-kit/tecnochamados/pkg/util"
)

const recentTickets = 5

// DashboardSummary is the overview shown on the home screen.
type DashboardSummary struct {
	TicketsByStatus map[domain.TicketStatus]int `json:"tickets_by_status"`
	TotalTickets    int                         `json:"total_tickets"`
	TotalClients    int                         `json:"total_clients"`
	RecentTickets   []domain.Ticket             `json:"recent_tickets"`
}

type DashboardService struct {
	tickets repository.TicketRepository
	clients repository.ClientRepository
	engine  *permission.Engine
}

func NewDashboardService(tickets repository.TicketRepository, clients repository.ClientRepository, engine *permission.Engine) *DashboardService {
	return &DashboardService{tickets: tickets, clients: clients, engine: engine}
}

// Summary needs view_dashboard.
func (s *DashboardService) Summary(ctx context.Context, actor *domain.User) (*DashboardSummary, error) {
	if !s.engine.Can(actor, permission.ViewDashboard) {
		return nil, util.NewForbidden("sem permissão para visualizar o painel")
	}

	counts, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	recent, err := s.tickets.Recent(ctx, recentTickets)
	if err != nil {
		return nil, err
	}
	clients, err := s.clients.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		TicketsByStatus: counts,
		TotalTickets:    total,
		TotalClients:    clients,
		RecentTickets:   recent,
	}, nil
}
