package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/tecnochamados/internal/auth"
	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/repository"
	"github.com/spec-kit/tecnochamados/pkg/util"
)

var seedPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the development users, clients and tickets",
	Long: `Seed inserts sample operators, clients and tickets. Existing rows are left alone.
With --password every seeded operator also gets an account with that password.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		pool := e.pg.PoolHandle()
		s := seeder{
			users:    repository.NewUserRepository(pool),
			accounts: repository.NewAccountRepository(pool),
			clients:  repository.NewClientRepository(pool),
			tickets:  repository.NewTicketRepository(pool),
			hasher:   auth.NewHasher(e.cfg.Auth.BcryptCost),
			logger:   e.logger,
		}
		return s.run(cmd.Context(), seedPassword)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "", "create accounts for the seeded operators with this password")
}

var seedUsers = []domain.User{
	{Name: "João Silva", Email: "joao.silva@exemplo.com", Role: domain.RoleAdministrator, Department: "TI", Status: domain.UserStatusActive},
	{Name: "Maria Santos", Email: "maria.santos@exemplo.com", Role: domain.RoleTechnician, Department: "Suporte", Status: domain.UserStatusActive},
	{Name: "Carlos Oliveira", Email: "carlos.oliveira@exemplo.com", Role: domain.RoleManager, Department: "Financeiro", Status: domain.UserStatusInactive},
}

var seedClients = []domain.Client{
	{Name: "Empresa XYZ", Unit: "12.345.678/0001-90", Phone: "(11) 3456-7890", Email: "contato@xyz.com.br", City: "São Paulo", ActiveTickets: 5},
	{Name: "Empresa ABC", Unit: "98.765.432/0001-21", Phone: "(11) 2345-6789", Email: "contato@abc.com.br", City: "Rio de Janeiro", ActiveTickets: 3},
	{Name: "Empresa DEF", Unit: "45.678.901/0001-23", Phone: "(31) 3456-7890", Email: "contato@def.com.br", City: "Belo Horizonte", ActiveTickets: 2},
}

var seedTickets = []domain.Ticket{
	{Client: "Empresa XYZ", Subject: "Servidor não responde", Category: "Hardware", Technician: "Maria Santos", Status: domain.TicketStatusPending, Date: "23/08/2023"},
	{Client: "Empresa ABC", Subject: "Instalação de nova impressora", Category: "Hardware", Technician: "Maria Santos", Status: domain.TicketStatusInProgress, Date: "22/08/2023"},
	{Client: "Empresa DEF", Subject: "Configuração de rede Wi-Fi", Category: "Rede", Technician: "João Silva", Status: domain.TicketStatusResolved, Date: "21/08/2023"},
}

type seeder struct {
	users    repository.UserRepository
	accounts repository.AccountRepository
	clients  repository.ClientRepository
	tickets  repository.TicketRepository
	hasher   *auth.Hasher
	logger   *zap.Logger
}

func (s seeder) run(ctx context.Context, password string) error {
	for _, u := range seedUsers {
		if err := s.seedUser(ctx, u, password); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	for _, c := range seedClients {
		client := c
		err := s.clients.Create(ctx, &client)
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			s.logger.Info("client already present", zap.String("email", c.Email))
		case err != nil:
			return fmt.Errorf("seed client %s: %w", c.Email, err)
		default:
			s.logger.Info("seeded client", zap.String("name", c.Name))
		}
	}

	existing, err := s.tickets.Recent(ctx, 1)
	if err != nil {
		return fmt.Errorf("read tickets: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("tickets already present; skipping")
		return nil
	}
	for _, t := range seedTickets {
		ticket := t
		if err := s.tickets.Create(ctx, &ticket); err != nil {
			return fmt.Errorf("seed ticket %q: %w", t.Subject, err)
		}
		s.logger.Info("seeded ticket", zap.String("subject", t.Subject))
	}
	return nil
}

// seedUser goes through the activation path when a password is given so
// the user row ends up keyed by its account id.
func (s seeder) seedUser(ctx context.Context, u domain.User, password string) error {
	if _, err := s.users.GetByEmail(ctx, u.Email); err == nil {
		s.logger.Info("user already present", zap.String("email", u.Email))
		return nil
	} else if !util.IsNotFound(err) {
		return err
	}

	user := u
	if password == "" {
		if err := s.users.Create(ctx, &user); err != nil {
			return err
		}
		s.logger.Info("seeded user", zap.String("email", u.Email))
		return nil
	}

	user.Status = domain.UserStatusPending
	if err := s.users.Create(ctx, &user); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	account := &domain.Account{
		Email:          u.Email,
		PasswordHash:   hash,
		EmailConfirmed: true,
		Metadata:       domain.AccountMetadata{Name: u.Name, Role: u.Role, Department: u.Department},
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return err
	}
	bound, err := s.users.BindAccount(ctx, u.Email, account.ID)
	if err != nil {
		return err
	}
	if u.Status != domain.UserStatusActive {
		bound.Status = u.Status
		if err := s.users.Update(ctx, bound); err != nil {
			return err
		}
	}
	s.logger.Info("seeded user with account", zap.String("email", u.Email), zap.String("id", bound.ID))
	return nil
}
