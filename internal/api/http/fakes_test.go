package http_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/mailer"
	"github.com/spec-kit/tecnochamados/internal/repository"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type memUsers struct {
	mu   sync.Mutex
	rows []domain.User
	seq  int
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	user.CreatedAt = epoch.Add(time.Duration(m.seq) * time.Second)
	user.UpdatedAt = user.CreatedAt
	m.rows = append(m.rows, *user)
	return nil
}

func (m *memUsers) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == user.ID {
			m.rows[i] = *user
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.ID == id {
			copied := u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.newest(func(u domain.User) bool { return u.Email == email })
}

func (m *memUsers) FindPendingByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.newest(func(u domain.User) bool {
		return u.Email == email && u.Status == domain.UserStatusPending
	})
}

func (m *memUsers) BindAccount(ctx context.Context, email, accountID string) (*domain.User, error) {
	pending, err := m.FindPendingByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == pending.ID {
			m.rows[i].ID = accountID
			m.rows[i].Status = domain.UserStatusActive
			copied := m.rows[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.User{}
	for _, u := range m.rows {
		if (filter.Email == "" || u.Email == filter.Email) && (filter.Status == "" || u.Status == filter.Status) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memUsers) newest(match func(domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *domain.User
	for i := range m.rows {
		if match(m.rows[i]) && (found == nil || m.rows[i].CreatedAt.After(found.CreatedAt)) {
			copied := m.rows[i]
			found = &copied
		}
	}
	if found == nil {
		return nil, pgx.ErrNoRows
	}
	return found, nil
}

type memAccounts struct {
	mu   sync.Mutex
	rows map[string]domain.Account
}

func (m *memAccounts) Create(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.rows[account.Email]; taken {
		return repository.ErrDuplicate
	}
	account.ID = fmt.Sprintf("account-%d", len(m.rows)+1)
	account.CreatedAt = epoch
	m.rows[account.Email] = *account
	return nil
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.rows[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &account, nil
}

func (m *memAccounts) MarkNeedsReconciliation(context.Context, string) error {
	return nil
}

type memClients struct {
	rows []domain.Client
}

func (m *memClients) Create(_ context.Context, c *domain.Client) error {
	c.ID = fmt.Sprintf("client-%d", len(m.rows)+1)
	m.rows = append(m.rows, *c)
	return nil
}

func (m *memClients) Update(_ context.Context, c *domain.Client) error {
	for i := range m.rows {
		if m.rows[i].ID == c.ID {
			m.rows[i] = *c
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memClients) Delete(_ context.Context, id string) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memClients) GetByID(_ context.Context, id string) (*domain.Client, error) {
	for _, c := range m.rows {
		if c.ID == id {
			copied := c
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memClients) List(context.Context, repository.ClientFilter) ([]domain.Client, error) {
	return append([]domain.Client{}, m.rows...), nil
}

func (m *memClients) Count(context.Context) (int, error) {
	return len(m.rows), nil
}

type memTickets struct {
	rows []domain.Ticket
}

func (m *memTickets) Create(_ context.Context, t *domain.Ticket) error {
	t.ID = fmt.Sprintf("ticket-%d", len(m.rows)+1)
	t.CreatedAt = epoch.Add(time.Duration(len(m.rows)) * time.Minute)
	m.rows = append(m.rows, *t)
	return nil
}

func (m *memTickets) Update(_ context.Context, t *domain.Ticket) error {
	for i := range m.rows {
		if m.rows[i].ID == t.ID {
			m.rows[i] = *t
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memTickets) Delete(_ context.Context, id string) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	for _, t := range m.rows {
		if t.ID == id {
			copied := t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	out := []domain.Ticket{}
	for _, t := range m.rows {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memTickets) CountByStatus(context.Context) (map[domain.TicketStatus]int, error) {
	counts := map[domain.TicketStatus]int{}
	for _, s := range domain.TicketStatuses {
		counts[s] = 0
	}
	for _, t := range m.rows {
		counts[t.Status]++
	}
	return counts, nil
}

func (m *memTickets) Recent(_ context.Context, n int) ([]domain.Ticket, error) {
	out := append([]domain.Ticket{}, m.rows...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type stubSender struct {
	sent []mailer.InviteEmail
	err  error
}

func (s *stubSender) SendInvite(_ context.Context, invite mailer.InviteEmail) (mailer.Result, error) {
	s.sent = append(s.sent, invite)
	if s.err != nil {
		return mailer.Result{}, s.err
	}
	return mailer.Result{Success: true, MessageID: "<relay-1@test>"}, nil
}
