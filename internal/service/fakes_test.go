package service_test

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

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeUsers struct {
	mu        sync.Mutex
	rows      []domain.User
	seq       int
	calls     int
	bindCalls int
	createErr error
	bindErrs  []error
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	user.ID = fmt.Sprintf("user-%d", f.seq)
	user.CreatedAt = epoch.Add(time.Duration(f.seq) * time.Second)
	user.UpdatedAt = user.CreatedAt
	f.rows = append(f.rows, *user)
	return nil
}

func (f *fakeUsers) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for i := range f.rows {
		if f.rows[i].ID == user.ID {
			f.rows[i] = *user
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, u := range f.rows {
		if u.ID == id {
			copied := u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if i := f.newest(func(u domain.User) bool { return u.Email == email }); i >= 0 {
		copied := f.rows[i]
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := []domain.User{}
	for _, u := range f.rows {
		if filter.Email != "" && u.Email != filter.Email {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeUsers) FindPendingByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if i := f.newest(pendingWith(email)); i >= 0 {
		copied := f.rows[i]
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) BindAccount(_ context.Context, email, accountID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.bindCalls++
	if len(f.bindErrs) > 0 {
		err := f.bindErrs[0]
		f.bindErrs = f.bindErrs[1:]
		return nil, err
	}
	i := f.newest(pendingWith(email))
	if i < 0 {
		return nil, pgx.ErrNoRows
	}
	f.rows[i].ID = accountID
	f.rows[i].Status = domain.UserStatusActive
	copied := f.rows[i]
	return &copied, nil
}

func (f *fakeUsers) newest(match func(domain.User) bool) int {
	idx := -1
	for i, u := range f.rows {
		if match(u) && (idx < 0 || u.CreatedAt.After(f.rows[idx].CreatedAt)) {
			idx = i
		}
	}
	return idx
}

func (f *fakeUsers) byEmail(email string) []domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.User{}
	for _, u := range f.rows {
		if u.Email == email {
			out = append(out, u)
		}
	}
	return out
}

func pendingWith(email string) func(domain.User) bool {
	return func(u domain.User) bool {
		return u.Email == email && u.Status == domain.UserStatusPending
	}
}

type fakeAccounts struct {
	mu        sync.Mutex
	rows      map[string]*domain.Account
	seq       int
	calls     int
	createErr error
	flagged   []string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{rows: map[string]*domain.Account{}}
}

func (f *fakeAccounts) Create(_ context.Context, account *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.createErr != nil {
		return f.createErr
	}
	if _, taken := f.rows[account.Email]; taken {
		return fmt.Errorf("account %s: %w", account.Email, repository.ErrDuplicate)
	}
	f.seq++
	account.ID = fmt.Sprintf("account-%d", f.seq)
	account.CreatedAt = epoch
	copied := *account
	f.rows[account.Email] = &copied
	return nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	account, ok := f.rows[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *account
	return &copied, nil
}

func (f *fakeAccounts) MarkNeedsReconciliation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, account := range f.rows {
		if account.ID == id {
			account.NeedsReconciliation = true
		}
	}
	f.flagged = append(f.flagged, id)
	return nil
}

type fakeSender struct {
	invites []mailer.InviteEmail
	err     error
}

func (f *fakeSender) SendInvite(_ context.Context, invite mailer.InviteEmail) (mailer.Result, error) {
	f.invites = append(f.invites, invite)
	if f.err != nil {
		return mailer.Result{Error: f.err.Error()}, f.err
	}
	return mailer.Result{Success: true, MessageID: fmt.Sprintf("<msg-%d@x>", len(f.invites))}, nil
}

type fakeTickets struct {
	rows []domain.Ticket
	seq  int
}

func (f *fakeTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	f.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", f.seq)
	ticket.CreatedAt = epoch.Add(time.Duration(f.seq) * time.Minute)
	f.rows = append(f.rows, *ticket)
	return nil
}

func (f *fakeTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	for i := range f.rows {
		if f.rows[i].ID == ticket.ID {
			f.rows[i] = *ticket
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeTickets) Delete(_ context.Context, id string) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	for _, t := range f.rows {
		if t.ID == id {
			copied := t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	out := []domain.Ticket{}
	for _, t := range f.rows {
		if filter.Technician != "" && t.Technician != filter.Technician {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTickets) CountByStatus(_ context.Context) (map[domain.TicketStatus]int, error) {
	counts := map[domain.TicketStatus]int{}
	for _, s := range domain.TicketStatuses {
		counts[s] = 0
	}
	for _, t := range f.rows {
		counts[t.Status]++
	}
	return counts, nil
}

func (f *fakeTickets) Recent(ctx context.Context, n int) ([]domain.Ticket, error) {
	all, _ := f.List(ctx, repository.TicketFilter{})
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

type fakeClients struct {
	rows []domain.Client
}

func (f *fakeClients) Create(_ context.Context, c *domain.Client) error {
	c.ID = fmt.Sprintf("client-%d", len(f.rows)+1)
	f.rows = append(f.rows, *c)
	return nil
}

func (f *fakeClients) Update(_ context.Context, c *domain.Client) error {
	for i := range f.rows {
		if f.rows[i].ID == c.ID {
			f.rows[i] = *c
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeClients) Delete(_ context.Context, id string) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeClients) GetByID(_ context.Context, id string) (*domain.Client, error) {
	for _, c := range f.rows {
		if c.ID == id {
			copied := c
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeClients) List(_ context.Context, _ repository.ClientFilter) ([]domain.Client, error) {
	return append([]domain.Client{}, f.rows...), nil
}

func (f *fakeClients) Count(_ context.Context) (int, error) {
	return len(f.rows), nil
}

func operator(role domain.Role) *domain.User {
	return &domain.User{ID: "op-" + string(role), Name: "Operador", Email: "op@x.com", Role: role, Department: "TI", Status: domain.UserStatusActive}
}
