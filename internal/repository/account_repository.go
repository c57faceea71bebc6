package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tecnochamados/internal/domain"
)

// AccountRepository stores login credentials.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	MarkNeedsReconciliation(ctx context.Context, id string) error
}

type accountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

// Create inserts the account. A taken e-mail yields ErrDuplicate.
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (email, password_hash, metadata, email_confirmed)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.Email,
		account.PasswordHash,
		account.Metadata,
		account.EmailConfirmed,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("account %s: %w", account.Email, ErrDuplicate)
	}
	return err
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `
        SELECT id, email, password_hash, metadata, email_confirmed, needs_reconciliation, created_at, updated_at
        FROM accounts WHERE email=$1`

	var account domain.Account
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Metadata,
		&account.EmailConfirmed,
		&account.NeedsReconciliation,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) MarkNeedsReconciliation(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET needs_reconciliation=TRUE, updated_at=NOW() WHERE id=$1`, id)
	return err
}
