package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tecnochamados/internal/domain"
)

// UserFilter narrows user listings. Zero values are ignored.
type UserFilter struct {
	Email  string
	Role   domain.Role
	Status domain.UserStatus
	Limit  int
	Offset int
}

// UserRepository defines persistence access for operators.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	FindPendingByEmail(ctx context.Context, email string) (*domain.User, error)
	BindAccount(ctx context.Context, email, accountID string) (*domain.User, error)
}

var userColumns = []string{"id", "name", "email", "role", "department", "status", "created_at", "updated_at"}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, role, department, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Role,
		user.Department,
		user.Status,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, role=$3, department=$4, status=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Role,
		user.Department,
		user.Status,
		user.ID,
	).Scan(&user.UpdatedAt)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, psql.Select(userColumns...).From("users").Where(sq.Eq{"id": id}))
}

// GetByEmail returns the newest row for email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, psql.Select(userColumns...).From("users").
		Where(sq.Eq{"email": email}).
		OrderBy("created_at DESC").
		Limit(1))
}

func (r *userRepository) FindPendingByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, psql.Select(userColumns...).From("users").
		Where(sq.Eq{"email": email, "status": domain.UserStatusPending}).
		OrderBy("created_at DESC").
		Limit(1))
}

// BindAccount rebinds the newest Pending row for email to accountID and
// marks it Active.
func (r *userRepository) BindAccount(ctx context.Context, email, accountID string) (*domain.User, error) {
	const query = `
        UPDATE users SET id=$1, status=$2, updated_at=NOW()
        WHERE id = (
            SELECT id FROM users WHERE email=$3 AND status=$4
            ORDER BY created_at DESC LIMIT 1
        )
        RETURNING id, name, email, role, department, status, created_at, updated_at`

	var user domain.User
	if err := scanUser(r.pool.QueryRow(ctx, query,
		accountID,
		domain.UserStatusActive,
		email,
		domain.UserStatusPending,
	), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	builder := psql.Select(userColumns...).From("users").OrderBy("created_at DESC")
	if filter.Email != "" {
		builder = builder.Where(sq.Eq{"email": filter.Email})
	}
	if filter.Role != "" {
		builder = builder.Where(sq.Eq{"role": filter.Role})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	builder = paginate(builder, filter.Limit, filter.Offset)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		var user domain.User
		if err := scanUser(rows, &user); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) getOne(ctx context.Context, builder sq.SelectBuilder) (*domain.User, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	var user domain.User
	if err := scanUser(r.pool.QueryRow(ctx, query, args...), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func scanUser(row pgx.Row, user *domain.User) error {
	return row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Department,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}
