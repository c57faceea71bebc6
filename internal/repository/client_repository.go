package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tecnochamados/internal/domain"
)

// ClientFilter narrows client listings.
type ClientFilter struct {
	City   string
	Limit  int
	Offset int
}

// ClientRepository persists customer accounts.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]domain.Client, error)
	Count(ctx context.Context) (int, error)
}

var clientColumns = []string{
	"id", "name", "unit", "phone", "email", "city",
	"COALESCE(state, '')", "COALESCE(cep, '')",
	"active_tickets", "created_at", "updated_at",
}

type clientRepository struct {
	pool *pgxpool.Pool
}

func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	query, args, err := psql.Insert("clients").
		Columns("name", "unit", "phone", "email", "city", "state", "cep", "active_tickets").
		Values(client.Name, client.Unit, client.Phone, client.Email, client.City, client.State, client.CEP, client.ActiveTickets).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx, query, args...).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("client %s: %w", client.Email, ErrDuplicate)
	}
	return err
}

func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	query, args, err := psql.Update("clients").
		SetMap(map[string]any{
			"name":           client.Name,
			"unit":           client.Unit,
			"phone":          client.Phone,
			"email":          client.Email,
			"city":           client.City,
			"state":          client.State,
			"cep":            client.CEP,
			"active_tickets": client.ActiveTickets,
			"updated_at":     sq.Expr("NOW()"),
		}).
		Where(sq.Eq{"id": client.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx, query, args...).Scan(&client.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("client %s: %w", client.Email, ErrDuplicate)
	}
	return err
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	query, args, err := psql.Select(clientColumns...).From("clients").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var client domain.Client
	if err := scanClient(r.pool.QueryRow(ctx, query, args...), &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context, filter ClientFilter) ([]domain.Client, error) {
	builder := psql.Select(clientColumns...).From("clients").OrderBy("name ASC")
	if filter.City != "" {
		builder = builder.Where(sq.Eq{"city": filter.City})
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

	result := []domain.Client{}
	for rows.Next() {
		var client domain.Client
		if err := scanClient(rows, &client); err != nil {
			return nil, err
		}
		result = append(result, client)
	}
	return result, rows.Err()
}

func (r *clientRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n)
	return n, err
}

func scanClient(row pgx.Row, client *domain.Client) error {
	return row.Scan(
		&client.ID,
		&client.Name,
		&client.Unit,
		&client.Phone,
		&client.Email,
		&client.City,
		&client.State,
		&client.CEP,
		&client.ActiveTickets,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
}
