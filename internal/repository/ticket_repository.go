package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tecnochamados/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Statuses   []domain.TicketStatus
	Technician string
	Client     string
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error)
	Recent(ctx context.Context, n int) ([]domain.Ticket, error)
}

var ticketColumns = []string{
	"id", "client", "subject", "category", "technician", "status", "date",
	"COALESCE(reported_issue, '')",
	"COALESCE(confirmed_issue, '')",
	"COALESCE(service_performed, '')",
	"COALESCE(priority, '')",
	"COALESCE(arrival_time, '')",
	"COALESCE(departure_time, '')",
	"created_at", "updated_at",
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	query, args, err := psql.Insert("tickets").
		Columns("client", "subject", "category", "technician", "status", "date",
			"reported_issue", "confirmed_issue", "service_performed", "priority",
			"arrival_time", "departure_time").
		Values(ticket.Client, ticket.Subject, ticket.Category, ticket.Technician, ticket.Status, ticket.Date,
			ticket.ReportedIssue, ticket.ConfirmedIssue, ticket.ServicePerformed, ticket.Priority,
			ticket.ArrivalTime, ticket.DepartureTime).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, query, args...).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	query, args, err := psql.Update("tickets").
		SetMap(map[string]any{
			"client":            ticket.Client,
			"subject":           ticket.Subject,
			"category":          ticket.Category,
			"technician":        ticket.Technician,
			"status":            ticket.Status,
			"date":              ticket.Date,
			"reported_issue":    ticket.ReportedIssue,
			"confirmed_issue":   ticket.ConfirmedIssue,
			"service_performed": ticket.ServicePerformed,
			"priority":          ticket.Priority,
			"arrival_time":      ticket.ArrivalTime,
			"departure_time":    ticket.DepartureTime,
			"updated_at":        sq.Expr("NOW()"),
		}).
		Where(sq.Eq{"id": ticket.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, query, args...).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query, args, err := psql.Select(ticketColumns...).From("tickets").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, args...), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	builder := psql.Select(ticketColumns...).From("tickets").OrderBy("created_at DESC")
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}
	if filter.Technician != "" {
		builder = builder.Where(sq.Eq{"technician": filter.Technician})
	}
	if filter.Client != "" {
		builder = builder.Where(sq.Eq{"client": filter.Client})
	}
	return r.list(ctx, paginate(builder, filter.Limit, filter.Offset))
}

func (r *ticketRepository) Recent(ctx context.Context, n int) ([]domain.Ticket, error) {
	builder := psql.Select(ticketColumns...).From("tickets").OrderBy("created_at DESC")
	return r.list(ctx, paginate(builder, n, 0))
}

// CountByStatus returns a count for every known status, zero included.
func (r *ticketRepository) CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for _, s := range domain.TicketStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			status domain.TicketStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *ticketRepository) list(ctx context.Context, builder sq.SelectBuilder) ([]domain.Ticket, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Client,
		&ticket.Subject,
		&ticket.Category,
		&ticket.Technician,
		&ticket.Status,
		&ticket.Date,
		&ticket.ReportedIssue,
		&ticket.ConfirmedIssue,
		&ticket.ServicePerformed,
		&ticket.Priority,
		&ticket.ArrivalTime,
		&ticket.DepartureTime,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}
