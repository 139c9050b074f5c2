package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures the staff queue search parameters. Nil pointer
// fields and empty slices are simply not filtered on.
type TicketFilter struct {
	RequesterID  *string
	ClientID     *string
	DepartmentID *string
	TeamID       *string
	AssigneeID   *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	UpdatedFrom  *time.Time
	UpdatedTo    *time.Time
	Limit        int
	Offset       int
}

// TicketRepository persists tickets.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

const ticketColumns = `id, external_key, requester_user_id, client_id, contract_id, department_id, team_id, assignee_staff_id,
	title, description, status, priority, tags,
	first_response_due_at, resolution_due_at, first_response_at,
	created_at, updated_at, closed_at`

type ticketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, requester_user_id, client_id, contract_id, department_id, team_id, assignee_staff_id,
            title, description, status, priority, tags, first_response_due_at, resolution_due_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.RequesterID,
		ticket.ClientID,
		ticket.ContractID,
		ticket.DepartmentID,
		ticket.TeamID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Tags,
		ticket.FirstResponseDueAt,
		ticket.ResolutionDueAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

// Update rewrites the mutable columns. Requester, client, and contract are
// fixed at creation and never touched here.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET department_id=$1, team_id=$2, assignee_staff_id=$3, title=$4, description=$5,
            status=$6, priority=$7, tags=$8, closed_at=$9, first_response_at=$10, updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.DepartmentID,
		ticket.TeamID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Tags,
		ticket.ClosedAt,
		ticket.FirstResponseAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchOne(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE id=$1", id)
}

func (r *ticketRepository) GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error) {
	return r.fetchOne(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE external_key=$1", key)
}

func (r *ticketRepository) fetchOne(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, TicketFilter{
		RequesterID: &userID,
		Limit:       limit,
		Offset:      offset,
	})
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	var (
		clauses []string
		args    []any
	)
	addClause := func(format string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(format, len(args)))
	}
	addSet := func(column string, values []any) {
		placeholders := make([]string, len(values))
		for i, v := range values {
			args = append(args, v)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
	}

	if filter.RequesterID != nil {
		addClause("requester_user_id=$%d", *filter.RequesterID)
	}
	if filter.ClientID != nil {
		addClause("client_id=$%d", *filter.ClientID)
	}
	if filter.DepartmentID != nil {
		addClause("department_id=$%d", *filter.DepartmentID)
	}
	if filter.TeamID != nil {
		addClause("team_id=$%d", *filter.TeamID)
	}
	if filter.AssigneeID != nil {
		addClause("assignee_staff_id=$%d", *filter.AssigneeID)
	}
	if len(filter.Statuses) > 0 {
		values := make([]any, len(filter.Statuses))
		for i, status := range filter.Statuses {
			values[i] = status
		}
		addSet("status", values)
	}
	if len(filter.Priorities) > 0 {
		values := make([]any, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			values[i] = pr
		}
		addSet("priority", values)
	}
	if filter.CreatedFrom != nil {
		addClause("created_at >= $%d", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		addClause("created_at <= $%d", *filter.CreatedTo)
	}
	if filter.UpdatedFrom != nil {
		addClause("updated_at >= $%d", *filter.UpdatedFrom)
	}
	if filter.UpdatedTo != nil {
		addClause("updated_at <= $%d", *filter.UpdatedTo)
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.SearchTerm))+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := "SELECT " + ticketColumns + " FROM tickets"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
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
		&ticket.ExternalKey,
		&ticket.RequesterID,
		&ticket.ClientID,
		&ticket.ContractID,
		&ticket.DepartmentID,
		&ticket.TeamID,
		&ticket.AssigneeID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Tags,
		&ticket.FirstResponseDueAt,
		&ticket.ResolutionDueAt,
		&ticket.FirstResponseAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	)
}
