package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TeamRepository persists teams.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	Update(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	List(ctx context.Context, departmentID *string, includeInactive bool) ([]domain.Team, error)
}

const teamColumns = `id, department_id, name, description, is_active, created_at, updated_at`

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (department_id, name, description, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		team.DepartmentID, team.Name, team.Description, team.IsActive,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	const query = `
        UPDATE teams SET department_id=$1, name=$2, description=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		team.DepartmentID, team.Name, team.Description, team.IsActive, team.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	var team domain.Team
	err := scanTeam(r.pool.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id=$1`, id), &team)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) List(ctx context.Context, departmentID *string, includeInactive bool) ([]domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams`
	var clauses []string
	var args []any
	if departmentID != nil && *departmentID != "" {
		args = append(args, *departmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if !includeInactive {
		clauses = append(clauses, "is_active=TRUE")
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := scanTeam(rows, &team); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	return result, rows.Err()
}

func scanTeam(row pgx.Row, team *domain.Team) error {
	return row.Scan(
		&team.ID,
		&team.DepartmentID,
		&team.Name,
		&team.Description,
		&team.IsActive,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
}
