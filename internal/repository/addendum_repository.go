package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AddendumRepository persists contract addenda. Addenda are append-only.
type AddendumRepository interface {
	Create(ctx context.Context, addendum *domain.Addendum) error
	ListByContract(ctx context.Context, contractID string) ([]domain.Addendum, error)
}

type addendumRepository struct {
	pool *pgxpool.Pool
}

// NewAddendumRepository builds the repository.
func NewAddendumRepository(pool *pgxpool.Pool) AddendumRepository {
	return &addendumRepository{pool: pool}
}

func (r *addendumRepository) Create(ctx context.Context, addendum *domain.Addendum) error {
	const query = `
        INSERT INTO contract_addenda (contract_id, kind, effective_date, new_term, new_monthly, new_discount, notes, created_by_staff_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		addendum.ContractID,
		addendum.Kind,
		addendum.EffectiveDate,
		addendum.NewTerm,
		addendum.NewMonthly,
		addendum.NewDiscount,
		addendum.Notes,
		addendum.CreatedByID,
	).Scan(&addendum.ID, &addendum.CreatedAt)
}

func (r *addendumRepository) ListByContract(ctx context.Context, contractID string) ([]domain.Addendum, error) {
	const query = `
        SELECT id, contract_id, kind, effective_date, new_term, new_monthly, new_discount, notes, created_by_staff_id, created_at
        FROM contract_addenda WHERE contract_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Addendum
	for rows.Next() {
		var addendum domain.Addendum
		if err := rows.Scan(
			&addendum.ID,
			&addendum.ContractID,
			&addendum.Kind,
			&addendum.EffectiveDate,
			&addendum.NewTerm,
			&addendum.NewMonthly,
			&addendum.NewDiscount,
			&addendum.Notes,
			&addendum.CreatedByID,
			&addendum.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, addendum)
	}
	return result, rows.Err()
}
