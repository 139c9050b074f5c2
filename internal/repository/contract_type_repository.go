package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ContractTypeRepository manages contract type reference data.
type ContractTypeRepository interface {
	Create(ctx context.Context, ct *domain.ContractType) error
	Update(ctx context.Context, ct *domain.ContractType) error
	GetByID(ctx context.Context, id string) (*domain.ContractType, error)
	ListActive(ctx context.Context) ([]domain.ContractType, error)
}

type contractTypeRepository struct {
	pool *pgxpool.Pool
}

// NewContractTypeRepository builds the repository.
func NewContractTypeRepository(pool *pgxpool.Pool) ContractTypeRepository {
	return &contractTypeRepository{pool: pool}
}

func (r *contractTypeRepository) Create(ctx context.Context, ct *domain.ContractType) error {
	const query = `
        INSERT INTO contract_types (name, modality, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ct.Name,
		ct.Modality,
		ct.IsActive,
	).Scan(&ct.ID, &ct.CreatedAt, &ct.UpdatedAt)
}

func (r *contractTypeRepository) Update(ctx context.Context, ct *domain.ContractType) error {
	const query = `
        UPDATE contract_types SET name=$1, modality=$2, is_active=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		ct.Name,
		ct.Modality,
		ct.IsActive,
		ct.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *contractTypeRepository) GetByID(ctx context.Context, id string) (*domain.ContractType, error) {
	const query = `
        SELECT id, name, modality, is_active, created_at, updated_at
        FROM contract_types WHERE id=$1`
	var ct domain.ContractType
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ct.ID,
		&ct.Name,
		&ct.Modality,
		&ct.IsActive,
		&ct.CreatedAt,
		&ct.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *contractTypeRepository) ListActive(ctx context.Context) ([]domain.ContractType, error) {
	const query = `
        SELECT id, name, modality, is_active, created_at, updated_at
        FROM contract_types WHERE is_active = TRUE ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ContractType
	for rows.Next() {
		var ct domain.ContractType
		if err := rows.Scan(&ct.ID, &ct.Name, &ct.Modality, &ct.IsActive, &ct.CreatedAt, &ct.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, ct)
	}
	return result, rows.Err()
}
