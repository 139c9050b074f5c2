package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ClientRepository manages client company records.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	Update(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	ListActive(ctx context.Context) ([]domain.Client, error)
}

type clientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository builds the repository.
func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	const query = `
        INSERT INTO clients (name, document, email, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		client.Name,
		client.Document,
		client.Email,
		client.IsActive,
	).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
}

func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	const query = `
        UPDATE clients SET name=$1, document=$2, email=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		client.Name,
		client.Document,
		client.Email,
		client.IsActive,
		client.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	const query = `
        SELECT id, name, document, email, is_active, created_at, updated_at
        FROM clients WHERE id=$1`
	var client domain.Client
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&client.ID,
		&client.Name,
		&client.Document,
		&client.Email,
		&client.IsActive,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) ListActive(ctx context.Context) ([]domain.Client, error) {
	const query = `
        SELECT id, name, document, email, is_active, created_at, updated_at
        FROM clients WHERE is_active = TRUE ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Client
	for rows.Next() {
		var client domain.Client
		if err := rows.Scan(&client.ID, &client.Name, &client.Document, &client.Email, &client.IsActive, &client.CreatedAt, &client.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, client)
	}
	return result, rows.Err()
}
