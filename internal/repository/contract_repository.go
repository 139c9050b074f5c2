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

// ContractFilter captures contract search parameters.
type ContractFilter struct {
	ClientID       *string
	ContractTypeID *string
	Modality       *domain.Modality
	Statuses       []domain.ContractStatus
	SearchTerm     *string
	RenewalFrom    *time.Time
	RenewalTo      *time.Time
	Limit          int
	Offset         int
}

// ContractRepository encapsulates contract persistence, including the
// per-contract line items.
type ContractRepository interface {
	Create(ctx context.Context, contract *domain.Contract) error
	Update(ctx context.Context, contract *domain.Contract) error
	GetByID(ctx context.Context, id string) (*domain.Contract, error)
	GetByNumber(ctx context.Context, number string) (*domain.Contract, error)
	ListWithFilter(ctx context.Context, filter ContractFilter) ([]domain.Contract, error)
	ListRenewingBetween(ctx context.Context, from, to time.Time) ([]domain.Contract, error)
}

type contractRepository struct {
	pool *pgxpool.Pool
}

// NewContractRepository instantiates repository.
func NewContractRepository(pool *pgxpool.Pool) ContractRepository {
	return &contractRepository{pool: pool}
}

const contractColumns = `id, number, client_id, contract_type_id, modality, name, technical_notes,
       start_date, end_date, expiration_term, renewal_date, status, auto_renew,
       monthly_value, discount_percent, payment_method, billing_cycle, closing_cycle,
       included_hours, extra_hour_value,
       scope_included, scope_excluded, fair_use_policy, visit_limit,
       included_tickets, extra_ticket_value,
       rollover_active, rollover_days_window, rollover_hours_limit,
       appointments_when_pending, displacement_billable, displacement_rate,
       created_at, updated_at`

func (r *contractRepository) Create(ctx context.Context, contract *domain.Contract) error {
	const query = `
        INSERT INTO contracts (number, client_id, contract_type_id, modality, name, technical_notes,
            start_date, end_date, expiration_term, renewal_date, status, auto_renew,
            monthly_value, discount_percent, payment_method, billing_cycle, closing_cycle,
            included_hours, extra_hour_value,
            scope_included, scope_excluded, fair_use_policy, visit_limit,
            included_tickets, extra_ticket_value,
            rollover_active, rollover_days_window, rollover_hours_limit,
            appointments_when_pending, displacement_billable, displacement_rate)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31)
        RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, query,
		contract.Number,
		contract.ClientID,
		contract.ContractTypeID,
		contract.Modality,
		contract.Name,
		contract.TechnicalNotes,
		contract.StartDate,
		contract.EndDate,
		contract.ExpirationTerm,
		contract.RenewalDate,
		contract.Status,
		contract.AutoRenew,
		contract.MonthlyValue,
		contract.DiscountPercent,
		contract.PaymentMethod,
		contract.BillingCycle,
		contract.ClosingCycle,
		contract.IncludedHours,
		contract.ExtraHourValue,
		contract.ScopeIncluded,
		contract.ScopeExcluded,
		contract.FairUsePolicy,
		contract.VisitLimit,
		contract.IncludedTickets,
		contract.ExtraTicketValue,
		contract.RolloverActive,
		contract.RolloverDaysWindow,
		contract.RolloverHoursLimit,
		contract.AppointmentsWhenPending,
		contract.DisplacementBillable,
		contract.DisplacementRate,
	).Scan(&contract.ID, &contract.CreatedAt, &contract.UpdatedAt); err != nil {
		return err
	}
	return r.replaceItems(ctx, contract)
}

func (r *contractRepository) Update(ctx context.Context, contract *domain.Contract) error {
	const query = `
        UPDATE contracts SET client_id=$1, contract_type_id=$2, modality=$3, name=$4, technical_notes=$5,
            start_date=$6, end_date=$7, expiration_term=$8, renewal_date=$9, status=$10, auto_renew=$11,
            monthly_value=$12, discount_percent=$13, payment_method=$14, billing_cycle=$15, closing_cycle=$16,
            included_hours=$17, extra_hour_value=$18,
            scope_included=$19, scope_excluded=$20, fair_use_policy=$21, visit_limit=$22,
            included_tickets=$23, extra_ticket_value=$24,
            rollover_active=$25, rollover_days_window=$26, rollover_hours_limit=$27,
            appointments_when_pending=$28, displacement_billable=$29, displacement_rate=$30,
            updated_at=NOW()
        WHERE id=$31`
	cmd, err := r.pool.Exec(ctx, query,
		contract.ClientID,
		contract.ContractTypeID,
		contract.Modality,
		contract.Name,
		contract.TechnicalNotes,
		contract.StartDate,
		contract.EndDate,
		contract.ExpirationTerm,
		contract.RenewalDate,
		contract.Status,
		contract.AutoRenew,
		contract.MonthlyValue,
		contract.DiscountPercent,
		contract.PaymentMethod,
		contract.BillingCycle,
		contract.ClosingCycle,
		contract.IncludedHours,
		contract.ExtraHourValue,
		contract.ScopeIncluded,
		contract.ScopeExcluded,
		contract.FairUsePolicy,
		contract.VisitLimit,
		contract.IncludedTickets,
		contract.ExtraTicketValue,
		contract.RolloverActive,
		contract.RolloverDaysWindow,
		contract.RolloverHoursLimit,
		contract.AppointmentsWhenPending,
		contract.DisplacementBillable,
		contract.DisplacementRate,
		contract.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return r.replaceItems(ctx, contract)
}

func (r *contractRepository) GetByID(ctx context.Context, id string) (*domain.Contract, error) {
	query := fmt.Sprintf(`SELECT %s FROM contracts WHERE id=$1`, contractColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *contractRepository) GetByNumber(ctx context.Context, number string) (*domain.Contract, error) {
	query := fmt.Sprintf(`SELECT %s FROM contracts WHERE number=$1`, contractColumns)
	return r.fetchSingle(ctx, query, number)
}

func (r *contractRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Contract, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	contract, err := scanContract(row)
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	contract.Items = items
	return contract, nil
}

func (r *contractRepository) ListWithFilter(ctx context.Context, filter ContractFilter) ([]domain.Contract, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if filter.ContractTypeID != nil {
		args = append(args, *filter.ContractTypeID)
		clauses = append(clauses, fmt.Sprintf("contract_type_id=$%d", len(args)))
	}
	if filter.Modality != nil {
		args = append(args, *filter.Modality)
		clauses = append(clauses, fmt.Sprintf("modality=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.RenewalFrom != nil {
		args = append(args, filter.RenewalFrom.Format("2006-01-02"))
		clauses = append(clauses, fmt.Sprintf("renewal_date <> '' AND renewal_date >= $%d", len(args)))
	}
	if filter.RenewalTo != nil {
		args = append(args, filter.RenewalTo.Format("2006-01-02"))
		clauses = append(clauses, fmt.Sprintf("renewal_date <> '' AND renewal_date <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(number) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM contracts WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		contractColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContracts(rows)
}

func (r *contractRepository) ListRenewingBetween(ctx context.Context, from, to time.Time) ([]domain.Contract, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM contracts
        WHERE status=$1 AND renewal_date <> '' AND renewal_date >= $2 AND renewal_date <= $3
        ORDER BY renewal_date ASC`, contractColumns)
	rows, err := r.pool.Query(ctx, query,
		domain.ContractStatusActive,
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContracts(rows)
}

func (r *contractRepository) loadItems(ctx context.Context, contractID string) ([]domain.LineItem, error) {
	const query = `
        SELECT id, contract_id, name, unit_value, quantity, total_value, created_at
        FROM contract_items WHERE contract_id=$1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(
			&item.ID,
			&item.ContractID,
			&item.Name,
			&item.UnitValue,
			&item.Quantity,
			&item.TotalValue,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// replaceItems rewrites the item rows to match the aggregate. Stored totals
// are written as-is; they were frozen when each item was added.
func (r *contractRepository) replaceItems(ctx context.Context, contract *domain.Contract) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM contract_items WHERE contract_id=$1`, contract.ID); err != nil {
		return err
	}
	const query = `
        INSERT INTO contract_items (contract_id, name, unit_value, quantity, total_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	for i := range contract.Items {
		item := &contract.Items[i]
		item.ContractID = contract.ID
		if err := r.pool.QueryRow(ctx, query,
			contract.ID,
			item.Name,
			item.UnitValue,
			item.Quantity,
			item.TotalValue,
		).Scan(&item.ID, &item.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (*domain.Contract, error) {
	var contract domain.Contract
	if err := row.Scan(
		&contract.ID,
		&contract.Number,
		&contract.ClientID,
		&contract.ContractTypeID,
		&contract.Modality,
		&contract.Name,
		&contract.TechnicalNotes,
		&contract.StartDate,
		&contract.EndDate,
		&contract.ExpirationTerm,
		&contract.RenewalDate,
		&contract.Status,
		&contract.AutoRenew,
		&contract.MonthlyValue,
		&contract.DiscountPercent,
		&contract.PaymentMethod,
		&contract.BillingCycle,
		&contract.ClosingCycle,
		&contract.IncludedHours,
		&contract.ExtraHourValue,
		&contract.ScopeIncluded,
		&contract.ScopeExcluded,
		&contract.FairUsePolicy,
		&contract.VisitLimit,
		&contract.IncludedTickets,
		&contract.ExtraTicketValue,
		&contract.RolloverActive,
		&contract.RolloverDaysWindow,
		&contract.RolloverHoursLimit,
		&contract.AppointmentsWhenPending,
		&contract.DisplacementBillable,
		&contract.DisplacementRate,
		&contract.CreatedAt,
		&contract.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &contract, nil
}

func scanContracts(rows pgx.Rows) ([]domain.Contract, error) {
	var result []domain.Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *contract)
	}
	return result, rows.Err()
}
