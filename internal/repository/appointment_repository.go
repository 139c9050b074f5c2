package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AppointmentRepository persists ticket time appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *domain.Appointment) error
	Update(ctx context.Context, appt *domain.Appointment) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Appointment, error)
	ListByStaff(ctx context.Context, staffID string, from, to time.Time) ([]domain.Appointment, error)
}

type appointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository builds the repository.
func NewAppointmentRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

const appointmentColumns = `id, ticket_id, staff_id, scheduled_start, scheduled_end, status,
       worked_minutes, on_site, displacement_charge, notes, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appt *domain.Appointment) error {
	const query = `
        INSERT INTO ticket_appointments (ticket_id, staff_id, scheduled_start, scheduled_end, status, worked_minutes, on_site, displacement_charge, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		appt.TicketID,
		appt.StaffID,
		appt.ScheduledStart,
		appt.ScheduledEnd,
		appt.Status,
		appt.WorkedMinutes,
		appt.OnSite,
		appt.DisplacementCharge,
		appt.Notes,
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
}

func (r *appointmentRepository) Update(ctx context.Context, appt *domain.Appointment) error {
	const query = `
        UPDATE ticket_appointments SET scheduled_start=$1, scheduled_end=$2, status=$3,
            worked_minutes=$4, on_site=$5, displacement_charge=$6, notes=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		appt.ScheduledStart,
		appt.ScheduledEnd,
		appt.Status,
		appt.WorkedMinutes,
		appt.OnSite,
		appt.DisplacementCharge,
		appt.Notes,
		appt.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM ticket_appointments WHERE id=$1`
	var appt domain.Appointment
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&appt.ID,
		&appt.TicketID,
		&appt.StaffID,
		&appt.ScheduledStart,
		&appt.ScheduledEnd,
		&appt.Status,
		&appt.WorkedMinutes,
		&appt.OnSite,
		&appt.DisplacementCharge,
		&appt.Notes,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM ticket_appointments WHERE ticket_id=$1 ORDER BY scheduled_start`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *appointmentRepository) ListByStaff(ctx context.Context, staffID string, from, to time.Time) ([]domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM ticket_appointments
        WHERE staff_id=$1 AND scheduled_start >= $2 AND scheduled_start <= $3
        ORDER BY scheduled_start`
	rows, err := r.pool.Query(ctx, query, staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func scanAppointments(rows pgx.Rows) ([]domain.Appointment, error) {
	var result []domain.Appointment
	for rows.Next() {
		var appt domain.Appointment
		if err := rows.Scan(
			&appt.ID,
			&appt.TicketID,
			&appt.StaffID,
			&appt.ScheduledStart,
			&appt.ScheduledEnd,
			&appt.Status,
			&appt.WorkedMinutes,
			&appt.OnSite,
			&appt.DisplacementCharge,
			&appt.Notes,
			&appt.CreatedAt,
			&appt.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, appt)
	}
	return result, rows.Err()
}
