package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

// AppointmentService schedules and settles ticket time appointments.
type AppointmentService struct {
	appointments repository.AppointmentRepository
	tickets      repository.TicketRepository
	contracts    repository.ContractRepository
	staff        repository.StaffRepository
	dispatcher   events.Dispatcher
}

// AppointmentDependencies bundles repositories.
type AppointmentDependencies struct {
	AppointmentRepo repository.AppointmentRepository
	TicketRepo      repository.TicketRepository
	ContractRepo    repository.ContractRepository
	StaffRepo       repository.StaffRepository
	Dispatcher      events.Dispatcher
}

// ScheduleInput describes a new appointment.
type ScheduleInput struct {
	StaffID        string
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	OnSite         bool
	Notes          string
}

// NewAppointmentService creates the service.
func NewAppointmentService(deps AppointmentDependencies) *AppointmentService {
	return &AppointmentService{
		appointments: deps.AppointmentRepo,
		tickets:      deps.TicketRepo,
		contracts:    deps.ContractRepo,
		staff:        deps.StaffRepo,
		dispatcher:   deps.Dispatcher,
	}
}

// Schedule books a time window for a staff member on a ticket.
func (s *AppointmentService) Schedule(ctx context.Context, actor *domain.StaffMember, ticketID string, input ScheduleInput) (*domain.Appointment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	fieldErrs := map[string]any{}
	if input.StaffID == "" {
		input.StaffID = actor.ID
	}
	if input.ScheduledStart.IsZero() {
		fieldErrs["scheduled_start"] = "start time is required"
	}
	if input.ScheduledEnd.IsZero() {
		fieldErrs["scheduled_end"] = "end time is required"
	} else if !input.ScheduledEnd.After(input.ScheduledStart) {
		fieldErrs["scheduled_end"] = "end time must be after start time"
	}
	if len(fieldErrs) > 0 {
		return nil, apperrors.NewFieldErrors(fieldErrs)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	assignee, err := s.staff.GetByID(ctx, input.StaffID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": input.StaffID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("staff member inactive", map[string]any{"staff_id": assignee.ID})
	}

	appt := &domain.Appointment{
		TicketID:       ticket.ID,
		StaffID:        assignee.ID,
		ScheduledStart: input.ScheduledStart,
		ScheduledEnd:   input.ScheduledEnd,
		Status:         domain.AppointmentStatusScheduled,
		OnSite:         input.OnSite,
		Notes:          input.Notes,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventAppointmentScheduled,
		TicketID: ticket.ID,
		Actor:    staffActor(actor.ID),
		Payload: events.AppointmentScheduledPayload{
			AppointmentID:  appt.ID,
			StaffID:        appt.StaffID,
			ScheduledStart: appt.ScheduledStart.Format(time.RFC3339),
			OnSite:         appt.OnSite,
		},
	})
	return appt, nil
}

// Complete settles an appointment with the worked time. On-site visits are
// billed a displacement charge when the ticket's contract has displacement
// marked billable; the charge is the contract rate, frozen at completion.
func (s *AppointmentService) Complete(ctx context.Context, actor *domain.StaffMember, appointmentID string, workedMinutes int, notes string) (*domain.Appointment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	if workedMinutes <= 0 {
		return nil, apperrors.NewFieldErrors(map[string]any{"worked_minutes": "worked minutes must be positive"})
	}
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("appointment", map[string]any{"appointment_id": appointmentID})
		}
		return nil, apperrors.MapError(err)
	}
	if appt.Status != domain.AppointmentStatusScheduled {
		return nil, apperrors.NewConflict("appointment not open", map[string]any{"status": appt.Status})
	}

	charge := decimal.Decimal{}
	if appt.OnSite {
		charge, err = s.displacementCharge(ctx, appt.TicketID)
		if err != nil {
			return nil, err
		}
	}

	appt.Status = domain.AppointmentStatusCompleted
	appt.WorkedMinutes = workedMinutes
	appt.DisplacementCharge = charge
	if notes != "" {
		appt.Notes = notes
	}
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, apperrors.MapError(err)
	}
	payload := events.AppointmentCompletedPayload{
		AppointmentID: appt.ID,
		WorkedMinutes: appt.WorkedMinutes,
	}
	if !charge.IsZero() {
		payload.DisplacementCharge = charge.StringFixed(2)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventAppointmentCompleted,
		TicketID: appt.TicketID,
		Actor:    staffActor(actor.ID),
		Payload:  payload,
	})
	return appt, nil
}

// Cancel voids a scheduled appointment.
func (s *AppointmentService) Cancel(ctx context.Context, actor *domain.StaffMember, appointmentID string) (*domain.Appointment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("appointment", map[string]any{"appointment_id": appointmentID})
		}
		return nil, apperrors.MapError(err)
	}
	if appt.Status != domain.AppointmentStatusScheduled {
		return nil, apperrors.NewConflict("appointment not open", map[string]any{"status": appt.Status})
	}
	appt.Status = domain.AppointmentStatusCancelled
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, apperrors.MapError(err)
	}
	return appt, nil
}

// ListForTicket returns a ticket's appointments in schedule order.
func (s *AppointmentService) ListForTicket(ctx context.Context, ticketID string) ([]domain.Appointment, error) {
	appts, err := s.appointments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return appts, nil
}

func (s *AppointmentService) displacementCharge(ctx context.Context, ticketID string) (decimal.Decimal, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return decimal.Decimal{}, apperrors.MapError(err)
	}
	if ticket.ContractID == nil {
		return decimal.Decimal{}, nil
	}
	contract, err := s.contracts.GetByID(ctx, *ticket.ContractID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Decimal{}, nil
		}
		return decimal.Decimal{}, apperrors.MapError(err)
	}
	if !contract.DisplacementBillable {
		return decimal.Decimal{}, nil
	}
	return contract.DisplacementRate, nil
}

func (s *AppointmentService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
