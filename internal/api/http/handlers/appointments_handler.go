package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

// AppointmentsHandler manages staff visit scheduling on tickets.
type AppointmentsHandler struct {
	appointments *service.AppointmentService
}

// NewAppointmentsHandler constructs handler.
func NewAppointmentsHandler(appointmentService *service.AppointmentService) *AppointmentsHandler {
	return &AppointmentsHandler{appointments: appointmentService}
}

// Schedule POST /staff/tickets/:id/appointments.
func (h *AppointmentsHandler) Schedule(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ScheduleAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	appointment, err := h.appointments.Schedule(c.Context(), staff, c.Params("id"), service.ScheduleInput{
		StaffID:        req.StaffID,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		OnSite:         req.OnSite,
		Notes:          req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": appointmentResponse(appointment)})
}

// ListForTicket GET /staff/tickets/:id/appointments.
func (h *AppointmentsHandler) ListForTicket(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	appointments, err := h.appointments.ListForTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AppointmentResponse, 0, len(appointments))
	for i := range appointments {
		items = append(items, appointmentResponse(&appointments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Complete POST /staff/appointments/:id/complete.
func (h *AppointmentsHandler) Complete(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CompleteAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	appointment, err := h.appointments.Complete(c.Context(), staff, c.Params("id"), req.WorkedMinutes, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appointment)})
}

// Cancel POST /staff/appointments/:id/cancel.
func (h *AppointmentsHandler) Cancel(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	appointment, err := h.appointments.Cancel(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appointment)})
}

func appointmentResponse(appointment *domain.Appointment) dto.AppointmentResponse {
	return dto.AppointmentResponse{
		ID:                 appointment.ID,
		TicketID:           appointment.TicketID,
		StaffID:            appointment.StaffID,
		ScheduledStart:     appointment.ScheduledStart,
		ScheduledEnd:       appointment.ScheduledEnd,
		Status:             string(appointment.Status),
		WorkedMinutes:      appointment.WorkedMinutes,
		OnSite:             appointment.OnSite,
		DisplacementCharge: appointment.DisplacementCharge.StringFixed(2),
		Notes:              appointment.Notes,
		CreatedAt:          appointment.CreatedAt,
	}
}
