package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StaffTicketsHandler is the operator surface: queue listing across the
// staff member's scope, status/priority changes, and assignment.
type StaffTicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
}

func NewStaffTicketsHandler(ticketService *service.TicketService, assignmentService *service.AssignmentService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: ticketService, assignments: assignmentService}
}

// ListStaffTickets handles GET /staff/tickets.
func (h *StaffTicketsHandler) ListStaffTickets(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListStaffTickets(c.Context(), staff, parseStaffTicketFilter(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, len(tickets))
	for i := range tickets {
		items[i] = ticketSummary(&tickets[i])
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetStaffTicket handles GET /staff/tickets/:id, internal notes included.
func (h *StaffTicketsHandler) GetStaffTicket(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, msgs, err := h.tickets.GetTicketForStaff(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	history, err := h.tickets.ListHistoryForStaff(c.Context(), staff, ticket.ID, 100, 0)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, msgs, history)})
}

// AddStaffMessage handles POST /staff/tickets/:id/messages. Staff may send
// a public reply or an internal note via message_type.
func (h *StaffTicketsHandler) AddStaffMessage(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Body) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "body required")
	}
	msgType := domain.MessageTypePublicReply
	if req.MessageType != nil {
		msgType = *req.MessageType
	}
	attachments := make([]service.MessageAttachmentInput, len(req.Attachments))
	for i, att := range req.Attachments {
		attachments[i] = service.MessageAttachmentInput{
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		}
	}
	msg, err := h.tickets.AddMessage(c.Context(), domain.SubjectTypeStaff, staff.ID, staff, c.Params("id"), msgType, req.Body, attachments)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketMessageResponse(msg)})
}

// UpdateStatus handles POST /staff/tickets/:id/status.
func (h *StaffTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketStatusRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateStatus(c.Context(), staff, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// UpdatePriority handles POST /staff/tickets/:id/priority.
func (h *StaffTicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketPriorityRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdatePriority(c.Context(), staff, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// SelfAssign handles POST /staff/tickets/:id/assign/self.
func (h *StaffTicketsHandler) SelfAssign(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.assignments.SelfAssignTicket(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Assign handles POST /staff/tickets/:id/assign. Exactly one of staff_id or
// team_id picks the target; staff_id wins when both are present.
func (h *StaffTicketsHandler) Assign(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	var ticket *domain.Ticket
	switch {
	case req.StaffID != "":
		ticket, err = h.assignments.AssignTicketToStaff(c.Context(), staff, c.Params("id"), req.StaffID)
	case req.TeamID != "":
		ticket, err = h.assignments.AssignTicketToTeam(c.Context(), staff, c.Params("id"), req.TeamID)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "staff_id or team_id required")
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func staffPrincipal(c *fiber.Ctx) (*domain.StaffMember, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "staff required")
	}
	return principal.Staff, nil
}

func parseStaffTicketFilter(c *fiber.Ctx) service.TicketStaffFilter {
	var filter service.TicketStaffFilter
	if deptID := c.Query("department_id"); deptID != "" {
		filter.DepartmentID = &deptID
	}
	if teamID := c.Query("team_id"); teamID != "" {
		filter.TeamID = &teamID
	}
	if assignee := c.Query("assignee_staff_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	for _, part := range csvValues(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(part))
	}
	for _, part := range csvValues(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(part))
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	filter.UpdatedFrom = parseTime(c.Query("updated_from"))
	filter.UpdatedTo = parseTime(c.Query("updated_to"))
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}
