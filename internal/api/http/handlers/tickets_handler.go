package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

// TicketsHandler is the end-user surface: users open tickets, read their own
// (internal notes filtered out by the service), reply, and close.
type TicketsHandler struct {
	service *service.TicketService
}

func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket handles POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := requireUserPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DepartmentID == "" || req.Title == "" || req.Description == "" {
		return apperrors.NewValidationError("department_id, title, description required", nil)
	}

	ticket, err := h.service.CreateTicket(c.Context(), user.ID, service.TicketCreateInput{
		DepartmentID: req.DepartmentID,
		TeamID:       req.TeamID,
		ClientID:     req.ClientID,
		ContractID:   req.ContractID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		Tags:         req.Tags,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets handles GET /tickets, scoped to the caller's own tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	user, err := requireUserPrincipal(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListUserTickets(c.Context(), user.ID, parseUserTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, len(tickets))
	for i := range tickets {
		items[i] = ticketSummary(&tickets[i])
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket handles GET /tickets/:id with messages and history inline.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user, err := requireUserPrincipal(c)
	if err != nil {
		return err
	}
	ticket, msgs, err := h.service.GetTicketForUser(c.Context(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	history, err := h.service.ListHistoryForUser(c.Context(), user.ID, ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, msgs, history)})
}

// AddMessage handles POST /tickets/:id/messages. User messages are always
// public replies; internal notes exist only on the staff surface.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	user, err := requireUserPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
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
	msg, err := h.service.AddMessage(c.Context(), domain.SubjectTypeUser, user.ID, nil, c.Params("id"), domain.MessageTypePublicReply, req.Body, attachments)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketMessageResponse(msg)})
}

// CloseTicket handles POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	user, err := requireUserPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.CloseTicketAsUser(c.Context(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func requireUserPrincipal(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal.User, nil
}

func parseUserTicketQuery(c *fiber.Ctx) service.TicketUserFilter {
	var filter service.TicketUserFilter
	for _, part := range csvValues(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(part))
	}
	for _, part := range csvValues(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(part))
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

// csvValues splits a comma-separated query value, trimming whitespace and
// skipping empty entries.
func csvValues(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		ExternalKey:  ticket.ExternalKey,
		DepartmentID: ticket.DepartmentID,
		TeamID:       ticket.TeamID,
		Title:        ticket.Title,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		Tags:         ticket.Tags,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, messages []domain.TicketMessage, history []domain.TicketHistory) dto.TicketDetailResponse {
	msgs := make([]dto.TicketMessageResponse, len(messages))
	for i := range messages {
		msgs[i] = ticketMessageResponse(&messages[i])
	}
	return dto.TicketDetailResponse{
		ID:                 ticket.ID,
		ExternalKey:        ticket.ExternalKey,
		DepartmentID:       ticket.DepartmentID,
		TeamID:             ticket.TeamID,
		Title:              ticket.Title,
		Description:        ticket.Description,
		Status:             ticket.Status,
		Priority:           ticket.Priority,
		Tags:               ticket.Tags,
		CreatedAt:          ticket.CreatedAt,
		UpdatedAt:          ticket.UpdatedAt,
		ClosedAt:           ticket.ClosedAt,
		ClientID:           ticket.ClientID,
		ContractID:         ticket.ContractID,
		FirstResponseDueAt: ticket.FirstResponseDueAt,
		ResolutionDueAt:    ticket.ResolutionDueAt,
		FirstResponseAt:    ticket.FirstResponseAt,
		Messages:           msgs,
		History:            historyResponses(history),
	}
}

func ticketMessageResponse(msg *domain.TicketMessage) dto.TicketMessageResponse {
	attachments := make([]dto.AttachmentResponse, len(msg.Attachments))
	for i, att := range msg.Attachments {
		attachments[i] = dto.AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
		}
	}
	return dto.TicketMessageResponse{
		ID:          msg.ID,
		MessageType: msg.MessageType,
		AuthorType:  msg.AuthorType,
		AuthorID:    msg.AuthorID,
		Body:        msg.Body,
		Attachments: attachments,
		CreatedAt:   msg.CreatedAt,
	}
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, len(entries))
	for i, entry := range entries {
		resp[i] = dto.TicketHistoryResponse{
			ID:            entry.ID,
			ChangeType:    entry.ChangeType,
			ChangedByType: entry.ChangedByType,
			ChangedByID:   entry.ChangedByID,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		}
	}
	return resp
}
