package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

// TicketService runs the ticket lifecycle: intake with SLA stamping, the
// message thread, status and priority changes, and the audit history. Access
// rules live here; handlers only translate HTTP.
type TicketService struct {
	tickets     repository.TicketRepository
	messages    repository.TicketMessageRepository
	attachments repository.AttachmentRepository
	departments repository.DepartmentRepository
	teams       repository.TeamRepository
	staff       repository.StaffRepository
	history     repository.TicketHistoryRepository
	dispatcher  events.Dispatcher
	sla         config.SLAConfig
}

// TicketDependencies bundles what NewTicketService needs.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	MessageRepo    repository.TicketMessageRepository
	AttachmentRepo repository.AttachmentRepository
	DepartmentRepo repository.DepartmentRepository
	TeamRepo       repository.TeamRepository
	StaffRepo      repository.StaffRepository
	HistoryRepo    repository.TicketHistoryRepository
	Dispatcher     events.Dispatcher
	SLA            config.SLAConfig
}

// TicketCreateInput is the intake payload.
type TicketCreateInput struct {
	DepartmentID string
	TeamID       *string
	ClientID     *string
	ContractID   *string
	Title        string
	Description  string
	Priority     domain.TicketPriority
	Tags         []string
}

// TicketUserFilter narrows an end user's own ticket listing.
type TicketUserFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketStaffFilter narrows the staff queue.
type TicketStaffFilter struct {
	DepartmentID *string
	TeamID       *string
	AssigneeID   *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	UpdatedFrom  *time.Time
	UpdatedTo    *time.Time
	Limit        int
	Offset       int
}

// MessageAttachmentInput carries attachment metadata; the file itself is
// already in object storage under StorageKey.
type MessageAttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		messages:    deps.MessageRepo,
		attachments: deps.AttachmentRepo,
		departments: deps.DepartmentRepo,
		teams:       deps.TeamRepo,
		staff:       deps.StaffRepo,
		history:     deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
		sla:         deps.SLA,
	}
}

// CreateTicket opens a ticket for a user. The target department must be
// active, and an explicit team must belong to it. Priority defaults to
// MEDIUM, and SLA deadlines are stamped from the configured targets.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	dept, err := s.departments.GetByID(ctx, input.DepartmentID)
	if err != nil {
		return nil, err
	}
	if !dept.IsActive {
		return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": input.DepartmentID})
	}
	if input.TeamID != nil {
		team, err := s.teams.GetByID(ctx, *input.TeamID)
		if err != nil {
			return nil, err
		}
		if !team.IsActive {
			return nil, apperrors.NewConflict("team inactive", map[string]any{"team_id": *input.TeamID})
		}
		if team.DepartmentID != input.DepartmentID {
			return nil, apperrors.NewFieldErrors(map[string]any{"team_id": "team does not belong to the department"})
		}
	}

	ticket := &domain.Ticket{
		ExternalKey:  generateTicketKey(),
		RequesterID:  userID,
		ClientID:     input.ClientID,
		ContractID:   input.ContractID,
		DepartmentID: input.DepartmentID,
		TeamID:       input.TeamID,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.TicketStatusOpen,
		Priority:     input.Priority,
		Tags:         input.Tags,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	s.stampSLATargets(ticket)

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
		Payload: events.TicketCreatedPayload{
			DepartmentID: ticket.DepartmentID,
			TeamID:       ticket.TeamID,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
		},
	})
	return ticket, nil
}

// ListUserTickets pages through the requester's own tickets.
func (s *TicketService) ListUserTickets(ctx context.Context, userID string, filter TicketUserFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		RequesterID: &userID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
}

// GetTicketForUser returns a ticket with its thread, internal notes removed.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, []domain.TicketMessage, error) {
	ticket, err := s.ownedTicket(ctx, userID, ticketID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.visibleMessagesForUser(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, msgs, nil
}

// ListStaffTickets pages through tickets in the staff member's scope. Agents
// and leads are pinned to their own department and team; admins see all.
func (s *TicketService) ListStaffTickets(ctx context.Context, staff *domain.StaffMember, filter TicketStaffFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		DepartmentID: filter.DepartmentID,
		TeamID:       filter.TeamID,
		AssigneeID:   filter.AssigneeID,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		SearchTerm:   filter.SearchTerm,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		UpdatedFrom:  filter.UpdatedFrom,
		UpdatedTo:    filter.UpdatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	s.applyStaffScope(&repoFilter, staff)
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// GetTicketForStaff returns a ticket with the full thread, notes included.
func (s *TicketService) GetTicketForStaff(ctx context.Context, staff *domain.StaffMember, ticketID string) (*domain.Ticket, []domain.TicketMessage, error) {
	ticket, err := s.scopedTicket(ctx, staff, ticketID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.messagesWithAttachments(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, msgs, nil
}

// AddMessage appends to the ticket thread. Users may only post public
// replies on their own tickets; staff may also leave internal notes. The
// first staff public reply stops the response-SLA clock.
func (s *TicketService) AddMessage(ctx context.Context, actor domain.SubjectType, actorID string, staff *domain.StaffMember, ticketID string, messageType domain.TicketMessageType, body string, attachments []MessageAttachmentInput) (*domain.TicketMessage, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	msg := &domain.TicketMessage{
		TicketID:    ticket.ID,
		MessageType: messageType,
		Body:        strings.TrimSpace(body),
	}
	switch actor {
	case domain.SubjectTypeUser:
		if ticket.RequesterID != actorID {
			return nil, apperrors.NewForbidden("access denied")
		}
		if messageType != domain.MessageTypePublicReply {
			return nil, apperrors.NewForbidden("users can only post public replies")
		}
		msg.AuthorType = domain.AuthorTypeUser
		requester := ticket.RequesterID
		msg.AuthorID = &requester
	case domain.SubjectTypeStaff:
		if staff == nil {
			return nil, apperrors.NewUnauthorized("staff context required")
		}
		if !s.staffCanAccessTicket(staff, ticket) {
			return nil, apperrors.NewForbidden("access denied")
		}
		if messageType != domain.MessageTypePublicReply && messageType != domain.MessageTypeInternalNote {
			return nil, apperrors.NewFieldErrors(map[string]any{"message_type": "invalid message type for staff"})
		}
		msg.AuthorType = domain.AuthorTypeStaff
		msg.AuthorID = &staff.ID
	default:
		return nil, apperrors.NewUnauthorized("unknown actor")
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	if actor == domain.SubjectTypeStaff && messageType == domain.MessageTypePublicReply && ticket.FirstResponseAt == nil {
		now := time.Now()
		ticket.FirstResponseAt = &now
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, err
		}
	}
	for _, att := range attachments {
		record := &domain.AttachmentReference{
			TicketMessageID: msg.ID,
			StorageKey:      att.StorageKey,
			FileName:        att.FileName,
			MimeType:        att.MimeType,
			SizeBytes:       att.SizeBytes,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, err
		}
		msg.Attachments = append(msg.Attachments, *record)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticket.ID,
		Actor:    actorFromSubject(actor, actorID),
		Payload: events.TicketMessageAddedPayload{
			MessageID:   msg.ID,
			MessageType: msg.MessageType,
			AuthorType:  msg.AuthorType,
			AuthorID:    msg.AuthorID,
			BodyPreview: stringPreview(msg.Body, 120),
		},
	})
	return msg, nil
}

// CloseTicketAsUser closes the requester's own ticket. Only tickets already
// resolved, or waiting on the user, can be closed from the user side.
func (s *TicketService) CloseTicketAsUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.ownedTicket(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusPendingUser {
		return nil, apperrors.NewConflict("ticket cannot be closed in its current status", map[string]any{"status": ticket.Status})
	}
	now := time.Now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.recordStatusChange(ctx, domain.AuthorTypeUser, &userID, ticket.ID, oldStatus, ticket.Status, "user_closed"); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Comment:   "user_closed",
		},
	})
	return ticket, nil
}

// UpdateStatus moves a ticket along the status machine. Closing stamps
// ClosedAt; reopening clears it.
func (s *TicketService) UpdateStatus(ctx context.Context, staff *domain.StaffMember, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	ticket, err := s.scopedTicket(ctx, staff, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{"from": ticket.Status, "to": newStatus})
	}
	oldStatus := ticket.Status
	ticket.Status = newStatus
	if newStatus == domain.TicketStatusClosed {
		now := time.Now()
		ticket.ClosedAt = &now
	} else {
		ticket.ClosedAt = nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.recordStatusChange(ctx, domain.AuthorTypeStaff, &staff.ID, ticket.ID, oldStatus, newStatus, comment); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    staffActor(staff.ID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return ticket, nil
}

// UpdatePriority changes ticket priority. SLA deadlines are not restamped;
// they reflect the priority at intake.
func (s *TicketService) UpdatePriority(ctx context.Context, staff *domain.StaffMember, ticketID string, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	ticket, err := s.scopedTicket(ctx, staff, ticketID)
	if err != nil {
		return nil, err
	}
	oldPriority := ticket.Priority
	ticket.Priority = newPriority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.recordHistory(ctx, domain.AuthorTypeStaff, &staff.ID, ticket.ID, domain.ChangeTypePriority,
		map[string]any{"priority": oldPriority},
		map[string]any{"priority": newPriority},
	); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		Actor:    staffActor(staff.ID),
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return ticket, nil
}

// ListHistoryForStaff returns the full audit trail.
func (s *TicketService) ListHistoryForStaff(ctx context.Context, staff *domain.StaffMember, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	if _, err := s.scopedTicket(ctx, staff, ticketID); err != nil {
		return nil, err
	}
	return s.history.ListByTicket(ctx, ticketID, limit, offset)
}

// ListHistoryForUser returns the audit entries a requester may see: status,
// assignee, and team changes. Priority and department moves stay internal.
func (s *TicketService) ListHistoryForUser(ctx context.Context, userID, ticketID string) ([]domain.TicketHistory, error) {
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	if _, err := s.ownedTicket(ctx, userID, ticketID); err != nil {
		return nil, err
	}
	history, err := s.history.ListByTicket(ctx, ticketID, 100, 0)
	if err != nil {
		return nil, err
	}
	allowed := []domain.TicketHistory{}
	for _, entry := range history {
		switch entry.ChangeType {
		case domain.ChangeTypeStatus, domain.ChangeTypeAssignee, domain.ChangeTypeTeam:
			allowed = append(allowed, entry)
		}
	}
	return allowed, nil
}

// ownedTicket loads a ticket and checks the caller is its requester.
func (s *TicketService) ownedTicket(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID != userID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// scopedTicket loads a ticket and checks the staff member can act on it.
func (s *TicketService) scopedTicket(ctx context.Context, staff *domain.StaffMember, ticketID string) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.staffCanAccessTicket(staff, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

func (s *TicketService) applyStaffScope(filter *repository.TicketFilter, staff *domain.StaffMember) {
	if staff == nil || staff.IsAdmin() {
		return
	}
	if staff.DepartmentID != nil {
		filter.DepartmentID = staff.DepartmentID
	}
	if staff.TeamID != nil {
		filter.TeamID = staff.TeamID
	}
}

func (s *TicketService) staffCanAccessTicket(staff *domain.StaffMember, ticket *domain.Ticket) bool {
	if staff == nil {
		return false
	}
	if staff.IsAdmin() {
		return true
	}
	if staff.TeamID != nil && ticket.TeamID != nil && *staff.TeamID == *ticket.TeamID {
		return true
	}
	return staff.DepartmentID != nil && *staff.DepartmentID == ticket.DepartmentID
}

func (s *TicketService) visibleMessagesForUser(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	msgs, err := s.messagesWithAttachments(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	filtered := make([]domain.TicketMessage, 0, len(msgs))
	for _, msg := range msgs {
		if msg.MessageType != domain.MessageTypeInternalNote {
			filtered = append(filtered, msg)
		}
	}
	return filtered, nil
}

func (s *TicketService) messagesWithAttachments(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	msgs, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		attachments, err := s.attachments.ListByMessage(ctx, msgs[i].ID)
		if err != nil {
			return nil, err
		}
		msgs[i].Attachments = attachments
	}
	return msgs, nil
}

// stampSLATargets derives both deadlines from the same instant so the gap
// between them is exactly the configured difference. A priority with no
// configured target gets no deadline.
func (s *TicketService) stampSLATargets(ticket *domain.Ticket) {
	base := ticket.CreatedAt
	if base.IsZero() {
		base = time.Now()
	}
	if minutes, ok := s.sla.ResponseMinutes[string(ticket.Priority)]; ok && minutes > 0 {
		due := base.Add(time.Duration(minutes) * time.Minute)
		ticket.FirstResponseDueAt = &due
	}
	if minutes, ok := s.sla.ResolutionMinutes[string(ticket.Priority)]; ok && minutes > 0 {
		due := base.Add(time.Duration(minutes) * time.Minute)
		ticket.ResolutionDueAt = &due
	}
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
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

func userActor(userID string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeUser, UserID: &userID}
}

func staffActor(staffID string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeStaff, StaffID: &staffID}
}

func actorFromSubject(subject domain.SubjectType, id string) events.Actor {
	if subject == domain.SubjectTypeStaff {
		return staffActor(id)
	}
	return userActor(id)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

// isValidTransition encodes the status machine. Closed and cancelled are
// terminal; resolved tickets may be reopened or closed.
func isValidTransition(current, next domain.TicketStatus) bool {
	var allowed []domain.TicketStatus
	switch current {
	case domain.TicketStatusOpen:
		allowed = []domain.TicketStatus{domain.TicketStatusInProgress, domain.TicketStatusCancelled}
	case domain.TicketStatusInProgress:
		allowed = []domain.TicketStatus{domain.TicketStatusPendingUser, domain.TicketStatusResolved, domain.TicketStatusCancelled}
	case domain.TicketStatusPendingUser:
		allowed = []domain.TicketStatus{domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusCancelled}
	case domain.TicketStatusResolved:
		allowed = []domain.TicketStatus{domain.TicketStatusClosed, domain.TicketStatusInProgress}
	}
	for _, candidate := range allowed {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s *TicketService) recordStatusChange(ctx context.Context, actorType domain.MessageAuthorType, actorID *string, ticketID string, oldStatus, newStatus domain.TicketStatus, comment string) error {
	return s.recordHistory(ctx, actorType, actorID, ticketID, domain.ChangeTypeStatus,
		map[string]any{"status": oldStatus},
		map[string]any{"status": newStatus, "comment": comment},
	)
}

func (s *TicketService) recordHistory(ctx context.Context, actorType domain.MessageAuthorType, actorID *string, ticketID string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) error {
	if s.history == nil {
		return nil
	}
	return s.history.Create(ctx, &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    changeType,
		OldValue:      oldValue,
		NewValue:      newValue,
	})
}
