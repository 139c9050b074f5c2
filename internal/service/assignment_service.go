package service

import (
	"context"
	"errors"
	"hash/fnv"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

// AssignmentService moves tickets between staff and teams. Every change is
// written to the ticket history ledger and announced on the event bus.
type AssignmentService struct {
	tickets     repository.TicketRepository
	staff       repository.StaffRepository
	teams       repository.TeamRepository
	historyRepo repository.TicketHistoryRepository
	dispatcher  events.Dispatcher
}

// AssignmentDependencies bundles what NewAssignmentService needs.
type AssignmentDependencies struct {
	TicketRepo  repository.TicketRepository
	StaffRepo   repository.StaffRepository
	TeamRepo    repository.TeamRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
}

func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:     deps.TicketRepo,
		staff:       deps.StaffRepo,
		teams:       deps.TeamRepo,
		historyRepo: deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
	}
}

// SelfAssignTicket lets any staff member grab a ticket they can already see.
func (s *AssignmentService) SelfAssignTicket(ctx context.Context, staff *domain.StaffMember, ticketID string) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.staffCanAccess(staff, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	oldAssignee := ticket.AssigneeID
	ticket.AssigneeID = &staff.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordChange(ctx, staff.ID, ticket.ID, domain.ChangeTypeAssignee, "assignee_staff_id", oldAssignee, ticket.AssigneeID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAssignmentEvent(ctx, staff.ID, ticket)
	return ticket, nil
}

// AssignTicketToStaff hands a ticket to a specific active staff member.
// Restricted to team leads and admins; a lead can only assign within the
// ticket's own team or department.
func (s *AssignmentService) AssignTicketToStaff(ctx context.Context, actor *domain.StaffMember, ticketID, assigneeStaffID string) (*domain.Ticket, error) {
	if err := requireAssignPriv(actor); err != nil {
		return nil, err
	}
	assignee, err := s.staff.GetByID(ctx, assigneeStaffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": assigneeStaffID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("assignee inactive", map[string]any{"staff_id": assigneeStaffID})
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.staffCanAccess(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if !actor.IsAdmin() && !inTicketScope(assignee, ticket) {
		return nil, apperrors.NewForbidden("assignee outside ticket scope")
	}

	oldAssignee := ticket.AssigneeID
	ticket.AssigneeID = &assignee.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordChange(ctx, actor.ID, ticket.ID, domain.ChangeTypeAssignee, "assignee_staff_id", oldAssignee, ticket.AssigneeID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAssignmentEvent(ctx, actor.ID, ticket)
	return ticket, nil
}

// AssignTicketToTeam moves a ticket to another active team. The assignee is
// cleared so the receiving team picks it up fresh, and the department follows
// the team.
func (s *AssignmentService) AssignTicketToTeam(ctx context.Context, actor *domain.StaffMember, ticketID, teamID string) (*domain.Ticket, error) {
	if err := requireAssignPriv(actor); err != nil {
		return nil, err
	}
	team, err := s.loadActiveTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.staffCanAccess(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	oldTeam := ticket.TeamID
	oldDept := ticket.DepartmentID
	ticket.TeamID = &team.ID
	ticket.DepartmentID = team.DepartmentID
	ticket.AssigneeID = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordChange(ctx, actor.ID, ticket.ID, domain.ChangeTypeTeam, "team_id", oldTeam, ticket.TeamID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if oldDept != team.DepartmentID {
		if err := s.recordChange(ctx, actor.ID, ticket.ID, domain.ChangeTypeDepartment, "department_id", oldDept, ticket.DepartmentID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	s.publishAssignmentEvent(ctx, actor.ID, ticket)
	return ticket, nil
}

// AutoAssignTicket parks the ticket on a team and picks an assignee from its
// active roster. The pick is a stable hash of the ticket ID over the roster
// sorted by seniority, so retries land on the same person.
func (s *AssignmentService) AutoAssignTicket(ctx context.Context, ticketID, teamID string) (*domain.Ticket, error) {
	team, err := s.loadActiveTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	active := true
	staffList, err := s.staff.List(ctx, repository.StaffFilter{
		TeamID: &teamID,
		Active: &active,
		Limit:  1000,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(staffList) == 0 {
		return nil, apperrors.NewConflict("no eligible staff for team", map[string]any{"team_id": teamID})
	}
	sort.Slice(staffList, func(i, j int) bool {
		return staffList[i].CreatedAt.Before(staffList[j].CreatedAt)
	})

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	assignee := staffList[rosterIndex(ticket.ID, len(staffList))]

	oldAssignee := ticket.AssigneeID
	oldTeam := ticket.TeamID
	oldDept := ticket.DepartmentID
	ticket.TeamID = &team.ID
	ticket.DepartmentID = team.DepartmentID
	ticket.AssigneeID = &assignee.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordChange(ctx, assignee.ID, ticket.ID, domain.ChangeTypeTeam, "team_id", oldTeam, ticket.TeamID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if oldDept != team.DepartmentID {
		if err := s.recordChange(ctx, assignee.ID, ticket.ID, domain.ChangeTypeDepartment, "department_id", oldDept, ticket.DepartmentID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if err := s.recordChange(ctx, assignee.ID, ticket.ID, domain.ChangeTypeAssignee, "assignee_staff_id", oldAssignee, ticket.AssigneeID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAssignmentEvent(ctx, assignee.ID, ticket)
	return ticket, nil
}

func (s *AssignmentService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *AssignmentService) loadActiveTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return nil, apperrors.MapError(err)
	}
	if !team.IsActive {
		return nil, apperrors.NewConflict("team inactive", map[string]any{"team_id": teamID})
	}
	return team, nil
}

func rosterIndex(key string, length int) int {
	if length == 0 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(length))
}

func requireAssignPriv(staff *domain.StaffMember) error {
	if staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	if staff.Role != domain.StaffRoleTeamLead && !staff.IsAdmin() {
		return apperrors.NewForbidden("insufficient role for assignment")
	}
	return nil
}

func (s *AssignmentService) staffCanAccess(staff *domain.StaffMember, ticket *domain.Ticket) bool {
	if staff == nil {
		return false
	}
	return staff.IsAdmin() || inTicketScope(staff, ticket)
}

// inTicketScope reports whether the staff member shares the ticket's team or
// department.
func inTicketScope(staff *domain.StaffMember, ticket *domain.Ticket) bool {
	if staff == nil {
		return false
	}
	if staff.TeamID != nil && ticket.TeamID != nil && *staff.TeamID == *ticket.TeamID {
		return true
	}
	return staff.DepartmentID != nil && *staff.DepartmentID == ticket.DepartmentID
}

func (s *AssignmentService) recordChange(ctx context.Context, actorID, ticketID string, changeType domain.TicketChangeType, field string, oldVal, newVal any) error {
	return s.historyRepo.Create(ctx, &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.AuthorTypeStaff,
		ChangedByID:   &actorID,
		ChangeType:    changeType,
		OldValue:      map[string]any{field: oldVal},
		NewValue:      map[string]any{field: newVal},
	})
}

func (s *AssignmentService) publishAssignmentEvent(ctx context.Context, actorID string, ticket *domain.Ticket) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  ticket.ID,
		Actor:     events.Actor{Type: domain.SubjectTypeStaff, StaffID: &actorID},
		Timestamp: time.Now(),
		Payload: events.TicketAssignedPayload{
			AssigneeStaffID: ticket.AssigneeID,
			TeamID:          ticket.TeamID,
		},
	})
}
