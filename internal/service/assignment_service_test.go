package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

type fakeStaffRepo struct {
	members map[string]*domain.StaffMember
	seq     int
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{members: map[string]*domain.StaffMember{}}
}

func (f *fakeStaffRepo) Create(_ context.Context, staff *domain.StaffMember) error {
	f.seq++
	if staff.ID == "" {
		staff.ID = fmt.Sprintf("staff-%d", f.seq)
	}
	staff.CreatedAt = time.Now()
	stored := *staff
	f.members[staff.ID] = &stored
	return nil
}

func (f *fakeStaffRepo) Update(_ context.Context, staff *domain.StaffMember) error {
	if _, ok := f.members[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *staff
	f.members[staff.ID] = &stored
	return nil
}

func (f *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	staff, ok := f.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	stored := *staff
	return &stored, nil
}

func (f *fakeStaffRepo) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	for _, staff := range f.members {
		if staff.Email == email {
			stored := *staff
			return &stored, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStaffRepo) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	var result []domain.StaffMember
	for _, staff := range f.members {
		if filter.TeamID != nil && (staff.TeamID == nil || *staff.TeamID != *filter.TeamID) {
			continue
		}
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		if filter.Role != nil && staff.Role != *filter.Role {
			continue
		}
		result = append(result, *staff)
	}
	return result, nil
}

type captureDispatcher struct {
	published []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type assignmentFixture struct {
	svc        *AssignmentService
	tickets    *fakeTicketRepo
	staff      *fakeStaffRepo
	history    *fakeHistoryRepo
	dispatcher *captureDispatcher
}

func newAssignmentFixture(t *testing.T) assignmentFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	staff := newFakeStaffRepo()
	history := &fakeHistoryRepo{}
	dispatcher := &captureDispatcher{}
	teams := &fakeTeamRepo{teams: map[string]*domain.Team{
		"team-1":    {ID: "team-1", DepartmentID: "dept-1", Name: "N1", IsActive: true},
		"team-2":    {ID: "team-2", DepartmentID: "dept-2", Name: "N2", IsActive: true},
		"team-dead": {ID: "team-dead", DepartmentID: "dept-1", Name: "Legado", IsActive: false},
	}}
	svc := NewAssignmentService(AssignmentDependencies{
		TicketRepo:  tickets,
		StaffRepo:   staff,
		TeamRepo:    teams,
		HistoryRepo: history,
		Dispatcher:  dispatcher,
	})
	return assignmentFixture{svc: svc, tickets: tickets, staff: staff, history: history, dispatcher: dispatcher}
}

func seedAssignmentTicket(t *testing.T, fix assignmentFixture) *domain.Ticket {
	t.Helper()
	team := "team-1"
	ticket := &domain.Ticket{
		RequesterID:  "user-1",
		DepartmentID: "dept-1",
		TeamID:       &team,
		Title:        "Sem rede",
		Status:       domain.TicketStatusOpen,
		Priority:     domain.TicketPriorityMedium,
	}
	if err := fix.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	return ticket
}

func leadStaff(team string) *domain.StaffMember {
	dept := "dept-1"
	return &domain.StaffMember{
		ID:           "lead-1",
		Name:         "Bruno",
		Role:         domain.StaffRoleTeamLead,
		DepartmentID: &dept,
		TeamID:       &team,
		Active:       true,
	}
}

func TestSelfAssignRecordsHistory(t *testing.T) {
	fix := newAssignmentFixture(t)
	ticket := seedAssignmentTicket(t, fix)
	agent := deptStaff()

	updated, err := fix.svc.SelfAssignTicket(context.Background(), agent, ticket.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.AssigneeID == nil || *updated.AssigneeID != agent.ID {
		t.Fatalf("assignee = %v, want %s", updated.AssigneeID, agent.ID)
	}
	if len(fix.history.entries) != 1 {
		t.Fatalf("history = %d entries, want 1", len(fix.history.entries))
	}
	entry := fix.history.entries[0]
	if entry.ChangeType != domain.ChangeTypeAssignee {
		t.Errorf("change type = %s, want %s", entry.ChangeType, domain.ChangeTypeAssignee)
	}
	if entry.ChangedByID == nil || *entry.ChangedByID != agent.ID {
		t.Errorf("changed by = %v, want %s", entry.ChangedByID, agent.ID)
	}
}

func TestAssignToStaffRequiresLeadOrAdmin(t *testing.T) {
	fix := newAssignmentFixture(t)
	ticket := seedAssignmentTicket(t, fix)

	_, err := fix.svc.AssignTicketToStaff(context.Background(), deptStaff(), ticket.ID, "whoever")
	if err == nil {
		t.Fatal("plain agents cannot assign tickets to others")
	}
	if apperrors.ToDomainError(err).Code != "FORBIDDEN" {
		t.Fatalf("code = %s, want FORBIDDEN", apperrors.ToDomainError(err).Code)
	}
}

func TestAssignToTeamRecordsTeamAndDepartmentChanges(t *testing.T) {
	fix := newAssignmentFixture(t)
	ticket := seedAssignmentTicket(t, fix)

	updated, err := fix.svc.AssignTicketToTeam(context.Background(), leadStaff("team-1"), ticket.ID, "team-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.TeamID == nil || *updated.TeamID != "team-2" || updated.DepartmentID != "dept-2" {
		t.Fatalf("ticket must follow the target team, got team=%v dept=%s", updated.TeamID, updated.DepartmentID)
	}
	if updated.AssigneeID != nil {
		t.Error("moving teams must clear the assignee")
	}
	if len(fix.history.entries) != 2 {
		t.Fatalf("history = %d entries, want team and department changes", len(fix.history.entries))
	}
	if fix.history.entries[0].ChangeType != domain.ChangeTypeTeam {
		t.Errorf("first entry = %s, want %s", fix.history.entries[0].ChangeType, domain.ChangeTypeTeam)
	}
	if fix.history.entries[1].ChangeType != domain.ChangeTypeDepartment {
		t.Errorf("second entry = %s, want %s", fix.history.entries[1].ChangeType, domain.ChangeTypeDepartment)
	}
}

func TestAssignToInactiveTeamRejected(t *testing.T) {
	fix := newAssignmentFixture(t)
	ticket := seedAssignmentTicket(t, fix)

	_, err := fix.svc.AssignTicketToTeam(context.Background(), leadStaff("team-1"), ticket.ID, "team-dead")
	if err == nil {
		t.Fatal("inactive teams cannot receive tickets")
	}
	if apperrors.ToDomainError(err).Code != "CONFLICT" {
		t.Fatalf("code = %s, want CONFLICT", apperrors.ToDomainError(err).Code)
	}
}

func TestAutoAssignPickIsStable(t *testing.T) {
	fix := newAssignmentFixture(t)
	ticket := seedAssignmentTicket(t, fix)
	team := "team-2"
	for i, name := range []string{"Carla", "Davi", "Elisa"} {
		member := &domain.StaffMember{
			ID:     fmt.Sprintf("agent-%d", i+1),
			Name:   name,
			Role:   domain.StaffRoleAgent,
			TeamID: &team,
			Active: true,
		}
		if err := fix.staff.Create(context.Background(), member); err != nil {
			t.Fatalf("seed staff: %v", err)
		}
	}

	first, err := fix.svc.AutoAssignTicket(context.Background(), ticket.ID, team)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.AssigneeID == nil {
		t.Fatal("auto-assign must pick an assignee")
	}
	second, err := fix.svc.AutoAssignTicket(context.Background(), ticket.ID, team)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *second.AssigneeID != *first.AssigneeID {
		t.Errorf("repeat pick = %s, want stable %s", *second.AssigneeID, *first.AssigneeID)
	}

	var sawAssignee bool
	for _, entry := range fix.history.entries {
		if entry.ChangeType == domain.ChangeTypeAssignee {
			sawAssignee = true
		}
	}
	if !sawAssignee {
		t.Error("auto-assign must record the assignee change in history")
	}
	if len(fix.dispatcher.published) == 0 {
		t.Fatal("assignment must be announced on the event bus")
	}
	if fix.dispatcher.published[0].Type != events.EventTicketAssigned {
		t.Errorf("event type = %s, want %s", fix.dispatcher.published[0].Type, events.EventTicketAssigned)
	}
}
