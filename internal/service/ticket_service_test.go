package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type fakeTicketRepo struct {
	tickets map[string]*domain.Ticket
	seq     int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", f.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	stored := *ticket
	f.tickets[ticket.ID] = &stored
	return nil
}

func (f *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := f.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	stored := *ticket
	f.tickets[ticket.ID] = &stored
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	stored := *ticket
	return &stored, nil
}

func (f *fakeTicketRepo) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	for _, ticket := range f.tickets {
		if ticket.ExternalKey == key {
			stored := *ticket
			return &stored, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range f.tickets {
		if ticket.RequesterID == userID {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range f.tickets {
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

type fakeMessageRepo struct {
	messages []domain.TicketMessage
	seq      int
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *domain.TicketMessage) error {
	f.seq++
	msg.ID = fmt.Sprintf("msg-%d", f.seq)
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketMessage, error) {
	var result []domain.TicketMessage
	for _, msg := range f.messages {
		if msg.TicketID == ticketID {
			result = append(result, msg)
		}
	}
	return result, nil
}

type fakeAttachmentRepo struct {
	attachments []domain.AttachmentReference
	seq         int
}

func (f *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.AttachmentReference) error {
	f.seq++
	attachment.ID = fmt.Sprintf("att-%d", f.seq)
	f.attachments = append(f.attachments, *attachment)
	return nil
}

func (f *fakeAttachmentRepo) ListByMessage(_ context.Context, messageID string) ([]domain.AttachmentReference, error) {
	var result []domain.AttachmentReference
	for _, att := range f.attachments {
		if att.TicketMessageID == messageID {
			result = append(result, att)
		}
	}
	return result, nil
}

type fakeDepartmentRepo struct {
	departments map[string]*domain.Department
}

func (f *fakeDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	f.departments[dept.ID] = dept
	return nil
}

func (f *fakeDepartmentRepo) Update(_ context.Context, dept *domain.Department) error {
	f.departments[dept.ID] = dept
	return nil
}

func (f *fakeDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	dept, ok := f.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return dept, nil
}

func (f *fakeDepartmentRepo) List(_ context.Context, includeInactive bool) ([]domain.Department, error) {
	var result []domain.Department
	for _, dept := range f.departments {
		if dept.IsActive || includeInactive {
			result = append(result, *dept)
		}
	}
	return result, nil
}

type fakeTeamRepo struct {
	teams map[string]*domain.Team
}

func (f *fakeTeamRepo) Create(_ context.Context, team *domain.Team) error {
	f.teams[team.ID] = team
	return nil
}

func (f *fakeTeamRepo) Update(_ context.Context, team *domain.Team) error {
	f.teams[team.ID] = team
	return nil
}

func (f *fakeTeamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	team, ok := f.teams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return team, nil
}

func (f *fakeTeamRepo) List(_ context.Context, departmentID *string, includeInactive bool) ([]domain.Team, error) {
	var result []domain.Team
	for _, team := range f.teams {
		if !team.IsActive && !includeInactive {
			continue
		}
		if departmentID != nil && team.DepartmentID != *departmentID {
			continue
		}
		result = append(result, *team)
	}
	return result, nil
}

type fakeHistoryRepo struct {
	entries []domain.TicketHistory
}

func (f *fakeHistoryRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	history.ID = fmt.Sprintf("hist-%d", len(f.entries)+1)
	history.CreatedAt = time.Now()
	f.entries = append(f.entries, *history)
	return nil
}

func (f *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string, _, _ int) ([]domain.TicketHistory, error) {
	var result []domain.TicketHistory
	for _, entry := range f.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func testSLAConfig() config.SLAConfig {
	return config.SLAConfig{
		ResponseMinutes: map[string]int{
			"MEDIUM": 240,
			"HIGH":   60,
		},
		ResolutionMinutes: map[string]int{
			"MEDIUM": 1440,
			"HIGH":   480,
		},
	}
}

type ticketFixture struct {
	svc     *TicketService
	tickets *fakeTicketRepo
	history *fakeHistoryRepo
}

func newTicketFixture(t *testing.T) ticketFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	history := &fakeHistoryRepo{}
	deptID := "dept-1"
	departments := &fakeDepartmentRepo{departments: map[string]*domain.Department{
		deptID:      {ID: deptID, Name: "Suporte", IsActive: true},
		"dept-dead": {ID: "dept-dead", Name: "Legado", IsActive: false},
	}}
	teams := &fakeTeamRepo{teams: map[string]*domain.Team{
		"team-1":     {ID: "team-1", DepartmentID: deptID, Name: "N1", IsActive: true},
		"team-other": {ID: "team-other", DepartmentID: "dept-2", Name: "Fora", IsActive: true},
	}}
	svc := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		MessageRepo:    &fakeMessageRepo{},
		AttachmentRepo: &fakeAttachmentRepo{},
		DepartmentRepo: departments,
		TeamRepo:       teams,
		HistoryRepo:    history,
		SLA:            testSLAConfig(),
	})
	return ticketFixture{svc: svc, tickets: tickets, history: history}
}

func deptStaff() *domain.StaffMember {
	dept := "dept-1"
	return &domain.StaffMember{ID: "staff-1", Name: "Ana", Role: domain.StaffRoleAgent, DepartmentID: &dept}
}

func TestCreateTicketStampsSLATargets(t *testing.T) {
	fix := newTicketFixture(t)
	before := time.Now()

	ticket, err := fix.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		DepartmentID: "dept-1",
		Title:        "VPN fora do ar",
		Description:  "Sem acesso desde cedo",
		Priority:     domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.FirstResponseDueAt == nil || ticket.ResolutionDueAt == nil {
		t.Fatal("SLA due timestamps must be stamped at creation")
	}
	// Both deadlines derive from the same instant, so their gap is exact.
	if gap := ticket.ResolutionDueAt.Sub(*ticket.FirstResponseDueAt); gap != 420*time.Minute {
		t.Errorf("resolution-response gap = %v, want 420m", gap)
	}
	if ticket.FirstResponseDueAt.Before(before.Add(59 * time.Minute)) {
		t.Errorf("first response due %v too early for a 60m target", ticket.FirstResponseDueAt)
	}
	if ticket.FirstResponseAt != nil {
		t.Error("first response must not be recorded at creation")
	}
}

func TestCreateTicketDefaultsPriority(t *testing.T) {
	fix := newTicketFixture(t)

	ticket, err := fix.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		DepartmentID: "dept-1",
		Title:        "Impressora",
		Description:  "Papel atolado",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Errorf("priority = %s, want MEDIUM", ticket.Priority)
	}
	if ticket.FirstResponseDueAt == nil {
		t.Error("defaulted priority must still receive SLA targets")
	}
}

func TestCreateTicketUnconfiguredPrioritySkipsSLA(t *testing.T) {
	fix := newTicketFixture(t)

	ticket, err := fix.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		DepartmentID: "dept-1",
		Title:        "Dúvida",
		Description:  "Sem pressa",
		Priority:     domain.TicketPriorityLow,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.FirstResponseDueAt != nil || ticket.ResolutionDueAt != nil {
		t.Error("priorities without configured targets get no deadlines")
	}
}

func TestCreateTicketRejectsInactiveDepartment(t *testing.T) {
	fix := newTicketFixture(t)

	_, err := fix.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		DepartmentID: "dept-dead",
		Title:        "x",
		Description:  "y",
	})
	if err == nil {
		t.Fatal("inactive department must be rejected")
	}
}

func TestCreateTicketRejectsTeamOutsideDepartment(t *testing.T) {
	fix := newTicketFixture(t)
	team := "team-other"

	_, err := fix.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		DepartmentID: "dept-1",
		TeamID:       &team,
		Title:        "x",
		Description:  "y",
	})
	if err == nil {
		t.Fatal("team from another department must be rejected")
	}
}

func createTestTicket(t *testing.T, fix ticketFixture) *domain.Ticket {
	t.Helper()
	ticket, err := fix.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		DepartmentID: "dept-1",
		Title:        "VPN fora do ar",
		Description:  "Sem acesso",
		Priority:     domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func TestFirstStaffReplyRecordsFirstResponse(t *testing.T) {
	fix := newTicketFixture(t)
	ticket := createTestTicket(t, fix)

	_, err := fix.svc.AddMessage(context.Background(), domain.SubjectTypeStaff, "staff-1", deptStaff(), ticket.ID, domain.MessageTypePublicReply, "Olá, verificando.", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, err := fix.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.FirstResponseAt == nil {
		t.Fatal("first staff public reply must record the first response time")
	}
	first := *stored.FirstResponseAt

	// A later reply must not move the mark.
	if _, err := fix.svc.AddMessage(context.Background(), domain.SubjectTypeStaff, "staff-1", deptStaff(), ticket.ID, domain.MessageTypePublicReply, "Resolvido.", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ = fix.tickets.GetByID(context.Background(), ticket.ID)
	if !stored.FirstResponseAt.Equal(first) {
		t.Error("first response timestamp must be set once")
	}
}

func TestInternalNoteDoesNotRecordFirstResponse(t *testing.T) {
	fix := newTicketFixture(t)
	ticket := createTestTicket(t, fix)

	if _, err := fix.svc.AddMessage(context.Background(), domain.SubjectTypeStaff, "staff-1", deptStaff(), ticket.ID, domain.MessageTypeInternalNote, "checar roteador", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := fix.tickets.GetByID(context.Background(), ticket.ID)
	if stored.FirstResponseAt != nil {
		t.Error("internal notes do not count as a response")
	}
}

func TestUserReplyDoesNotRecordFirstResponse(t *testing.T) {
	fix := newTicketFixture(t)
	ticket := createTestTicket(t, fix)

	if _, err := fix.svc.AddMessage(context.Background(), domain.SubjectTypeUser, "user-1", nil, ticket.ID, domain.MessageTypePublicReply, "Ainda sem acesso.", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := fix.tickets.GetByID(context.Background(), ticket.ID)
	if stored.FirstResponseAt != nil {
		t.Error("requester replies do not count as a response")
	}
}

func TestUserCannotPostInternalNote(t *testing.T) {
	fix := newTicketFixture(t)
	ticket := createTestTicket(t, fix)

	if _, err := fix.svc.AddMessage(context.Background(), domain.SubjectTypeUser, "user-1", nil, ticket.ID, domain.MessageTypeInternalNote, "x", nil); err == nil {
		t.Fatal("users must be limited to public replies")
	}
}

func TestUserViewHidesInternalNotes(t *testing.T) {
	fix := newTicketFixture(t)
	ticket := createTestTicket(t, fix)

	if _, err := fix.svc.AddMessage(context.Background(), domain.SubjectTypeStaff, "staff-1", deptStaff(), ticket.ID, domain.MessageTypeInternalNote, "nota interna", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fix.svc.AddMessage(context.Background(), domain.SubjectTypeStaff, "staff-1", deptStaff(), ticket.ID, domain.MessageTypePublicReply, "resposta pública", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, msgs, err := fix.svc.GetTicketForUser(context.Background(), "user-1", ticket.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 1 || msgs[0].MessageType != domain.MessageTypePublicReply {
		t.Fatalf("user view = %d messages, want only the public reply", len(msgs))
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	fix := newTicketFixture(t)
	ticket := createTestTicket(t, fix)

	if _, err := fix.svc.UpdateStatus(context.Background(), deptStaff(), ticket.ID, domain.TicketStatusResolved, ""); err == nil {
		t.Fatal("OPEN cannot jump straight to RESOLVED")
	}

	updated, err := fix.svc.UpdateStatus(context.Background(), deptStaff(), ticket.ID, domain.TicketStatusInProgress, "iniciando")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", updated.Status)
	}
	if len(fix.history.entries) != 1 || fix.history.entries[0].ChangeType != domain.ChangeTypeStatus {
		t.Fatalf("status change must be recorded in history, got %+v", fix.history.entries)
	}
}

func TestUpdatePriorityRecordsHistory(t *testing.T) {
	fix := newTicketFixture(t)
	ticket := createTestTicket(t, fix)

	updated, err := fix.svc.UpdatePriority(context.Background(), deptStaff(), ticket.ID, domain.TicketPriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Priority != domain.TicketPriorityLow {
		t.Errorf("priority = %s, want LOW", updated.Priority)
	}
	if len(fix.history.entries) != 1 {
		t.Fatalf("history = %d entries, want 1", len(fix.history.entries))
	}
	entry := fix.history.entries[0]
	if entry.ChangeType != domain.ChangeTypePriority {
		t.Errorf("change type = %s, want %s", entry.ChangeType, domain.ChangeTypePriority)
	}
	if entry.OldValue["priority"] != domain.TicketPriorityHigh || entry.NewValue["priority"] != domain.TicketPriorityLow {
		t.Errorf("history values = %v -> %v, want HIGH -> LOW", entry.OldValue, entry.NewValue)
	}
}

func TestCloseTicketAsUser(t *testing.T) {
	fix := newTicketFixture(t)
	ticket := createTestTicket(t, fix)

	if _, err := fix.svc.CloseTicketAsUser(context.Background(), "user-1", ticket.ID); err == nil {
		t.Fatal("OPEN tickets cannot be closed by the requester")
	}

	if _, err := fix.svc.UpdateStatus(context.Background(), deptStaff(), ticket.ID, domain.TicketStatusInProgress, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fix.svc.UpdateStatus(context.Background(), deptStaff(), ticket.ID, domain.TicketStatusResolved, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	closed, err := fix.svc.CloseTicketAsUser(context.Background(), "user-1", ticket.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closed.Status != domain.TicketStatusClosed || closed.ClosedAt == nil {
		t.Error("closing must set status and timestamp")
	}
}

func TestStaffAccessScopedByDepartment(t *testing.T) {
	fix := newTicketFixture(t)
	ticket := createTestTicket(t, fix)

	otherDept := "dept-2"
	outsider := &domain.StaffMember{ID: "staff-9", Role: domain.StaffRoleAgent, DepartmentID: &otherDept}
	if _, _, err := fix.svc.GetTicketForStaff(context.Background(), outsider, ticket.ID); err == nil {
		t.Fatal("staff outside the ticket's department must be denied")
	}

	admin := &domain.StaffMember{ID: "staff-adm", Role: domain.StaffRoleAdmin}
	if _, _, err := fix.svc.GetTicketForStaff(context.Background(), admin, ticket.ID); err != nil {
		t.Fatalf("admins see every ticket: %v", err)
	}
}

func TestResponseBreached(t *testing.T) {
	now := time.Now()
	due := now.Add(-time.Minute)
	ticket := &domain.Ticket{FirstResponseDueAt: &due}
	if !ticket.ResponseBreached(now) {
		t.Error("past due with no response must be breached")
	}

	answered := due.Add(-time.Hour)
	ticket.FirstResponseAt = &answered
	if ticket.ResponseBreached(now) {
		t.Error("answered before the deadline is not breached")
	}
}
