package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

// StaffService owns the organisation model: departments, the teams under
// them, and staff accounts. Every operation is admin-only; the actor check
// happens here rather than in the transport layer so direct callers get the
// same enforcement.
type StaffService struct {
	departments repository.DepartmentRepository
	teams       repository.TeamRepository
	staff       repository.StaffRepository
	bcryptCost  int
}

// StaffListFilters narrows ListStaffMembers.
type StaffListFilters struct {
	Role         *domain.StaffRole
	TeamID       *string
	DepartmentID *string
	Active       *bool
	Limit        int
	Offset       int
}

// TeamListFilters narrows ListTeams.
type TeamListFilters struct {
	DepartmentID    *string
	IncludeInactive bool
}

// OrgDependencies groups the repositories StaffService needs.
type OrgDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	TeamRepo       repository.TeamRepository
	StaffRepo      repository.StaffRepository
}

func NewStaffService(cfg config.Config, deps OrgDependencies) *StaffService {
	return &StaffService{
		departments: deps.DepartmentRepo,
		teams:       deps.TeamRepo,
		staff:       deps.StaffRepo,
		bcryptCost:  cfg.Auth.BcryptCost,
	}
}

func requireAdmin(actor *domain.StaffMember) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateDepartment registers a new active department.
func (s *StaffService) CreateDepartment(ctx context.Context, actor *domain.StaffMember, name, description string) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dept := &domain.Department{
		Name:        name,
		Description: description,
		IsActive:    true,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// ListDepartments returns departments, inactive ones only when asked.
func (s *StaffService) ListDepartments(ctx context.Context, actor *domain.StaffMember, includeInactive bool) ([]domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.departments.List(ctx, includeInactive)
}

func (s *StaffService) GetDepartmentByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.departments.GetByID(ctx, id)
}

func (s *StaffService) UpdateDepartment(ctx context.Context, actor *domain.StaffMember, dept *domain.Department) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// CreateTeam creates a team under an active department.
func (s *StaffService) CreateTeam(ctx context.Context, actor *domain.StaffMember, departmentID, name, description string) (*domain.Team, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.requireActiveDepartment(ctx, departmentID); err != nil {
		return nil, err
	}
	team := &domain.Team{
		DepartmentID: departmentID,
		Name:         name,
		Description:  description,
		IsActive:     true,
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

func (s *StaffService) ListTeams(ctx context.Context, actor *domain.StaffMember, filters TeamListFilters) ([]domain.Team, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.teams.List(ctx, filters.DepartmentID, filters.IncludeInactive)
}

func (s *StaffService) GetTeamByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Team, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.teams.GetByID(ctx, id)
}

// UpdateTeam saves team changes; moving a team re-checks the target
// department is active.
func (s *StaffService) UpdateTeam(ctx context.Context, actor *domain.StaffMember, team *domain.Team) (*domain.Team, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if team.DepartmentID != "" {
		if err := s.requireActiveDepartment(ctx, team.DepartmentID); err != nil {
			return nil, err
		}
	}
	if err := s.teams.Update(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// CreateStaffMember provisions a staff account. The department is never set
// directly: it follows from the assigned team.
func (s *StaffService) CreateStaffMember(ctx context.Context, actor *domain.StaffMember, name, email, password string, role domain.StaffRole, teamID *string) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.requireStaffEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}
	departmentID, err := s.departmentForTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	staff := &domain.StaffMember{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		DepartmentID: departmentID,
		TeamID:       teamID,
		Active:       true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

func (s *StaffService) ListStaffMembers(ctx context.Context, actor *domain.StaffMember, filters StaffListFilters) ([]domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.staff.List(ctx, repository.StaffFilter{
		Role:         filters.Role,
		TeamID:       filters.TeamID,
		DepartmentID: filters.DepartmentID,
		Active:       filters.Active,
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	})
}

func (s *StaffService) GetStaffMemberByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.staff.GetByID(ctx, id)
}

// UpdateStaffMember rewrites a staff record. Team changes cascade into the
// derived department; clearing the team clears the department too.
func (s *StaffService) UpdateStaffMember(ctx context.Context, actor *domain.StaffMember, staffID, name, email string, role domain.StaffRole, teamID *string, active bool) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if email != "" && email != staff.Email {
		if err := s.requireStaffEmailFree(ctx, email, staff.ID); err != nil {
			return nil, err
		}
	}
	departmentID, err := s.departmentForTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		staff.Name = name
	}
	if email != "" {
		staff.Email = email
	}
	staff.Role = role
	staff.TeamID = teamID
	staff.DepartmentID = departmentID
	staff.Active = active

	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

func (s *StaffService) requireActiveDepartment(ctx context.Context, departmentID string) error {
	dept, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !dept.IsActive {
		return apperrors.NewConflict("department inactive", map[string]any{"department_id": departmentID})
	}
	return nil
}

// departmentForTeam resolves the department a staff member belongs to from
// the team assignment. A nil or empty team yields no department.
func (s *StaffService) departmentForTeam(ctx context.Context, teamID *string) (*string, error) {
	if teamID == nil || *teamID == "" {
		return nil, nil
	}
	team, err := s.teams.GetByID(ctx, *teamID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !team.IsActive {
		return nil, apperrors.NewConflict("team inactive", map[string]any{"team_id": *teamID})
	}
	return &team.DepartmentID, nil
}

func (s *StaffService) requireStaffEmailFree(ctx context.Context, email, excludeID string) error {
	existing, err := s.staff.GetByEmail(ctx, email)
	switch {
	case err == nil && existing != nil && existing.ID != excludeID:
		return apperrors.NewConflict("staff email already exists", map[string]any{"email": email})
	case err != nil && !errors.Is(err, pgx.ErrNoRows):
		return apperrors.MapError(err)
	}
	return nil
}
