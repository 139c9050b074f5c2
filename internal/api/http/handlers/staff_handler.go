package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StaffHandler covers staff authentication, the password lifecycle, and the
// admin-only organisation endpoints (departments, teams, staff accounts).
type StaffHandler struct {
	authService *service.AuthService
	orgService  *service.StaffService
}

func NewStaffHandler(authService *service.AuthService, orgService *service.StaffService) *StaffHandler {
	return &StaffHandler{authService: authService, orgService: orgService}
}

// Login handles POST /auth/staff/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password required")
	}

	staff, token, exp, err := h.authService.LoginStaff(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff": staffResponse(staff),
			"auth":  dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// RequestPasswordReset handles POST /auth/password/reset/request.
// The token comes back in the response body; there is no mail delivery here.
func (h *StaffHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email required")
	}

	token, err := h.authService.RequestPasswordReset(c.Context(), req.Email)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"data": fiber.Map{
			"reset_token": token.Token,
			"expires_at":  token.ExpiresAt,
		},
	})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *StaffHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.Token == "" || req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token and new password required")
	}

	if err := h.authService.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_reset"}})
}

// ChangePassword handles POST /auth/password/change for either subject type.
func (h *StaffHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req dto.PasswordChangeRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "current and new password required")
	}

	subject := service.AuthSubject{Type: principal.SubjectType}
	switch {
	case principal.SubjectType == domain.SubjectTypeUser && principal.User != nil:
		subject.ID = principal.User.ID
	case principal.SubjectType == domain.SubjectTypeStaff && principal.Staff != nil:
		subject.ID = principal.Staff.ID
	default:
		return fiber.NewError(fiber.StatusUnauthorized, "unknown subject")
	}

	if err := h.authService.ChangePassword(c.Context(), subject, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

// CreateDepartment handles POST /staff/departments.
func (h *StaffHandler) CreateDepartment(c *fiber.Ctx) error {
	admin, err := h.requireAdminPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name required")
	}
	dept, err := h.orgService.CreateDepartment(c.Context(), admin, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": departmentResponse(dept)})
}

// ListDepartments handles GET /staff/departments.
func (h *StaffHandler) ListDepartments(c *fiber.Ctx) error {
	admin, err := h.requireAdminPrincipal(c)
	if err != nil {
		return err
	}
	depts, err := h.orgService.ListDepartments(c.Context(), admin, queryBool(c, "include_inactive"))
	if err != nil {
		return err
	}
	resp := make([]dto.DepartmentResponse, len(depts))
	for i := range depts {
		resp[i] = departmentResponse(&depts[i])
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetDepartment handles GET /staff/departments/:id.
func (h *StaffHandler) GetDepartment(c *fiber.Ctx) error {
	admin, err := h.requireAdminPrincipal(c)
	if err != nil {
		return err
	}
	dept, err := h.orgService.GetDepartmentByID(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(dept)})
}

// UpdateDepartment handles PUT /staff/departments/:id. Description is
// replaced wholesale so callers can blank it; name only changes when set.
func (h *StaffHandler) UpdateDepartment(c *fiber.Ctx) error {
	admin, err := h.requireAdminPrincipal(c)
	if err != nil {
		return err
	}
	dept, err := h.orgService.GetDepartmentByID(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.Name != "" {
		dept.Name = req.Name
	}
	dept.Description = req.Description
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}
	updated, err := h.orgService.UpdateDepartment(c.Context(), admin, dept)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(updated)})
}

// CreateTeam handles POST /staff/teams.
func (h *StaffHandler) CreateTeam(c *fiber.Ctx) error {
	admin, err := h.requireAdminPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TeamRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.DepartmentID == "" || req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "department_id and name required")
	}
	team, err := h.orgService.CreateTeam(c.Context(), admin, req.DepartmentID, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": teamResponse(team)})
}

// ListTeams handles GET /staff/teams.
func (h *StaffHandler) ListTeams(c *fiber.Ctx) error {
	admin, err := h.requireAdminPrincipal(c)
	if err != nil {
		return err
	}
	filters := service.TeamListFilters{IncludeInactive: queryBool(c, "include_inactive")}
	if val := c.Query("department_id"); val != "" {
		filters.DepartmentID = &val
	}
	teams, err := h.orgService.ListTeams(c.Context(), admin, filters)
	if err != nil {
		return err
	}
	resp := make([]dto.TeamResponse, len(teams))
	for i := range teams {
		resp[i] = teamResponse(&teams[i])
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetTeam handles GET /staff/teams/:id.
func (h *StaffHandler) GetTeam(c *fiber.Ctx) error {
	admin, err := h.requireAdminPrincipal(c)
	if err != nil {
		return err
	}
	team, err := h.orgService.GetTeamByID(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(team)})
}

// UpdateTeam handles PUT /staff/teams/:id.
func (h *StaffHandler) UpdateTeam(c *fiber.Ctx) error {
	admin, err := h.requireAdminPrincipal(c)
	if err != nil {
		return err
	}
	team, err := h.orgService.GetTeamByID(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.TeamRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.Name != "" {
		team.Name = req.Name
	}
	if req.Description != "" {
		team.Description = req.Description
	}
	if req.DepartmentID != "" {
		team.DepartmentID = req.DepartmentID
	}
	if req.IsActive != nil {
		team.IsActive = *req.IsActive
	}
	updated, err := h.orgService.UpdateTeam(c.Context(), admin, team)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(updated)})
}

// CreateStaff handles POST /staff/members.
func (h *StaffHandler) CreateStaff(c *fiber.Ctx) error {
	admin, err := h.requireAdminPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StaffCreateRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name, email, password required")
	}
	staff, err := h.orgService.CreateStaffMember(c.Context(), admin, req.Name, req.Email, req.Password, req.Role, req.TeamID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": staffResponse(staff)})
}

// ListStaff handles GET /staff/members.
func (h *StaffHandler) ListStaff(c *fiber.Ctx) error {
	admin, err := h.requireAdminPrincipal(c)
	if err != nil {
		return err
	}
	list, err := h.orgService.ListStaffMembers(c.Context(), admin, staffListFilters(c))
	if err != nil {
		return err
	}
	resp := make([]dto.StaffResponse, len(list))
	for i := range list {
		resp[i] = staffResponse(&list[i])
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetStaff handles GET /staff/members/:id.
func (h *StaffHandler) GetStaff(c *fiber.Ctx) error {
	admin, err := h.requireAdminPrincipal(c)
	if err != nil {
		return err
	}
	staff, err := h.orgService.GetStaffMemberByID(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(staff)})
}

// UpdateStaff handles PUT /staff/members/:id.
func (h *StaffHandler) UpdateStaff(c *fiber.Ctx) error {
	admin, err := h.requireAdminPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StaffUpdateRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	updated, err := h.orgService.UpdateStaffMember(c.Context(), admin, c.Params("id"), req.Name, req.Email, req.Role, req.TeamID, req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(updated)})
}

// requireAdminPrincipal guards the organisation endpoints. The route group
// already runs RequireStaffRole, so this mostly exists to hand the admin's
// own record to the service layer.
func (h *StaffHandler) requireAdminPrincipal(c *fiber.Ctx) (*domain.StaffMember, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "staff required")
	}
	if !principal.Staff.IsAdmin() {
		return nil, fiber.NewError(fiber.StatusForbidden, "admin role required")
	}
	return principal.Staff, nil
}

func decodeBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	return nil
}

func queryBool(c *fiber.Ctx, key string) bool {
	val, err := strconv.ParseBool(c.Query(key))
	return err == nil && val
}

func staffListFilters(c *fiber.Ctx) service.StaffListFilters {
	var filters service.StaffListFilters
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.StaffRole(roleStr)
		filters.Role = &role
	}
	if teamID := c.Query("team_id"); teamID != "" {
		filters.TeamID = &teamID
	}
	if deptID := c.Query("department_id"); deptID != "" {
		filters.DepartmentID = &deptID
	}
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filters.Active = &val
		}
	}
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 50)
	filters.Offset = (page - 1) * pageSize
	filters.Limit = pageSize
	return filters
}

func queryInt(c *fiber.Ctx, key string, defaultVal int) int {
	if parsed, err := strconv.Atoi(c.Query(key)); err == nil && parsed > 0 {
		return parsed
	}
	return defaultVal
}

func departmentResponse(dept *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:          dept.ID,
		Name:        dept.Name,
		Description: dept.Description,
		IsActive:    dept.IsActive,
	}
}

func teamResponse(team *domain.Team) dto.TeamResponse {
	return dto.TeamResponse{
		ID:           team.ID,
		DepartmentID: team.DepartmentID,
		Name:         team.Name,
		Description:  team.Description,
		IsActive:     team.IsActive,
	}
}

func staffResponse(staff *domain.StaffMember) dto.StaffResponse {
	return dto.StaffResponse{
		ID:           staff.ID,
		Name:         staff.Name,
		Email:        staff.Email,
		Role:         staff.Role,
		DepartmentID: staff.DepartmentID,
		TeamID:       staff.TeamID,
		Active:       staff.Active,
	}
}
