package dto

import "github.com/spec-kit/helpdesk-service/internal/domain"

// StaffLoginRequest authenticates an operator.
type StaffLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest starts a reset flow for the given email.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest redeems a reset token.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest changes the password of an authenticated caller.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// DepartmentRequest creates or updates a department. IsActive is a pointer
// so an omitted field leaves the current flag alone on update.
type DepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// DepartmentResponse is the wire shape of a department.
type DepartmentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// TeamRequest creates or updates a team.
type TeamRequest struct {
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	IsActive     *bool  `json:"is_active"`
}

// TeamResponse is the wire shape of a team.
type TeamResponse struct {
	ID           string `json:"id"`
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	IsActive     bool   `json:"is_active"`
}

// StaffCreateRequest provisions an operator account.
type StaffCreateRequest struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Role     domain.StaffRole `json:"role"`
	TeamID   *string          `json:"team_id"`
}

// StaffUpdateRequest edits an operator account.
type StaffUpdateRequest struct {
	Name   string           `json:"name"`
	Email  string           `json:"email"`
	Role   domain.StaffRole `json:"role"`
	TeamID *string          `json:"team_id"`
	Active bool             `json:"active"`
}

// StaffResponse is the wire shape of an operator. The password hash never
// leaves the service layer.
type StaffResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Role         domain.StaffRole `json:"role"`
	DepartmentID *string          `json:"department_id"`
	TeamID       *string          `json:"team_id"`
	Active       bool             `json:"active"`
}
