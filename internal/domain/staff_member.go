package domain

import "time"

// StaffRole orders operator privileges: agents work tickets, team leads also
// assign across their team, admins additionally manage the org structure and
// contracts catalog.
type StaffRole string

const (
	StaffRoleAgent    StaffRole = "AGENT"
	StaffRoleTeamLead StaffRole = "TEAM_LEAD"
	StaffRoleAdmin    StaffRole = "ADMIN"
)

// StaffMember is an internal operator. Department and team scope what they
// can see; admins are unscoped. Inactive members keep their records but
// cannot log in or receive assignments.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	DepartmentID *string
	TeamID       *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the member holds the admin role.
func (s *StaffMember) IsAdmin() bool {
	return s != nil && s.Role == StaffRoleAdmin
}
