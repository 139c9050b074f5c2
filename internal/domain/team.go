package domain

import "time"

// Team is a working group inside one department. Ticket routing never crosses
// the department boundary, so a team's DepartmentID is immutable in practice.
type Team struct {
	ID           string
	DepartmentID string
	Name         string
	Description  string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
