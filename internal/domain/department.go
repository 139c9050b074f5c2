package domain

import "time"

// Department is a top-level support area; tickets always land in exactly one.
// Inactive departments stop accepting tickets but keep their history.
type Department struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
