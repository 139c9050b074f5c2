package domain

import "time"

// TicketChangeType labels a history entry. End users only ever see the
// status, assignee and team kinds; the rest stays staff-side.
type TicketChangeType string

const (
	ChangeTypeStatus     TicketChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee   TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypePriority   TicketChangeType = "PRIORITY_CHANGE"
	ChangeTypeTeam       TicketChangeType = "TEAM_CHANGE"
	ChangeTypeDepartment TicketChangeType = "DEPARTMENT_CHANGE"
	ChangeTypeTags       TicketChangeType = "TAGS_CHANGE"
)

// TicketHistory is an append-only audit entry. Old and new values are free
// maps so each change kind can carry its own shape.
type TicketHistory struct {
	ID            string
	TicketID      string
	ChangedByType MessageAuthorType
	ChangedByID   *string
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
