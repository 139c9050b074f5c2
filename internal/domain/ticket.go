package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "OPEN"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusPendingUser TicketStatus = "PENDING_USER"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
	TicketStatusCancelled   TicketStatus = "CANCELLED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the aggregate for support requests. SLA due timestamps are
// stamped at creation from the per-priority targets; FirstResponseAt is set
// once, on the first staff public reply.
type Ticket struct {
	ID           string
	ExternalKey  string
	RequesterID  string
	ClientID     *string
	ContractID   *string
	DepartmentID string
	TeamID       *string
	AssigneeID   *string
	Title        string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority

	FirstResponseDueAt *time.Time
	ResolutionDueAt    *time.Time
	FirstResponseAt    *time.Time

	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}

// ResponseBreached reports whether the first-response SLA was missed as of now.
func (t *Ticket) ResponseBreached(now time.Time) bool {
	if t.FirstResponseDueAt == nil {
		return false
	}
	if t.FirstResponseAt != nil {
		return t.FirstResponseAt.After(*t.FirstResponseDueAt)
	}
	return now.After(*t.FirstResponseDueAt)
}

// ResolutionBreached reports whether the resolution SLA was missed as of now.
func (t *Ticket) ResolutionBreached(now time.Time) bool {
	if t.ResolutionDueAt == nil {
		return false
	}
	if t.ClosedAt != nil {
		return t.ClosedAt.After(*t.ResolutionDueAt)
	}
	if t.Status == TicketStatusResolved || t.Status == TicketStatusClosed || t.Status == TicketStatusCancelled {
		return false
	}
	return now.After(*t.ResolutionDueAt)
}
