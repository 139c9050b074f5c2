package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	DepartmentID string                `json:"department_id"`
	TeamID       *string               `json:"team_id"`
	ClientID     *string               `json:"client_id"`
	ContractID   *string               `json:"contract_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Priority     domain.TicketPriority `json:"priority"`
	Tags         []string              `json:"tags"`
}

// TicketListQuery captures query filters for user endpoints.
type TicketListQuery struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	ExternalKey  string                `json:"external_key"`
	DepartmentID string                `json:"department_id"`
	TeamID       *string               `json:"team_id"`
	Title        string                `json:"title"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	Tags         []string              `json:"tags"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID                 string                  `json:"id"`
	ExternalKey        string                  `json:"external_key"`
	DepartmentID       string                  `json:"department_id"`
	TeamID             *string                 `json:"team_id"`
	Title              string                  `json:"title"`
	Description        string                  `json:"description"`
	Status             domain.TicketStatus     `json:"status"`
	Priority           domain.TicketPriority   `json:"priority"`
	Tags               []string                `json:"tags"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
	ClosedAt           *time.Time              `json:"closed_at"`
	ClientID           *string                 `json:"client_id,omitempty"`
	ContractID         *string                 `json:"contract_id,omitempty"`
	FirstResponseDueAt *time.Time              `json:"first_response_due_at,omitempty"`
	ResolutionDueAt    *time.Time              `json:"resolution_due_at,omitempty"`
	FirstResponseAt    *time.Time              `json:"first_response_at,omitempty"`
	Messages           []TicketMessageResponse `json:"messages"`
	History            []TicketHistoryResponse `json:"history"`
}

// TicketHistoryResponse represents an audit trail entry.
type TicketHistoryResponse struct {
	ID            string                   `json:"id"`
	ChangeType    domain.TicketChangeType  `json:"change_type"`
	ChangedByType domain.MessageAuthorType `json:"changed_by_type"`
	ChangedByID   *string                  `json:"changed_by_id"`
	OldValue      map[string]any           `json:"old_value"`
	NewValue      map[string]any           `json:"new_value"`
	CreatedAt     time.Time                `json:"created_at"`
}

// TicketMessageResponse represents thread message.
type TicketMessageResponse struct {
	ID          string                   `json:"id"`
	MessageType domain.TicketMessageType `json:"message_type"`
	AuthorType  domain.MessageAuthorType `json:"author_type"`
	AuthorID    *string                  `json:"author_id"`
	Body        string                   `json:"body"`
	Attachments []AttachmentResponse     `json:"attachments"`
	CreatedAt   time.Time                `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	URL       string `json:"url,omitempty"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body        string                    `json:"body"`
	MessageType *domain.TicketMessageType `json:"message_type,omitempty"`
	Attachments []AttachmentRequest       `json:"attachments"`
}

// AttachmentRequest describes attachment input.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// UpdateTicketStatusRequest payload.
type UpdateTicketStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment"`
}

// UpdateTicketPriorityRequest payload.
type UpdateTicketPriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// AssignTicketRequest directs a ticket to a staff member or a team. Exactly
// one of the fields must be set.
type AssignTicketRequest struct {
	StaffID string `json:"staff_id,omitempty"`
	TeamID  string `json:"team_id,omitempty"`
}
