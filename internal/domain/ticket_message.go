package domain

import "time"

// MessageAuthorType tells who wrote a thread entry.
type MessageAuthorType string

const (
	AuthorTypeUser   MessageAuthorType = "USER"
	AuthorTypeStaff  MessageAuthorType = "STAFF"
	AuthorTypeSystem MessageAuthorType = "SYSTEM"
)

// TicketMessageType separates what the requester sees from staff-only notes.
// Internal notes never leave the staff surface; the first staff PUBLIC_REPLY
// is what stops the response-SLA clock.
type TicketMessageType string

const (
	MessageTypePublicReply  TicketMessageType = "PUBLIC_REPLY"
	MessageTypeInternalNote TicketMessageType = "INTERNAL_NOTE"
	MessageTypeSystemEvent  TicketMessageType = "SYSTEM_EVENT"
)

// TicketMessage is one entry in a ticket's conversation thread.
type TicketMessage struct {
	ID          string
	TicketID    string
	AuthorType  MessageAuthorType
	AuthorID    *string
	MessageType TicketMessageType
	Body        string
	Attachments []AttachmentReference
	CreatedAt   time.Time
}

// AttachmentReference points at a stored file; the bytes live in object
// storage under StorageKey, only metadata is kept here.
type AttachmentReference struct {
	ID              string
	TicketMessageID string
	StorageKey      string
	FileName        string
	MimeType        string
	SizeBytes       int64
	CreatedAt       time.Time
}
