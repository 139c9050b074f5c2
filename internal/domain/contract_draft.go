package domain

import "time"

// ContractDraft is the single mutable working copy of a contract form
// session. Exactly one draft exists per session with no concurrent writers;
// nothing is durable until the draft is submitted. Modality and RenewalDate
// are derived on every field update and are never set directly.
type ContractDraft struct {
	SessionID    string
	ContractID   string // empty while drafting a new contract
	OwnerStaffID string

	Fields      ContractFields
	Modality    Modality
	RenewalDate string
	Items       []LineItem

	CreatedAt time.Time
	UpdatedAt time.Time
}
