package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ContractFieldsRequest is the flat contract form record. The json keys
// double as the validation error keys returned to the client, so they must
// stay in sync with the field names the services report.
type ContractFieldsRequest struct {
	Name           string `json:"name"`
	ClientID       string `json:"client_id"`
	ContractTypeID string `json:"contract_type_id"`
	TechnicalNotes string `json:"technical_notes"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	ExpirationTerm string `json:"expiration_term"`
	Status         string `json:"status"`
	AutoRenew      bool   `json:"auto_renew"`

	MonthlyValue    string `json:"monthly_value"`
	DiscountPercent string `json:"discount_percent"`
	PaymentMethod   string `json:"payment_method"`
	BillingCycle    string `json:"billing_cycle"`
	ClosingCycle    string `json:"closing_cycle"`

	IncludedHours  *float64 `json:"included_hours"`
	ExtraHourValue string   `json:"extra_hour_value"`

	ScopeIncluded string `json:"scope_included"`
	ScopeExcluded string `json:"scope_excluded"`
	FairUsePolicy string `json:"fair_use_policy"`
	VisitLimit    *int   `json:"visit_limit"`

	IncludedTickets  *int   `json:"included_tickets"`
	ExtraTicketValue string `json:"extra_ticket_value"`

	RolloverActive     bool `json:"rollover_active"`
	RolloverDaysWindow *int `json:"rollover_days_window"`
	RolloverHoursLimit *int `json:"rollover_hours_limit"`

	AppointmentsWhenPending bool `json:"appointments_when_pending"`

	DisplacementBillable bool   `json:"displacement_billable"`
	DisplacementRate     string `json:"displacement_rate"`
}

// CreateContractRequest submits a full contract in one call.
type CreateContractRequest struct {
	ContractFieldsRequest
	Items []LineItemRequest `json:"items"`
}

// LineItemRequest describes one product/service row.
type LineItemRequest struct {
	Name      string `json:"name"`
	UnitValue string `json:"unit_value"`
	Quantity  int    `json:"quantity"`
}

// StartDraftRequest opens a form session, optionally seeded from an
// existing contract.
type StartDraftRequest struct {
	ContractID string `json:"contract_id"`
}

// RemoveDraftItemRequest removes the item at a zero-based position.
type RemoveDraftItemRequest struct {
	Index int `json:"index"`
}

// ContractDraftResponse mirrors one form session: the raw fields, the
// resolved modality with its active field names, the derived renewal date
// and the running item ledger.
type ContractDraftResponse struct {
	SessionID    string                `json:"session_id"`
	ContractID   string                `json:"contract_id,omitempty"`
	Fields       ContractFieldsRequest `json:"fields"`
	Modality     string                `json:"modality"`
	ActiveFields []string              `json:"active_fields"`
	RenewalDate  string                `json:"renewal_date"`
	Items        []LineItemResponse    `json:"items"`
	ItemsTotal   string                `json:"items_total"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// ContractSummary response for listings.
type ContractSummary struct {
	ID           string                `json:"id"`
	Number       string                `json:"number"`
	Name         string                `json:"name"`
	ClientID     string                `json:"client_id"`
	Modality     string                `json:"modality"`
	Status       domain.ContractStatus `json:"status"`
	MonthlyValue string                `json:"monthly_value"`
	StartDate    string                `json:"start_date,omitempty"`
	RenewalDate  string                `json:"renewal_date,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

// ContractDetailResponse provides the full contract record.
type ContractDetailResponse struct {
	ID             string                `json:"id"`
	Number         string                `json:"number"`
	Name           string                `json:"name"`
	ClientID       string                `json:"client_id"`
	ContractTypeID string                `json:"contract_type_id"`
	Modality       string                `json:"modality"`
	TechnicalNotes string                `json:"technical_notes"`
	StartDate      string                `json:"start_date,omitempty"`
	EndDate        string                `json:"end_date,omitempty"`
	ExpirationTerm string                `json:"expiration_term,omitempty"`
	RenewalDate    string                `json:"renewal_date,omitempty"`
	Status         domain.ContractStatus `json:"status"`
	AutoRenew      bool                  `json:"auto_renew"`

	MonthlyValue    string `json:"monthly_value"`
	DiscountPercent string `json:"discount_percent"`
	PaymentMethod   string `json:"payment_method,omitempty"`
	BillingCycle    string `json:"billing_cycle,omitempty"`
	ClosingCycle    string `json:"closing_cycle,omitempty"`

	IncludedHours  float64 `json:"included_hours,omitempty"`
	ExtraHourValue string  `json:"extra_hour_value,omitempty"`

	ScopeIncluded string `json:"scope_included,omitempty"`
	ScopeExcluded string `json:"scope_excluded,omitempty"`
	FairUsePolicy string `json:"fair_use_policy,omitempty"`
	VisitLimit    *int   `json:"visit_limit,omitempty"`

	IncludedTickets  *int   `json:"included_tickets,omitempty"`
	ExtraTicketValue string `json:"extra_ticket_value,omitempty"`
	// PerTicketTotal echoes the extra ticket value: the excess charge is
	// applied per ticket, so the displayed total per extra ticket is the
	// unit value itself.
	PerTicketTotal string `json:"per_ticket_total,omitempty"`

	RolloverActive     bool `json:"rollover_active,omitempty"`
	RolloverDaysWindow *int `json:"rollover_days_window,omitempty"`
	RolloverHoursLimit *int `json:"rollover_hours_limit,omitempty"`

	AppointmentsWhenPending bool `json:"appointments_when_pending,omitempty"`

	DisplacementBillable bool   `json:"displacement_billable,omitempty"`
	DisplacementRate     string `json:"displacement_rate,omitempty"`

	Items      []LineItemResponse `json:"items"`
	ItemsTotal string             `json:"items_total"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineItemResponse carries one ledger row with its frozen total.
type LineItemResponse struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	UnitValue  string `json:"unit_value"`
	Quantity   int    `json:"quantity"`
	TotalValue string `json:"total_value"`
}

// CreateAddendumRequest payload.
type CreateAddendumRequest struct {
	Kind          string `json:"kind"`
	EffectiveDate string `json:"effective_date"`
	NewTerm       string `json:"new_term"`
	NewMonthly    string `json:"new_monthly"`
	NewDiscount   string `json:"new_discount"`
	Notes         string `json:"notes"`
}

// AddendumResponse payload.
type AddendumResponse struct {
	ID            string    `json:"id"`
	ContractID    string    `json:"contract_id"`
	Kind          string    `json:"kind"`
	EffectiveDate string    `json:"effective_date"`
	NewTerm       string    `json:"new_term,omitempty"`
	NewMonthly    string    `json:"new_monthly,omitempty"`
	NewDiscount   string    `json:"new_discount,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ContractTypeResponse payload for the form's type selector.
type ContractTypeResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Modality string `json:"modality"`
}

// ClientResponse payload for the form's client selector.
type ClientResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document,omitempty"`
	Email    string `json:"email,omitempty"`
}

// OptionsCatalogResponse lists the fixed select options for the form.
type OptionsCatalogResponse struct {
	PaymentMethods  []string                `json:"payment_methods"`
	BillingCycles   []string                `json:"billing_cycles"`
	ClosingCycles   []string                `json:"closing_cycles"`
	ExpirationTerms []string                `json:"expiration_terms"`
	Statuses        []domain.ContractStatus `json:"statuses"`
	Modalities      []string                `json:"modalities"`
}
