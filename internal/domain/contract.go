package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractStatus enumerates lifecycle states for service contracts.
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "ACTIVE"
	ContractStatusSuspended ContractStatus = "SUSPENDED"
	ContractStatusCancelled ContractStatus = "CANCELLED"
	ContractStatusExpired   ContractStatus = "EXPIRED"
)

// Contract is the aggregate for service contracts. It intentionally keeps
// one flat field block covering every modality; only the fields matching the
// current modality are meaningful, and ClearInactiveModalityFields zeroes the
// rest on every modality transition so stale values never reach storage.
type Contract struct {
	ID             string
	Number         string
	ClientID       string
	ContractTypeID string
	Modality       Modality

	Name           string
	TechnicalNotes string
	StartDate      *time.Time
	EndDate        *time.Time
	ExpirationTerm string
	RenewalDate    string // derived from StartDate + ExpirationTerm, YYYY-MM-DD or empty
	Status         ContractStatus
	AutoRenew      bool

	MonthlyValue    decimal.Decimal
	DiscountPercent decimal.Decimal
	PaymentMethod   string
	BillingCycle    string
	ClosingCycle    string

	// Horas / Horas Cumulativas
	IncludedHours  float64
	ExtraHourValue decimal.Decimal

	// Livre
	ScopeIncluded string
	ScopeExcluded string
	FairUsePolicy string
	VisitLimit    *int

	// Por Atendimento
	IncludedTickets  *int
	ExtraTicketValue decimal.Decimal

	// Horas Cumulativas rollover window
	RolloverActive     bool
	RolloverDaysWindow *int
	RolloverHoursLimit *int

	// SaaS/Produto
	AppointmentsWhenPending bool
	Items                   []LineItem

	// Displacement billing for on-site visits.
	DisplacementBillable bool
	DisplacementRate     decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClearInactiveModalityFields zeroes every modality-specific field that does
// not belong to the contract's current modality. Rollover window fields are
// also cleared when the rollover flag itself is off.
func (c *Contract) ClearInactiveModalityFields() {
	usesHours := c.Modality == ModalityHoras || c.Modality == ModalityHorasCumulativas

	if !usesHours {
		c.IncludedHours = 0
		c.ExtraHourValue = decimal.Decimal{}
	}
	if c.Modality != ModalityLivre {
		c.ScopeIncluded = ""
		c.ScopeExcluded = ""
		c.FairUsePolicy = ""
		c.VisitLimit = nil
	}
	if c.Modality != ModalityPorAtendimento {
		c.IncludedTickets = nil
		c.ExtraTicketValue = decimal.Decimal{}
	}
	if c.Modality != ModalityHorasCumulativas {
		c.RolloverActive = false
	}
	if !c.RolloverActive {
		c.RolloverDaysWindow = nil
		c.RolloverHoursLimit = nil
	}
	if c.Modality != ModalitySaaSProduto {
		c.AppointmentsWhenPending = false
		c.Items = nil
	}
}
