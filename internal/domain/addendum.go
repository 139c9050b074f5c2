package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddendumKind distinguishes renewals from mid-term amendments.
type AddendumKind string

const (
	AddendumKindRenewal   AddendumKind = "RENEWAL"
	AddendumKindAmendment AddendumKind = "AMENDMENT"
)

// Addendum records a contract amendment. A RENEWAL advances the contract's
// start date to the effective date and re-derives the renewal date; an
// AMENDMENT only applies the value adjustments it carries.
type Addendum struct {
	ID            string
	ContractID    string
	Kind          AddendumKind
	EffectiveDate time.Time
	NewTerm       string
	NewMonthly    *decimal.Decimal
	NewDiscount   *decimal.Decimal
	Notes         string
	CreatedByID   *string
	CreatedAt     time.Time
}
