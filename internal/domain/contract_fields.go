package domain

// ContractFields is the flat record the contract form submits: general and
// financial fields plus one field block per modality, all present at once.
// Money and date fields travel as strings exactly as typed; parsing and
// validation happen at submission. Only the block matching the resolved
// modality is meaningful.
type ContractFields struct {
	Name           string
	ClientID       string
	ContractTypeID string
	TechnicalNotes string
	StartDate      string // YYYY-MM-DD
	EndDate        string // YYYY-MM-DD
	ExpirationTerm string
	Status         ContractStatus
	AutoRenew      bool

	MonthlyValue    string
	DiscountPercent string
	PaymentMethod   string
	BillingCycle    string
	ClosingCycle    string

	IncludedHours  *float64
	ExtraHourValue string

	ScopeIncluded string
	ScopeExcluded string
	FairUsePolicy string
	VisitLimit    *int

	IncludedTickets  *int
	ExtraTicketValue string

	RolloverActive     bool
	RolloverDaysWindow *int
	RolloverHoursLimit *int

	AppointmentsWhenPending bool

	DisplacementBillable bool
	DisplacementRate     string
}

// ClearInactiveModality zeroes the raw field blocks that do not belong to
// the given modality, mirroring Contract.ClearInactiveModalityFields for the
// unparsed form record.
func (f *ContractFields) ClearInactiveModality(m Modality) {
	usesHours := m == ModalityHoras || m == ModalityHorasCumulativas

	if !usesHours {
		f.IncludedHours = nil
		f.ExtraHourValue = ""
	}
	if m != ModalityLivre {
		f.ScopeIncluded = ""
		f.ScopeExcluded = ""
		f.FairUsePolicy = ""
		f.VisitLimit = nil
	}
	if m != ModalityPorAtendimento {
		f.IncludedTickets = nil
		f.ExtraTicketValue = ""
	}
	if m != ModalityHorasCumulativas {
		f.RolloverActive = false
	}
	if !f.RolloverActive {
		f.RolloverDaysWindow = nil
		f.RolloverHoursLimit = nil
	}
	if m != ModalitySaaSProduto {
		f.AppointmentsWhenPending = false
	}
}
