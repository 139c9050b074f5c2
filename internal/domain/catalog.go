package domain

// OptionsCatalog carries the enumerated string choices the contract form
// offers at mount time. Choices are validated only as membership in these
// lists; their meaning lives with the billing backoffice.
type OptionsCatalog struct {
	PaymentMethods  []string
	BillingCycles   []string
	ClosingCycles   []string
	ExpirationTerms []string
	Statuses        []ContractStatus
}

// ExpirationIndeterminate is the sentinel term that suppresses renewal-date
// derivation entirely.
const ExpirationIndeterminate = "Indeterminado"

// DefaultOptionsCatalog returns the built-in option lists.
func DefaultOptionsCatalog() OptionsCatalog {
	return OptionsCatalog{
		PaymentMethods:  []string{"Boleto", "Pix", "Cartão de Crédito", "Transferência"},
		BillingCycles:   []string{"Mensal", "Bimestral", "Trimestral", "Semestral", "Anual"},
		ClosingCycles:   []string{"Dia 15", "Dia 20", "Dia 25", "Último dia útil"},
		ExpirationTerms: []string{"12 meses", "24 meses", "36 meses", "48 meses", ExpirationIndeterminate},
		Statuses: []ContractStatus{
			ContractStatusActive,
			ContractStatusSuspended,
			ContractStatusCancelled,
			ContractStatusExpired,
		},
	}
}

// Contains reports membership of value in list; empty values are accepted as
// "not chosen" and validated by the per-field requirement rules instead.
func Contains(list []string, value string) bool {
	if value == "" {
		return true
	}
	for _, candidate := range list {
		if candidate == value {
			return true
		}
	}
	return false
}
