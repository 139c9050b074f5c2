package domain

// Modality is the closed set of billing models a contract type can carry.
// The wire values are the Portuguese labels used by the reference data.
type Modality string

const (
	ModalityHoras            Modality = "Horas"
	ModalityLivre            Modality = "Livre"
	ModalityPorAtendimento   Modality = "Por Atendimento"
	ModalityHorasCumulativas Modality = "Horas Cumulativas"
	ModalitySaaSProduto      Modality = "SaaS/Produto"
)

// KnownModalities lists every supported modality in display order.
var KnownModalities = []Modality{
	ModalityHoras,
	ModalityLivre,
	ModalityPorAtendimento,
	ModalityHorasCumulativas,
	ModalitySaaSProduto,
}

// Valid reports whether m is one of the known modalities.
func (m Modality) Valid() bool {
	for _, known := range KnownModalities {
		if m == known {
			return true
		}
	}
	return false
}

// ResolveModality looks up the modality of the selected contract type.
// It returns the empty modality when no type is selected or no type matches;
// that state is legal and simply means no modality fields are active.
func ResolveModality(types []ContractType, selectedID string) Modality {
	if selectedID == "" {
		return ""
	}
	for _, t := range types {
		if t.ID == selectedID {
			return t.Modality
		}
	}
	return ""
}

// ModalityFields returns the names of the contract fields that are active
// under the given modality. The sets are disjoint; an empty modality
// activates no fields.
func ModalityFields(m Modality) []string {
	switch m {
	case ModalityHoras:
		return []string{"included_hours", "extra_hour_value"}
	case ModalityLivre:
		return []string{"scope_included", "scope_excluded", "fair_use_policy", "visit_limit"}
	case ModalityPorAtendimento:
		return []string{"included_tickets", "extra_ticket_value"}
	case ModalityHorasCumulativas:
		return []string{"included_hours", "extra_hour_value", "rollover_active", "rollover_days_window", "rollover_hours_limit"}
	case ModalitySaaSProduto:
		return []string{"appointments_when_pending", "items"}
	default:
		return nil
	}
}
