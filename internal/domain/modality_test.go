package domain

import (
	"reflect"
	"testing"
)

func testContractTypes() []ContractType {
	return []ContractType{
		{ID: "ct-hours", Name: "Suporte Horas", Modality: ModalityHoras},
		{ID: "ct-free", Name: "Suporte Livre", Modality: ModalityLivre},
		{ID: "ct-ticket", Name: "Por Atendimento", Modality: ModalityPorAtendimento},
		{ID: "ct-cumulative", Name: "Horas Cumulativas", Modality: ModalityHorasCumulativas},
		{ID: "ct-saas", Name: "SaaS", Modality: ModalitySaaSProduto},
	}
}

func TestResolveModality(t *testing.T) {
	types := testContractTypes()

	if got := ResolveModality(types, "ct-free"); got != ModalityLivre {
		t.Fatalf("expected %q, got %q", ModalityLivre, got)
	}
	if got := ResolveModality(types, ""); got != "" {
		t.Fatalf("no selection must resolve to empty modality, got %q", got)
	}
	if got := ResolveModality(types, "ct-missing"); got != "" {
		t.Fatalf("unknown type id must resolve to empty modality, got %q", got)
	}
	if got := ResolveModality(nil, "ct-free"); got != "" {
		t.Fatalf("empty type list must resolve to empty modality, got %q", got)
	}
}

func TestModalityFields(t *testing.T) {
	cases := []struct {
		modality Modality
		want     []string
	}{
		{ModalityHoras, []string{"included_hours", "extra_hour_value"}},
		{ModalityLivre, []string{"scope_included", "scope_excluded", "fair_use_policy", "visit_limit"}},
		{ModalityPorAtendimento, []string{"included_tickets", "extra_ticket_value"}},
		{ModalityHorasCumulativas, []string{"included_hours", "extra_hour_value", "rollover_active", "rollover_days_window", "rollover_hours_limit"}},
		{ModalitySaaSProduto, []string{"appointments_when_pending", "items"}},
		{Modality(""), nil},
		{Modality("Mensal"), nil},
	}
	for _, tc := range cases {
		if got := ModalityFields(tc.modality); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ModalityFields(%q) = %v, want %v", tc.modality, got, tc.want)
		}
	}
}

func TestModalityValid(t *testing.T) {
	for _, m := range KnownModalities {
		if !m.Valid() {
			t.Errorf("%q should be valid", m)
		}
	}
	if Modality("").Valid() {
		t.Error("empty modality must not be valid")
	}
	if Modality("horas").Valid() {
		t.Error("modality values are case sensitive")
	}
}

func TestClearInactiveModalityFields(t *testing.T) {
	visits := 3
	window := 60
	limit := 10
	tickets := 5

	base := func(m Modality) *Contract {
		return &Contract{
			Modality:           m,
			IncludedHours:      40,
			ScopeIncluded:      "tudo",
			ScopeExcluded:      "nada",
			FairUsePolicy:      "razoável",
			VisitLimit:         &visits,
			IncludedTickets:    &tickets,
			RolloverActive:     true,
			RolloverDaysWindow: &window,
			RolloverHoursLimit: &limit,
			AppointmentsWhenPending: true,
			Items: []LineItem{{Name: "Licença"}},
		}
	}

	t.Run("hours keeps only hour fields", func(t *testing.T) {
		c := base(ModalityHoras)
		c.ClearInactiveModalityFields()
		if c.IncludedHours != 40 {
			t.Error("included hours should survive")
		}
		if c.ScopeIncluded != "" || c.VisitLimit != nil {
			t.Error("free-scope fields should be cleared")
		}
		if c.IncludedTickets != nil {
			t.Error("per-ticket fields should be cleared")
		}
		if c.RolloverActive || c.RolloverDaysWindow != nil || c.RolloverHoursLimit != nil {
			t.Error("rollover belongs to cumulative hours only")
		}
		if c.AppointmentsWhenPending || c.Items != nil {
			t.Error("saas fields should be cleared")
		}
	})

	t.Run("cumulative hours keeps rollover", func(t *testing.T) {
		c := base(ModalityHorasCumulativas)
		c.ClearInactiveModalityFields()
		if !c.RolloverActive || c.RolloverDaysWindow == nil || c.RolloverHoursLimit == nil {
			t.Error("rollover fields should survive")
		}
	})

	t.Run("rollover window cleared when flag off", func(t *testing.T) {
		c := base(ModalityHorasCumulativas)
		c.RolloverActive = false
		c.ClearInactiveModalityFields()
		if c.RolloverDaysWindow != nil || c.RolloverHoursLimit != nil {
			t.Error("window fields must not survive a disabled rollover")
		}
	})

	t.Run("saas keeps items", func(t *testing.T) {
		c := base(ModalitySaaSProduto)
		c.ClearInactiveModalityFields()
		if len(c.Items) != 1 || !c.AppointmentsWhenPending {
			t.Error("saas fields should survive")
		}
		if c.IncludedHours != 0 {
			t.Error("hour fields should be cleared")
		}
	})

	t.Run("empty modality clears everything", func(t *testing.T) {
		c := base("")
		c.ClearInactiveModalityFields()
		if c.IncludedHours != 0 || c.ScopeIncluded != "" || c.IncludedTickets != nil || c.Items != nil {
			t.Error("no modality means no active fields")
		}
	})
}

func TestContractFieldsClearInactiveModality(t *testing.T) {
	hours := 20.0
	tickets := 8
	fields := ContractFields{
		IncludedHours:    &hours,
		ExtraHourValue:   "150.00",
		ScopeIncluded:    "suporte remoto",
		IncludedTickets:  &tickets,
		ExtraTicketValue: "90.00",
	}

	fields.ClearInactiveModality(ModalityPorAtendimento)

	if fields.IncludedHours != nil || fields.ExtraHourValue != "" {
		t.Error("hour fields should be cleared")
	}
	if fields.ScopeIncluded != "" {
		t.Error("free-scope fields should be cleared")
	}
	if fields.IncludedTickets == nil || fields.ExtraTicketValue != "90.00" {
		t.Error("per-ticket fields should survive")
	}
}
