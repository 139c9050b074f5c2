package service

import (
	"context"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

type fakeDraftRepo struct {
	drafts map[string]*domain.ContractDraft
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{drafts: map[string]*domain.ContractDraft{}}
}

func (f *fakeDraftRepo) Save(_ context.Context, draft *domain.ContractDraft) error {
	stored := *draft
	f.drafts[draft.SessionID] = &stored
	return nil
}

func (f *fakeDraftRepo) Get(_ context.Context, sessionID string) (*domain.ContractDraft, error) {
	draft, ok := f.drafts[sessionID]
	if !ok {
		return nil, repository.ErrDraftNotFound
	}
	stored := *draft
	return &stored, nil
}

func (f *fakeDraftRepo) Delete(_ context.Context, sessionID string) error {
	delete(f.drafts, sessionID)
	return nil
}

func newTestDraftService(t *testing.T) (*DraftService, *fakeContractRepo, *fakeDraftRepo) {
	t.Helper()
	fakes := newContractFakes()
	contractSvc := NewContractService(ContractDependencies{
		ContractRepo:     fakes.contracts,
		ContractTypeRepo: fakes.types,
		ClientRepo:       fakes.clients,
	})
	draftRepo := newFakeDraftRepo()
	svc := NewDraftService(DraftDependencies{
		DraftRepo:        draftRepo,
		ContractTypeRepo: fakes.types,
		ContractService:  contractSvc,
	})
	return svc, fakes.contracts, draftRepo
}

func TestStartDraftBlank(t *testing.T) {
	svc, _, _ := newTestDraftService(t)

	draft, err := svc.StartDraft(context.Background(), testStaff(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.SessionID == "" {
		t.Error("session id must be assigned")
	}
	if draft.OwnerStaffID != "staff-1" {
		t.Errorf("owner = %q, want staff-1", draft.OwnerStaffID)
	}
	if draft.Modality != "" || draft.RenewalDate != "" || len(draft.Items) != 0 {
		t.Error("blank draft must start with no modality, renewal date or items")
	}
}

func TestStartDraftFromContract(t *testing.T) {
	svc, contracts, _ := newTestDraftService(t)
	seed := &domain.Contract{
		ClientID:       "client-1",
		ContractTypeID: "ct-hours",
		Modality:       domain.ModalityHoras,
		Name:           "Contrato Acme",
		IncludedHours:  40,
		RenewalDate:    "2025-01-15",
		Status:         domain.ContractStatusActive,
	}
	if err := contracts.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed contract: %v", err)
	}

	draft, err := svc.StartDraft(context.Background(), testStaff(), seed.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.ContractID != seed.ID {
		t.Errorf("contract id = %q, want %q", draft.ContractID, seed.ID)
	}
	if draft.Modality != domain.ModalityHoras {
		t.Errorf("modality = %q, want %q", draft.Modality, domain.ModalityHoras)
	}
	if draft.Fields.Name != "Contrato Acme" {
		t.Errorf("name = %q, want seeded name", draft.Fields.Name)
	}
	if draft.RenewalDate != "2025-01-15" {
		t.Errorf("renewal date = %q, want carried over", draft.RenewalDate)
	}
}

func TestUpdateDraftFieldsResolvesModality(t *testing.T) {
	svc, _, _ := newTestDraftService(t)
	draft, err := svc.StartDraft(context.Background(), testStaff(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields := baseContractInput("ct-hours").ContractFields
	fields.IncludedHours = ptrFloat(40)
	fields.ExtraHourValue = "150.00"

	updated, err := svc.UpdateDraftFields(context.Background(), testStaff(), draft.SessionID, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Modality != domain.ModalityHoras {
		t.Errorf("modality = %q, want %q", updated.Modality, domain.ModalityHoras)
	}
	if updated.RenewalDate != "2025-01-15" {
		t.Errorf("renewal date = %q, want 2025-01-15", updated.RenewalDate)
	}
}

func TestUpdateDraftFieldsClearsOnModalitySwitch(t *testing.T) {
	svc, _, _ := newTestDraftService(t)
	draft, err := svc.StartDraft(context.Background(), testStaff(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields := baseContractInput("ct-hours").ContractFields
	fields.IncludedHours = ptrFloat(40)
	fields.ExtraHourValue = "150.00"
	if _, err := svc.UpdateDraftFields(context.Background(), testStaff(), draft.SessionID, fields); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Switch to Por Atendimento carrying the hour values along, as a form
	// would when the user changes the type selector.
	fields.ContractTypeID = "ct-ticket"
	fields.IncludedTickets = ptrInt(10)
	fields.ExtraTicketValue = "90.00"
	updated, err := svc.UpdateDraftFields(context.Background(), testStaff(), draft.SessionID, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Modality != domain.ModalityPorAtendimento {
		t.Errorf("modality = %q, want %q", updated.Modality, domain.ModalityPorAtendimento)
	}
	if updated.Fields.IncludedHours != nil || updated.Fields.ExtraHourValue != "" {
		t.Error("hour fields must be cleared on modality switch")
	}
	if updated.Fields.IncludedTickets == nil || updated.Fields.ExtraTicketValue != "90.00" {
		t.Error("newly active fields must survive")
	}
}

func TestUpdateDraftFieldsLeavingSaaSDropsItems(t *testing.T) {
	svc, _, _ := newTestDraftService(t)
	draft, err := svc.StartDraft(context.Background(), testStaff(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields := baseContractInput("ct-saas").ContractFields
	if _, err := svc.UpdateDraftFields(context.Background(), testStaff(), draft.SessionID, fields); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddDraftItem(context.Background(), testStaff(), draft.SessionID, LineItemInput{Name: "Licença", UnitValue: "100.00", Quantity: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields.ContractTypeID = "ct-livre"
	updated, err := svc.UpdateDraftFields(context.Background(), testStaff(), draft.SessionID, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Items) != 0 {
		t.Error("leaving SaaS/Produto must drop the item ledger")
	}
}

func TestAddDraftItemComputesFrozenTotal(t *testing.T) {
	svc, _, _ := newTestDraftService(t)
	draft, err := svc.StartDraft(context.Background(), testStaff(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.AddDraftItem(context.Background(), testStaff(), draft.SessionID, LineItemInput{Name: "Licença", UnitValue: "100.00", Quantity: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(updated.Items))
	}
	if got := updated.Items[0].TotalValue.StringFixed(2); got != "300.00" {
		t.Errorf("total = %s, want 300.00", got)
	}
}

func TestAddDraftItemInvalidLeavesLedgerUnchanged(t *testing.T) {
	svc, _, drafts := newTestDraftService(t)
	draft, err := svc.StartDraft(context.Background(), testStaff(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddDraftItem(context.Background(), testStaff(), draft.SessionID, LineItemInput{Name: "Licença", UnitValue: "100.00", Quantity: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.AddDraftItem(context.Background(), testStaff(), draft.SessionID, LineItemInput{Name: "Extra", UnitValue: "-5.00", Quantity: 1})
	details := fieldErrorDetails(t, err)
	if _, ok := details["unit_value"]; !ok {
		t.Errorf("missing unit_value error in %v", details)
	}

	stored, err := drafts.Get(context.Background(), draft.SessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored.Items) != 1 {
		t.Errorf("ledger = %d items, want the 1 valid item only", len(stored.Items))
	}
}

func TestAddDraftItemErrorKeys(t *testing.T) {
	svc, _, _ := newTestDraftService(t)
	draft, err := svc.StartDraft(context.Background(), testStaff(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name  string
		input LineItemInput
		key   string
	}{
		{"blank name", LineItemInput{Name: " ", UnitValue: "10.00", Quantity: 1}, "name"},
		{"bad value", LineItemInput{Name: "Item", UnitValue: "zero", Quantity: 1}, "unit_value"},
		{"bad quantity", LineItemInput{Name: "Item", UnitValue: "10.00", Quantity: -1}, "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddDraftItem(context.Background(), testStaff(), draft.SessionID, tc.input)
			details := fieldErrorDetails(t, err)
			if _, ok := details[tc.key]; !ok {
				t.Errorf("missing %q error in %v", tc.key, details)
			}
		})
	}
}

func TestRemoveDraftItemKeepsOrder(t *testing.T) {
	svc, _, _ := newTestDraftService(t)
	draft, err := svc.StartDraft(context.Background(), testStaff(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if _, err := svc.AddDraftItem(context.Background(), testStaff(), draft.SessionID, LineItemInput{Name: name, UnitValue: "10.00", Quantity: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	updated, err := svc.RemoveDraftItem(context.Background(), testStaff(), draft.SessionID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Items) != 2 || updated.Items[0].Name != "a" || updated.Items[1].Name != "c" {
		t.Fatalf("unexpected ledger after removal: %+v", updated.Items)
	}

	if _, err := svc.RemoveDraftItem(context.Background(), testStaff(), draft.SessionID, 5); err == nil {
		t.Error("out-of-range index must be rejected")
	}
}

func TestSubmitDraftCreatesContractAndEndsSession(t *testing.T) {
	svc, contracts, drafts := newTestDraftService(t)
	draft, err := svc.StartDraft(context.Background(), testStaff(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields := baseContractInput("ct-saas").ContractFields
	if _, err := svc.UpdateDraftFields(context.Background(), testStaff(), draft.SessionID, fields); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddDraftItem(context.Background(), testStaff(), draft.SessionID, LineItemInput{Name: "Licença", UnitValue: "100.00", Quantity: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	contract, err := svc.SubmitDraft(context.Background(), testStaff(), draft.SessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contract.ID == "" || contract.Number == "" {
		t.Error("submitted contract must be persisted with id and number")
	}
	if len(contract.Items) != 1 || contract.Items[0].TotalValue.StringFixed(2) != "300.00" {
		t.Error("ledger must be carried into the contract with frozen totals")
	}
	if _, err := contracts.GetByID(context.Background(), contract.ID); err != nil {
		t.Errorf("contract not stored: %v", err)
	}
	if _, err := drafts.Get(context.Background(), draft.SessionID); err == nil {
		t.Error("session must be discarded after a successful submit")
	}
}

func TestSubmitDraftValidationKeepsSession(t *testing.T) {
	svc, _, drafts := newTestDraftService(t)
	draft, err := svc.StartDraft(context.Background(), testStaff(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SubmitDraft(context.Background(), testStaff(), draft.SessionID); err == nil {
		t.Fatal("blank draft must fail validation")
	}
	if _, err := drafts.Get(context.Background(), draft.SessionID); err != nil {
		t.Error("failed submit must keep the session for correction")
	}
}

func TestDraftOwnershipEnforced(t *testing.T) {
	svc, _, _ := newTestDraftService(t)
	draft, err := svc.StartDraft(context.Background(), testStaff(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := &domain.StaffMember{ID: "staff-2", Name: "Bruno", Role: domain.StaffRoleAgent}
	_, err = svc.GetDraft(context.Background(), other, draft.SessionID)
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	if apperrors.ToDomainError(err).Code != "FORBIDDEN" {
		t.Fatalf("code = %s, want FORBIDDEN", apperrors.ToDomainError(err).Code)
	}
}

func TestDraftSessionNotFound(t *testing.T) {
	svc, _, _ := newTestDraftService(t)

	_, err := svc.GetDraft(context.Background(), testStaff(), "missing-session")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if apperrors.ToDomainError(err).Code != "NOT_FOUND" {
		t.Fatalf("code = %s, want NOT_FOUND", apperrors.ToDomainError(err).Code)
	}
}
