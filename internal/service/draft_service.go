package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

// DraftService owns contract form draft sessions. A session wraps one
// mutable draft; every field update re-resolves the modality, clears the
// field blocks that fell out of scope, and re-derives the renewal date.
type DraftService struct {
	drafts    repository.DraftRepository
	types     repository.ContractTypeRepository
	contracts *ContractService
}

// DraftDependencies bundles requirements for the draft service.
type DraftDependencies struct {
	DraftRepo        repository.DraftRepository
	ContractTypeRepo repository.ContractTypeRepository
	ContractService  *ContractService
}

// NewDraftService constructs the service.
func NewDraftService(deps DraftDependencies) *DraftService {
	return &DraftService{
		drafts:    deps.DraftRepo,
		types:     deps.ContractTypeRepo,
		contracts: deps.ContractService,
	}
}

// StartDraft opens a fresh session. With a contract id the session starts
// from that contract's current values (edit flow); otherwise it starts blank.
func (s *DraftService) StartDraft(ctx context.Context, staff *domain.StaffMember, contractID string) (*domain.ContractDraft, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	now := time.Now()
	draft := &domain.ContractDraft{
		SessionID:    uuid.NewString(),
		OwnerStaffID: staff.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if contractID != "" {
		contract, err := s.contracts.GetContract(ctx, contractID)
		if err != nil {
			return nil, err
		}
		draft.ContractID = contract.ID
		draft.Fields = fieldsFromContract(contract)
		draft.Modality = contract.Modality
		draft.RenewalDate = contract.RenewalDate
		draft.Items = append([]domain.LineItem(nil), contract.Items...)
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, apperrors.MapError(err)
	}
	return draft, nil
}

// GetDraft loads a session owned by the caller.
func (s *DraftService) GetDraft(ctx context.Context, staff *domain.StaffMember, sessionID string) (*domain.ContractDraft, error) {
	return s.loadOwned(ctx, staff, sessionID)
}

// UpdateDraftFields replaces the draft's field record. Values are accepted
// as typed; parsing problems only surface at submission. Switching contract
// type swaps the active modality, and the blocks of the previous modality
// (including the item ledger when leaving SaaS/Produto) are cleared rather
// than carried along.
func (s *DraftService) UpdateDraftFields(ctx context.Context, staff *domain.StaffMember, sessionID string, fields domain.ContractFields) (*domain.ContractDraft, error) {
	draft, err := s.loadOwned(ctx, staff, sessionID)
	if err != nil {
		return nil, err
	}

	types, err := s.types.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	modality := domain.ResolveModality(types, fields.ContractTypeID)

	fields.ClearInactiveModality(modality)
	if modality != domain.ModalitySaaSProduto {
		draft.Items = nil
	}
	draft.Fields = fields
	draft.Modality = modality
	draft.RenewalDate = RenewalDate(parseDateLoose(fields.StartDate), fields.ExpirationTerm)
	draft.UpdatedAt = time.Now()

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, apperrors.MapError(err)
	}
	return draft, nil
}

// AddDraftItem appends a line item to the session's ledger. The total is
// computed here, once; it is never recomputed afterwards. Invalid input
// leaves the ledger unchanged and reports the offending field.
func (s *DraftService) AddDraftItem(ctx context.Context, staff *domain.StaffMember, sessionID string, input LineItemInput) (*domain.ContractDraft, error) {
	draft, err := s.loadOwned(ctx, staff, sessionID)
	if err != nil {
		return nil, err
	}
	item, err := domain.NewLineItem(input.Name, input.UnitValue, input.Quantity)
	if err != nil {
		return nil, apperrors.NewFieldErrors(map[string]any{lineItemErrorField(err): err.Error()})
	}
	draft.Items = append(draft.Items, item)
	draft.UpdatedAt = time.Now()
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, apperrors.MapError(err)
	}
	return draft, nil
}

// RemoveDraftItem deletes the item at index, keeping the remaining order.
func (s *DraftService) RemoveDraftItem(ctx context.Context, staff *domain.StaffMember, sessionID string, index int) (*domain.ContractDraft, error) {
	draft, err := s.loadOwned(ctx, staff, sessionID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(draft.Items) {
		return nil, apperrors.NewValidationError("item index out of range", map[string]any{"index": index})
	}
	draft.Items = domain.RemoveLineItem(draft.Items, index)
	draft.UpdatedAt = time.Now()
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, apperrors.MapError(err)
	}
	return draft, nil
}

// SubmitDraft validates the session's draft and persists it as a contract
// (create or update depending on how the session was started). On success
// the session is discarded.
func (s *DraftService) SubmitDraft(ctx context.Context, staff *domain.StaffMember, sessionID string) (*domain.Contract, error) {
	draft, err := s.loadOwned(ctx, staff, sessionID)
	if err != nil {
		return nil, err
	}
	contract, err := s.contracts.SubmitPrepared(ctx, staff, draft.ContractID, draft.Fields, draft.Items)
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Delete(ctx, sessionID); err != nil {
		return nil, apperrors.MapError(err)
	}
	return contract, nil
}

// DiscardDraft drops the session without persisting anything.
func (s *DraftService) DiscardDraft(ctx context.Context, staff *domain.StaffMember, sessionID string) error {
	if _, err := s.loadOwned(ctx, staff, sessionID); err != nil {
		return err
	}
	return apperrors.MapError(s.drafts.Delete(ctx, sessionID))
}

func (s *DraftService) loadOwned(ctx context.Context, staff *domain.StaffMember, sessionID string) (*domain.ContractDraft, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	draft, err := s.drafts.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrDraftNotFound) {
			return nil, apperrors.NewNotFound("draft session", map[string]any{"session_id": sessionID})
		}
		return nil, apperrors.MapError(err)
	}
	if draft.OwnerStaffID != staff.ID {
		return nil, apperrors.NewForbidden("draft session belongs to another staff member")
	}
	return draft, nil
}

func lineItemErrorField(err error) string {
	switch {
	case errors.Is(err, domain.ErrLineItemName):
		return "name"
	case errors.Is(err, domain.ErrLineItemValue):
		return "unit_value"
	case errors.Is(err, domain.ErrLineItemQuantity):
		return "quantity"
	default:
		return "item"
	}
}

// fieldsFromContract maps a stored contract back into the flat form record,
// formatting decimals and dates the way the form transmits them.
func fieldsFromContract(contract *domain.Contract) domain.ContractFields {
	fields := domain.ContractFields{
		Name:           contract.Name,
		ClientID:       contract.ClientID,
		ContractTypeID: contract.ContractTypeID,
		TechnicalNotes: contract.TechnicalNotes,
		ExpirationTerm: contract.ExpirationTerm,
		Status:         contract.Status,
		AutoRenew:      contract.AutoRenew,

		PaymentMethod: contract.PaymentMethod,
		BillingCycle:  contract.BillingCycle,
		ClosingCycle:  contract.ClosingCycle,

		ScopeIncluded: contract.ScopeIncluded,
		ScopeExcluded: contract.ScopeExcluded,
		FairUsePolicy: contract.FairUsePolicy,
		VisitLimit:    contract.VisitLimit,

		IncludedTickets: contract.IncludedTickets,

		RolloverActive:     contract.RolloverActive,
		RolloverDaysWindow: contract.RolloverDaysWindow,
		RolloverHoursLimit: contract.RolloverHoursLimit,

		AppointmentsWhenPending: contract.AppointmentsWhenPending,
		DisplacementBillable:    contract.DisplacementBillable,
	}
	if contract.StartDate != nil {
		fields.StartDate = contract.StartDate.Format("2006-01-02")
	}
	if contract.EndDate != nil {
		fields.EndDate = contract.EndDate.Format("2006-01-02")
	}
	if !contract.MonthlyValue.IsZero() {
		fields.MonthlyValue = contract.MonthlyValue.String()
	}
	if !contract.DiscountPercent.IsZero() {
		fields.DiscountPercent = contract.DiscountPercent.String()
	}
	if !contract.ExtraHourValue.IsZero() {
		fields.ExtraHourValue = contract.ExtraHourValue.String()
	}
	if !contract.ExtraTicketValue.IsZero() {
		fields.ExtraTicketValue = contract.ExtraTicketValue.String()
	}
	if !contract.DisplacementRate.IsZero() {
		fields.DisplacementRate = contract.DisplacementRate.String()
	}
	usesHours := contract.Modality == domain.ModalityHoras || contract.Modality == domain.ModalityHorasCumulativas
	if usesHours {
		hours := contract.IncludedHours
		fields.IncludedHours = &hours
	}
	return fields
}
