package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

// AddendumService records contract amendments and applies renewals.
type AddendumService struct {
	contracts  repository.ContractRepository
	addenda    repository.AddendumRepository
	dispatcher events.Dispatcher
}

// AddendumDependencies bundles repositories.
type AddendumDependencies struct {
	ContractRepo repository.ContractRepository
	AddendumRepo repository.AddendumRepository
	Dispatcher   events.Dispatcher
}

// AddendumInput describes an addendum submission.
type AddendumInput struct {
	Kind          domain.AddendumKind
	EffectiveDate string
	NewTerm       string
	NewMonthly    string
	NewDiscount   string
	Notes         string
}

// NewAddendumService creates the service.
func NewAddendumService(deps AddendumDependencies) *AddendumService {
	return &AddendumService{
		contracts:  deps.ContractRepo,
		addenda:    deps.AddendumRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateAddendum records an addendum and applies its effects. A RENEWAL
// advances the contract start date to the effective date and re-derives the
// renewal date from the (possibly new) expiration term; an AMENDMENT applies
// only the value adjustments it carries.
func (s *AddendumService) CreateAddendum(ctx context.Context, staff *domain.StaffMember, contractID string, input AddendumInput) (*domain.Addendum, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}

	fieldErrs := map[string]any{}
	if input.Kind != domain.AddendumKindRenewal && input.Kind != domain.AddendumKindAmendment {
		fieldErrs["kind"] = "kind must be RENEWAL or AMENDMENT"
	}
	effective := parseDateField(input.EffectiveDate, "effective_date", fieldErrs)
	if effective == nil {
		fieldErrs["effective_date"] = "effective date is required"
	}
	var newMonthly, newDiscount *decimal.Decimal
	if input.NewMonthly != "" {
		value := parseDecimalField(input.NewMonthly, "new_monthly", false, fieldErrs)
		newMonthly = &value
	}
	if input.NewDiscount != "" {
		value := parseDecimalField(input.NewDiscount, "new_discount", false, fieldErrs)
		newDiscount = &value
	}
	if len(fieldErrs) > 0 {
		return nil, apperrors.NewFieldErrors(fieldErrs)
	}

	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("contract", map[string]any{"contract_id": contractID})
		}
		return nil, apperrors.MapError(err)
	}

	addendum := &domain.Addendum{
		ContractID:    contract.ID,
		Kind:          input.Kind,
		EffectiveDate: *effective,
		NewTerm:       input.NewTerm,
		NewMonthly:    newMonthly,
		NewDiscount:   newDiscount,
		Notes:         input.Notes,
		CreatedByID:   &staff.ID,
	}
	if err := s.addenda.Create(ctx, addendum); err != nil {
		return nil, apperrors.MapError(err)
	}

	if newMonthly != nil {
		contract.MonthlyValue = *newMonthly
	}
	if newDiscount != nil {
		contract.DiscountPercent = *newDiscount
	}
	if input.Kind == domain.AddendumKindRenewal {
		// Renewal resets the derived fields: the cycle restarts at the
		// effective date under the new term.
		contract.StartDate = effective
		if input.NewTerm != "" {
			contract.ExpirationTerm = input.NewTerm
		}
		contract.RenewalDate = RenewalDate(contract.StartDate, contract.ExpirationTerm)
	}
	if err := s.contracts.Update(ctx, contract); err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.Kind == domain.AddendumKindRenewal {
		s.publishEvent(ctx, events.Event{
			Type:       events.EventContractRenewed,
			ContractID: contract.ID,
			Actor:      staffActor(staff.ID),
			Payload: events.ContractRenewedPayload{
				AddendumID:     addendum.ID,
				EffectiveDate:  effective.Format("2006-01-02"),
				NewTerm:        input.NewTerm,
				NewRenewalDate: contract.RenewalDate,
			},
		})
	}
	return addendum, nil
}

// ListAddenda returns a contract's addenda, newest first.
func (s *AddendumService) ListAddenda(ctx context.Context, contractID string) ([]domain.Addendum, error) {
	addenda, err := s.addenda.ListByContract(ctx, contractID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return addenda, nil
}

func (s *AddendumService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
