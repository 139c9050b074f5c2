package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

// ContractService coordinates contract creation, update and listing.
type ContractService struct {
	contracts  repository.ContractRepository
	types      repository.ContractTypeRepository
	clients    repository.ClientRepository
	dispatcher events.Dispatcher
}

// ContractDependencies bundles repositories for the contract service.
type ContractDependencies struct {
	ContractRepo     repository.ContractRepository
	ContractTypeRepo repository.ContractTypeRepository
	ClientRepo       repository.ClientRepository
	Dispatcher       events.Dispatcher
}

// LineItemInput describes one billable item as submitted.
type LineItemInput struct {
	Name      string
	UnitValue string
	Quantity  int
}

// ContractInput is the flat submission record for the contract form: the
// shared ContractFields block plus raw line items. Money and date fields
// arrive as strings and are validated here so that errors come back keyed by
// the exact submitted field name.
type ContractInput struct {
	domain.ContractFields
	Items []LineItemInput
}

// ContractListFilter describes staff listing filters.
type ContractListFilter struct {
	ClientID       *string
	ContractTypeID *string
	Modality       *domain.Modality
	Statuses       []domain.ContractStatus
	SearchTerm     *string
	Limit          int
	Offset         int
}

// NewContractService constructs the service.
func NewContractService(deps ContractDependencies) *ContractService {
	return &ContractService{
		contracts:  deps.ContractRepo,
		types:      deps.ContractTypeRepo,
		clients:    deps.ClientRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateContract validates and stores a new contract from a flat submission.
func (s *ContractService) CreateContract(ctx context.Context, staff *domain.StaffMember, input ContractInput) (*domain.Contract, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	contract, err := s.buildContract(ctx, input, nil, nil)
	if err != nil {
		return nil, err
	}
	contract.Number = generateContractNumber()

	if err := s.contracts.Create(ctx, contract); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:       events.EventContractCreated,
		ContractID: contract.ID,
		Actor:      staffActor(staff.ID),
		Payload: events.ContractCreatedPayload{
			Number:      contract.Number,
			ClientID:    contract.ClientID,
			Modality:    contract.Modality,
			RenewalDate: contract.RenewalDate,
		},
	})
	return contract, nil
}

// UpdateContract validates and stores changes to an existing contract.
func (s *ContractService) UpdateContract(ctx context.Context, staff *domain.StaffMember, contractID string, input ContractInput) (*domain.Contract, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	existing, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("contract", map[string]any{"contract_id": contractID})
		}
		return nil, apperrors.MapError(err)
	}

	contract, err := s.buildContract(ctx, input, nil, existing)
	if err != nil {
		return nil, err
	}
	if err := s.contracts.Update(ctx, contract); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:       events.EventContractUpdated,
		ContractID: contract.ID,
		Actor:      staffActor(staff.ID),
		Payload: events.ContractUpdatedPayload{
			Number:      contract.Number,
			Modality:    contract.Modality,
			RenewalDate: contract.RenewalDate,
		},
	})
	return contract, nil
}

// GetContract fetches a contract by id.
func (s *ContractService) GetContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("contract", map[string]any{"contract_id": contractID})
		}
		return nil, apperrors.MapError(err)
	}
	return contract, nil
}

// ListContracts returns contracts matching the filter.
func (s *ContractService) ListContracts(ctx context.Context, filter ContractListFilter) ([]domain.Contract, error) {
	repoFilter := repository.ContractFilter{
		ClientID:       filter.ClientID,
		ContractTypeID: filter.ContractTypeID,
		Modality:       filter.Modality,
		Statuses:       filter.Statuses,
		SearchTerm:     filter.SearchTerm,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	}
	contracts, err := s.contracts.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return contracts, nil
}

// ListContractTypes returns active contract types for form mount.
func (s *ContractService) ListContractTypes(ctx context.Context) ([]domain.ContractType, error) {
	types, err := s.types.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return types, nil
}

// ListClients returns active clients for form mount.
func (s *ContractService) ListClients(ctx context.Context) ([]domain.Client, error) {
	clients, err := s.clients.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return clients, nil
}

// SubmitPrepared stores a contract whose line items were already built (a
// draft session's ledger with frozen totals). An empty contractID creates;
// otherwise the identified contract is replaced.
func (s *ContractService) SubmitPrepared(ctx context.Context, staff *domain.StaffMember, contractID string, fields domain.ContractFields, items []domain.LineItem) (*domain.Contract, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	input := ContractInput{ContractFields: fields}
	if contractID == "" {
		contract, err := s.buildContract(ctx, input, items, nil)
		if err != nil {
			return nil, err
		}
		contract.Number = generateContractNumber()
		if err := s.contracts.Create(ctx, contract); err != nil {
			return nil, apperrors.MapError(err)
		}
		s.publishEvent(ctx, events.Event{
			Type:       events.EventContractCreated,
			ContractID: contract.ID,
			Actor:      staffActor(staff.ID),
			Payload: events.ContractCreatedPayload{
				Number:      contract.Number,
				ClientID:    contract.ClientID,
				Modality:    contract.Modality,
				RenewalDate: contract.RenewalDate,
			},
		})
		return contract, nil
	}

	existing, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("contract", map[string]any{"contract_id": contractID})
		}
		return nil, apperrors.MapError(err)
	}
	contract, err := s.buildContract(ctx, input, items, existing)
	if err != nil {
		return nil, err
	}
	if err := s.contracts.Update(ctx, contract); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:       events.EventContractUpdated,
		ContractID: contract.ID,
		Actor:      staffActor(staff.ID),
		Payload: events.ContractUpdatedPayload{
			Number:      contract.Number,
			Modality:    contract.Modality,
			RenewalDate: contract.RenewalDate,
		},
	})
	return contract, nil
}

// buildContract turns a flat submission into a validated contract. When
// existing is non-nil its identity fields are preserved and the rest is
// replaced. Prebuilt items, when given, are used verbatim so that totals
// frozen at add time are not recomputed. All validation problems are
// collected into one field-keyed error.
func (s *ContractService) buildContract(ctx context.Context, input ContractInput, prebuiltItems []domain.LineItem, existing *domain.Contract) (*domain.Contract, error) {
	fieldErrs := map[string]any{}

	if strings.TrimSpace(input.Name) == "" {
		fieldErrs["name"] = "name is required"
	}

	if input.ClientID == "" {
		fieldErrs["client_id"] = "client is required"
	} else if _, err := s.clients.GetByID(ctx, input.ClientID); err != nil {
		if err == pgx.ErrNoRows {
			fieldErrs["client_id"] = "client not found"
		} else {
			return nil, apperrors.MapError(err)
		}
	}

	var modality domain.Modality
	if input.ContractTypeID == "" {
		fieldErrs["contract_type_id"] = "contract type is required"
	} else {
		contractType, err := s.types.GetByID(ctx, input.ContractTypeID)
		if err != nil {
			if err == pgx.ErrNoRows {
				fieldErrs["contract_type_id"] = "contract type not found"
			} else {
				return nil, apperrors.MapError(err)
			}
		} else {
			modality = contractType.Modality
		}
	}

	startDate := parseDateField(input.StartDate, "start_date", fieldErrs)
	endDate := parseDateField(input.EndDate, "end_date", fieldErrs)

	status := input.Status
	if status == "" {
		status = domain.ContractStatusActive
	}

	catalog := domain.DefaultOptionsCatalog()
	if !domain.Contains(catalog.PaymentMethods, input.PaymentMethod) {
		fieldErrs["payment_method"] = "unknown payment method"
	}
	if !domain.Contains(catalog.BillingCycles, input.BillingCycle) {
		fieldErrs["billing_cycle"] = "unknown billing cycle"
	}
	if !domain.Contains(catalog.ClosingCycles, input.ClosingCycle) {
		fieldErrs["closing_cycle"] = "unknown closing cycle"
	}

	contract := &domain.Contract{
		ClientID:       input.ClientID,
		ContractTypeID: input.ContractTypeID,
		Modality:       modality,
		Name:           strings.TrimSpace(input.Name),
		TechnicalNotes: input.TechnicalNotes,
		StartDate:      startDate,
		EndDate:        endDate,
		ExpirationTerm: input.ExpirationTerm,
		Status:         status,
		AutoRenew:      input.AutoRenew,

		MonthlyValue:    parseDecimalField(input.MonthlyValue, "monthly_value", false, fieldErrs),
		DiscountPercent: parseDecimalField(input.DiscountPercent, "discount_percent", false, fieldErrs),
		PaymentMethod:   input.PaymentMethod,
		BillingCycle:    input.BillingCycle,
		ClosingCycle:    input.ClosingCycle,

		ScopeIncluded: input.ScopeIncluded,
		ScopeExcluded: input.ScopeExcluded,
		FairUsePolicy: input.FairUsePolicy,
		VisitLimit:    input.VisitLimit,

		IncludedTickets: input.IncludedTickets,

		RolloverActive:     input.RolloverActive,
		RolloverDaysWindow: input.RolloverDaysWindow,
		RolloverHoursLimit: input.RolloverHoursLimit,

		AppointmentsWhenPending: input.AppointmentsWhenPending,

		DisplacementBillable: input.DisplacementBillable,
		DisplacementRate:     parseDecimalField(input.DisplacementRate, "displacement_rate", false, fieldErrs),
	}
	if input.IncludedHours != nil {
		contract.IncludedHours = *input.IncludedHours
	}
	if existing != nil {
		contract.ID = existing.ID
		contract.Number = existing.Number
		contract.CreatedAt = existing.CreatedAt
	}

	validateModalityFields(contract, input, fieldErrs)

	if modality == domain.ModalitySaaSProduto {
		if prebuiltItems != nil {
			contract.Items = prebuiltItems
		} else {
			items := make([]domain.LineItem, 0, len(input.Items))
			for i, itemInput := range input.Items {
				item, err := domain.NewLineItem(itemInput.Name, itemInput.UnitValue, itemInput.Quantity)
				if err != nil {
					fieldErrs[fmt.Sprintf("items.%d", i)] = err.Error()
					continue
				}
				items = append(items, item)
			}
			contract.Items = items
		}
	}

	// Stale values from a previously selected modality never survive a
	// transition; the derived renewal date always overwrites what came in.
	contract.ClearInactiveModalityFields()
	contract.RenewalDate = RenewalDate(contract.StartDate, contract.ExpirationTerm)

	if len(fieldErrs) > 0 {
		return nil, apperrors.NewFieldErrors(fieldErrs)
	}
	return contract, nil
}

// validateModalityFields enforces the required-field rules of the active
// modality. Fields outside the active set are ignored here and cleared later.
func validateModalityFields(contract *domain.Contract, input ContractInput, fieldErrs map[string]any) {
	switch contract.Modality {
	case domain.ModalityHoras, domain.ModalityHorasCumulativas:
		if input.IncludedHours == nil {
			fieldErrs["included_hours"] = "included hours required"
		} else if *input.IncludedHours < 0 {
			fieldErrs["included_hours"] = "included hours must not be negative"
		}
		contract.ExtraHourValue = parseDecimalField(input.ExtraHourValue, "extra_hour_value", true, fieldErrs)
		if contract.Modality == domain.ModalityHorasCumulativas && input.RolloverActive {
			if input.RolloverDaysWindow == nil || *input.RolloverDaysWindow <= 0 {
				fieldErrs["rollover_days_window"] = "rollover window must be a positive number of days"
			}
			if input.RolloverHoursLimit == nil || *input.RolloverHoursLimit <= 0 {
				fieldErrs["rollover_hours_limit"] = "rollover limit must be a positive number of hours"
			}
		}
	case domain.ModalityLivre:
		if input.VisitLimit != nil && *input.VisitLimit < 0 {
			fieldErrs["visit_limit"] = "visit limit must not be negative"
		}
	case domain.ModalityPorAtendimento:
		if input.IncludedTickets == nil {
			fieldErrs["included_tickets"] = "included tickets required"
		} else if *input.IncludedTickets < 0 {
			fieldErrs["included_tickets"] = "included tickets must not be negative"
		}
		contract.ExtraTicketValue = parseDecimalField(input.ExtraTicketValue, "extra_ticket_value", true, fieldErrs)
	}
}

func parseDecimalField(raw, field string, required bool, fieldErrs map[string]any) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			fieldErrs[field] = field + " is required"
		}
		return decimal.Decimal{}
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		fieldErrs[field] = "invalid decimal value"
		return decimal.Decimal{}
	}
	if value.IsNegative() {
		fieldErrs[field] = field + " must not be negative"
		return decimal.Decimal{}
	}
	return value
}

// parseDateLoose parses a calendar date, yielding nil for anything invalid.
// Drafts stay editable with half-typed dates; submission uses the strict path.
func parseDateLoose(raw string) *time.Time {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &parsed
}

func parseDateField(raw, field string, fieldErrs map[string]any) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		fieldErrs[field] = "invalid date, expected YYYY-MM-DD"
		return nil
	}
	return &parsed
}

func generateContractNumber() string {
	return "CTR-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *ContractService) publishEvent(ctx context.Context, event events.Event) {
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
