package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

// ContractsHandler manages staff contract endpoints.
type ContractsHandler struct {
	contracts *service.ContractService
	addenda   *service.AddendumService
}

// NewContractsHandler constructs handler.
func NewContractsHandler(contractService *service.ContractService, addendumService *service.AddendumService) *ContractsHandler {
	return &ContractsHandler{contracts: contractService, addenda: addendumService}
}

// CreateContract POST /staff/contracts.
func (h *ContractsHandler) CreateContract(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateContractRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	contract, err := h.contracts.CreateContract(c.Context(), staff, contractInputFromRequest(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": contractDetail(contract)})
}

// UpdateContract PUT /staff/contracts/:id.
func (h *ContractsHandler) UpdateContract(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateContractRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	contract, err := h.contracts.UpdateContract(c.Context(), staff, c.Params("id"), contractInputFromRequest(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": contractDetail(contract)})
}

// GetContract GET /staff/contracts/:id.
func (h *ContractsHandler) GetContract(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	contract, err := h.contracts.GetContract(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": contractDetail(contract)})
}

// ListContracts GET /staff/contracts.
func (h *ContractsHandler) ListContracts(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	filter := parseContractFilter(c)
	contracts, err := h.contracts.ListContracts(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ContractSummary, 0, len(contracts))
	for i := range contracts {
		items = append(items, contractSummary(&contracts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateAddendum POST /staff/contracts/:id/addenda.
func (h *ContractsHandler) CreateAddendum(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateAddendumRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	addendum, err := h.addenda.CreateAddendum(c.Context(), staff, c.Params("id"), service.AddendumInput{
		Kind:          domain.AddendumKind(req.Kind),
		EffectiveDate: req.EffectiveDate,
		NewTerm:       req.NewTerm,
		NewMonthly:    req.NewMonthly,
		NewDiscount:   req.NewDiscount,
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": addendumResponse(addendum)})
}

// ListAddenda GET /staff/contracts/:id/addenda.
func (h *ContractsHandler) ListAddenda(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	addenda, err := h.addenda.ListAddenda(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AddendumResponse, 0, len(addenda))
	for i := range addenda {
		items = append(items, addendumResponse(&addenda[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseContractFilter(c *fiber.Ctx) service.ContractListFilter {
	filter := service.ContractListFilter{}
	if clientID := c.Query("client_id"); clientID != "" {
		filter.ClientID = &clientID
	}
	if typeID := c.Query("contract_type_id"); typeID != "" {
		filter.ContractTypeID = &typeID
	}
	if modality := c.Query("modality"); modality != "" {
		m := domain.Modality(modality)
		filter.Modality = &m
	}
	if statuses := c.Query("status"); statuses != "" {
		for _, part := range strings.Split(statuses, ",") {
			filter.Statuses = append(filter.Statuses, domain.ContractStatus(strings.TrimSpace(part)))
		}
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func contractInputFromRequest(req dto.CreateContractRequest) service.ContractInput {
	input := service.ContractInput{ContractFields: contractFieldsFromRequest(req.ContractFieldsRequest)}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.LineItemInput{
			Name:      item.Name,
			UnitValue: item.UnitValue,
			Quantity:  item.Quantity,
		})
	}
	return input
}

func contractFieldsFromRequest(req dto.ContractFieldsRequest) domain.ContractFields {
	return domain.ContractFields{
		Name:           req.Name,
		ClientID:       req.ClientID,
		ContractTypeID: req.ContractTypeID,
		TechnicalNotes: req.TechnicalNotes,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		ExpirationTerm: req.ExpirationTerm,
		Status:         domain.ContractStatus(req.Status),
		AutoRenew:      req.AutoRenew,

		MonthlyValue:    req.MonthlyValue,
		DiscountPercent: req.DiscountPercent,
		PaymentMethod:   req.PaymentMethod,
		BillingCycle:    req.BillingCycle,
		ClosingCycle:    req.ClosingCycle,

		IncludedHours:  req.IncludedHours,
		ExtraHourValue: req.ExtraHourValue,

		ScopeIncluded: req.ScopeIncluded,
		ScopeExcluded: req.ScopeExcluded,
		FairUsePolicy: req.FairUsePolicy,
		VisitLimit:    req.VisitLimit,

		IncludedTickets:  req.IncludedTickets,
		ExtraTicketValue: req.ExtraTicketValue,

		RolloverActive:     req.RolloverActive,
		RolloverDaysWindow: req.RolloverDaysWindow,
		RolloverHoursLimit: req.RolloverHoursLimit,

		AppointmentsWhenPending: req.AppointmentsWhenPending,

		DisplacementBillable: req.DisplacementBillable,
		DisplacementRate:     req.DisplacementRate,
	}
}

func contractFieldsRequest(fields domain.ContractFields) dto.ContractFieldsRequest {
	return dto.ContractFieldsRequest{
		Name:           fields.Name,
		ClientID:       fields.ClientID,
		ContractTypeID: fields.ContractTypeID,
		TechnicalNotes: fields.TechnicalNotes,
		StartDate:      fields.StartDate,
		EndDate:        fields.EndDate,
		ExpirationTerm: fields.ExpirationTerm,
		Status:         string(fields.Status),
		AutoRenew:      fields.AutoRenew,

		MonthlyValue:    fields.MonthlyValue,
		DiscountPercent: fields.DiscountPercent,
		PaymentMethod:   fields.PaymentMethod,
		BillingCycle:    fields.BillingCycle,
		ClosingCycle:    fields.ClosingCycle,

		IncludedHours:  fields.IncludedHours,
		ExtraHourValue: fields.ExtraHourValue,

		ScopeIncluded: fields.ScopeIncluded,
		ScopeExcluded: fields.ScopeExcluded,
		FairUsePolicy: fields.FairUsePolicy,
		VisitLimit:    fields.VisitLimit,

		IncludedTickets:  fields.IncludedTickets,
		ExtraTicketValue: fields.ExtraTicketValue,

		RolloverActive:     fields.RolloverActive,
		RolloverDaysWindow: fields.RolloverDaysWindow,
		RolloverHoursLimit: fields.RolloverHoursLimit,

		AppointmentsWhenPending: fields.AppointmentsWhenPending,

		DisplacementBillable: fields.DisplacementBillable,
		DisplacementRate:     fields.DisplacementRate,
	}
}

func contractSummary(contract *domain.Contract) dto.ContractSummary {
	return dto.ContractSummary{
		ID:           contract.ID,
		Number:       contract.Number,
		Name:         contract.Name,
		ClientID:     contract.ClientID,
		Modality:     string(contract.Modality),
		Status:       contract.Status,
		MonthlyValue: contract.MonthlyValue.StringFixed(2),
		StartDate:    formatDate(contract.StartDate),
		RenewalDate:  contract.RenewalDate,
		CreatedAt:    contract.CreatedAt,
	}
}

func contractDetail(contract *domain.Contract) dto.ContractDetailResponse {
	resp := dto.ContractDetailResponse{
		ID:             contract.ID,
		Number:         contract.Number,
		Name:           contract.Name,
		ClientID:       contract.ClientID,
		ContractTypeID: contract.ContractTypeID,
		Modality:       string(contract.Modality),
		TechnicalNotes: contract.TechnicalNotes,
		StartDate:      formatDate(contract.StartDate),
		EndDate:        formatDate(contract.EndDate),
		ExpirationTerm: contract.ExpirationTerm,
		RenewalDate:    contract.RenewalDate,
		Status:         contract.Status,
		AutoRenew:      contract.AutoRenew,

		MonthlyValue:    contract.MonthlyValue.StringFixed(2),
		DiscountPercent: contract.DiscountPercent.StringFixed(2),
		PaymentMethod:   contract.PaymentMethod,
		BillingCycle:    contract.BillingCycle,
		ClosingCycle:    contract.ClosingCycle,

		RolloverActive:     contract.RolloverActive,
		RolloverDaysWindow: contract.RolloverDaysWindow,
		RolloverHoursLimit: contract.RolloverHoursLimit,

		AppointmentsWhenPending: contract.AppointmentsWhenPending,

		DisplacementBillable: contract.DisplacementBillable,

		Items:      lineItemResponses(contract.Items),
		ItemsTotal: lineItemsTotal(contract.Items),

		CreatedAt: contract.CreatedAt,
		UpdatedAt: contract.UpdatedAt,
	}

	switch contract.Modality {
	case domain.ModalityHoras, domain.ModalityHorasCumulativas:
		resp.IncludedHours = contract.IncludedHours
		resp.ExtraHourValue = contract.ExtraHourValue.StringFixed(2)
	case domain.ModalityLivre:
		resp.ScopeIncluded = contract.ScopeIncluded
		resp.ScopeExcluded = contract.ScopeExcluded
		resp.FairUsePolicy = contract.FairUsePolicy
		resp.VisitLimit = contract.VisitLimit
	case domain.ModalityPorAtendimento:
		resp.IncludedTickets = contract.IncludedTickets
		resp.ExtraTicketValue = contract.ExtraTicketValue.StringFixed(2)
		resp.PerTicketTotal = contract.ExtraTicketValue.StringFixed(2)
	}
	if contract.DisplacementBillable {
		resp.DisplacementRate = contract.DisplacementRate.StringFixed(2)
	}
	return resp
}

func lineItemResponses(items []domain.LineItem) []dto.LineItemResponse {
	resp := make([]dto.LineItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, dto.LineItemResponse{
			ID:         item.ID,
			Name:       item.Name,
			UnitValue:  item.UnitValue.StringFixed(2),
			Quantity:   item.Quantity,
			TotalValue: item.TotalValue.StringFixed(2),
		})
	}
	return resp
}

func lineItemsTotal(items []domain.LineItem) string {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalValue)
	}
	return total.StringFixed(2)
}

func addendumResponse(addendum *domain.Addendum) dto.AddendumResponse {
	resp := dto.AddendumResponse{
		ID:            addendum.ID,
		ContractID:    addendum.ContractID,
		Kind:          string(addendum.Kind),
		EffectiveDate: addendum.EffectiveDate.Format("2006-01-02"),
		NewTerm:       addendum.NewTerm,
		Notes:         addendum.Notes,
		CreatedAt:     addendum.CreatedAt,
	}
	if addendum.NewMonthly != nil {
		resp.NewMonthly = addendum.NewMonthly.StringFixed(2)
	}
	if addendum.NewDiscount != nil {
		resp.NewDiscount = addendum.NewDiscount.StringFixed(2)
	}
	return resp
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
