package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

// ContractDraftsHandler manages contract form sessions. Each session holds
// the in-progress field record server-side, so every mutation returns the
// re-resolved modality, active field set and derived renewal date.
type ContractDraftsHandler struct {
	drafts *service.DraftService
}

// NewContractDraftsHandler constructs handler.
func NewContractDraftsHandler(draftService *service.DraftService) *ContractDraftsHandler {
	return &ContractDraftsHandler{drafts: draftService}
}

// StartDraft POST /staff/contract-drafts.
func (h *ContractDraftsHandler) StartDraft(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StartDraftRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	draft, err := h.drafts.StartDraft(c.Context(), staff, req.ContractID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": draftResponse(draft)})
}

// GetDraft GET /staff/contract-drafts/:session_id.
func (h *ContractDraftsHandler) GetDraft(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	draft, err := h.drafts.GetDraft(c.Context(), staff, c.Params("session_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": draftResponse(draft)})
}

// UpdateFields PUT /staff/contract-drafts/:session_id/fields.
func (h *ContractDraftsHandler) UpdateFields(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ContractFieldsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	draft, err := h.drafts.UpdateDraftFields(c.Context(), staff, c.Params("session_id"), contractFieldsFromRequest(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": draftResponse(draft)})
}

// AddItem POST /staff/contract-drafts/:session_id/items.
func (h *ContractDraftsHandler) AddItem(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.LineItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	draft, err := h.drafts.AddDraftItem(c.Context(), staff, c.Params("session_id"), service.LineItemInput{
		Name:      req.Name,
		UnitValue: req.UnitValue,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": draftResponse(draft)})
}

// RemoveItem DELETE /staff/contract-drafts/:session_id/items/:index.
func (h *ContractDraftsHandler) RemoveItem(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	index, err := c.ParamsInt("index")
	if err != nil || index < 0 {
		return apperrors.NewValidationError("index must be a non-negative integer", nil)
	}
	draft, err := h.drafts.RemoveDraftItem(c.Context(), staff, c.Params("session_id"), index)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": draftResponse(draft)})
}

// Submit POST /staff/contract-drafts/:session_id/submit.
func (h *ContractDraftsHandler) Submit(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	contract, err := h.drafts.SubmitDraft(c.Context(), staff, c.Params("session_id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": contractDetail(contract)})
}

// Discard DELETE /staff/contract-drafts/:session_id.
func (h *ContractDraftsHandler) Discard(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.drafts.DiscardDraft(c.Context(), staff, c.Params("session_id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func draftResponse(draft *domain.ContractDraft) dto.ContractDraftResponse {
	return dto.ContractDraftResponse{
		SessionID:    draft.SessionID,
		ContractID:   draft.ContractID,
		Fields:       contractFieldsRequest(draft.Fields),
		Modality:     string(draft.Modality),
		ActiveFields: domain.ModalityFields(draft.Modality),
		RenewalDate:  draft.RenewalDate,
		Items:        lineItemResponses(draft.Items),
		ItemsTotal:   lineItemsTotal(draft.Items),
		UpdatedAt:    draft.UpdatedAt,
	}
}
