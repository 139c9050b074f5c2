package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// CatalogHandler serves the reference data the contract form needs on
// mount: contract types, clients and the fixed select options.
type CatalogHandler struct {
	contracts *service.ContractService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(contractService *service.ContractService) *CatalogHandler {
	return &CatalogHandler{contracts: contractService}
}

// ListContractTypes GET /staff/contract-types.
func (h *CatalogHandler) ListContractTypes(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	types, err := h.contracts.ListContractTypes(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.ContractTypeResponse, 0, len(types))
	for _, t := range types {
		items = append(items, dto.ContractTypeResponse{
			ID:       t.ID,
			Name:     t.Name,
			Modality: string(t.Modality),
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListClients GET /staff/clients.
func (h *CatalogHandler) ListClients(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	clients, err := h.contracts.ListClients(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.ClientResponse, 0, len(clients))
	for _, client := range clients {
		items = append(items, dto.ClientResponse{
			ID:       client.ID,
			Name:     client.Name,
			Document: client.Document,
			Email:    client.Email,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ContractOptions GET /staff/contracts/options.
func (h *CatalogHandler) ContractOptions(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	catalog := domain.DefaultOptionsCatalog()
	modalities := make([]string, 0, len(domain.KnownModalities))
	for _, m := range domain.KnownModalities {
		modalities = append(modalities, string(m))
	}
	return c.JSON(fiber.Map{"data": dto.OptionsCatalogResponse{
		PaymentMethods:  catalog.PaymentMethods,
		BillingCycles:   catalog.BillingCycles,
		ClosingCycles:   catalog.ClosingCycles,
		ExpirationTerms: catalog.ExpirationTerms,
		Statuses:        catalog.Statuses,
		Modalities:      modalities,
	}})
}
