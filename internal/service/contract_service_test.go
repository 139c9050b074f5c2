package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

type fakeContractRepo struct {
	contracts map[string]*domain.Contract
	seq       int
}

func newFakeContractRepo() *fakeContractRepo {
	return &fakeContractRepo{contracts: map[string]*domain.Contract{}}
}

func (f *fakeContractRepo) Create(_ context.Context, contract *domain.Contract) error {
	f.seq++
	if contract.ID == "" {
		contract.ID = fmt.Sprintf("contract-%d", f.seq)
	}
	contract.CreatedAt = time.Now()
	contract.UpdatedAt = contract.CreatedAt
	stored := *contract
	f.contracts[contract.ID] = &stored
	return nil
}

func (f *fakeContractRepo) Update(_ context.Context, contract *domain.Contract) error {
	if _, ok := f.contracts[contract.ID]; !ok {
		return pgx.ErrNoRows
	}
	contract.UpdatedAt = time.Now()
	stored := *contract
	f.contracts[contract.ID] = &stored
	return nil
}

func (f *fakeContractRepo) GetByID(_ context.Context, id string) (*domain.Contract, error) {
	contract, ok := f.contracts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *contract
	return &copy, nil
}

func (f *fakeContractRepo) GetByNumber(_ context.Context, number string) (*domain.Contract, error) {
	for _, contract := range f.contracts {
		if contract.Number == number {
			copy := *contract
			return &copy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeContractRepo) ListWithFilter(_ context.Context, _ repository.ContractFilter) ([]domain.Contract, error) {
	result := make([]domain.Contract, 0, len(f.contracts))
	for _, contract := range f.contracts {
		result = append(result, *contract)
	}
	return result, nil
}

func (f *fakeContractRepo) ListRenewingBetween(_ context.Context, from, to time.Time) ([]domain.Contract, error) {
	lo := from.Format("2006-01-02")
	hi := to.Format("2006-01-02")
	var result []domain.Contract
	for _, contract := range f.contracts {
		if contract.RenewalDate == "" || contract.Status != domain.ContractStatusActive {
			continue
		}
		if contract.RenewalDate >= lo && contract.RenewalDate <= hi {
			result = append(result, *contract)
		}
	}
	return result, nil
}

type fakeContractTypeRepo struct {
	types map[string]*domain.ContractType
}

func (f *fakeContractTypeRepo) Create(_ context.Context, ct *domain.ContractType) error {
	f.types[ct.ID] = ct
	return nil
}

func (f *fakeContractTypeRepo) Update(_ context.Context, ct *domain.ContractType) error {
	f.types[ct.ID] = ct
	return nil
}

func (f *fakeContractTypeRepo) GetByID(_ context.Context, id string) (*domain.ContractType, error) {
	ct, ok := f.types[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ct, nil
}

func (f *fakeContractTypeRepo) ListActive(_ context.Context) ([]domain.ContractType, error) {
	var result []domain.ContractType
	for _, ct := range f.types {
		if ct.IsActive {
			result = append(result, *ct)
		}
	}
	return result, nil
}

type fakeClientRepo struct {
	clients map[string]*domain.Client
}

func (f *fakeClientRepo) Create(_ context.Context, client *domain.Client) error {
	f.clients[client.ID] = client
	return nil
}

func (f *fakeClientRepo) Update(_ context.Context, client *domain.Client) error {
	f.clients[client.ID] = client
	return nil
}

func (f *fakeClientRepo) GetByID(_ context.Context, id string) (*domain.Client, error) {
	client, ok := f.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return client, nil
}

func (f *fakeClientRepo) ListActive(_ context.Context) ([]domain.Client, error) {
	var result []domain.Client
	for _, client := range f.clients {
		if client.IsActive {
			result = append(result, *client)
		}
	}
	return result, nil
}

type contractFakes struct {
	contracts *fakeContractRepo
	types     *fakeContractTypeRepo
	clients   *fakeClientRepo
}

func newContractFakes() contractFakes {
	contractRepo := newFakeContractRepo()
	typeRepo := &fakeContractTypeRepo{types: map[string]*domain.ContractType{
		"ct-hours":      {ID: "ct-hours", Name: "Suporte Horas", Modality: domain.ModalityHoras, IsActive: true},
		"ct-livre":      {ID: "ct-livre", Name: "Suporte Livre", Modality: domain.ModalityLivre, IsActive: true},
		"ct-ticket":     {ID: "ct-ticket", Name: "Por Atendimento", Modality: domain.ModalityPorAtendimento, IsActive: true},
		"ct-cumulative": {ID: "ct-cumulative", Name: "Horas Cumulativas", Modality: domain.ModalityHorasCumulativas, IsActive: true},
		"ct-saas":       {ID: "ct-saas", Name: "SaaS", Modality: domain.ModalitySaaSProduto, IsActive: true},
	}}
	clientRepo := &fakeClientRepo{clients: map[string]*domain.Client{
		"client-1": {ID: "client-1", Name: "Acme Ltda", IsActive: true},
	}}
	return contractFakes{contracts: contractRepo, types: typeRepo, clients: clientRepo}
}

func newTestContractService(t *testing.T) (*ContractService, *fakeContractRepo) {
	t.Helper()
	fakes := newContractFakes()
	svc := NewContractService(ContractDependencies{
		ContractRepo:     fakes.contracts,
		ContractTypeRepo: fakes.types,
		ClientRepo:       fakes.clients,
	})
	return svc, fakes.contracts
}

func testStaff() *domain.StaffMember {
	return &domain.StaffMember{ID: "staff-1", Name: "Ana", Role: domain.StaffRoleAgent}
}

func baseContractInput(contractTypeID string) ContractInput {
	return ContractInput{ContractFields: domain.ContractFields{
		Name:           "Contrato Acme",
		ClientID:       "client-1",
		ContractTypeID: contractTypeID,
		StartDate:      "2024-01-15",
		ExpirationTerm: "12 meses",
		MonthlyValue:   "1500.00",
		PaymentMethod:  "Pix",
		BillingCycle:   "Mensal",
		ClosingCycle:   "Dia 15",
	}}
}

func fieldErrorDetails(t *testing.T, err error) map[string]any {
	t.Helper()
	if err == nil {
		t.Fatal("expected a validation error")
	}
	domainErr := apperrors.ToDomainError(err)
	if domainErr.Code != "VALIDATION_FAILED" {
		t.Fatalf("code = %s, want VALIDATION_FAILED (err: %v)", domainErr.Code, err)
	}
	return domainErr.Details
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func TestCreateContractHours(t *testing.T) {
	svc, _ := newTestContractService(t)
	input := baseContractInput("ct-hours")
	input.IncludedHours = ptrFloat(40)
	input.ExtraHourValue = "150.00"

	contract, err := svc.CreateContract(context.Background(), testStaff(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contract.Modality != domain.ModalityHoras {
		t.Errorf("modality = %q, want %q", contract.Modality, domain.ModalityHoras)
	}
	if contract.RenewalDate != "2025-01-15" {
		t.Errorf("renewal date = %q, want 2025-01-15", contract.RenewalDate)
	}
	if !strings.HasPrefix(contract.Number, "CTR-") {
		t.Errorf("number = %q, want CTR- prefix", contract.Number)
	}
	if contract.IncludedHours != 40 {
		t.Errorf("included hours = %v, want 40", contract.IncludedHours)
	}
	if got := contract.ExtraHourValue.StringFixed(2); got != "150.00" {
		t.Errorf("extra hour value = %s, want 150.00", got)
	}
}

func TestCreateContractCollectsAllFieldErrors(t *testing.T) {
	svc, _ := newTestContractService(t)

	_, err := svc.CreateContract(context.Background(), testStaff(), ContractInput{})
	details := fieldErrorDetails(t, err)

	for _, key := range []string{"name", "client_id", "contract_type_id"} {
		if _, ok := details[key]; !ok {
			t.Errorf("missing error for %q in %v", key, details)
		}
	}
}

func TestCreateContractHoursRequiresHourFields(t *testing.T) {
	svc, _ := newTestContractService(t)
	input := baseContractInput("ct-hours")

	_, err := svc.CreateContract(context.Background(), testStaff(), input)
	details := fieldErrorDetails(t, err)

	if _, ok := details["included_hours"]; !ok {
		t.Errorf("missing included_hours error in %v", details)
	}
	if _, ok := details["extra_hour_value"]; !ok {
		t.Errorf("missing extra_hour_value error in %v", details)
	}
}

func TestCreateContractUnknownCatalogOptions(t *testing.T) {
	svc, _ := newTestContractService(t)
	input := baseContractInput("ct-livre")
	input.PaymentMethod = "Dinheiro vivo"
	input.BillingCycle = "Quinzenal"

	_, err := svc.CreateContract(context.Background(), testStaff(), input)
	details := fieldErrorDetails(t, err)

	if _, ok := details["payment_method"]; !ok {
		t.Errorf("missing payment_method error in %v", details)
	}
	if _, ok := details["billing_cycle"]; !ok {
		t.Errorf("missing billing_cycle error in %v", details)
	}
}

func TestCreateContractInvalidStartDate(t *testing.T) {
	svc, _ := newTestContractService(t)
	input := baseContractInput("ct-livre")
	input.StartDate = "15/01/2024"

	_, err := svc.CreateContract(context.Background(), testStaff(), input)
	details := fieldErrorDetails(t, err)

	if _, ok := details["start_date"]; !ok {
		t.Errorf("missing start_date error in %v", details)
	}
}

func TestCreateContractClearsStaleModalityFields(t *testing.T) {
	svc, _ := newTestContractService(t)
	input := baseContractInput("ct-ticket")
	input.IncludedTickets = ptrInt(10)
	input.ExtraTicketValue = "90.00"
	// Leftovers from a previously selected modality.
	input.IncludedHours = ptrFloat(40)
	input.ExtraHourValue = "150.00"
	input.ScopeIncluded = "suporte remoto"
	input.VisitLimit = ptrInt(2)

	contract, err := svc.CreateContract(context.Background(), testStaff(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contract.IncludedHours != 0 || !contract.ExtraHourValue.IsZero() {
		t.Error("stale hour fields must not survive submission")
	}
	if contract.ScopeIncluded != "" || contract.VisitLimit != nil {
		t.Error("stale free-scope fields must not survive submission")
	}
	if contract.IncludedTickets == nil || *contract.IncludedTickets != 10 {
		t.Error("active per-ticket fields must survive")
	}
	if got := contract.ExtraTicketValue.StringFixed(2); got != "90.00" {
		t.Errorf("extra ticket value = %s, want 90.00", got)
	}
}

func TestCreateContractRolloverValidation(t *testing.T) {
	svc, _ := newTestContractService(t)
	input := baseContractInput("ct-cumulative")
	input.IncludedHours = ptrFloat(20)
	input.ExtraHourValue = "120.00"
	input.RolloverActive = true

	_, err := svc.CreateContract(context.Background(), testStaff(), input)
	details := fieldErrorDetails(t, err)

	if _, ok := details["rollover_days_window"]; !ok {
		t.Errorf("missing rollover_days_window error in %v", details)
	}
	if _, ok := details["rollover_hours_limit"]; !ok {
		t.Errorf("missing rollover_hours_limit error in %v", details)
	}
}

func TestCreateContractRolloverOffClearsWindow(t *testing.T) {
	svc, _ := newTestContractService(t)
	input := baseContractInput("ct-cumulative")
	input.IncludedHours = ptrFloat(20)
	input.ExtraHourValue = "120.00"
	input.RolloverActive = false
	input.RolloverDaysWindow = ptrInt(60)
	input.RolloverHoursLimit = ptrInt(10)

	contract, err := svc.CreateContract(context.Background(), testStaff(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contract.RolloverDaysWindow != nil || contract.RolloverHoursLimit != nil {
		t.Error("window fields must be cleared when rollover is off")
	}
}

func TestCreateContractSaaSItems(t *testing.T) {
	svc, _ := newTestContractService(t)
	input := baseContractInput("ct-saas")
	input.Items = []LineItemInput{
		{Name: "Licença", UnitValue: "100.00", Quantity: 3},
		{Name: "Implantação", UnitValue: "2500.00", Quantity: 1},
	}

	contract, err := svc.CreateContract(context.Background(), testStaff(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contract.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(contract.Items))
	}
	if got := contract.Items[0].TotalValue.StringFixed(2); got != "300.00" {
		t.Errorf("first total = %s, want 300.00", got)
	}
	if got := contract.Items[1].TotalValue.StringFixed(2); got != "2500.00" {
		t.Errorf("second total = %s, want 2500.00", got)
	}
}

func TestCreateContractSaaSInvalidItemKeyedByIndex(t *testing.T) {
	svc, _ := newTestContractService(t)
	input := baseContractInput("ct-saas")
	input.Items = []LineItemInput{
		{Name: "Licença", UnitValue: "100.00", Quantity: 3},
		{Name: "", UnitValue: "50.00", Quantity: 1},
	}

	_, err := svc.CreateContract(context.Background(), testStaff(), input)
	details := fieldErrorDetails(t, err)

	if _, ok := details["items.1"]; !ok {
		t.Errorf("missing items.1 error in %v", details)
	}
}

func TestUpdateContractPreservesIdentity(t *testing.T) {
	svc, repo := newTestContractService(t)
	input := baseContractInput("ct-livre")

	created, err := svc.CreateContract(context.Background(), testStaff(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	input.Name = "Contrato Acme revisado"
	updated, err := svc.UpdateContract(context.Background(), testStaff(), created.ID, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ID != created.ID || updated.Number != created.Number {
		t.Error("update must keep the contract's id and number")
	}
	if updated.Name != "Contrato Acme revisado" {
		t.Errorf("name = %q, want updated name", updated.Name)
	}

	stored, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Name != "Contrato Acme revisado" {
		t.Error("update must persist")
	}
}

func TestUpdateContractNotFound(t *testing.T) {
	svc, _ := newTestContractService(t)

	_, err := svc.UpdateContract(context.Background(), testStaff(), "missing", baseContractInput("ct-livre"))
	if err == nil {
		t.Fatal("expected not found error")
	}
	if apperrors.ToDomainError(err).Code != "NOT_FOUND" {
		t.Fatalf("code = %s, want NOT_FOUND", apperrors.ToDomainError(err).Code)
	}
}

func TestSubmitPreparedKeepsFrozenItemTotals(t *testing.T) {
	svc, _ := newTestContractService(t)
	fields := baseContractInput("ct-saas").ContractFields

	// The item was priced in an earlier session; its frozen total does not
	// match unit value times quantity on purpose.
	items := []domain.LineItem{{
		Name:       "Licença legada",
		UnitValue:  decimal.RequireFromString("120.00"),
		Quantity:   2,
		TotalValue: decimal.RequireFromString("200.00"),
	}}

	contract, err := svc.SubmitPrepared(context.Background(), testStaff(), "", fields, items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contract.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(contract.Items))
	}
	if got := contract.Items[0].TotalValue.StringFixed(2); got != "200.00" {
		t.Errorf("total = %s, want the frozen 200.00", got)
	}
}

func TestCreateContractRequiresStaff(t *testing.T) {
	svc, _ := newTestContractService(t)

	_, err := svc.CreateContract(context.Background(), nil, baseContractInput("ct-livre"))
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	if apperrors.ToDomainError(err).Code != "UNAUTHORIZED" {
		t.Fatalf("code = %s, want UNAUTHORIZED", apperrors.ToDomainError(err).Code)
	}
}
