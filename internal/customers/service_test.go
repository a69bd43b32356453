package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/enums"
	pkgerrors "github.com/felixfletscher/ollo-dev12/pkg/errors"
	"github.com/felixfletscher/ollo-dev12/pkg/mollie"
)

type stubRepo struct {
	byID map[uuid.UUID]*models.Customer
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[uuid.UUID]*models.Customer{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, customer *models.Customer) error {
	customer.ID = uuid.New()
	s.byID[customer.ID] = customer
	return nil
}

func (s *stubRepo) Update(ctx context.Context, customer *models.Customer) error {
	s.byID[customer.ID] = customer
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return s.byID[id], nil
}

func (s *stubRepo) FindByMollieID(ctx context.Context, mollieCustomerID string) (*models.Customer, error) {
	for _, customer := range s.byID {
		if customer.MollieCustomerID != nil && *customer.MollieCustomerID == mollieCustomerID {
			return customer, nil
		}
	}
	return nil, nil
}

type stubProvider struct {
	customers       int
	payments        []mollie.PaymentCreateParams
	paymentResponse *mollie.Payment
	err             error
}

func (s *stubProvider) CreateCustomer(ctx context.Context, params mollie.CustomerCreateParams) (*mollie.Customer, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.customers++
	return &mollie.Customer{ID: "cst_stTC2WHAuS", Name: params.Name, Email: params.Email}, nil
}

func (s *stubProvider) CreatePayment(ctx context.Context, params mollie.PaymentCreateParams) (*mollie.Payment, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.payments = append(s.payments, params)
	if s.paymentResponse != nil {
		return s.paymentResponse, nil
	}
	return &mollie.Payment{
		ID:           "tr_WDqYK6vllg",
		Status:       "open",
		Amount:       mollie.NewAmount(params.Currency, params.Amount),
		SequenceType: params.SequenceType,
		Links: mollie.Links{
			Checkout: &mollie.Link{Href: "https://www.mollie.com/checkout/select-method/WDqYK6vllg"},
		},
	}, nil
}

type stubPayments struct {
	created []*models.Payment
}

func (s *stubPayments) CreatePayment(ctx context.Context, payment *models.Payment) error {
	s.created = append(s.created, payment)
	return nil
}

func newTestService(t *testing.T) (Service, *stubRepo, *stubProvider, *stubPayments) {
	t.Helper()
	repo := newStubRepo()
	provider := &stubProvider{}
	payments := &stubPayments{}
	svc, err := NewService(ServiceParams{
		Repo:            repo,
		Payments:        payments,
		Provider:        provider,
		RedirectURL:     "https://shop.example/return",
		WebhookURL:      "https://hooks.example/mollie",
		DefaultCurrency: "EUR",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, provider, payments
}

func TestRegisterMirrorsAtProvider(t *testing.T) {
	svc, _, provider, _ := newTestService(t)

	customer, err := svc.Register(context.Background(), RegisterInput{Name: "Jan Jansen", Email: "jan@example.com"})
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	if provider.customers != 1 {
		t.Fatalf("expected one provider call, got %d", provider.customers)
	}
	if customer.MollieCustomerID == nil || *customer.MollieCustomerID != "cst_stTC2WHAuS" {
		t.Fatalf("provider id not stored: %+v", customer)
	}
	if customer.Locale != "en_US" {
		t.Fatalf("expected default locale, got %q", customer.Locale)
	}
}

func TestEnsureProviderCustomerIsIdempotent(t *testing.T) {
	svc, repo, provider, _ := newTestService(t)

	mollieID := "cst_existing"
	customer := &models.Customer{Name: "Existing", Email: "e@example.com", MollieCustomerID: &mollieID}
	if err := repo.Create(context.Background(), customer); err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	got, err := svc.EnsureProviderCustomer(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("ensure error: %v", err)
	}
	if provider.customers != 0 {
		t.Fatalf("existing provider customer must not be recreated")
	}
	if *got.MollieCustomerID != "cst_existing" {
		t.Fatalf("unexpected provider id %q", *got.MollieCustomerID)
	}
}

func TestFirstPaymentReturnsCheckoutURL(t *testing.T) {
	svc, repo, provider, payments := newTestService(t)

	customer := &models.Customer{Name: "Jan", Email: "jan@example.com", Locale: "en_US"}
	if err := repo.Create(context.Background(), customer); err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	payment, checkout, err := svc.FirstPayment(context.Background(), customer.ID, PaymentInput{
		Amount:      decimal.RequireFromString("0.01"),
		Description: "Mandate setup",
	})
	if err != nil {
		t.Fatalf("first payment error: %v", err)
	}
	if checkout == "" {
		t.Fatalf("expected checkout url")
	}
	if len(provider.payments) != 1 {
		t.Fatalf("expected one provider payment call")
	}
	sent := provider.payments[0]
	if sent.SequenceType != "first" {
		t.Fatalf("expected first sequence type, got %q", sent.SequenceType)
	}
	if sent.RedirectURL != "https://shop.example/return" {
		t.Fatalf("redirect url missing")
	}
	if len(payments.created) != 1 || payments.created[0] != payment {
		t.Fatalf("payment row not persisted")
	}
	if payment.SubscriptionID != nil {
		t.Fatalf("first payment must not belong to a subscription")
	}
	if payment.SequenceType != enums.SequenceTypeFirst {
		t.Fatalf("unexpected sequence type %q", payment.SequenceType)
	}
}

func TestRechargeRequiresMandate(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	mollieID := "cst_existing"
	customer := &models.Customer{Name: "Jan", Email: "jan@example.com", MollieCustomerID: &mollieID}
	if err := repo.Create(context.Background(), customer); err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	_, err := svc.Recharge(context.Background(), customer.ID, PaymentInput{
		Amount:      decimal.RequireFromString("25.00"),
		Description: "Monthly top-up",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict without mandate, got %v", err)
	}
}

func TestRechargeUsesRecurringSequence(t *testing.T) {
	svc, repo, provider, _ := newTestService(t)

	mollieID := "cst_existing"
	mandateID := "mdt_h3gAaD5zP"
	customer := &models.Customer{
		Name:             "Jan",
		Email:            "jan@example.com",
		MollieCustomerID: &mollieID,
		MollieMandateID:  &mandateID,
	}
	if err := repo.Create(context.Background(), customer); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	provider.paymentResponse = &mollie.Payment{
		ID:           "tr_recharge",
		Status:       "paid",
		Amount:       mollie.Amount{Currency: "EUR", Value: "25.00"},
		SequenceType: "recurring",
		PaidAt:       "2025-08-20T11:00:00+00:00",
	}

	payment, err := svc.Recharge(context.Background(), customer.ID, PaymentInput{
		Amount:      decimal.RequireFromString("25.00"),
		Description: "Monthly top-up",
	})
	if err != nil {
		t.Fatalf("recharge error: %v", err)
	}
	if provider.payments[0].SequenceType != "recurring" {
		t.Fatalf("expected recurring sequence type")
	}
	if payment.Status != enums.PaymentStatusPaid {
		t.Fatalf("unexpected status %q", payment.Status)
	}
	if payment.PaidAt == nil {
		t.Fatalf("expected paidAt to be parsed")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "x@example.com"}); err == nil {
		t.Fatalf("expected error for missing name")
	}
	if _, err := svc.Register(context.Background(), RegisterInput{Name: "X"}); err == nil {
		t.Fatalf("expected error for missing email")
	}
}
