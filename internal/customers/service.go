package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/enums"
	pkgerrors "github.com/felixfletscher/ollo-dev12/pkg/errors"
	"github.com/felixfletscher/ollo-dev12/pkg/mollie"
)

type providerClient interface {
	CreateCustomer(ctx context.Context, params mollie.CustomerCreateParams) (*mollie.Customer, error)
	CreatePayment(ctx context.Context, params mollie.PaymentCreateParams) (*mollie.Payment, error)
}

type paymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
}

// Service defines the customer-facing billing surface.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Customer, error)
	EnsureProviderCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
	FirstPayment(ctx context.Context, customerID uuid.UUID, input PaymentInput) (*models.Payment, string, error)
	Recharge(ctx context.Context, customerID uuid.UUID, input PaymentInput) (*models.Payment, error)
	Get(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
}

// ServiceParams groups dependencies for the customer service.
type ServiceParams struct {
	Repo            Repository
	Payments        paymentStore
	Provider        providerClient
	RedirectURL     string
	WebhookURL      string
	DefaultCurrency string
	DefaultLocale   string
}

// RegisterInput captures the data required to register a customer.
type RegisterInput struct {
	Name   string
	Email  string
	Phone  string
	Locale string
}

// PaymentInput captures the data for a direct customer payment.
type PaymentInput struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
}

type service struct {
	repo        Repository
	payments    paymentStore
	provider    providerClient
	redirectURL string
	webhookURL  string
	currency    string
	locale      string
}

// NewService builds a customer service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("customer repo required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment store required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("provider client required")
	}
	currency := strings.TrimSpace(params.DefaultCurrency)
	if currency == "" {
		currency = string(enums.CurrencyEUR)
	}
	locale := strings.TrimSpace(params.DefaultLocale)
	if locale == "" {
		locale = "en_US"
	}
	return &service{
		repo:        params.Repo,
		payments:    params.Payments,
		provider:    params.Provider,
		redirectURL: strings.TrimSpace(params.RedirectURL),
		webhookURL:  strings.TrimSpace(params.WebhookURL),
		currency:    currency,
		locale:      locale,
	}, nil
}

// Register stores the customer locally and mirrors it at the provider.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	locale := strings.TrimSpace(input.Locale)
	if locale == "" {
		locale = s.locale
	}

	customer := &models.Customer{
		Name:   name,
		Email:  email,
		Locale: locale,
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		customer.Phone = &phone
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return s.mirrorAtProvider(ctx, customer)
}

// EnsureProviderCustomer mirrors the customer at the provider if that has
// not happened yet. Replays are no-ops.
func (s *service) EnsureProviderCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	customer, err := s.requireCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.MollieCustomerID != nil {
		return customer, nil
	}
	return s.mirrorAtProvider(ctx, customer)
}

// FirstPayment books a mandate-establishing payment and returns the hosted
// checkout URL the customer must complete.
func (s *service) FirstPayment(ctx context.Context, customerID uuid.UUID, input PaymentInput) (*models.Payment, string, error) {
	if err := validatePaymentInput(input); err != nil {
		return nil, "", err
	}
	customer, err := s.EnsureProviderCustomer(ctx, customerID)
	if err != nil {
		return nil, "", err
	}

	created, err := s.provider.CreatePayment(ctx, mollie.PaymentCreateParams{
		Amount:       input.Amount,
		Currency:     s.paymentCurrency(input),
		Description:  input.Description,
		CustomerID:   *customer.MollieCustomerID,
		SequenceType: string(enums.SequenceTypeFirst),
		RedirectURL:  s.redirectURL,
		WebhookURL:   s.webhookURL,
	})
	if err != nil {
		return nil, "", err
	}

	payment, err := s.storePayment(ctx, created, enums.SequenceTypeFirst)
	if err != nil {
		return nil, "", err
	}
	return payment, created.Links.CheckoutURL(), nil
}

// Recharge charges the customer's established mandate without interaction.
func (s *service) Recharge(ctx context.Context, customerID uuid.UUID, input PaymentInput) (*models.Payment, error) {
	if err := validatePaymentInput(input); err != nil {
		return nil, err
	}
	customer, err := s.requireCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.MollieCustomerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "customer is not registered with the provider")
	}
	if customer.MollieMandateID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "customer has no payment mandate")
	}

	created, err := s.provider.CreatePayment(ctx, mollie.PaymentCreateParams{
		Amount:       input.Amount,
		Currency:     s.paymentCurrency(input),
		Description:  input.Description,
		CustomerID:   *customer.MollieCustomerID,
		SequenceType: string(enums.SequenceTypeRecurring),
		WebhookURL:   s.webhookURL,
	})
	if err != nil {
		return nil, err
	}
	return s.storePayment(ctx, created, enums.SequenceTypeRecurring)
}

func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	return s.requireCustomer(ctx, customerID)
}

func (s *service) requireCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return customer, nil
}

func (s *service) mirrorAtProvider(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	created, err := s.provider.CreateCustomer(ctx, mollie.CustomerCreateParams{
		Name:   customer.Name,
		Email:  customer.Email,
		Locale: customer.Locale,
	})
	if err != nil {
		return nil, err
	}
	customer.MollieCustomerID = &created.ID
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *service) storePayment(ctx context.Context, created *mollie.Payment, seq enums.SequenceType) (*models.Payment, error) {
	amount, err := created.Amount.Decimal()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provider returned an invalid amount")
	}
	paidAt, err := mollie.ParseTimestamp(created.PaidAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provider returned an invalid paidAt")
	}
	status, err := enums.ParsePaymentStatus(created.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provider returned an unknown payment status")
	}

	payment := &models.Payment{
		MolliePaymentID: created.ID,
		Amount:          amount,
		Currency:        enums.Currency(created.Amount.Currency),
		Status:          status,
		SequenceType:    seq,
		Method:          created.Method,
		PaidAt:          paidAt,
	}
	if created.Description != "" {
		payment.Description = &created.Description
	}
	if err := s.payments.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) paymentCurrency(input PaymentInput) string {
	if currency := strings.TrimSpace(input.Currency); currency != "" {
		return currency
	}
	return s.currency
}

func validatePaymentInput(input PaymentInput) error {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if strings.TrimSpace(input.Description) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	return nil
}
