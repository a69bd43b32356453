package subscriptions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/enums"
	pkgerrors "github.com/felixfletscher/ollo-dev12/pkg/errors"
	"github.com/felixfletscher/ollo-dev12/pkg/mollie"
)

// providerGateway is the slice of the Mollie client the subscription
// lifecycle needs.
type providerGateway interface {
	CreateSubscription(ctx context.Context, customerID string, params mollie.SubscriptionCreateParams) (*mollie.Subscription, error)
	GetSubscription(ctx context.Context, customerID, subscriptionID string) (*mollie.Subscription, error)
	UpdateSubscription(ctx context.Context, customerID, subscriptionID string, params mollie.SubscriptionUpdateParams) (*mollie.Subscription, error)
	CancelSubscription(ctx context.Context, customerID, subscriptionID string) (*mollie.Subscription, error)
	ListSubscriptionPayments(ctx context.Context, customerID, subscriptionID string) (*mollie.PaymentList, error)
}

type customerDirectory interface {
	EnsureProviderCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
	Get(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
}

type intervalResolver interface {
	Resolve(ctx context.Context, name string) (*models.BillingInterval, error)
}

type intervalStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.BillingInterval, error)
}

type subscriptionStore interface {
	CreateSubscription(ctx context.Context, subscription *models.Subscription) error
	UpdateSubscription(ctx context.Context, subscription *models.Subscription) error
	FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	ListSubscriptionsByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Subscription, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	FindPayment(ctx context.Context, subscriptionID uuid.UUID, molliePaymentID string) (*models.Payment, error)
}

// Service manages the subscription lifecycle against the payment provider.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Subscription, error)
	Activate(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error)
	Refresh(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error)
	Update(ctx context.Context, subscriptionID uuid.UUID, input UpdateInput) (*models.Subscription, error)
	Cancel(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error)
	SyncPayments(ctx context.Context, subscriptionID uuid.UUID) (int, error)
	Get(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Subscription, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo       subscriptionStore
	Customers  customerDirectory
	Intervals  intervalResolver
	IntervalDB intervalStore
	Provider   providerGateway
	WebhookURL string
}

// CreateInput captures the data for a local subscription record. The
// provider is not contacted until Activate.
type CreateInput struct {
	CustomerID   uuid.UUID
	OrderID      *uuid.UUID
	IntervalName string
	Amount       decimal.Decimal
	Currency     string
	Description  string
	StartDate    *time.Time
	Times        *int
}

// UpdateInput carries the only fields the provider accepts on update.
type UpdateInput struct {
	Amount      decimal.Decimal
	Description string
}

type service struct {
	repo       subscriptionStore
	customers  customerDirectory
	intervals  intervalResolver
	intervalDB intervalStore
	provider   providerGateway
	webhookURL string
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repo required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer directory required")
	}
	if params.Intervals == nil {
		return nil, fmt.Errorf("interval resolver required")
	}
	if params.IntervalDB == nil {
		return nil, fmt.Errorf("interval store required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("provider gateway required")
	}
	return &service{
		repo:       params.Repo,
		customers:  params.Customers,
		intervals:  params.Intervals,
		intervalDB: params.IntervalDB,
		provider:   params.Provider,
		webhookURL: strings.TrimSpace(params.WebhookURL),
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Subscription, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	currency, err := enums.ParseCurrency(input.Currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	if input.Times != nil && *input.Times <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "times must be positive when set")
	}
	if _, err := s.customers.Get(ctx, input.CustomerID); err != nil {
		return nil, err
	}
	interval, err := s.intervals.Resolve(ctx, input.IntervalName)
	if err != nil {
		return nil, err
	}

	subscription := &models.Subscription{
		CustomerID:  input.CustomerID,
		OrderID:     input.OrderID,
		IntervalID:  interval.ID,
		Description: description,
		Amount:      input.Amount,
		Currency:    currency,
		Times:       input.Times,
		StartDate:   input.StartDate,
		Status:      enums.SubscriptionStatusPending,
	}
	if err := s.repo.CreateSubscription(ctx, subscription); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create subscription")
	}
	return subscription, nil
}

func (s *service) Activate(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error) {
	subscription, err := s.requireSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription.MollieSubscriptionID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription already registered at provider")
	}
	if subscription.Status == enums.SubscriptionStatusCanceled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription is canceled")
	}

	customer, err := s.customers.EnsureProviderCustomer(ctx, subscription.CustomerID)
	if err != nil {
		return nil, err
	}
	interval, err := s.intervalDB.FindByID(ctx, subscription.IntervalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load billing interval")
	}
	if interval == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing interval missing for subscription")
	}

	params := mollie.SubscriptionCreateParams{
		Amount:      subscription.Amount,
		Currency:    string(subscription.Currency),
		Interval:    interval.Name,
		Description: subscription.Description,
		Times:       subscription.Times,
		WebhookURL:  s.webhookURL,
	}
	if subscription.StartDate != nil {
		params.StartDate = *subscription.StartDate
	}

	remote, err := s.provider.CreateSubscription(ctx, *customer.MollieCustomerID, params)
	if err != nil {
		return nil, err
	}
	if err := ApplyProviderState(subscription, remote); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSubscription(ctx, subscription); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to persist activated subscription")
	}
	return subscription, nil
}

func (s *service) Refresh(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error) {
	subscription, providerCustomerID, err := s.requireRegistered(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	remote, err := s.provider.GetSubscription(ctx, providerCustomerID, *subscription.MollieSubscriptionID)
	if err != nil {
		return nil, err
	}
	if err := ApplyProviderState(subscription, remote); err != nil {
		return nil, err
	}
	if err := s.reresolveInterval(ctx, subscription, remote.Interval); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSubscription(ctx, subscription); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to persist refreshed subscription")
	}
	return subscription, nil
}

func (s *service) Update(ctx context.Context, subscriptionID uuid.UUID, input UpdateInput) (*models.Subscription, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	subscription, providerCustomerID, err := s.requireRegistered(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription.Status == enums.SubscriptionStatusCanceled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription is canceled")
	}

	remote, err := s.provider.UpdateSubscription(ctx, providerCustomerID, *subscription.MollieSubscriptionID, mollie.SubscriptionUpdateParams{
		Amount:      input.Amount,
		Currency:    string(subscription.Currency),
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	subscription.Amount = input.Amount
	subscription.Description = description
	if err := ApplyProviderState(subscription, remote); err != nil {
		return nil, err
	}
	if err := s.reresolveInterval(ctx, subscription, remote.Interval); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSubscription(ctx, subscription); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to persist updated subscription")
	}
	return subscription, nil
}

func (s *service) Cancel(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error) {
	subscription, providerCustomerID, err := s.requireRegistered(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription.Status == enums.SubscriptionStatusCanceled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription already canceled")
	}

	remote, err := s.provider.CancelSubscription(ctx, providerCustomerID, *subscription.MollieSubscriptionID)
	if err != nil {
		return nil, err
	}
	if err := ApplyProviderState(subscription, remote); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSubscription(ctx, subscription); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to persist canceled subscription")
	}
	return subscription, nil
}

// SyncPayments pulls the provider's payment list for a subscription and
// persists settled payments not yet recorded locally. Returns the number of
// newly stored payments.
func (s *service) SyncPayments(ctx context.Context, subscriptionID uuid.UUID) (int, error) {
	subscription, providerCustomerID, err := s.requireRegistered(ctx, subscriptionID)
	if err != nil {
		return 0, err
	}

	list, err := s.provider.ListSubscriptionPayments(ctx, providerCustomerID, *subscription.MollieSubscriptionID)
	if err != nil {
		return 0, err
	}

	var stored int
	var errs error
	for _, remote := range list.Embedded.Payments {
		if remote.PaidAt == "" {
			continue
		}
		existing, err := s.repo.FindPayment(ctx, subscription.ID, remote.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("payment %s: %w", remote.ID, err))
			continue
		}
		if existing != nil {
			continue
		}
		payment, err := BuildPaymentFromProvider(subscription.ID, remote)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("payment %s: %w", remote.ID, err))
			continue
		}
		if err := s.repo.CreatePayment(ctx, payment); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("payment %s: %w", remote.ID, err))
			continue
		}
		stored++
	}
	return stored, errs
}

func (s *service) Get(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error) {
	return s.requireSubscription(ctx, subscriptionID)
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Subscription, error) {
	subscriptions, err := s.repo.ListSubscriptionsByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list subscriptions")
	}
	return subscriptions, nil
}

// reresolveInterval maps the provider's interval string back onto a local
// interval row, creating one on first sight.
func (s *service) reresolveInterval(ctx context.Context, subscription *models.Subscription, name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	interval, err := s.intervals.Resolve(ctx, name)
	if err != nil {
		return err
	}
	subscription.IntervalID = interval.ID
	return nil
}

func (s *service) requireSubscription(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error) {
	subscription, err := s.repo.FindSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load subscription")
	}
	if subscription == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	return subscription, nil
}

// requireRegistered loads a subscription that already exists at the provider
// together with the provider-side customer id.
func (s *service) requireRegistered(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, string, error) {
	subscription, err := s.requireSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, "", err
	}
	if subscription.MollieSubscriptionID == nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeStateConflict, "subscription not registered at provider")
	}
	customer, err := s.customers.Get(ctx, subscription.CustomerID)
	if err != nil {
		return nil, "", err
	}
	if customer.MollieCustomerID == nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeStateConflict, "customer missing provider id")
	}
	return subscription, *customer.MollieCustomerID, nil
}
