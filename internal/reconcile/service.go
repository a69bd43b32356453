package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/felixfletscher/ollo-dev12/internal/ledger"
	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/enums"
	pkgerrors "github.com/felixfletscher/ollo-dev12/pkg/errors"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
	"github.com/felixfletscher/ollo-dev12/pkg/mollie"
)

const defaultSweepLimit = 250

type billingStore interface {
	ListActiveSubscriptions(ctx context.Context, limit int) ([]models.Subscription, error)
	ListPaymentsBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Payment, error)
}

type invoiceStore interface {
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindUnpaidInvoicesByOrigin(ctx context.Context, customerID uuid.UUID, origin string) ([]models.Invoice, error)
	ListInvoicesWithMollieState(ctx context.Context, state enums.PaymentStatus, limit int) ([]models.Invoice, error)
	ListInvoicesWithProviderPayment(ctx context.Context, limit int) ([]models.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice *models.Invoice) error
}

type ledgerService interface {
	RecordPayment(ctx context.Context, input ledger.RecordPaymentInput) (*models.AccountingPayment, bool, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.AccountingPayment, error)
}

type paymentSyncer interface {
	SyncPayments(ctx context.Context, subscriptionID uuid.UUID) (int, error)
}

type paymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*mollie.Payment, error)
	ListPaymentRefunds(ctx context.Context, paymentID string) (*mollie.RefundList, error)
}

// Service matches settled subscription payments to unpaid invoices inside
// the calendar month the sweep runs in and posts an accounting payment
// exactly once per provider transaction per invoice.
type Service interface {
	Run(ctx context.Context, now time.Time) (Result, error)
	ReconcileSubscription(ctx context.Context, subscription *models.Subscription, now time.Time) (int, error)
	RefreshInvoiceStates(ctx context.Context, limit int) (int, error)
	MirrorRefundStates(ctx context.Context, now time.Time, limit int) (int, error)
}

// ServiceParams groups dependencies for the reconciler.
type ServiceParams struct {
	Billing       billingStore
	Invoices      invoiceStore
	Ledger        ledgerService
	Subscriptions paymentSyncer
	Provider      paymentFetcher
	Logg          *logger.Logger
	SweepLimit    int
}

// Result reports the outcome of a reconciliation sweep.
type Result struct {
	Subscriptions int
	Posted        int
}

type service struct {
	billing       billingStore
	invoices      invoiceStore
	ledger        ledgerService
	subscriptions paymentSyncer
	provider      paymentFetcher
	logg          *logger.Logger
	sweepLimit    int
}

// NewService builds a reconciler with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Billing == nil {
		return nil, fmt.Errorf("billing store required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoice store required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("payment syncer required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("provider client required")
	}
	if params.Logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	limit := params.SweepLimit
	if limit <= 0 {
		limit = defaultSweepLimit
	}
	return &service{
		billing:       params.Billing,
		invoices:      params.Invoices,
		ledger:        params.Ledger,
		subscriptions: params.Subscriptions,
		provider:      params.Provider,
		logg:          params.Logg,
		sweepLimit:    limit,
	}, nil
}

// Run sweeps all active subscriptions. A failure on one subscription does
// not abort the rest.
func (s *service) Run(ctx context.Context, now time.Time) (Result, error) {
	subs, err := s.billing.ListActiveSubscriptions(ctx, s.sweepLimit)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list active subscriptions")
	}

	result := Result{Subscriptions: len(subs)}
	var errs error
	for i := range subs {
		subscription := subs[i]
		posted, err := s.ReconcileSubscription(ctx, &subscription, now)
		if err != nil {
			sctx := s.logg.WithSubscriptionID(ctx, subscription.ID.String())
			s.logg.Error(sctx, "subscription reconciliation failed", err)
			errs = multierr.Append(errs, fmt.Errorf("subscription %s: %w", subscription.ID, err))
			continue
		}
		result.Posted += posted
	}
	return result, errs
}

// ReconcileSubscription pulls the provider payment history for one
// subscription and posts settled payments from the current month window
// against the order's unpaid invoices. Returns the number of accounting
// payments newly posted.
func (s *service) ReconcileSubscription(ctx context.Context, subscription *models.Subscription, now time.Time) (int, error) {
	if subscription == nil {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "subscription is nil")
	}
	if subscription.OrderID == nil {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription has no order")
	}

	if _, err := s.subscriptions.SyncPayments(ctx, subscription.ID); err != nil {
		return 0, err
	}

	order, err := s.invoices.FindOrderByID(ctx, *subscription.OrderID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	if order == nil {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for subscription")
	}

	payments, err := s.billing.ListPaymentsBySubscription(ctx, subscription.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list payments")
	}

	from, to := monthWindow(now)
	var posted int
	var errs error
	for i := range payments {
		payment := payments[i]
		if payment.PaidAt == nil || payment.PaidAt.Before(from) || payment.PaidAt.After(to) {
			continue
		}
		if !payment.Amount.IsPositive() {
			continue
		}
		n, err := s.applyPayment(ctx, subscription.CustomerID, order.Number, &payment)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("payment %s: %w", payment.MolliePaymentID, err))
			continue
		}
		posted += n
	}
	return posted, errs
}

// applyPayment posts one settled payment against the order's unpaid
// invoices. The ledger dedups on (invoice, transaction), so replaying a
// sweep inside the same month is a no-op.
func (s *service) applyPayment(ctx context.Context, customerID uuid.UUID, origin string, payment *models.Payment) (int, error) {
	invoices, err := s.invoices.FindUnpaidInvoicesByOrigin(ctx, customerID, origin)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load unpaid invoices")
	}

	var posted int
	for i := range invoices {
		invoice := invoices[i]
		_, created, err := s.ledger.RecordPayment(ctx, ledger.RecordPaymentInput{
			InvoiceID:         invoice.ID,
			CustomerID:        customerID,
			MollieTransaction: payment.MolliePaymentID,
			Amount:            payment.Amount,
			Currency:          payment.Currency,
			PaidAt:            payment.PaidAt,
		})
		if err != nil {
			return posted, err
		}
		if !created {
			continue
		}
		if err := s.settleInvoice(ctx, &invoice, payment); err != nil {
			return posted, err
		}
		posted++
	}
	return posted, nil
}

func (s *service) settleInvoice(ctx context.Context, invoice *models.Invoice, payment *models.Payment) error {
	residual := invoice.AmountResidual.Sub(payment.Amount)
	if residual.IsNegative() {
		residual = decimal.Zero
	}
	invoice.AmountResidual = residual
	if residual.IsZero() {
		invoice.PaymentState = enums.InvoicePaymentStatePaid
	} else {
		invoice.PaymentState = enums.InvoicePaymentStatePartial
	}
	state := payment.Status
	invoice.MolliePaymentState = &state
	if err := s.invoices.UpdateInvoice(ctx, invoice); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update invoice")
	}
	return nil
}

// RefreshInvoiceStates re-checks invoices whose provider payment state is
// still pending and mirrors the provider's current status onto them.
func (s *service) RefreshInvoiceStates(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = s.sweepLimit
	}
	invoices, err := s.invoices.ListInvoicesWithMollieState(ctx, enums.PaymentStatusPending, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list pending invoices")
	}

	var updated int
	var errs error
	for i := range invoices {
		invoice := invoices[i]
		changed, err := s.refreshInvoice(ctx, &invoice)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invoice %s: %w", invoice.Number, err))
			continue
		}
		if changed {
			updated++
		}
	}
	return updated, errs
}

func (s *service) refreshInvoice(ctx context.Context, invoice *models.Invoice) (bool, error) {
	entries, err := s.ledger.ListByInvoice(ctx, invoice.ID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list accounting payments")
	}
	if len(entries) == 0 {
		return false, nil
	}

	// The latest transaction carries the state the invoice mirrors.
	transaction := entries[len(entries)-1].MollieTransaction
	remote, err := s.provider.GetPayment(ctx, transaction)
	if err != nil {
		return false, err
	}
	status, err := enums.ParsePaymentStatus(remote.Status)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider payment status")
	}
	if invoice.MolliePaymentState != nil && *invoice.MolliePaymentState == status {
		return false, nil
	}
	invoice.MolliePaymentState = &status
	if err := s.invoices.UpdateInvoice(ctx, invoice); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update invoice")
	}
	return true, nil
}

// MirrorRefundStates copies the provider's refund status onto invoices
// that already mirror a provider payment. Refunds created outside the
// current month window are ignored; the latest one inside it wins.
func (s *service) MirrorRefundStates(ctx context.Context, now time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = s.sweepLimit
	}
	invoices, err := s.invoices.ListInvoicesWithProviderPayment(ctx, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list invoices")
	}

	var updated int
	var errs error
	for i := range invoices {
		invoice := invoices[i]
		changed, err := s.mirrorInvoiceRefunds(ctx, &invoice, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invoice %s: %w", invoice.Number, err))
			continue
		}
		if changed {
			updated++
		}
	}
	return updated, errs
}

func (s *service) mirrorInvoiceRefunds(ctx context.Context, invoice *models.Invoice, now time.Time) (bool, error) {
	entries, err := s.ledger.ListByInvoice(ctx, invoice.ID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list accounting payments")
	}
	if len(entries) == 0 {
		return false, nil
	}

	from, to := monthWindow(now)
	var state string
	for _, entry := range entries {
		list, err := s.provider.ListPaymentRefunds(ctx, entry.MollieTransaction)
		if err != nil {
			return false, err
		}
		for _, refund := range list.Embedded.Refunds {
			createdAt, err := mollie.ParseTimestamp(refund.CreatedAt)
			if err != nil {
				return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider refund createdAt")
			}
			if createdAt == nil || createdAt.Before(from) || createdAt.After(to) {
				continue
			}
			state = refund.Status
		}
	}
	if state == "" {
		return false, nil
	}
	if invoice.MollieRefundState != nil && *invoice.MollieRefundState == state {
		return false, nil
	}
	invoice.MollieRefundState = &state
	if err := s.invoices.UpdateInvoice(ctx, invoice); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update invoice")
	}
	return true, nil
}

// monthWindow is the calendar month containing now, in UTC.
func monthWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return from, to
}
