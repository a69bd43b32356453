package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixfletscher/ollo-dev12/internal/ledger"
	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/enums"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
	"github.com/felixfletscher/ollo-dev12/pkg/mollie"
)

type stubBilling struct {
	subscriptions []models.Subscription
	payments      []models.Payment
}

func (s *stubBilling) ListActiveSubscriptions(ctx context.Context, limit int) ([]models.Subscription, error) {
	return s.subscriptions, nil
}

func (s *stubBilling) ListPaymentsBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Payment, error) {
	return s.payments, nil
}

type stubInvoices struct {
	order   *models.Order
	unpaid  []models.Invoice
	pending []models.Invoice
	settled []models.Invoice
	updated []models.Invoice
}

func (s *stubInvoices) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.order, nil
}

func (s *stubInvoices) FindUnpaidInvoicesByOrigin(ctx context.Context, customerID uuid.UUID, origin string) ([]models.Invoice, error) {
	return s.unpaid, nil
}

func (s *stubInvoices) ListInvoicesWithMollieState(ctx context.Context, state enums.PaymentStatus, limit int) ([]models.Invoice, error) {
	return s.pending, nil
}

func (s *stubInvoices) ListInvoicesWithProviderPayment(ctx context.Context, limit int) ([]models.Invoice, error) {
	return s.settled, nil
}

func (s *stubInvoices) UpdateInvoice(ctx context.Context, invoice *models.Invoice) error {
	s.updated = append(s.updated, *invoice)
	return nil
}

type stubLedger struct {
	recorded map[string]bool
	entries  []models.AccountingPayment
	creates  int
}

func newStubLedger() *stubLedger {
	return &stubLedger{recorded: map[string]bool{}}
}

func (s *stubLedger) RecordPayment(ctx context.Context, input ledger.RecordPaymentInput) (*models.AccountingPayment, bool, error) {
	key := input.InvoiceID.String() + "/" + input.MollieTransaction
	if s.recorded[key] {
		return &models.AccountingPayment{}, false, nil
	}
	s.recorded[key] = true
	s.creates++
	return &models.AccountingPayment{
		InvoiceID:         input.InvoiceID,
		MollieTransaction: input.MollieTransaction,
	}, true, nil
}

func (s *stubLedger) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.AccountingPayment, error) {
	return s.entries, nil
}

type stubSyncer struct {
	calls int
}

func (s *stubSyncer) SyncPayments(ctx context.Context, subscriptionID uuid.UUID) (int, error) {
	s.calls++
	return 0, nil
}

type stubFetcher struct {
	payment *mollie.Payment
	refunds map[string]*mollie.RefundList
}

func (s *stubFetcher) GetPayment(ctx context.Context, paymentID string) (*mollie.Payment, error) {
	return s.payment, nil
}

func (s *stubFetcher) ListPaymentRefunds(ctx context.Context, paymentID string) (*mollie.RefundList, error) {
	if list, ok := s.refunds[paymentID]; ok {
		return list, nil
	}
	return &mollie.RefundList{}, nil
}

func newTestService(t *testing.T, billing *stubBilling, invoices *stubInvoices, led *stubLedger, fetcher *stubFetcher) (Service, *stubSyncer) {
	t.Helper()
	syncer := &stubSyncer{}
	if fetcher == nil {
		fetcher = &stubFetcher{payment: &mollie.Payment{Status: "paid"}}
	}
	svc, err := NewService(ServiceParams{
		Billing:       billing,
		Invoices:      invoices,
		Ledger:        led,
		Subscriptions: syncer,
		Provider:      fetcher,
		Logg:          logger.New(logger.Options{}),
	})
	require.NoError(t, err)
	return svc, syncer
}

func activeSubscription(orderID uuid.UUID) models.Subscription {
	providerID := "sub_rVKGtNd6s3"
	return models.Subscription{
		ID:                   uuid.New(),
		CustomerID:           uuid.New(),
		OrderID:              &orderID,
		MollieSubscriptionID: &providerID,
		Status:               enums.SubscriptionStatusActive,
	}
}

func paidPayment(subscriptionID uuid.UUID, providerID string, paidAt time.Time) models.Payment {
	return models.Payment{
		ID:              uuid.New(),
		SubscriptionID:  &subscriptionID,
		MolliePaymentID: providerID,
		Amount:          decimal.RequireFromString("24.90"),
		Currency:        enums.CurrencyEUR,
		Status:          enums.PaymentStatusPaid,
		PaidAt:          &paidAt,
	}
}

func unpaidInvoice(total string) models.Invoice {
	amount := decimal.RequireFromString(total)
	origin := "SO00042"
	return models.Invoice{
		ID:             uuid.New(),
		CustomerID:     uuid.New(),
		Number:         "INV/2026/0042",
		Origin:         &origin,
		AmountTotal:    amount,
		AmountResidual: amount,
		Currency:       enums.CurrencyEUR,
		PaymentState:   enums.InvoicePaymentStateNotPaid,
	}
}

func TestReconcilePostsWithinMonthWindow(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	order := &models.Order{ID: uuid.New(), Number: "SO00042"}
	subscription := activeSubscription(order.ID)

	billing := &stubBilling{payments: []models.Payment{
		paidPayment(subscription.ID, "tr_in_window", time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)),
		paidPayment(subscription.ID, "tr_last_month", time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)),
	}}
	invoices := &stubInvoices{order: order, unpaid: []models.Invoice{unpaidInvoice("24.90")}}
	led := newStubLedger()
	svc, syncer := newTestService(t, billing, invoices, led, nil)

	posted, err := svc.ReconcileSubscription(context.Background(), &subscription, now)
	require.NoError(t, err)

	assert.Equal(t, 1, posted)
	assert.Equal(t, 1, syncer.calls)
	assert.Equal(t, 1, led.creates)
	require.Len(t, invoices.updated, 1)
	assert.Equal(t, enums.InvoicePaymentStatePaid, invoices.updated[0].PaymentState)
	assert.True(t, invoices.updated[0].AmountResidual.IsZero())
}

func TestReconcileIsIdempotent(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	order := &models.Order{ID: uuid.New(), Number: "SO00042"}
	subscription := activeSubscription(order.ID)

	billing := &stubBilling{payments: []models.Payment{
		paidPayment(subscription.ID, "tr_in_window", time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)),
	}}
	invoices := &stubInvoices{order: order, unpaid: []models.Invoice{unpaidInvoice("24.90")}}
	led := newStubLedger()
	svc, _ := newTestService(t, billing, invoices, led, nil)

	posted, err := svc.ReconcileSubscription(context.Background(), &subscription, now)
	require.NoError(t, err)
	assert.Equal(t, 1, posted)

	posted, err = svc.ReconcileSubscription(context.Background(), &subscription, now)
	require.NoError(t, err)
	assert.Zero(t, posted)
	assert.Equal(t, 1, led.creates)
}

func TestReconcilePartialSettlement(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	order := &models.Order{ID: uuid.New(), Number: "SO00042"}
	subscription := activeSubscription(order.ID)

	billing := &stubBilling{payments: []models.Payment{
		paidPayment(subscription.ID, "tr_in_window", time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)),
	}}
	invoices := &stubInvoices{order: order, unpaid: []models.Invoice{unpaidInvoice("50.00")}}
	led := newStubLedger()
	svc, _ := newTestService(t, billing, invoices, led, nil)

	_, err := svc.ReconcileSubscription(context.Background(), &subscription, now)
	require.NoError(t, err)

	require.Len(t, invoices.updated, 1)
	assert.Equal(t, enums.InvoicePaymentStatePartial, invoices.updated[0].PaymentState)
	assert.Equal(t, "25.1", invoices.updated[0].AmountResidual.String())
}

func TestReconcileSkipsZeroAmount(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	order := &models.Order{ID: uuid.New(), Number: "SO00042"}
	subscription := activeSubscription(order.ID)

	zero := paidPayment(subscription.ID, "tr_zero", time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC))
	zero.Amount = decimal.Zero
	billing := &stubBilling{payments: []models.Payment{zero}}
	invoices := &stubInvoices{order: order, unpaid: []models.Invoice{unpaidInvoice("24.90")}}
	led := newStubLedger()
	svc, _ := newTestService(t, billing, invoices, led, nil)

	posted, err := svc.ReconcileSubscription(context.Background(), &subscription, now)
	require.NoError(t, err)
	assert.Zero(t, posted)
	assert.Zero(t, led.creates)
}

func TestRunContinuesPastFailures(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	order := &models.Order{ID: uuid.New(), Number: "SO00042"}
	good := activeSubscription(order.ID)
	orphan := activeSubscription(order.ID)
	orphan.OrderID = nil

	billing := &stubBilling{
		subscriptions: []models.Subscription{orphan, good},
		payments: []models.Payment{
			paidPayment(good.ID, "tr_in_window", time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)),
		},
	}
	invoices := &stubInvoices{order: order, unpaid: []models.Invoice{unpaidInvoice("24.90")}}
	led := newStubLedger()
	svc, _ := newTestService(t, billing, invoices, led, nil)

	result, err := svc.Run(context.Background(), now)
	require.Error(t, err)
	assert.Equal(t, 2, result.Subscriptions)
	assert.Equal(t, 1, result.Posted)
}

func TestRefreshInvoiceStates(t *testing.T) {
	pending := enums.PaymentStatusPending
	invoice := unpaidInvoice("24.90")
	invoice.MolliePaymentState = &pending

	invoices := &stubInvoices{pending: []models.Invoice{invoice}}
	led := newStubLedger()
	led.entries = []models.AccountingPayment{{
		InvoiceID:         invoice.ID,
		MollieTransaction: "tr_WDqYK6vllg",
	}}
	fetcher := &stubFetcher{payment: &mollie.Payment{ID: "tr_WDqYK6vllg", Status: "paid"}}
	svc, _ := newTestService(t, &stubBilling{}, invoices, led, fetcher)

	updated, err := svc.RefreshInvoiceStates(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	require.Len(t, invoices.updated, 1)
	require.NotNil(t, invoices.updated[0].MolliePaymentState)
	assert.Equal(t, enums.PaymentStatusPaid, *invoices.updated[0].MolliePaymentState)
}

func TestMonthWindow(t *testing.T) {
	from, to := monthWindow(time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-02-01", from.Format("2006-01-02"))
	assert.Equal(t, "2026-02-28", to.Format("2006-01-02"))
}

func TestMirrorRefundStates(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	invoice := unpaidInvoice("24.90")
	paid := enums.PaymentStatusPaid
	invoice.MolliePaymentState = &paid

	invoices := &stubInvoices{settled: []models.Invoice{invoice}}
	led := newStubLedger()
	led.entries = []models.AccountingPayment{{
		InvoiceID:         invoice.ID,
		MollieTransaction: "tr_WDqYK6vllg",
	}}
	fetcher := &stubFetcher{refunds: map[string]*mollie.RefundList{
		"tr_WDqYK6vllg": refundList(
			refundAt("re_old", "refunded", "2026-08-30T10:00:00+00:00"),
			refundAt("re_new", "pending", "2026-09-10T10:00:00+00:00"),
		),
	}}
	svc, _ := newTestService(t, &stubBilling{}, invoices, led, fetcher)

	updated, err := svc.MirrorRefundStates(context.Background(), now, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	require.Len(t, invoices.updated, 1)
	require.NotNil(t, invoices.updated[0].MollieRefundState)
	assert.Equal(t, "pending", *invoices.updated[0].MollieRefundState)
}

func TestMirrorRefundStatesIgnoresOtherMonths(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	invoice := unpaidInvoice("24.90")
	paid := enums.PaymentStatusPaid
	invoice.MolliePaymentState = &paid

	invoices := &stubInvoices{settled: []models.Invoice{invoice}}
	led := newStubLedger()
	led.entries = []models.AccountingPayment{{
		InvoiceID:         invoice.ID,
		MollieTransaction: "tr_WDqYK6vllg",
	}}
	fetcher := &stubFetcher{refunds: map[string]*mollie.RefundList{
		"tr_WDqYK6vllg": refundList(refundAt("re_old", "refunded", "2026-08-30T10:00:00+00:00")),
	}}
	svc, _ := newTestService(t, &stubBilling{}, invoices, led, fetcher)

	updated, err := svc.MirrorRefundStates(context.Background(), now, 0)
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Empty(t, invoices.updated)
}

func TestMirrorRefundStatesSkipsUnchanged(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	invoice := unpaidInvoice("24.90")
	state := "refunded"
	invoice.MollieRefundState = &state

	invoices := &stubInvoices{settled: []models.Invoice{invoice}}
	led := newStubLedger()
	led.entries = []models.AccountingPayment{{
		InvoiceID:         invoice.ID,
		MollieTransaction: "tr_WDqYK6vllg",
	}}
	fetcher := &stubFetcher{refunds: map[string]*mollie.RefundList{
		"tr_WDqYK6vllg": refundList(refundAt("re_1", "refunded", "2026-09-10T10:00:00+00:00")),
	}}
	svc, _ := newTestService(t, &stubBilling{}, invoices, led, fetcher)

	updated, err := svc.MirrorRefundStates(context.Background(), now, 0)
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Empty(t, invoices.updated)
}

func refundAt(id, status, createdAt string) mollie.Refund {
	return mollie.Refund{
		ID:        id,
		Status:    status,
		Amount:    mollie.Amount{Currency: "EUR", Value: "10.00"},
		CreatedAt: createdAt,
	}
}

func refundList(refunds ...mollie.Refund) *mollie.RefundList {
	list := &mollie.RefundList{Count: len(refunds)}
	list.Embedded.Refunds = refunds
	return list
}
