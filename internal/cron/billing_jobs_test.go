package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixfletscher/ollo-dev12/internal/deliveries"
	"github.com/felixfletscher/ollo-dev12/internal/reconcile"
	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
)

type fakeSweeper struct {
	since  time.Time
	result deliveries.SweepResult
	err    error
}

func (f *fakeSweeper) Sweep(ctx context.Context, since time.Time) (deliveries.SweepResult, error) {
	f.since = since
	return f.result, f.err
}

func TestDeliverySubscriptionJob(t *testing.T) {
	sweeper := &fakeSweeper{result: deliveries.SweepResult{Scanned: 3, Activated: 2}}
	job, err := NewDeliverySubscriptionJob(DeliverySubscriptionJobParams{
		Logger:     logger.New(logger.Options{}),
		Deliveries: sweeper,
		Lookback:   24 * time.Hour,
	})
	require.NoError(t, err)

	assert.Equal(t, "delivery-subscription", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.WithinDuration(t, time.Now().UTC().Add(-24*time.Hour), sweeper.since, time.Minute)
}

func TestDeliverySubscriptionJobPropagatesError(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("boom")}
	job, err := NewDeliverySubscriptionJob(DeliverySubscriptionJobParams{
		Logger:     logger.New(logger.Options{}),
		Deliveries: sweeper,
	})
	require.NoError(t, err)
	require.Error(t, job.Run(context.Background()))
}

type fakeRefreshLister struct {
	subs []models.Subscription
}

func (f *fakeRefreshLister) ListSubscriptionsForRefresh(ctx context.Context, limit int) ([]models.Subscription, error) {
	return f.subs, nil
}

type fakeRefresher struct {
	failFor uuid.UUID
	calls   []uuid.UUID
	synced  []uuid.UUID
}

func (f *fakeRefresher) Refresh(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error) {
	f.calls = append(f.calls, subscriptionID)
	if subscriptionID == f.failFor {
		return nil, errors.New("provider unavailable")
	}
	return &models.Subscription{ID: subscriptionID}, nil
}

func (f *fakeRefresher) SyncPayments(ctx context.Context, subscriptionID uuid.UUID) (int, error) {
	f.synced = append(f.synced, subscriptionID)
	return 1, nil
}

func TestSubscriptionRefreshJobContinuesPastFailures(t *testing.T) {
	broken := models.Subscription{ID: uuid.New()}
	healthy := models.Subscription{ID: uuid.New()}
	refresher := &fakeRefresher{failFor: broken.ID}
	job, err := NewSubscriptionRefreshJob(SubscriptionRefreshJobParams{
		Logger:        logger.New(logger.Options{}),
		Billing:       &fakeRefreshLister{subs: []models.Subscription{broken, healthy}},
		Subscriptions: refresher,
	})
	require.NoError(t, err)

	assert.Equal(t, "subscription-refresh", job.Name())
	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, refresher.calls, 2)
	assert.Equal(t, []uuid.UUID{healthy.ID}, refresher.synced)
}

type fakeReconciler struct {
	result   reconcile.Result
	updated  int
	refunds  int
	mirrorAt time.Time
	err      error
}

func (f *fakeReconciler) Run(ctx context.Context, now time.Time) (reconcile.Result, error) {
	return f.result, f.err
}

func (f *fakeReconciler) RefreshInvoiceStates(ctx context.Context, limit int) (int, error) {
	return f.updated, f.err
}

func (f *fakeReconciler) MirrorRefundStates(ctx context.Context, now time.Time, limit int) (int, error) {
	f.mirrorAt = now
	return f.refunds, f.err
}

func TestPaymentReconcileJob(t *testing.T) {
	job, err := NewPaymentReconcileJob(PaymentReconcileJobParams{
		Logger:     logger.New(logger.Options{}),
		Reconciler: &fakeReconciler{result: reconcile.Result{Subscriptions: 5, Posted: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "payment-reconcile", job.Name())
	require.NoError(t, job.Run(context.Background()))
}

func TestInvoiceStateJob(t *testing.T) {
	reconciler := &fakeReconciler{updated: 1, refunds: 1}
	job, err := NewInvoiceStateJob(InvoiceStateJobParams{
		Logger:     logger.New(logger.Options{}),
		Reconciler: reconciler,
	})
	require.NoError(t, err)
	assert.Equal(t, "invoice-state", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.WithinDuration(t, time.Now().UTC(), reconciler.mirrorAt, time.Minute)

	failing, err := NewInvoiceStateJob(InvoiceStateJobParams{
		Logger:     logger.New(logger.Options{}),
		Reconciler: &fakeReconciler{err: errors.New("boom")},
	})
	require.NoError(t, err)
	require.Error(t, failing.Run(context.Background()))
}
