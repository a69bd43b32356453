package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
)

type refreshLister interface {
	ListSubscriptionsForRefresh(ctx context.Context, limit int) ([]models.Subscription, error)
}

type subscriptionRefresher interface {
	Refresh(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error)
	SyncPayments(ctx context.Context, subscriptionID uuid.UUID) (int, error)
}

// SubscriptionRefreshJobParams configures the provider-state refresh sweep.
type SubscriptionRefreshJobParams struct {
	Logger        *logger.Logger
	Billing       refreshLister
	Subscriptions subscriptionRefresher
	BatchSize     int
}

type subscriptionRefreshJob struct {
	logg          *logger.Logger
	billing       refreshLister
	subscriptions subscriptionRefresher
	batchSize     int
}

// NewSubscriptionRefreshJob mirrors the provider's subscription state onto
// local rows for every non-terminal subscription.
func NewSubscriptionRefreshJob(params SubscriptionRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Billing == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	return &subscriptionRefreshJob{
		logg:          params.Logger,
		billing:       params.Billing,
		subscriptions: params.Subscriptions,
		batchSize:     params.BatchSize,
	}, nil
}

func (j *subscriptionRefreshJob) Name() string { return "subscription-refresh" }

func (j *subscriptionRefreshJob) Run(ctx context.Context) error {
	subs, err := j.billing.ListSubscriptionsForRefresh(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	var errs error
	var refreshed, synced int
	for i := range subs {
		subscription := subs[i]
		sctx := j.logg.WithSubscriptionID(ctx, subscription.ID.String())
		if _, err := j.subscriptions.Refresh(ctx, subscription.ID); err != nil {
			j.logg.Error(sctx, "subscription refresh failed", err)
			errs = multierr.Append(errs, fmt.Errorf("subscription %s: %w", subscription.ID, err))
			continue
		}
		refreshed++
		n, err := j.subscriptions.SyncPayments(ctx, subscription.ID)
		if err != nil {
			j.logg.Error(sctx, "payment sync failed", err)
			errs = multierr.Append(errs, fmt.Errorf("subscription %s payments: %w", subscription.ID, err))
			continue
		}
		synced += n
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"refreshed": refreshed,
		"payments":  synced,
	}), "subscription refresh sweep complete")
	return errs
}
