package deliveries

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/felixfletscher/ollo-dev12/internal/subscriptions"
	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/enums"
	pkgerrors "github.com/felixfletscher/ollo-dev12/pkg/errors"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
)

const defaultSweepLimit = 100

type deliveryStore interface {
	ListCompletedSubscriptionDeliveries(ctx context.Context, since time.Time, limit int) ([]models.Delivery, error)
	UpdateDelivery(ctx context.Context, delivery *models.Delivery) error
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
}

type intervalStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.BillingInterval, error)
}

type subscriptionService interface {
	Create(ctx context.Context, input subscriptions.CreateInput) (*models.Subscription, error)
	Activate(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error)
}

// Service turns completed subscription deliveries into active provider
// subscriptions. A delivery is only marked processed once the provider
// reports the subscription active, so partial failures are retried on the
// next sweep.
type Service interface {
	Sweep(ctx context.Context, since time.Time) (SweepResult, error)
	Process(ctx context.Context, delivery *models.Delivery) error
}

// ServiceParams groups dependencies for the delivery trigger.
type ServiceParams struct {
	Repo          deliveryStore
	Intervals     intervalStore
	Subscriptions subscriptionService
	Logg          *logger.Logger
	BufferDays    int
	SweepLimit    int
}

// SweepResult reports the outcome of a trigger sweep.
type SweepResult struct {
	Scanned   int
	Activated int
}

type service struct {
	repo          deliveryStore
	intervals     intervalStore
	subscriptions subscriptionService
	logg          *logger.Logger
	bufferDays    int
	sweepLimit    int
}

// NewService builds the delivery trigger with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("delivery store required")
	}
	if params.Intervals == nil {
		return nil, fmt.Errorf("interval store required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	if params.Logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	limit := params.SweepLimit
	if limit <= 0 {
		limit = defaultSweepLimit
	}
	return &service{
		repo:          params.Repo,
		intervals:     params.Intervals,
		subscriptions: params.Subscriptions,
		logg:          params.Logg,
		bufferDays:    params.BufferDays,
		sweepLimit:    limit,
	}, nil
}

func (s *service) Sweep(ctx context.Context, since time.Time) (SweepResult, error) {
	deliveries, err := s.repo.ListCompletedSubscriptionDeliveries(ctx, since, s.sweepLimit)
	if err != nil {
		return SweepResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list deliveries")
	}

	result := SweepResult{Scanned: len(deliveries)}
	var errs error
	for i := range deliveries {
		delivery := deliveries[i]
		if err := s.Process(ctx, &delivery); err != nil {
			dctx := s.logg.WithField(ctx, "delivery_id", delivery.ID.String())
			s.logg.Error(dctx, "delivery subscription trigger failed", err)
			errs = multierr.Append(errs, fmt.Errorf("delivery %s: %w", delivery.Name, err))
			continue
		}
		result.Activated++
	}
	return result, errs
}

// Process creates and activates the subscription for one completed
// delivery. The first charge lands one month after the delivery, pushed
// out by the configured buffer days, and the order's next invoice date
// advances to match.
func (s *service) Process(ctx context.Context, delivery *models.Delivery) error {
	if delivery == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "delivery is nil")
	}
	if !delivery.IsSubscriptionDelivery || delivery.State != enums.DeliveryStateDone {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery is not a completed subscription delivery")
	}
	if delivery.SubscriptionCreated {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery already processed")
	}

	order, err := s.repo.FindOrderByID(ctx, delivery.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found for delivery")
	}
	if order.BillingIntervalID == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no billing interval")
	}
	interval, err := s.intervals.FindByID(ctx, *order.BillingIntervalID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load billing interval")
	}
	if interval == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "billing interval not found for order")
	}

	startDate := s.firstChargeDate(time.Now().UTC())
	subscription, err := s.subscriptions.Create(ctx, subscriptions.CreateInput{
		CustomerID:   delivery.CustomerID,
		OrderID:      &order.ID,
		IntervalName: interval.Name,
		Amount:       order.AmountTotal,
		Currency:     string(order.Currency),
		Description:  fmt.Sprintf("Subscription for order %s", order.Number),
		StartDate:    &startDate,
	})
	if err != nil {
		return err
	}

	activated, err := s.subscriptions.Activate(ctx, subscription.ID)
	if err != nil {
		return err
	}
	if activated.Status != enums.SubscriptionStatusActive {
		return pkgerrors.New(pkgerrors.CodeDependency, "provider did not activate the subscription")
	}

	order.NextInvoiceDate = &startDate
	if err := s.repo.UpdateOrder(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to advance order invoice date")
	}

	delivery.SubscriptionCreated = true
	if err := s.repo.UpdateDelivery(ctx, delivery); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to flag delivery")
	}
	return nil
}

// firstChargeDate is one month after now plus the buffer days, at midnight
// UTC, regardless of the order's billing interval.
func (s *service) firstChargeDate(now time.Time) time.Time {
	base := now.AddDate(0, 1, s.bufferDays)
	return time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, time.UTC)
}
