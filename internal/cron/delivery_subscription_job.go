package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/felixfletscher/ollo-dev12/internal/deliveries"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
)

const deliveryLookback = 48 * time.Hour

type deliverySweeper interface {
	Sweep(ctx context.Context, since time.Time) (deliveries.SweepResult, error)
}

// DeliverySubscriptionJobParams configures the delivery trigger sweep.
type DeliverySubscriptionJobParams struct {
	Logger     *logger.Logger
	Deliveries deliverySweeper
	Lookback   time.Duration
}

type deliverySubscriptionJob struct {
	logg       *logger.Logger
	deliveries deliverySweeper
	lookback   time.Duration
}

// NewDeliverySubscriptionJob turns completed subscription deliveries into
// active subscriptions on each cycle.
func NewDeliverySubscriptionJob(params DeliverySubscriptionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Deliveries == nil {
		return nil, fmt.Errorf("delivery service required")
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = deliveryLookback
	}
	return &deliverySubscriptionJob{
		logg:       params.Logger,
		deliveries: params.Deliveries,
		lookback:   lookback,
	}, nil
}

func (j *deliverySubscriptionJob) Name() string { return "delivery-subscription" }

func (j *deliverySubscriptionJob) Run(ctx context.Context) error {
	since := time.Now().UTC().Add(-j.lookback)
	result, err := j.deliveries.Sweep(ctx, since)
	rctx := j.logg.WithFields(ctx, map[string]any{
		"scanned":   result.Scanned,
		"activated": result.Activated,
	})
	if err != nil {
		j.logg.Error(rctx, "delivery sweep finished with failures", err)
		return err
	}
	j.logg.Info(rctx, "delivery sweep complete")
	return nil
}
