package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/felixfletscher/ollo-dev12/internal/reconcile"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
)

type reconcileRunner interface {
	Run(ctx context.Context, now time.Time) (reconcile.Result, error)
}

// PaymentReconcileJobParams configures the payment reconciliation sweep.
type PaymentReconcileJobParams struct {
	Logger     *logger.Logger
	Reconciler reconcileRunner
}

type paymentReconcileJob struct {
	logg       *logger.Logger
	reconciler reconcileRunner
}

// NewPaymentReconcileJob posts settled provider payments against unpaid
// invoices each cycle.
func NewPaymentReconcileJob(params PaymentReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	return &paymentReconcileJob{logg: params.Logger, reconciler: params.Reconciler}, nil
}

func (j *paymentReconcileJob) Name() string { return "payment-reconcile" }

func (j *paymentReconcileJob) Run(ctx context.Context) error {
	result, err := j.reconciler.Run(ctx, time.Now().UTC())
	rctx := j.logg.WithFields(ctx, map[string]any{
		"subscriptions": result.Subscriptions,
		"posted":        result.Posted,
	})
	if err != nil {
		j.logg.Error(rctx, "reconciliation finished with failures", err)
		return err
	}
	j.logg.Info(rctx, "reconciliation sweep complete")
	return nil
}
