package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/felixfletscher/ollo-dev12/pkg/logger"
)

type invoiceStateRefresher interface {
	RefreshInvoiceStates(ctx context.Context, limit int) (int, error)
	MirrorRefundStates(ctx context.Context, now time.Time, limit int) (int, error)
}

// InvoiceStateJobParams configures the invoice state mirror sweep.
type InvoiceStateJobParams struct {
	Logger     *logger.Logger
	Reconciler invoiceStateRefresher
	BatchSize  int
}

type invoiceStateJob struct {
	logg       *logger.Logger
	reconciler invoiceStateRefresher
	batchSize  int
}

// NewInvoiceStateJob re-checks invoices whose provider payment state is
// still pending and mirrors refund states onto settled ones.
func NewInvoiceStateJob(params InvoiceStateJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	return &invoiceStateJob{
		logg:       params.Logger,
		reconciler: params.Reconciler,
		batchSize:  params.BatchSize,
	}, nil
}

func (j *invoiceStateJob) Name() string { return "invoice-state" }

func (j *invoiceStateJob) Run(ctx context.Context) error {
	var errs error
	updated, err := j.reconciler.RefreshInvoiceStates(ctx, j.batchSize)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("payment states: %w", err))
	}
	refunds, err := j.reconciler.MirrorRefundStates(ctx, time.Now().UTC(), j.batchSize)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("refund states: %w", err))
	}

	rctx := j.logg.WithFields(ctx, map[string]any{
		"updated": updated,
		"refunds": refunds,
	})
	if errs != nil {
		j.logg.Error(rctx, "invoice state sweep finished with failures", errs)
		return errs
	}
	j.logg.Info(rctx, "invoice state sweep complete")
	return nil
}
