package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/pkg/db"
	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/enums"
)

// Service defines operations that record accounting payments.
type Service interface {
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.AccountingPayment, bool, error)
	HasPayment(ctx context.Context, invoiceID uuid.UUID, mollieTransaction string) (bool, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.AccountingPayment, error)
}

type service struct {
	repo Repository
}

// RecordPaymentInput captures the immutable data an accounting payment requires.
type RecordPaymentInput struct {
	InvoiceID         uuid.UUID
	CustomerID        uuid.UUID
	MollieTransaction string
	Amount            decimal.Decimal
	Currency          enums.Currency
	PaidAt            *time.Time
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// RecordPayment books an accounting payment for the invoice, posts it, and
// marks it reconciled. Replays with the same transaction return the existing
// entry; the boolean reports whether a new entry was created.
func (s *service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.AccountingPayment, bool, error) {
	if input.InvoiceID == uuid.Nil {
		return nil, false, fmt.Errorf("invoice id is required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, false, fmt.Errorf("customer id is required")
	}
	if input.MollieTransaction == "" {
		return nil, false, fmt.Errorf("mollie transaction is required")
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, false, fmt.Errorf("amount must be positive")
	}

	existing, err := s.repo.FindByInvoiceAndTransaction(ctx, input.InvoiceID, input.MollieTransaction)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	payment := &models.AccountingPayment{
		InvoiceID:         input.InvoiceID,
		CustomerID:        input.CustomerID,
		MollieTransaction: input.MollieTransaction,
		Amount:            input.Amount,
		Currency:          input.Currency,
		Posted:            true,
		Reconciled:        true,
		PaidAt:            input.PaidAt,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		// A concurrent worker may have booked the same transaction between
		// the lookup and the insert. Treat the unique violation as a replay.
		if db.IsUniqueViolation(err, "idx_acct_payments_invoice_txn") {
			existing, lookupErr := s.repo.FindByInvoiceAndTransaction(ctx, input.InvoiceID, input.MollieTransaction)
			if lookupErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return payment, true, nil
}

func (s *service) HasPayment(ctx context.Context, invoiceID uuid.UUID, mollieTransaction string) (bool, error) {
	if invoiceID == uuid.Nil {
		return false, fmt.Errorf("invoice id is required")
	}
	existing, err := s.repo.FindByInvoiceAndTransaction(ctx, invoiceID, mollieTransaction)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (s *service) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.AccountingPayment, error) {
	if invoiceID == uuid.Nil {
		return nil, fmt.Errorf("invoice id is required")
	}
	return s.repo.ListByInvoice(ctx, invoiceID)
}
