package refunds

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/enums"
	pkgerrors "github.com/felixfletscher/ollo-dev12/pkg/errors"
	"github.com/felixfletscher/ollo-dev12/pkg/mollie"
)

type providerClient interface {
	CreateRefund(ctx context.Context, paymentID string, params mollie.RefundCreateParams) (*mollie.Refund, error)
}

type refundStore interface {
	CreateRefund(ctx context.Context, refund *models.Refund) error
	FindRefundByPayment(ctx context.Context, paymentID uuid.UUID) (*models.Refund, error)
	FindPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
}

// Service submits refunds to the payment provider. A payment is refunded at
// most once; retries after a provider error are allowed because the local row
// is only written on success.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Refund, error)
}

// ServiceParams groups dependencies for the refund service.
type ServiceParams struct {
	Repo     refundStore
	Provider providerClient
}

// CreateInput captures the data for a refund request.
type CreateInput struct {
	PaymentID   uuid.UUID
	InvoiceID   *uuid.UUID
	Amount      decimal.Decimal
	Currency    string
	Description string
}

type service struct {
	repo     refundStore
	provider providerClient
}

// NewService builds a refund service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("refund store required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("provider client required")
	}
	return &service{repo: params.Repo, provider: params.Provider}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Refund, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	currency, err := enums.ParseCurrency(input.Currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}

	payment, err := s.repo.FindPaymentByID(ctx, input.PaymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load payment")
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if payment.Status != enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not settled")
	}
	if input.Amount.GreaterThan(payment.Amount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund exceeds payment amount")
	}

	existing, err := s.repo.FindRefundByPayment(ctx, payment.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check existing refund")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already refunded")
	}

	description := strings.TrimSpace(input.Description)
	remote, err := s.provider.CreateRefund(ctx, payment.MolliePaymentID, mollie.RefundCreateParams{
		Amount:      input.Amount,
		Currency:    string(currency),
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	status, err := enums.ParseRefundStatus(remote.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider refund status")
	}

	refund := &models.Refund{
		PaymentID:      payment.ID,
		InvoiceID:      input.InvoiceID,
		MollieRefundID: remote.ID,
		Amount:         input.Amount,
		Currency:       currency,
		Status:         status,
	}
	if description != "" {
		refund.Description = &description
	}
	if remote.SettlementAmount != nil && remote.SettlementAmount.Value != "" {
		settlement, err := remote.SettlementAmount.Decimal()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider settlement amount")
		}
		refund.SettlementAmount = &settlement
		if remote.SettlementAmount.Currency != "" {
			settlementCurrency := remote.SettlementAmount.Currency
			refund.SettlementCurrency = &settlementCurrency
		}
	}
	if err := s.repo.CreateRefund(ctx, refund); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store refund")
	}
	return refund, nil
}
