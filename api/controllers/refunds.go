package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/api/responses"
	"github.com/felixfletscher/ollo-dev12/api/validators"
	"github.com/felixfletscher/ollo-dev12/internal/refunds"
	pkgerrors "github.com/felixfletscher/ollo-dev12/pkg/errors"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
)

type createRefundRequest struct {
	PaymentID   string  `json:"payment_id" validate:"required,uuid"`
	InvoiceID   *string `json:"invoice_id" validate:"omitempty,uuid"`
	Amount      string  `json:"amount" validate:"required"`
	Currency    string  `json:"currency" validate:"required,len=3"`
	Description string  `json:"description" validate:"omitempty,max=255"`
}

// CreateRefund submits a refund for a settled payment.
func CreateRefund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req createRefundRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		paymentID, err := uuid.Parse(req.PaymentID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment id"))
			return
		}
		var invoiceID *uuid.UUID
		if req.InvoiceID != nil {
			parsed, err := uuid.Parse(*req.InvoiceID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice id"))
				return
			}
			invoiceID = &parsed
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount").
				WithDetails(map[string]any{"field": "amount"}))
			return
		}

		refund, err := svc.Create(ctx, refunds.CreateInput{
			PaymentID:   paymentID,
			InvoiceID:   invoiceID,
			Amount:      amount,
			Currency:    req.Currency,
			Description: req.Description,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, refund)
	}
}
