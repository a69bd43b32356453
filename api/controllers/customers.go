package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/api/responses"
	"github.com/felixfletscher/ollo-dev12/api/validators"
	"github.com/felixfletscher/ollo-dev12/internal/customers"
	pkgerrors "github.com/felixfletscher/ollo-dev12/pkg/errors"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
)

type registerCustomerRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=200"`
	Email  string `json:"email" validate:"required,email"`
	Phone  string `json:"phone" validate:"omitempty,max=40"`
	Locale string `json:"locale" validate:"omitempty,max=10"`
}

type customerPaymentRequest struct {
	Amount      string `json:"amount" validate:"required"`
	Currency    string `json:"currency" validate:"omitempty,len=3"`
	Description string `json:"description" validate:"required,max=255"`
}

// RegisterCustomer creates a local customer record.
func RegisterCustomer(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req registerCustomerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		customer, err := svc.Register(ctx, customers.RegisterInput{
			Name:   validators.SanitizeString(req.Name, 200),
			Email:  validators.SanitizeString(req.Email, 0),
			Phone:  validators.SanitizeString(req.Phone, 40),
			Locale: validators.SanitizeString(req.Locale, 10),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

// GetCustomer returns one customer by id.
func GetCustomer(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := pathUUID(r, "customerID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		customer, err := svc.Get(ctx, customerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

// CustomerFirstPayment starts the checkout flow that establishes the
// provider mandate. The response carries the checkout URL the caller
// redirects the customer to.
func CustomerFirstPayment(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := pathUUID(r, "customerID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := decodePaymentInput(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payment, checkoutURL, err := svc.FirstPayment(ctx, customerID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"payment":      payment,
			"checkout_url": checkoutURL,
		})
	}
}

// CustomerRecharge charges a customer on their existing mandate.
func CustomerRecharge(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := pathUUID(r, "customerID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := decodePaymentInput(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payment, err := svc.Recharge(ctx, customerID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

func decodePaymentInput(r *http.Request) (customers.PaymentInput, error) {
	var req customerPaymentRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		return customers.PaymentInput{}, err
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return customers.PaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount").
			WithDetails(map[string]any{"field": "amount"})
	}
	return customers.PaymentInput{
		Amount:      amount,
		Currency:    req.Currency,
		Description: req.Description,
	}, nil
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").
			WithDetails(map[string]any{"field": key})
	}
	return id, nil
}
