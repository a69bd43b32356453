package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/api/responses"
	"github.com/felixfletscher/ollo-dev12/api/validators"
	"github.com/felixfletscher/ollo-dev12/internal/subscriptions"
	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	pkgerrors "github.com/felixfletscher/ollo-dev12/pkg/errors"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
)

type createSubscriptionRequest struct {
	CustomerID  string  `json:"customer_id" validate:"required,uuid"`
	OrderID     *string `json:"order_id" validate:"omitempty,uuid"`
	Interval    string  `json:"interval" validate:"required,max=50"`
	Amount      string  `json:"amount" validate:"required"`
	Currency    string  `json:"currency" validate:"omitempty,len=3"`
	Description string  `json:"description" validate:"required,max=255"`
	Times       *int    `json:"times" validate:"omitempty,min=1"`
}

type updateSubscriptionRequest struct {
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"required,max=255"`
}

// CreateSubscription records a pending subscription locally. Activation is
// a separate call so a provider outage never leaves half-created state.
func CreateSubscription(svc subscriptions.Service, defaultCurrency string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req createSubscriptionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}
		var orderID *uuid.UUID
		if req.OrderID != nil {
			parsed, err := uuid.Parse(*req.OrderID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
				return
			}
			orderID = &parsed
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount").
				WithDetails(map[string]any{"field": "amount"}))
			return
		}
		currency := req.Currency
		if currency == "" {
			currency = defaultCurrency
		}

		subscription, err := svc.Create(ctx, subscriptions.CreateInput{
			CustomerID:   customerID,
			OrderID:      orderID,
			IntervalName: req.Interval,
			Amount:       amount,
			Currency:     currency,
			Description:  req.Description,
			Times:        req.Times,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, subscription)
	}
}

// GetSubscription returns one subscription by id.
func GetSubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		subscriptionID, err := pathUUID(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		subscription, err := svc.Get(ctx, subscriptionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, subscription)
	}
}

// ListCustomerSubscriptions returns all subscriptions for one customer.
func ListCustomerSubscriptions(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := pathUUID(r, "customerID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		subs, err := svc.ListByCustomer(ctx, customerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if len(subs) > limit {
			subs = subs[:limit]
		}
		responses.WriteSuccess(w, subs)
	}
}

// ActivateSubscription registers a pending subscription at the provider.
func ActivateSubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return subscriptionAction(svc.Activate, logg)
}

// RefreshSubscription mirrors the provider's current state locally.
func RefreshSubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return subscriptionAction(svc.Refresh, logg)
}

// CancelSubscription cancels the subscription at the provider.
func CancelSubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return subscriptionAction(svc.Cancel, logg)
}

// UpdateSubscription changes amount and description, the only fields the
// provider accepts on update.
func UpdateSubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		subscriptionID, err := pathUUID(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req updateSubscriptionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount").
				WithDetails(map[string]any{"field": "amount"}))
			return
		}
		subscription, err := svc.Update(ctx, subscriptionID, subscriptions.UpdateInput{
			Amount:      amount,
			Description: req.Description,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, subscription)
	}
}

// SyncSubscriptionPayments pulls the provider payment history and stores
// settled payments that are not yet recorded locally.
func SyncSubscriptionPayments(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		subscriptionID, err := pathUUID(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		stored, err := svc.SyncPayments(ctx, subscriptionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"stored": stored})
	}
}

func subscriptionAction(action func(ctx context.Context, id uuid.UUID) (*models.Subscription, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		subscriptionID, err := pathUUID(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		subscription, err := action(ctx, subscriptionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, subscription)
	}
}
