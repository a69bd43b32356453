package mollie

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CustomerCreateParams defines the payload to create a provider customer.
type CustomerCreateParams struct {
	Name   string
	Email  string
	Locale string
}

type customerCreateRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Locale string `json:"locale,omitempty"`
}

func (p CustomerCreateParams) toRequest() customerCreateRequest {
	return customerCreateRequest{
		Name:   strings.TrimSpace(p.Name),
		Email:  strings.TrimSpace(p.Email),
		Locale: strings.TrimSpace(p.Locale),
	}
}

// SubscriptionCreateParams contains the fields required to start a subscription.
// Interval is the display cadence the provider expects, e.g. "1 month".
type SubscriptionCreateParams struct {
	Amount      decimal.Decimal
	Currency    string
	Interval    string
	StartDate   time.Time
	Description string
	Times       *int
	WebhookURL  string
}

type subscriptionCreateRequest struct {
	Amount      Amount `json:"amount"`
	Interval    string `json:"interval"`
	StartDate   string `json:"startDate,omitempty"`
	Description string `json:"description"`
	Times       *int   `json:"times,omitempty"`
	WebhookURL  string `json:"webhookUrl,omitempty"`
}

func (p SubscriptionCreateParams) toRequest() subscriptionCreateRequest {
	req := subscriptionCreateRequest{
		Amount:      NewAmount(p.Currency, p.Amount),
		Interval:    strings.TrimSpace(p.Interval),
		Description: strings.TrimSpace(p.Description),
		Times:       p.Times,
		WebhookURL:  strings.TrimSpace(p.WebhookURL),
	}
	if !p.StartDate.IsZero() {
		req.StartDate = FormatDate(p.StartDate)
	}
	return req
}

// SubscriptionUpdateParams carries the mutable subscription fields.
// The provider only accepts amount and description changes here.
type SubscriptionUpdateParams struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
}

type subscriptionUpdateRequest struct {
	Amount      Amount `json:"amount"`
	Description string `json:"description"`
}

func (p SubscriptionUpdateParams) toRequest() subscriptionUpdateRequest {
	return subscriptionUpdateRequest{
		Amount:      NewAmount(p.Currency, p.Amount),
		Description: strings.TrimSpace(p.Description),
	}
}

// PaymentCreateParams defines a one-off or mandate payment request.
type PaymentCreateParams struct {
	Amount       decimal.Decimal
	Currency     string
	Description  string
	CustomerID   string
	SequenceType string
	Method       string
	RedirectURL  string
	WebhookURL   string
}

type paymentCreateRequest struct {
	Amount       Amount `json:"amount"`
	Description  string `json:"description"`
	CustomerID   string `json:"customerId,omitempty"`
	SequenceType string `json:"sequenceType,omitempty"`
	Method       string `json:"method,omitempty"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
	WebhookURL   string `json:"webhookUrl,omitempty"`
}

func (p PaymentCreateParams) toRequest() paymentCreateRequest {
	return paymentCreateRequest{
		Amount:       NewAmount(p.Currency, p.Amount),
		Description:  strings.TrimSpace(p.Description),
		CustomerID:   strings.TrimSpace(p.CustomerID),
		SequenceType: strings.TrimSpace(p.SequenceType),
		Method:       strings.TrimSpace(p.Method),
		RedirectURL:  strings.TrimSpace(p.RedirectURL),
		WebhookURL:   strings.TrimSpace(p.WebhookURL),
	}
}

// RefundCreateParams defines a refund against an existing payment.
type RefundCreateParams struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
}

type refundCreateRequest struct {
	Amount      Amount `json:"amount"`
	Description string `json:"description,omitempty"`
}

func (p RefundCreateParams) toRequest() refundCreateRequest {
	return refundCreateRequest{
		Amount:      NewAmount(p.Currency, p.Amount),
		Description: strings.TrimSpace(p.Description),
	}
}
