package mollie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/felixfletscher/ollo-dev12/pkg/config"
	pkgerrors "github.com/felixfletscher/ollo-dev12/pkg/errors"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
)

const defaultListLimit = 50

var (
	errBaseURLRequired     = errors.New("mollie base url is required")
	errCredentialsRequired = errors.New("mollie credential provider is required")
	errLoggerRequired      = errors.New("mollie logger is required")
)

// Client exposes the Mollie v2 endpoints the billing platform uses, with
// centralized auth, logging, and error mapping. The API key is read from
// the credential provider on every call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      CredentialProvider
	logger     *logger.Logger
	listLimit  int
}

// NewClient initializes the Mollie wrapper and validates its dependencies.
func NewClient(cfg config.MollieConfig, creds CredentialProvider, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if creds == nil {
		return nil, errCredentialsRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		creds:      creds,
		logger:     logg,
		listLimit:  defaultListLimit,
	}, nil
}

// CreateCustomer registers a customer at the provider.
func (c *Client) CreateCustomer(ctx context.Context, params CustomerCreateParams) (*Customer, error) {
	c.log(ctx, "request", "create_customer", map[string]any{"email": params.Email})

	var out Customer
	if err := c.do(ctx, http.MethodPost, "/customers", params.toRequest(), &out); err != nil {
		c.log(ctx, "error", "create_customer", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_customer", map[string]any{"customer_id": out.ID})
	return &out, nil
}

// CreateSubscription starts a recurring subscription for the customer.
func (c *Client) CreateSubscription(ctx context.Context, customerID string, params SubscriptionCreateParams) (*Subscription, error) {
	c.log(ctx, "request", "create_subscription", map[string]any{
		"customer_id": customerID,
		"interval":    params.Interval,
	})

	path := fmt.Sprintf("/customers/%s/subscriptions", url.PathEscape(customerID))
	var out Subscription
	if err := c.do(ctx, http.MethodPost, path, params.toRequest(), &out); err != nil {
		c.log(ctx, "error", "create_subscription", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_subscription", map[string]any{
		"subscription_id": out.ID,
		"status":          out.Status,
	})
	return &out, nil
}

// GetSubscription fetches the current provider state of a subscription.
func (c *Client) GetSubscription(ctx context.Context, customerID, subscriptionID string) (*Subscription, error) {
	c.log(ctx, "request", "get_subscription", map[string]any{"subscription_id": subscriptionID})

	path := fmt.Sprintf("/customers/%s/subscriptions/%s", url.PathEscape(customerID), url.PathEscape(subscriptionID))
	var out Subscription
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		c.log(ctx, "error", "get_subscription", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "get_subscription", map[string]any{
		"subscription_id": out.ID,
		"status":          out.Status,
	})
	return &out, nil
}

// UpdateSubscription patches the subscription amount and description.
func (c *Client) UpdateSubscription(ctx context.Context, customerID, subscriptionID string, params SubscriptionUpdateParams) (*Subscription, error) {
	c.log(ctx, "request", "update_subscription", map[string]any{"subscription_id": subscriptionID})

	path := fmt.Sprintf("/customers/%s/subscriptions/%s", url.PathEscape(customerID), url.PathEscape(subscriptionID))
	var out Subscription
	if err := c.do(ctx, http.MethodPatch, path, params.toRequest(), &out); err != nil {
		c.log(ctx, "error", "update_subscription", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "update_subscription", map[string]any{
		"subscription_id": out.ID,
		"status":          out.Status,
	})
	return &out, nil
}

// CancelSubscription revokes the subscription at the provider.
func (c *Client) CancelSubscription(ctx context.Context, customerID, subscriptionID string) (*Subscription, error) {
	c.log(ctx, "request", "cancel_subscription", map[string]any{"subscription_id": subscriptionID})

	path := fmt.Sprintf("/customers/%s/subscriptions/%s", url.PathEscape(customerID), url.PathEscape(subscriptionID))
	var out Subscription
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		c.log(ctx, "error", "cancel_subscription", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "cancel_subscription", map[string]any{
		"subscription_id": out.ID,
		"status":          out.Status,
	})
	return &out, nil
}

// ListSubscriptionPayments returns the payments booked under a subscription.
func (c *Client) ListSubscriptionPayments(ctx context.Context, customerID, subscriptionID string) (*PaymentList, error) {
	c.log(ctx, "request", "list_subscription_payments", map[string]any{"subscription_id": subscriptionID})

	path := fmt.Sprintf("/customers/%s/subscriptions/%s/payments?limit=%d",
		url.PathEscape(customerID), url.PathEscape(subscriptionID), c.listLimit)
	var out PaymentList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		c.log(ctx, "error", "list_subscription_payments", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "list_subscription_payments", map[string]any{"count": out.Count})
	return &out, nil
}

// ListPaymentRefunds returns the refunds issued against a payment.
func (c *Client) ListPaymentRefunds(ctx context.Context, paymentID string) (*RefundList, error) {
	c.log(ctx, "request", "list_payment_refunds", map[string]any{"payment_id": paymentID})

	path := fmt.Sprintf("/payments/%s/refunds?limit=%d", url.PathEscape(paymentID), c.listLimit)
	var out RefundList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		c.log(ctx, "error", "list_payment_refunds", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "list_payment_refunds", map[string]any{"count": out.Count})
	return &out, nil
}

// CreatePayment books a one-off or mandate payment.
func (c *Client) CreatePayment(ctx context.Context, params PaymentCreateParams) (*Payment, error) {
	c.log(ctx, "request", "create_payment", map[string]any{
		"customer_id":   params.CustomerID,
		"sequence_type": params.SequenceType,
	})

	var out Payment
	if err := c.do(ctx, http.MethodPost, "/payments", params.toRequest(), &out); err != nil {
		c.log(ctx, "error", "create_payment", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_payment", map[string]any{
		"payment_id": out.ID,
		"status":     out.Status,
	})
	return &out, nil
}

// GetPayment fetches a single payment.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	c.log(ctx, "request", "get_payment", map[string]any{"payment_id": paymentID})

	path := fmt.Sprintf("/payments/%s", url.PathEscape(paymentID))
	var out Payment
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		c.log(ctx, "error", "get_payment", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "get_payment", map[string]any{
		"payment_id": out.ID,
		"status":     out.Status,
	})
	return &out, nil
}

// CreateRefund issues a refund against a settled payment.
func (c *Client) CreateRefund(ctx context.Context, paymentID string, params RefundCreateParams) (*Refund, error) {
	c.log(ctx, "request", "create_refund", map[string]any{"payment_id": paymentID})

	path := fmt.Sprintf("/payments/%s/refunds", url.PathEscape(paymentID))
	var out Refund
	if err := c.do(ctx, http.MethodPost, path, params.toRequest(), &out); err != nil {
		c.log(ctx, "error", "create_refund", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_refund", map[string]any{
		"refund_id": out.ID,
		"status":    out.Status,
	})
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeMissingCredential, err, "reading provider api key")
	}
	if strings.TrimSpace(key) == "" {
		return pkgerrors.New(pkgerrors.CodeMissingCredential, "provider api key is not configured")
	}

	endpoint := c.baseURL + path

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding provider request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building provider request")
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "calling provider")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "reading provider response")
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding provider response")
		}
		return nil
	case http.StatusNotFound, http.StatusInternalServerError:
		return providerError(resp.StatusCode, raw)
	default:
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("provider returned unexpected status %d", resp.StatusCode))
	}
}

// providerError surfaces the provider's own error document for the status
// codes it documents as carrying one.
func providerError(status int, raw []byte) error {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Title == "" {
		return pkgerrors.New(pkgerrors.CodeProviderRejected,
			fmt.Sprintf("provider rejected the request with status %d", status))
	}
	msg := body.Title
	if body.Detail != "" {
		msg = fmt.Sprintf("%s: %s", body.Title, body.Detail)
	}
	return pkgerrors.New(pkgerrors.CodeProviderRejected, msg).WithDetails(map[string]any{
		"status": body.Status,
		"title":  body.Title,
		"detail": body.Detail,
		"field":  body.Field,
	})
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("mollie %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("mollie %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"key", "token", "secret", "email", "phone", "iban"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
