package mollie

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Wire formats used by the v2 API. Dates come back as plain "2006-01-02"
// strings while timestamps are RFC 3339 with a numeric zone offset.
const (
	DateFormat      = "2006-01-02"
	TimestampFormat = "2006-01-02T15:04:05-07:00"
)

// Amount is the provider money representation: an ISO currency code plus
// a decimal string with exactly two fraction digits.
type Amount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// NewAmount renders a decimal into the two-digit wire form.
func NewAmount(currency string, value decimal.Decimal) Amount {
	return Amount{Currency: currency, Value: value.StringFixed(2)}
}

// Decimal parses the wire value back into a decimal.
func (a Amount) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(a.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount value %q: %w", a.Value, err)
	}
	return d, nil
}

// Customer is the provider-side customer record.
type Customer struct {
	Resource  string `json:"resource"`
	ID        string `json:"id"`
	Mode      string `json:"mode"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Locale    string `json:"locale"`
	CreatedAt string `json:"createdAt"`
}

// Subscription is the provider-side subscription record.
type Subscription struct {
	Resource        string  `json:"resource"`
	ID              string  `json:"id"`
	Mode            string  `json:"mode"`
	CustomerID      string  `json:"customerId"`
	Status          string  `json:"status"`
	Amount          Amount  `json:"amount"`
	Times           *int    `json:"times,omitempty"`
	TimesRemaining  *int    `json:"timesRemaining,omitempty"`
	Interval        string  `json:"interval"`
	StartDate       string  `json:"startDate"`
	NextPaymentDate string  `json:"nextPaymentDate,omitempty"`
	Description     string  `json:"description"`
	Method          *string `json:"method"`
	WebhookURL      string  `json:"webhookUrl,omitempty"`
	CanceledAt      string  `json:"canceledAt,omitempty"`
	CreatedAt       string  `json:"createdAt"`
}

// Payment is the provider-side payment record.
type Payment struct {
	Resource         string  `json:"resource"`
	ID               string  `json:"id"`
	Mode             string  `json:"mode"`
	Status           string  `json:"status"`
	Amount           Amount  `json:"amount"`
	AmountRefunded   *Amount `json:"amountRefunded,omitempty"`
	AmountRemaining  *Amount `json:"amountRemaining,omitempty"`
	SettlementAmount *Amount `json:"settlementAmount,omitempty"`
	Description      string  `json:"description"`
	Method           *string `json:"method"`
	Locale           string  `json:"locale,omitempty"`
	ProfileID        string  `json:"profileId,omitempty"`
	SequenceType     string  `json:"sequenceType"`
	CustomerID       string  `json:"customerId,omitempty"`
	SubscriptionID   string  `json:"subscriptionId,omitempty"`
	MandateID        string  `json:"mandateId,omitempty"`
	PaidAt           string  `json:"paidAt,omitempty"`
	CreatedAt        string  `json:"createdAt"`
	Links            Links   `json:"_links"`
}

// Refund is the provider-side refund record.
type Refund struct {
	Resource         string  `json:"resource"`
	ID               string  `json:"id"`
	Amount           Amount  `json:"amount"`
	SettlementAmount *Amount `json:"settlementAmount,omitempty"`
	Status           string  `json:"status"`
	PaymentID        string  `json:"paymentId"`
	Description      string  `json:"description"`
	CreatedAt        string  `json:"createdAt"`
}

// RefundList is the paginated refund collection shape.
type RefundList struct {
	Count    int `json:"count"`
	Embedded struct {
		Refunds []Refund `json:"refunds"`
	} `json:"_embedded"`
	Links Links `json:"_links"`
}

// PaymentList is the paginated payment collection shape.
type PaymentList struct {
	Count    int `json:"count"`
	Embedded struct {
		Payments []Payment `json:"payments"`
	} `json:"_embedded"`
	Links Links `json:"_links"`
}

// Link is a single HAL reference.
type Link struct {
	Href string `json:"href"`
	Type string `json:"type"`
}

// Links carries the HAL references the integration cares about.
type Links struct {
	Self     *Link `json:"self,omitempty"`
	Checkout *Link `json:"checkout,omitempty"`
	Next     *Link `json:"next,omitempty"`
}

// CheckoutURL returns the hosted checkout link when present.
func (l Links) CheckoutURL() string {
	if l.Checkout == nil {
		return ""
	}
	return l.Checkout.Href
}

// errorBody is the provider error document.
type errorBody struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

// ParseDate parses a wire date, returning nil for the empty string.
func ParseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateFormat, value)
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", value, err)
	}
	return &t, nil
}

// ParseTimestamp parses a wire timestamp, returning nil for the empty string.
func ParseTimestamp(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(TimestampFormat, value)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", value, err)
	}
	return &t, nil
}

// FormatDate renders a time as a wire date.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}
