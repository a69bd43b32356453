package mollie

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/pkg/config"
	pkgerrors "github.com/felixfletscher/ollo-dev12/pkg/errors"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.MollieConfig{BaseURL: srv.URL}, StaticCredentials{Key: "test_key"}, logger.New(logger.Options{}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestCreateSubscriptionSendsWireFormat(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"resource": "subscription",
			"id": "sub_rVKGtNd6s3",
			"customerId": "cst_stTC2WHAuS",
			"status": "active",
			"amount": {"currency": "EUR", "value": "25.00"},
			"interval": "1 month",
			"startDate": "2025-09-20",
			"nextPaymentDate": "2025-10-20",
			"description": "Monthly box",
			"createdAt": "2025-08-20T11:00:00+00:00"
		}`))
	}))

	sub, err := client.CreateSubscription(context.Background(), "cst_stTC2WHAuS", SubscriptionCreateParams{
		Amount:      decimal.RequireFromString("25"),
		Currency:    "EUR",
		Interval:    "1 month",
		Description: "Monthly box",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/customers/cst_stTC2WHAuS/subscriptions" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer test_key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	amount, ok := gotBody["amount"].(map[string]any)
	if !ok {
		t.Fatalf("amount missing from request body")
	}
	if amount["value"] != "25.00" {
		t.Fatalf("expected two-digit amount value, got %v", amount["value"])
	}
	if gotBody["interval"] != "1 month" {
		t.Fatalf("unexpected interval %v", gotBody["interval"])
	}
	if sub.ID != "sub_rVKGtNd6s3" || sub.Status != "active" {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if sub.NextPaymentDate != "2025-10-20" {
		t.Fatalf("unexpected next payment date %s", sub.NextPaymentDate)
	}
}

func TestListPaymentsAppendsLimit(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{
			"count": 1,
			"_embedded": {"payments": [{
				"resource": "payment",
				"id": "tr_WDqYK6vllg",
				"status": "paid",
				"amount": {"currency": "EUR", "value": "25.00"},
				"sequenceType": "recurring",
				"subscriptionId": "sub_rVKGtNd6s3",
				"paidAt": "2025-08-20T11:00:00+00:00",
				"createdAt": "2025-08-20T10:59:00+00:00"
			}]}
		}`))
	}))

	list, err := client.ListSubscriptionPayments(context.Background(), "cst_1", "sub_rVKGtNd6s3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "limit=50" {
		t.Fatalf("expected limit query, got %q", gotQuery)
	}
	if list.Count != 1 || len(list.Embedded.Payments) != 1 {
		t.Fatalf("unexpected list %+v", list)
	}
	if list.Embedded.Payments[0].ID != "tr_WDqYK6vllg" {
		t.Fatalf("unexpected payment id")
	}
}

func TestProviderErrorIsSurfaced(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status": 404, "title": "Not Found", "detail": "No customer exists with token cst_missing."}`))
	}))

	_, err := client.GetSubscription(context.Background(), "cst_missing", "sub_1")
	if err == nil {
		t.Fatalf("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != pkgerrors.CodeProviderRejected {
		t.Fatalf("expected provider rejection, got %s", typed.Code())
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map")
	}
	if details["detail"] != "No customer exists with token cst_missing." {
		t.Fatalf("unexpected detail %v", details["detail"])
	}
}

func TestUnexpectedStatusIsGeneric(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"status": 422, "title": "Unprocessable Entity", "detail": "The amount is higher than the maximum"}`))
	}))

	_, err := client.CreatePayment(context.Background(), PaymentCreateParams{
		Amount:   decimal.RequireFromString("10000000"),
		Currency: "EUR",
	})
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency code for undocumented status, got %s", typed.Code())
	}
}

func TestTransportFailure(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := client.GetPayment(context.Background(), "tr_1")
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != pkgerrors.CodeTransport {
		t.Fatalf("expected transport code, got %s", typed.Code())
	}
}

func TestMissingCredentialShortCircuits(t *testing.T) {
	called := false
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	client.creds = StaticCredentials{Key: "  "}

	_, err := client.GetPayment(context.Background(), "tr_1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeMissingCredential {
		t.Fatalf("expected missing credential error, got %v", err)
	}
	if called {
		t.Fatalf("no request should be sent without a key")
	}
}

func TestCancelSubscriptionUsesDelete(t *testing.T) {
	var gotMethod string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		_, _ = w.Write([]byte(`{
			"resource": "subscription",
			"id": "sub_rVKGtNd6s3",
			"status": "canceled",
			"amount": {"currency": "EUR", "value": "25.00"},
			"interval": "1 month",
			"startDate": "2025-09-20",
			"canceledAt": "2025-08-25T09:00:00+00:00",
			"createdAt": "2025-08-20T11:00:00+00:00"
		}`))
	}))

	sub, err := client.CancelSubscription(context.Background(), "cst_1", "sub_rVKGtNd6s3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Fatalf("expected DELETE, got %s", gotMethod)
	}
	if sub.Status != "canceled" || sub.CanceledAt == "" {
		t.Fatalf("unexpected subscription %+v", sub)
	}
}

func TestRedact(t *testing.T) {
	c := &Client{}
	if out := c.redact("email", "billing@example.com"); out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	if v := c.redact("status", "paid"); v != "paid" {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2025-08-20T11:00:00+00:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts == nil || ts.Hour() != 11 {
		t.Fatalf("unexpected timestamp %v", ts)
	}
	if ts, err := ParseTimestamp(""); err != nil || ts != nil {
		t.Fatalf("empty timestamp should yield nil")
	}
	if _, err := ParseTimestamp("not-a-time"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestListPaymentRefunds(t *testing.T) {
	var gotPath, gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{
			"count": 1,
			"_embedded": {"refunds": [{
				"resource": "refund",
				"id": "re_4qqhO89gsT",
				"amount": {"currency": "EUR", "value": "10.00"},
				"settlementAmount": {"currency": "EUR", "value": "-10.00"},
				"status": "refunded",
				"paymentId": "tr_WDqYK6vllg",
				"createdAt": "2025-08-21T09:00:00+00:00"
			}]}
		}`))
	}))

	list, err := client.ListPaymentRefunds(context.Background(), "tr_WDqYK6vllg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/payments/tr_WDqYK6vllg/refunds" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotQuery != "limit=50" {
		t.Fatalf("expected limit query, got %q", gotQuery)
	}
	if len(list.Embedded.Refunds) != 1 {
		t.Fatalf("unexpected list %+v", list)
	}
	refund := list.Embedded.Refunds[0]
	if refund.ID != "re_4qqhO89gsT" || refund.Status != "refunded" {
		t.Fatalf("unexpected refund %+v", refund)
	}
	if refund.SettlementAmount == nil || refund.SettlementAmount.Value != "-10.00" {
		t.Fatalf("expected settlement amount, got %+v", refund.SettlementAmount)
	}
}

func TestSingleResourceGetCarriesNoLimit(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{
			"resource": "subscription",
			"id": "sub_rVKGtNd6s3",
			"status": "active",
			"amount": {"currency": "EUR", "value": "25.00"},
			"interval": "1 month",
			"createdAt": "2025-08-20T11:00:00+00:00"
		}`))
	}))

	_, err := client.GetSubscription(context.Background(), "cst_1", "sub_rVKGtNd6s3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "" {
		t.Fatalf("expected no query string on a single-resource get, got %q", gotQuery)
	}
}

func TestCredentialFuncIsReadPerRequest(t *testing.T) {
	var gotAuth []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"resource": "payment", "id": "tr_1", "status": "paid", "amount": {"currency": "EUR", "value": "10.00"}, "createdAt": "2025-08-20T11:00:00+00:00"}`))
	}))

	key := "live_first"
	client.creds = CredentialFunc(func(ctx context.Context) (string, error) {
		return key, nil
	})

	if _, err := client.GetPayment(context.Background(), "tr_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key = "live_rotated"
	if _, err := client.GetPayment(context.Background(), "tr_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Bearer live_first", "Bearer live_rotated"}
	if len(gotAuth) != 2 || gotAuth[0] != want[0] || gotAuth[1] != want[1] {
		t.Fatalf("expected rotated key on second call, got %v", gotAuth)
	}
}
