package subscriptions

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/enums"
	"github.com/felixfletscher/ollo-dev12/pkg/mollie"
)

func TestApplyProviderStateActive(t *testing.T) {
	target := &models.Subscription{Status: enums.SubscriptionStatusPending}

	err := ApplyProviderState(target, &mollie.Subscription{
		ID:              "sub_rVKGtNd6s3",
		Status:          "active",
		NextPaymentDate: "2026-10-01",
		StartDate:       "2026-09-01",
		CreatedAt:       "2026-09-01T10:00:00+02:00",
	})
	require.NoError(t, err)

	require.NotNil(t, target.MollieSubscriptionID)
	assert.Equal(t, "sub_rVKGtNd6s3", *target.MollieSubscriptionID)
	assert.Equal(t, enums.SubscriptionStatusActive, target.Status)
	require.NotNil(t, target.NextPaymentDate)
	assert.Equal(t, "2026-10-01", target.NextPaymentDate.Format("2006-01-02"))
	require.NotNil(t, target.StartDate)
	require.NotNil(t, target.ProviderCreatedAt)
	assert.Nil(t, target.CanceledAt)
}

func TestApplyProviderStateClearsNextPaymentDate(t *testing.T) {
	stale := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	target := &models.Subscription{
		Status:          enums.SubscriptionStatusActive,
		NextPaymentDate: &stale,
	}

	err := ApplyProviderState(target, &mollie.Subscription{
		ID:     "sub_rVKGtNd6s3",
		Status: "completed",
	})
	require.NoError(t, err)
	assert.Nil(t, target.NextPaymentDate)
}

func TestApplyProviderStateCanceledAtRule(t *testing.T) {
	target := &models.Subscription{Status: enums.SubscriptionStatusActive}

	err := ApplyProviderState(target, &mollie.Subscription{
		ID:         "sub_rVKGtNd6s3",
		Status:     "canceled",
		CanceledAt: "2026-09-20T08:30:00+02:00",
	})
	require.NoError(t, err)
	require.NotNil(t, target.CanceledAt)

	err = ApplyProviderState(target, &mollie.Subscription{
		ID:     "sub_rVKGtNd6s3",
		Status: "active",
	})
	require.NoError(t, err)
	assert.Nil(t, target.CanceledAt)
}

func TestApplyProviderStateRejectsUnknownStatus(t *testing.T) {
	target := &models.Subscription{}
	err := ApplyProviderState(target, &mollie.Subscription{ID: "sub_x", Status: "sleeping"})
	require.Error(t, err)
}

func TestBuildPaymentFromProvider(t *testing.T) {
	subscriptionID := uuid.New()

	payment, err := BuildPaymentFromProvider(subscriptionID, mollie.Payment{
		ID:               "tr_WDqYK6vllg",
		Status:           "paid",
		Amount:           mollie.Amount{Currency: "EUR", Value: "24.90"},
		AmountRefunded:   &mollie.Amount{Currency: "EUR", Value: "5.00"},
		AmountRemaining:  &mollie.Amount{Currency: "EUR", Value: "19.90"},
		SettlementAmount: &mollie.Amount{Currency: "EUR", Value: "24.61"},
		Description:      "Coffee club",
		Locale:           "de_DE",
		ProfileID:        "pfl_v9hTwCvYqw",
		MandateID:        "mdt_h3gAaD5zP",
		SequenceType:     "recurring",
		PaidAt:           "2026-09-01T09:00:00+02:00",
	})
	require.NoError(t, err)

	require.NotNil(t, payment.SubscriptionID)
	assert.Equal(t, subscriptionID, *payment.SubscriptionID)
	assert.Equal(t, "tr_WDqYK6vllg", payment.MolliePaymentID)
	assert.Equal(t, "24.9", payment.Amount.String())
	assert.Equal(t, enums.CurrencyEUR, payment.Currency)
	assert.Equal(t, enums.PaymentStatusPaid, payment.Status)
	assert.Equal(t, enums.SequenceTypeRecurring, payment.SequenceType)
	require.NotNil(t, payment.PaidAt)
	require.NotNil(t, payment.Description)
	require.NotNil(t, payment.AmountRefunded)
	assert.Equal(t, "5", payment.AmountRefunded.String())
	require.NotNil(t, payment.AmountRemaining)
	assert.Equal(t, "19.9", payment.AmountRemaining.String())
	require.NotNil(t, payment.SettlementAmount)
	assert.Equal(t, "24.61", payment.SettlementAmount.String())
	require.NotNil(t, payment.SettlementCurrency)
	assert.Equal(t, "EUR", *payment.SettlementCurrency)
	require.NotNil(t, payment.Locale)
	assert.Equal(t, "de_DE", *payment.Locale)
	require.NotNil(t, payment.ProfileID)
	require.NotNil(t, payment.MandateID)
}

func TestBuildPaymentFromProviderBadAmount(t *testing.T) {
	_, err := BuildPaymentFromProvider(uuid.New(), mollie.Payment{
		ID:     "tr_bad",
		Status: "paid",
		Amount: mollie.Amount{Currency: "EUR", Value: "twenty"},
		PaidAt: "2026-09-01T09:00:00+02:00",
	})
	require.Error(t, err)
}

func TestApplyProviderStateMirrorsAmountAndDescription(t *testing.T) {
	target := &models.Subscription{
		Status:      enums.SubscriptionStatusActive,
		Amount:      decimal.RequireFromString("19.99"),
		Currency:    enums.CurrencyEUR,
		Description: "old description",
	}

	err := ApplyProviderState(target, &mollie.Subscription{
		ID:          "sub_rVKGtNd6s3",
		Status:      "active",
		Amount:      mollie.Amount{Currency: "EUR", Value: "25.00"},
		Description: "provider description",
	})
	require.NoError(t, err)

	assert.True(t, target.Amount.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, "provider description", target.Description)

	// A response without them, like the cancel shape, leaves the mirror alone.
	err = ApplyProviderState(target, &mollie.Subscription{
		ID:         "sub_rVKGtNd6s3",
		Status:     "canceled",
		CanceledAt: "2026-09-20T08:30:00+02:00",
	})
	require.NoError(t, err)
	assert.True(t, target.Amount.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, "provider description", target.Description)
}

func TestApplyProviderStateRejectsBadAmount(t *testing.T) {
	target := &models.Subscription{}
	err := ApplyProviderState(target, &mollie.Subscription{
		ID:     "sub_x",
		Status: "active",
		Amount: mollie.Amount{Currency: "EUR", Value: "twenty"},
	})
	require.Error(t, err)
}
