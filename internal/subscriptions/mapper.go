package subscriptions

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/enums"
	pkgerrors "github.com/felixfletscher/ollo-dev12/pkg/errors"
	"github.com/felixfletscher/ollo-dev12/pkg/mollie"
)

// ApplyProviderState mutates the local subscription with the provider's
// current view. NextPaymentDate is cleared first so a provider response
// without one leaves the field empty, and CanceledAt is only ever set while
// the provider reports the subscription canceled.
func ApplyProviderState(target *models.Subscription, remote *mollie.Subscription) error {
	if target == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "target subscription is nil")
	}
	if remote == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "provider subscription is nil")
	}

	status, err := enums.ParseSubscriptionStatus(remote.Status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider subscription status")
	}

	target.MollieSubscriptionID = &remote.ID
	target.Status = status

	// The cancel response carries only status and canceledAt, so the
	// mirror fields are overwritten when the provider sends them.
	if remote.Amount.Value != "" {
		amount, err := remote.Amount.Decimal()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider subscription amount")
		}
		target.Amount = amount
		target.Currency = enums.Currency(remote.Amount.Currency)
	}
	if remote.Description != "" {
		target.Description = remote.Description
	}

	target.NextPaymentDate = nil
	if next, err := mollie.ParseDate(remote.NextPaymentDate); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider next payment date")
	} else if next != nil {
		target.NextPaymentDate = next
	}

	target.CanceledAt = nil
	if status == enums.SubscriptionStatusCanceled {
		canceledAt, err := mollie.ParseTimestamp(remote.CanceledAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider canceledAt")
		}
		target.CanceledAt = canceledAt
	}

	if start, err := mollie.ParseDate(remote.StartDate); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider start date")
	} else if start != nil {
		target.StartDate = start
	}

	if createdAt, err := mollie.ParseTimestamp(remote.CreatedAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider createdAt")
	} else if createdAt != nil {
		target.ProviderCreatedAt = createdAt
	}
	return nil
}

// BuildPaymentFromProvider maps a settled provider payment into the local
// model. Callers are expected to filter out unsettled payments first.
func BuildPaymentFromProvider(subscriptionID uuid.UUID, remote mollie.Payment) (*models.Payment, error) {
	amount, err := remote.Amount.Decimal()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider payment amount")
	}
	status, err := enums.ParsePaymentStatus(remote.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider payment status")
	}
	paidAt, err := mollie.ParseTimestamp(remote.PaidAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider paidAt")
	}

	seq := enums.SequenceTypeRecurring
	if parsed, err := enums.ParseSequenceType(remote.SequenceType); err == nil {
		seq = parsed
	}

	payment := &models.Payment{
		SubscriptionID:  &subscriptionID,
		MolliePaymentID: remote.ID,
		Amount:          amount,
		Currency:        enums.Currency(remote.Amount.Currency),
		Status:          status,
		SequenceType:    seq,
		Method:          remote.Method,
		PaidAt:          paidAt,
	}
	if remote.Description != "" {
		payment.Description = &remote.Description
	}
	if remote.Locale != "" {
		locale := remote.Locale
		payment.Locale = &locale
	}
	if remote.ProfileID != "" {
		profileID := remote.ProfileID
		payment.ProfileID = &profileID
	}
	if remote.MandateID != "" {
		mandateID := remote.MandateID
		payment.MandateID = &mandateID
	}
	if payment.AmountRefunded, err = optionalAmount(remote.AmountRefunded, "amountRefunded"); err != nil {
		return nil, err
	}
	if payment.AmountRemaining, err = optionalAmount(remote.AmountRemaining, "amountRemaining"); err != nil {
		return nil, err
	}
	if payment.SettlementAmount, err = optionalAmount(remote.SettlementAmount, "settlementAmount"); err != nil {
		return nil, err
	}
	if remote.SettlementAmount != nil && remote.SettlementAmount.Currency != "" {
		currency := remote.SettlementAmount.Currency
		payment.SettlementCurrency = &currency
	}
	return payment, nil
}

func optionalAmount(amount *mollie.Amount, field string) (*decimal.Decimal, error) {
	if amount == nil || amount.Value == "" {
		return nil, nil
	}
	value, err := amount.Decimal()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid provider "+field)
	}
	return &value, nil
}
