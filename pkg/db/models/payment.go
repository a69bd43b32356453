package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/pkg/enums"
)

// Payment records a provider payment, either observed for a subscription
// or booked directly (first payments, recharges). The
// (subscription_id, mollie_payment_id) pair is unique so repeated syncs
// never duplicate rows.
type Payment struct {
	ID                 uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SubscriptionID     *uuid.UUID          `gorm:"column:subscription_id;type:uuid;uniqueIndex:idx_payments_subscription_provider"`
	MolliePaymentID    string              `gorm:"column:mollie_payment_id;not null;uniqueIndex:idx_payments_subscription_provider"`
	Amount             decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency           enums.Currency      `gorm:"column:currency;not null;default:'EUR'"`
	Status             enums.PaymentStatus `gorm:"column:status;type:payment_status;not null"`
	SequenceType       enums.SequenceType  `gorm:"column:sequence_type;type:sequence_type;not null;default:'recurring'"`
	Method             *string             `gorm:"column:method"`
	Description        *string             `gorm:"column:description"`
	AmountRefunded     *decimal.Decimal    `gorm:"column:amount_refunded;type:numeric(12,2)"`
	AmountRemaining    *decimal.Decimal    `gorm:"column:amount_remaining;type:numeric(12,2)"`
	SettlementAmount   *decimal.Decimal    `gorm:"column:settlement_amount;type:numeric(12,2)"`
	SettlementCurrency *string             `gorm:"column:settlement_currency"`
	Locale             *string             `gorm:"column:locale"`
	ProfileID          *string             `gorm:"column:profile_id"`
	MandateID          *string             `gorm:"column:mandate_id"`
	PaidAt             *time.Time          `gorm:"column:paid_at"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

