package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/pkg/enums"
)

// Subscription persists Mollie subscription state per customer.
// MollieSubscriptionID stays nil until the provider accepts the create call.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID           uuid.UUID                `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderID              *uuid.UUID               `gorm:"column:order_id;type:uuid;index"`
	IntervalID           uuid.UUID                `gorm:"column:interval_id;type:uuid;not null"`
	Description          string                   `gorm:"column:description;not null"`
	Amount               decimal.Decimal          `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency             enums.Currency           `gorm:"column:currency;not null;default:'EUR'"`
	Times                *int                     `gorm:"column:times"`
	StartDate            *time.Time               `gorm:"column:start_date"`
	MollieSubscriptionID *string                  `gorm:"column:mollie_subscription_id;unique"`
	Status               enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'pending'"`
	NextPaymentDate      *time.Time               `gorm:"column:next_payment_date"`
	CanceledAt           *time.Time               `gorm:"column:canceled_at"`
	ProviderCreatedAt    *time.Time               `gorm:"column:provider_created_at"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`

	Customer *Customer        `gorm:"foreignKey:CustomerID"`
	Interval *BillingInterval `gorm:"foreignKey:IntervalID"`
}
