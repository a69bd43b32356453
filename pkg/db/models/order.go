package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/pkg/enums"
)

// Order is a sales order that may recur through a subscription.
// Number is the human reference invoices report as their origin.
type Order struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID         uuid.UUID       `gorm:"column:customer_id;type:uuid;not null;index"`
	Number             string          `gorm:"column:number;not null;unique"`
	AmountTotal        decimal.Decimal `gorm:"column:amount_total;type:numeric(12,2);not null"`
	Currency           enums.Currency  `gorm:"column:currency;not null;default:'EUR'"`
	BillingIntervalID  *uuid.UUID      `gorm:"column:billing_interval_id;type:uuid"`
	IsSubscriptionSale bool            `gorm:"column:is_subscription_sale;not null;default:false"`
	NextInvoiceDate    *time.Time      `gorm:"column:next_invoice_date"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
