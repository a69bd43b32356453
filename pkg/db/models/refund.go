package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/pkg/enums"
)

// Refund records a provider refund issued against a payment.
type Refund struct {
	ID                 uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID          uuid.UUID          `gorm:"column:payment_id;type:uuid;not null;index"`
	InvoiceID          *uuid.UUID         `gorm:"column:invoice_id;type:uuid"`
	MollieRefundID     string             `gorm:"column:mollie_refund_id;not null;unique"`
	Amount             decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency           enums.Currency     `gorm:"column:currency;not null;default:'EUR'"`
	Status             enums.RefundStatus `gorm:"column:status;type:refund_status;not null"`
	SettlementAmount   *decimal.Decimal   `gorm:"column:settlement_amount;type:numeric(12,2)"`
	SettlementCurrency *string            `gorm:"column:settlement_currency"`
	Description        *string            `gorm:"column:description"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

