package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/pkg/enums"
)

// Invoice is a receivable document reconciled against provider payments.
// Origin carries the order number the invoice was generated from.
type Invoice struct {
	ID                 uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID         uuid.UUID                 `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderID            *uuid.UUID                `gorm:"column:order_id;type:uuid;index"`
	Number             string                    `gorm:"column:number;not null;unique"`
	Origin             *string                   `gorm:"column:origin;index"`
	AmountTotal        decimal.Decimal           `gorm:"column:amount_total;type:numeric(12,2);not null"`
	AmountResidual     decimal.Decimal           `gorm:"column:amount_residual;type:numeric(12,2);not null"`
	Currency           enums.Currency            `gorm:"column:currency;not null;default:'EUR'"`
	PaymentState       enums.InvoicePaymentState `gorm:"column:payment_state;type:invoice_payment_state;not null;default:'not_paid'"`
	MolliePaymentState *enums.PaymentStatus      `gorm:"column:mollie_payment_state;type:payment_status"`
	MollieRefundState  *string                   `gorm:"column:mollie_refund_state"`
	InvoiceDate        *time.Time                `gorm:"column:invoice_date"`
	CreatedAt          time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
