package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixfletscher/ollo-dev12/pkg/enums"
)

// AccountingPayment is the ledger entry created when a provider payment
// is matched to an invoice. The (invoice_id, mollie_transaction) pair is
// unique so reconciliation runs stay idempotent.
type AccountingPayment struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID         uuid.UUID       `gorm:"column:invoice_id;type:uuid;not null;uniqueIndex:idx_acct_payments_invoice_txn"`
	CustomerID        uuid.UUID       `gorm:"column:customer_id;type:uuid;not null"`
	MollieTransaction string          `gorm:"column:mollie_transaction;not null;uniqueIndex:idx_acct_payments_invoice_txn"`
	Amount            decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency          enums.Currency  `gorm:"column:currency;not null;default:'EUR'"`
	Posted            bool            `gorm:"column:posted;not null;default:false"`
	Reconciled        bool            `gorm:"column:reconciled;not null;default:false"`
	PaidAt            *time.Time      `gorm:"column:paid_at"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
