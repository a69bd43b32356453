package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
)

// Repository manages persistence for accounting payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.AccountingPayment) error
	FindByInvoiceAndTransaction(ctx context.Context, invoiceID uuid.UUID, mollieTransaction string) (*models.AccountingPayment, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.AccountingPayment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.AccountingPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindByInvoiceAndTransaction(ctx context.Context, invoiceID uuid.UUID, mollieTransaction string) (*models.AccountingPayment, error) {
	var payment models.AccountingPayment
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ? AND mollie_transaction = ?", invoiceID, mollieTransaction).
		First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.AccountingPayment, error) {
	var payments []models.AccountingPayment
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
