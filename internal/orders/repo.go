package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("number = ?", number).
		First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *repository) CreateInvoice(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error) {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *repository) FindInvoiceByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&invoice).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// FindUnpaidInvoicesByOrigin returns the customer's open invoices generated
// from the given order number, oldest first.
func (r *repository) FindUnpaidInvoicesByOrigin(ctx context.Context, customerID uuid.UUID, origin string) ([]models.Invoice, error) {
	states := []enums.InvoicePaymentState{
		enums.InvoicePaymentStateNotPaid,
		enums.InvoicePaymentStatePartial,
	}
	var invoices []models.Invoice
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Where("origin = ?", origin).
		Where("payment_state IN (?)", states).
		Order("invoice_date ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) ListInvoicesWithMollieState(ctx context.Context, state enums.PaymentStatus, limit int) ([]models.Invoice, error) {
	if limit <= 0 {
		limit = 250
	}
	var invoices []models.Invoice
	if err := r.db.WithContext(ctx).
		Where("mollie_payment_state = ?", state).
		Order("updated_at ASC").
		Limit(limit).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) ListInvoicesWithProviderPayment(ctx context.Context, limit int) ([]models.Invoice, error) {
	if limit <= 0 {
		limit = 250
	}
	var invoices []models.Invoice
	if err := r.db.WithContext(ctx).
		Where("mollie_payment_state IS NOT NULL").
		Order("updated_at ASC").
		Limit(limit).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) UpdateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

func (r *repository) CreateDelivery(ctx context.Context, delivery *models.Delivery) (*models.Delivery, error) {
	if err := r.db.WithContext(ctx).Create(delivery).Error; err != nil {
		return nil, err
	}
	return delivery, nil
}

func (r *repository) FindDeliveryByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&delivery).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &delivery, nil
}

// ListCompletedSubscriptionDeliveries returns done subscription pickings that
// have not produced a subscription yet.
func (r *repository) ListCompletedSubscriptionDeliveries(ctx context.Context, since time.Time, limit int) ([]models.Delivery, error) {
	if limit <= 0 {
		limit = 250
	}
	query := r.db.WithContext(ctx).
		Where("is_subscription_delivery = ?", true).
		Where("state = ?", enums.DeliveryStateDone).
		Where("subscription_created = ?", false)
	if !since.IsZero() {
		query = query.Where("done_at >= ?", since)
	}
	var deliveries []models.Delivery
	if err := query.
		Order("done_at ASC").
		Limit(limit).
		Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *repository) UpdateDelivery(ctx context.Context, delivery *models.Delivery) error {
	return r.db.WithContext(ctx).Save(delivery).Error
}
