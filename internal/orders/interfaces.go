package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/enums"
)

// Repository defines persistence operations for order, invoice, and
// delivery tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	CreateInvoice(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error)
	FindInvoiceByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	FindUnpaidInvoicesByOrigin(ctx context.Context, customerID uuid.UUID, origin string) ([]models.Invoice, error)
	ListInvoicesWithMollieState(ctx context.Context, state enums.PaymentStatus, limit int) ([]models.Invoice, error)
	ListInvoicesWithProviderPayment(ctx context.Context, limit int) ([]models.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice *models.Invoice) error
	CreateDelivery(ctx context.Context, delivery *models.Delivery) (*models.Delivery, error)
	FindDeliveryByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	ListCompletedSubscriptionDeliveries(ctx context.Context, since time.Time, limit int) ([]models.Delivery, error)
	UpdateDelivery(ctx context.Context, delivery *models.Delivery) error
}
