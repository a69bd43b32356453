package intervals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
)

// Repository manages persistence for billing intervals.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, interval *models.BillingInterval) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BillingInterval, error)
	FindByName(ctx context.Context, name string) (*models.BillingInterval, error)
	List(ctx context.Context) ([]models.BillingInterval, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an interval repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, interval *models.BillingInterval) error {
	return r.db.WithContext(ctx).Create(interval).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BillingInterval, error) {
	var interval models.BillingInterval
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&interval).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &interval, nil
}

func (r *repository) FindByName(ctx context.Context, name string) (*models.BillingInterval, error) {
	var interval models.BillingInterval
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&interval).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &interval, nil
}

func (r *repository) List(ctx context.Context) ([]models.BillingInterval, error) {
	var intervals []models.BillingInterval
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&intervals).Error; err != nil {
		return nil, err
	}
	return intervals, nil
}
