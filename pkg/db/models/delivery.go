package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/felixfletscher/ollo-dev12/pkg/enums"
)

// Delivery is a warehouse picking for an order. Completed subscription
// deliveries are the trigger for creating the recurring subscription.
type Delivery struct {
	ID                     uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID                uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	CustomerID             uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	Name                   string              `gorm:"column:name;not null;unique"`
	State                  enums.DeliveryState `gorm:"column:state;type:delivery_state;not null;default:'draft'"`
	IsSubscriptionDelivery bool                `gorm:"column:is_subscription_delivery;not null;default:false"`
	SubscriptionCreated    bool                `gorm:"column:subscription_created;not null;default:false"`
	DoneAt                 *time.Time          `gorm:"column:done_at"`
	CreatedAt              time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
