package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a billable party that may be mirrored at Mollie.
type Customer struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string    `gorm:"column:name;not null"`
	Email            string    `gorm:"column:email;not null;index"`
	Phone            *string   `gorm:"column:phone"`
	Locale           string    `gorm:"column:locale;not null;default:'en_US'"`
	MollieCustomerID *string   `gorm:"column:mollie_customer_id;unique"`
	MollieMandateID  *string   `gorm:"column:mollie_mandate_id"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
