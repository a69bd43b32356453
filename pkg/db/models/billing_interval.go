package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/felixfletscher/ollo-dev12/pkg/enums"
)

// BillingInterval is a reusable billing cadence such as "1 month".
// Name holds the provider-facing display string and is the lookup key.
type BillingInterval struct {
	ID        uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string             `gorm:"column:name;not null;unique"`
	Count     int                `gorm:"column:count;not null"`
	Unit      enums.IntervalUnit `gorm:"column:unit;type:interval_unit;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
