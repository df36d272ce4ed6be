package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryItem is a received line item. ExpiryToken is an 8-digit YYYYMMDD
// string, or empty when the expiry is unknown.
type DeliveryItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ItemID      *uuid.UUID      `gorm:"column:item_id;type:uuid"`
	Description string          `gorm:"column:description"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	Bonus       decimal.Decimal `gorm:"column:bonus;type:numeric(12,3);not null;default:0"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null;default:0"`
	ExpiryToken string          `gorm:"column:expiry_token;type:varchar(8)"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
