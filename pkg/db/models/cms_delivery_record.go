package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CMSDeliveryRecord is a flat legacy purchase-transaction row. ExpenseRef
// holds the uuid (as text) of the modern ledger expense the purchase was
// booked against; the delivery migration uses it as the order idempotency key.
type CMSDeliveryRecord struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	DrugName   string          `gorm:"column:drug_name"`
	RegNo      string          `gorm:"column:reg_no;index"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:decimal(12,3);not null;default:0"`
	Bonus      decimal.Decimal `gorm:"column:bonus;type:decimal(12,3);not null;default:0"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null;default:0"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:decimal(12,2);not null;default:0"`
	ExpiryDate *time.Time      `gorm:"column:expiry_date"`
	DeliveryID *int64          `gorm:"column:delivery_id"`
	ExpenseRef string          `gorm:"column:expense_ref;type:varchar(36);index"`
}

func (CMSDeliveryRecord) TableName() string { return "delivery_records" }
