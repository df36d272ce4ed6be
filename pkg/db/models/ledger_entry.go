package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
)

// LedgerEntry is a bookkeeping row, either an expense or an income.
// Delivery orders reference expense entries by id.
type LedgerEntry struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind        enums.LedgerKind `gorm:"column:kind;type:text;not null"`
	Description string           `gorm:"column:description;not null"`
	Amount      decimal.Decimal  `gorm:"column:amount;type:numeric(12,2);not null"`
	Category    string           `gorm:"column:category"`
	EntryDate   time.Time        `gorm:"column:entry_date;not null"`
	VendorID    *uuid.UUID       `gorm:"column:vendor_id;type:uuid"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
