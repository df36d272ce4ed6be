package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
)

// DeliveryOrder is a normalized receiving header. ExpenseID is unique so a
// ledger expense maps to at most one order; the legacy delivery migration
// relies on that for idempotence.
type DeliveryOrder struct {
	ID         uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID   *uuid.UUID                `gorm:"column:vendor_id;type:uuid"`
	ExpenseID  *uuid.UUID                `gorm:"column:expense_id;type:uuid;uniqueIndex"`
	Reference  string                    `gorm:"column:reference"`
	Status     enums.DeliveryOrderStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	ReceivedAt *time.Time                `gorm:"column:received_at"`
	Items      []DeliveryItem            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
