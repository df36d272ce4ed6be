package models

import (
	"time"

	"github.com/google/uuid"
)

// RegisteredDrug is a row from the authoritative drug registry, imported
// periodically and keyed by registration number. ItemID is a soft back
// reference to the modern item claiming that registration number.
type RegisteredDrug struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RegNo       string     `gorm:"column:reg_no;not null;uniqueIndex"`
	Name        string     `gorm:"column:name;not null"`
	GenericName string     `gorm:"column:generic_name"`
	Ingredients string     `gorm:"column:ingredients"`
	CompanyID   *uuid.UUID `gorm:"column:company_id;type:uuid"`
	ItemID      *uuid.UUID `gorm:"column:item_id;type:uuid"`
	ImportedAt  time.Time  `gorm:"column:imported_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
