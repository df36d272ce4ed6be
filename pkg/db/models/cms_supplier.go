package models

import "github.com/wyehealth/clinicbridge-backend/pkg/enums"

// PlaceholderSupplierName is the sentinel supplier items are parked on while
// their certificate holder is being rebuilt.
const PlaceholderSupplierName = "!_NA"

// CMSSupplier is a legacy certificate holder / supplier / manufacturer row.
type CMSSupplier struct {
	ID      int64              `gorm:"column:id;primaryKey;autoIncrement"`
	Name    string             `gorm:"column:name;uniqueIndex;not null"`
	Address string             `gorm:"column:address"`
	Type    enums.SupplierType `gorm:"column:type;type:varchar(32);not null;default:'supplier'"`
}

func (CMSSupplier) TableName() string { return "suppliers" }
