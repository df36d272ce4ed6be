package models

import "time"

// TrashLocation is the sentinel written into a CMS drug's location field when
// the utilization pass marks it for deletion.
const TrashLocation = "Trash"

// CMSDrug is a legacy inventory item in the clinic-management-system store.
// Location and Remarks are free-text columns the cleanup pass repurposes as a
// trash marker.
type CMSDrug struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement"`
	RegNo            string     `gorm:"column:reg_no;index"`
	ProductName      string     `gorm:"column:product_name"`
	LabelName        string     `gorm:"column:label_name"`
	GenericName      string     `gorm:"column:generic_name"`
	Alias            string     `gorm:"column:alias"`
	Ingredients      string     `gorm:"column:ingredients;type:text"`
	StockQty         float64    `gorm:"column:stock_qty;not null;default:0"`
	Discontinue      bool       `gorm:"column:discontinue;not null;default:false"`
	CertHolderID     *int64     `gorm:"column:cert_holder_id"`
	DrugTypeID       *int64     `gorm:"column:drug_type_id"`
	ClinicDrugNo     *string    `gorm:"column:clinic_drug_no"`
	UpdatedBy        *string    `gorm:"column:updated_by"`
	LastUpdated      *time.Time `gorm:"column:last_updated"`
	Location         string     `gorm:"column:location"`
	Remarks          string     `gorm:"column:remarks;type:text"`
	IsClinicDrugList bool       `gorm:"column:is_clinic_drug_list;not null;default:false"`
	IsMasterDrugList bool       `gorm:"column:is_master_drug_list;not null;default:false"`
}

func (CMSDrug) TableName() string { return "drugs" }

// DrugTypeDrug is the fixed CMS item-type id for registry-matched drugs.
const DrugTypeDrug int64 = 1
