package models

import "time"

// The CMS usage tables only matter to the reconciliation engine as drug-id
// projections: a drug referenced by any of them is utilized and must never be
// purged.

// CMSPrescriptionDetail is a dispensed prescription line.
type CMSPrescriptionDetail struct {
	ID     int64 `gorm:"column:id;primaryKey;autoIncrement"`
	DrugID int64 `gorm:"column:drug_id;index;not null"`
}

func (CMSPrescriptionDetail) TableName() string { return "prescription_details" }

// CMSReceivedItem is a goods-received line tied to a delivery receipt.
type CMSReceivedItem struct {
	ID                int64  `gorm:"column:id;primaryKey;autoIncrement"`
	DrugID            int64  `gorm:"column:drug_id;index;not null"`
	DeliveryReceiptID *int64 `gorm:"column:delivery_receipt_id"`
}

func (CMSReceivedItem) TableName() string { return "received_items" }

// CMSDepletionItem is a stock write-off line.
type CMSDepletionItem struct {
	ID     int64 `gorm:"column:id;primaryKey;autoIncrement"`
	DrugID int64 `gorm:"column:drug_id;index;not null"`
}

func (CMSDepletionItem) TableName() string { return "depletion_items" }

// CMSDeliveryReceipt is a legacy goods-received header.
type CMSDeliveryReceipt struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	SupplierID   *int64     `gorm:"column:supplier_id"`
	ReceivedDate *time.Time `gorm:"column:received_date"`
}

func (CMSDeliveryReceipt) TableName() string { return "delivery_receipts" }

// CMSDrugSupplier links a drug to one of its suppliers.
type CMSDrugSupplier struct {
	ID         int64 `gorm:"column:id;primaryKey;autoIncrement"`
	DrugID     int64 `gorm:"column:drug_id;index;not null"`
	SupplierID int64 `gorm:"column:supplier_id;index;not null"`
}

func (CMSDrugSupplier) TableName() string { return "drug_suppliers" }

// CMSSupplyRequest is a legacy purchase-request header.
type CMSSupplyRequest struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	RequestedAt *time.Time `gorm:"column:requested_at"`
}

func (CMSSupplyRequest) TableName() string { return "supply_requests" }

// CMSSupplyRequestItem is a legacy purchase-request line.
type CMSSupplyRequestItem struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	RequestID int64 `gorm:"column:request_id;index;not null"`
	DrugID    int64 `gorm:"column:drug_id;index;not null"`
}

func (CMSSupplyRequestItem) TableName() string { return "supply_request_items" }
