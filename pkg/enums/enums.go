package enums

// SupplierType tags legacy CMS supplier rows.
type SupplierType string

const (
	SupplierTypeCertificateHolder SupplierType = "certificate_holder"
	SupplierTypeSupplier          SupplierType = "supplier"
	SupplierTypeManufacturer      SupplierType = "manufacturer"
)

// DeliveryOrderStatus tracks the receiving lifecycle of a delivery order.
type DeliveryOrderStatus string

const (
	DeliveryOrderStatusDraft    DeliveryOrderStatus = "draft"
	DeliveryOrderStatusReceived DeliveryOrderStatus = "received"
	DeliveryOrderStatusVoided   DeliveryOrderStatus = "voided"
)

// LedgerKind distinguishes bookkeeping entries.
type LedgerKind string

const (
	LedgerKindExpense LedgerKind = "expense"
	LedgerKindIncome  LedgerKind = "income"
)
