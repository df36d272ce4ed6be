package cms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
)

func setupCMSTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	drugs := `
CREATE TABLE IF NOT EXISTS drugs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  reg_no TEXT,
  product_name TEXT,
  label_name TEXT,
  generic_name TEXT,
  alias TEXT,
  ingredients TEXT,
  stock_qty REAL NOT NULL DEFAULT 0,
  discontinue INTEGER NOT NULL DEFAULT 0,
  cert_holder_id INTEGER,
  drug_type_id INTEGER,
  clinic_drug_no TEXT,
  updated_by TEXT,
  last_updated DATETIME,
  location TEXT,
  remarks TEXT,
  is_clinic_drug_list INTEGER NOT NULL DEFAULT 0,
  is_master_drug_list INTEGER NOT NULL DEFAULT 0
);`
	suppliers := `
CREATE TABLE IF NOT EXISTS suppliers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  address TEXT,
  type TEXT NOT NULL DEFAULT 'supplier'
);`
	prescriptionDetails := `
CREATE TABLE IF NOT EXISTS prescription_details (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  drug_id INTEGER NOT NULL
);`
	receivedItems := `
CREATE TABLE IF NOT EXISTS received_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  drug_id INTEGER NOT NULL,
  delivery_receipt_id INTEGER
);`
	depletionItems := `
CREATE TABLE IF NOT EXISTS depletion_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  drug_id INTEGER NOT NULL
);`
	deliveryReceipts := `
CREATE TABLE IF NOT EXISTS delivery_receipts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  supplier_id INTEGER,
  received_date DATETIME
);`
	drugSuppliers := `
CREATE TABLE IF NOT EXISTS drug_suppliers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  drug_id INTEGER NOT NULL,
  supplier_id INTEGER NOT NULL
);`
	supplyRequests := `
CREATE TABLE IF NOT EXISTS supply_requests (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  requested_at DATETIME
);`
	supplyRequestItems := `
CREATE TABLE IF NOT EXISTS supply_request_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  request_id INTEGER NOT NULL,
  drug_id INTEGER NOT NULL
);`
	deliveryRecords := `
CREATE TABLE IF NOT EXISTS delivery_records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  drug_name TEXT,
  reg_no TEXT,
  quantity NUMERIC NOT NULL DEFAULT 0,
  bonus NUMERIC NOT NULL DEFAULT 0,
  unit_price NUMERIC NOT NULL DEFAULT 0,
  total_price NUMERIC NOT NULL DEFAULT 0,
  expiry_date DATETIME,
  delivery_id INTEGER,
  expense_ref TEXT
);`
	for _, ddl := range []string{
		drugs, suppliers, prescriptionDetails, receivedItems, depletionItems,
		deliveryReceipts, drugSuppliers, supplyRequests, supplyRequestItems,
		deliveryRecords,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func createDrug(t *testing.T, db *gorm.DB, drug *models.CMSDrug) *models.CMSDrug {
	t.Helper()
	require.NoError(t, db.Create(drug).Error)
	return drug
}

func TestRepositoryFindDrugByRegNo(t *testing.T) {
	db := setupCMSTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	// Legacy rows carry unnormalized registration numbers.
	first := createDrug(t, db, &models.CMSDrug{RegNo: "  hk-12345 ", ProductName: "Amoxil"})
	createDrug(t, db, &models.CMSDrug{RegNo: "hk-12345", ProductName: "Amoxil Dup"})
	createDrug(t, db, &models.CMSDrug{RegNo: "HK-99999", ProductName: "Other"})

	found, err := repo.FindDrugByRegNo(ctx, "HK-12345")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	missing, err := repo.FindDrugByRegNo(ctx, "HK-00000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryDrugIDProjections(t *testing.T) {
	db := setupCMSTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.CMSPrescriptionDetail{DrugID: 1}).Error)
	require.NoError(t, db.Create(&models.CMSPrescriptionDetail{DrugID: 1}).Error)
	require.NoError(t, db.Create(&models.CMSPrescriptionDetail{DrugID: 2}).Error)
	require.NoError(t, db.Create(&models.CMSReceivedItem{DrugID: 3}).Error)
	require.NoError(t, db.Create(&models.CMSDepletionItem{DrugID: 4}).Error)

	prescribed, err := repo.PrescribedDrugIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]struct{}{1: {}, 2: {}}, prescribed)

	received, err := repo.ReceivedDrugIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]struct{}{3: {}}, received)

	depleted, err := repo.DepletedDrugIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]struct{}{4: {}}, depleted)
}

func TestRepositoryGetOrCreateSupplier(t *testing.T) {
	db := setupCMSTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, wasCreated, err := repo.GetOrCreateSupplier(ctx, "ACME PHARMA", "1 Queen St", enums.SupplierTypeCertificateHolder)
	require.NoError(t, err)
	assert.True(t, wasCreated)
	assert.Equal(t, enums.SupplierTypeCertificateHolder, created.Type)

	again, wasCreated, err := repo.GetOrCreateSupplier(ctx, "ACME PHARMA", "ignored", enums.SupplierTypeSupplier)
	require.NoError(t, err)
	assert.False(t, wasCreated)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "1 Queen St", again.Address)
}

func TestRepositoryDeleteDrugsByID(t *testing.T) {
	db := setupCMSTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	a := createDrug(t, db, &models.CMSDrug{ProductName: "A"})
	b := createDrug(t, db, &models.CMSDrug{ProductName: "B"})
	createDrug(t, db, &models.CMSDrug{ProductName: "C"})

	affected, err := repo.DeleteDrugsByID(ctx, []int64{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	remaining, err := repo.ListDrugs(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "C", remaining[0].ProductName)

	affected, err = repo.DeleteDrugsByID(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestRepositoryListTrashMarkedDrugs(t *testing.T) {
	db := setupCMSTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	createDrug(t, db, &models.CMSDrug{ProductName: "Kept", Location: "Shelf 3"})
	marked := createDrug(t, db, &models.CMSDrug{ProductName: "Doomed", Location: models.TrashLocation})

	drugs, err := repo.ListTrashMarkedDrugs(ctx)
	require.NoError(t, err)
	require.Len(t, drugs, 1)
	assert.Equal(t, marked.ID, drugs[0].ID)
}

func TestRepositoryCountDrugsBySupplier(t *testing.T) {
	db := setupCMSTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	supplier, _, err := repo.GetOrCreateSupplier(ctx, "Panacea Labs", "", enums.SupplierTypeSupplier)
	require.NoError(t, err)
	createDrug(t, db, &models.CMSDrug{ProductName: "A", CertHolderID: &supplier.ID})
	createDrug(t, db, &models.CMSDrug{ProductName: "B", CertHolderID: &supplier.ID})
	createDrug(t, db, &models.CMSDrug{ProductName: "C"})

	count, err := repo.CountDrugsBySupplier(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repo.DeleteSupplier(ctx, supplier.ID))
	suppliers, err := repo.ListSuppliers(ctx)
	require.NoError(t, err)
	assert.Empty(t, suppliers)
}

func TestRepositoryPurgeSupplierHistory(t *testing.T) {
	db := setupCMSTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.CMSReceivedItem{DrugID: 1}).Error)
	require.NoError(t, db.Create(&models.CMSDeliveryReceipt{}).Error)
	require.NoError(t, db.Create(&models.CMSDrugSupplier{DrugID: 1, SupplierID: 1}).Error)
	require.NoError(t, db.Create(&models.CMSSupplyRequest{}).Error)
	require.NoError(t, db.Create(&models.CMSSupplyRequestItem{RequestID: 1, DrugID: 1}).Error)
	createDrug(t, db, &models.CMSDrug{ProductName: "Survives"})

	require.NoError(t, repo.PurgeSupplierHistory(ctx))

	for _, table := range []string{
		"received_items", "delivery_receipts", "drug_suppliers",
		"supply_requests", "supply_request_items",
	} {
		var count int64
		require.NoError(t, db.Table(table).Count(&count).Error)
		assert.Zero(t, count, table)
	}

	drugs, err := repo.ListDrugs(ctx)
	require.NoError(t, err)
	assert.Len(t, drugs, 1)
}
