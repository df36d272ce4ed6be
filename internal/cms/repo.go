package cms

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
)

// Repository handles persistence against the legacy CMS store.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to legacy CMS operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListDrugs returns every drug row.
func (r *Repository) ListDrugs(ctx context.Context) ([]models.CMSDrug, error) {
	var drugs []models.CMSDrug
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&drugs).Error; err != nil {
		return nil, err
	}
	return drugs, nil
}

// FindDrugByID loads a drug, or nil when it does not exist.
func (r *Repository) FindDrugByID(ctx context.Context, id int64) (*models.CMSDrug, error) {
	var drug models.CMSDrug
	err := r.db.WithContext(ctx).First(&drug, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &drug, nil
}

// FindDrugByRegNo loads the first drug carrying the registration number, or
// nil when none does. Callers are expected to pass a normalized reg no.
func (r *Repository) FindDrugByRegNo(ctx context.Context, regNo string) (*models.CMSDrug, error) {
	var drug models.CMSDrug
	err := r.db.WithContext(ctx).
		Where("UPPER(TRIM(reg_no)) = ?", regNo).
		Order("id ASC").
		First(&drug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &drug, nil
}

// SaveDrug persists the full drug row.
func (r *Repository) SaveDrug(ctx context.Context, drug *models.CMSDrug) error {
	if drug == nil {
		return fmt.Errorf("drug is required")
	}
	return r.db.WithContext(ctx).Save(drug).Error
}

// CreateDrug inserts a new drug row.
func (r *Repository) CreateDrug(ctx context.Context, drug *models.CMSDrug) error {
	if drug == nil {
		return fmt.Errorf("drug is required")
	}
	return r.db.WithContext(ctx).Create(drug).Error
}

// DeleteDrugsByID removes the given drug rows and reports how many went away.
func (r *Repository) DeleteDrugsByID(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.CMSDrug{})
	return res.RowsAffected, res.Error
}

// ListTrashMarkedDrugs returns drugs bearing the trash sentinel location.
func (r *Repository) ListTrashMarkedDrugs(ctx context.Context) ([]models.CMSDrug, error) {
	var drugs []models.CMSDrug
	if err := r.db.WithContext(ctx).
		Where("location = ?", models.TrashLocation).
		Order("id ASC").
		Find(&drugs).Error; err != nil {
		return nil, err
	}
	return drugs, nil
}

// PrescribedDrugIDs projects the prescription-detail table onto drug ids.
func (r *Repository) PrescribedDrugIDs(ctx context.Context) (map[int64]struct{}, error) {
	return r.drugIDSet(ctx, models.CMSPrescriptionDetail{}.TableName())
}

// ReceivedDrugIDs projects the received-item table onto drug ids.
func (r *Repository) ReceivedDrugIDs(ctx context.Context) (map[int64]struct{}, error) {
	return r.drugIDSet(ctx, models.CMSReceivedItem{}.TableName())
}

// DepletedDrugIDs projects the depletion-item table onto drug ids.
func (r *Repository) DepletedDrugIDs(ctx context.Context) (map[int64]struct{}, error) {
	return r.drugIDSet(ctx, models.CMSDepletionItem{}.TableName())
}

func (r *Repository) drugIDSet(ctx context.Context, table string) (map[int64]struct{}, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Table(table).
		Distinct("drug_id").
		Pluck("drug_id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// ListSuppliers returns every supplier row.
func (r *Repository) ListSuppliers(ctx context.Context) ([]models.CMSSupplier, error) {
	var suppliers []models.CMSSupplier
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// GetOrCreateSupplier finds a supplier by its unique name, creating it with
// the given address/type when absent. The second result reports creation.
func (r *Repository) GetOrCreateSupplier(ctx context.Context, name, address string, typ enums.SupplierType) (*models.CMSSupplier, bool, error) {
	var supplier models.CMSSupplier
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&supplier).Error
	if err == nil {
		return &supplier, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	supplier = models.CMSSupplier{Name: name, Address: address, Type: typ}
	if err := r.db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, false, err
	}
	return &supplier, true, nil
}

// DeleteSupplier removes one supplier row.
func (r *Repository) DeleteSupplier(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.CMSSupplier{}, "id = ?", id).Error
}

// CountDrugsBySupplier reports how many drugs still reference the supplier as
// certificate holder.
func (r *Repository) CountDrugsBySupplier(ctx context.Context, supplierID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CMSDrug{}).
		Where("cert_holder_id = ?", supplierID).
		Count(&count).Error
	return count, err
}

// PurgeSupplierHistory wipes the four transactional tables tied to suppliers:
// delivery receipts, received items, drug-supplier links, and supply requests
// with their items. Irreversible; callers gate it behind confirmation.
func (r *Repository) PurgeSupplierHistory(ctx context.Context) error {
	tables := []string{
		models.CMSReceivedItem{}.TableName(),
		models.CMSDeliveryReceipt{}.TableName(),
		models.CMSDrugSupplier{}.TableName(),
		models.CMSSupplyRequestItem{}.TableName(),
		models.CMSSupplyRequest{}.TableName(),
	}
	for _, table := range tables {
		if err := r.db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("purge %s: %w", table, err)
		}
	}
	return nil
}

// ListDeliveryRecords returns every flat legacy purchase record.
func (r *Repository) ListDeliveryRecords(ctx context.Context) ([]models.CMSDeliveryRecord, error) {
	var records []models.CMSDeliveryRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
