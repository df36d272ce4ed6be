package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/regno"
)

// Repository handles persistence for the registered-drug reference universe.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to registry operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every registered drug ordered by registration number.
func (r *Repository) List(ctx context.Context) ([]models.RegisteredDrug, error) {
	var drugs []models.RegisteredDrug
	if err := r.db.WithContext(ctx).Order("reg_no ASC").Find(&drugs).Error; err != nil {
		return nil, err
	}
	return drugs, nil
}

// MapByRegNo loads all registered drugs keyed by normalized registration
// number.
func (r *Repository) MapByRegNo(ctx context.Context) (map[string]models.RegisteredDrug, error) {
	drugs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	byRegNo := make(map[string]models.RegisteredDrug, len(drugs))
	for _, drug := range drugs {
		byRegNo[regno.Normalize(drug.RegNo)] = drug
	}
	return byRegNo, nil
}

// FindByRegNo loads a registered drug by normalized registration number, or
// nil when the registry does not know it.
func (r *Repository) FindByRegNo(ctx context.Context, reg string) (*models.RegisteredDrug, error) {
	var drug models.RegisteredDrug
	err := r.db.WithContext(ctx).
		Where("reg_no = ?", regno.Normalize(reg)).
		First(&drug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &drug, nil
}

// Save persists the full registered-drug row.
func (r *Repository) Save(ctx context.Context, drug *models.RegisteredDrug) error {
	if drug == nil {
		return fmt.Errorf("registered drug is required")
	}
	return r.db.WithContext(ctx).Save(drug).Error
}

// FindCompany loads a company by id, or nil when absent.
func (r *Repository) FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// GetOrCreateCompany finds a company by its unique name, creating it when
// absent.
func (r *Repository) GetOrCreateCompany(ctx context.Context, name, address string) (*models.Company, bool, error) {
	var company models.Company
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&company).Error
	if err == nil {
		return &company, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	company = models.Company{Name: name, Address: address}
	if err := r.db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, false, err
	}
	return &company, true, nil
}

// UpsertByRegNo creates or refreshes a registry row keyed by registration
// number. Used by the periodic import feed.
func (r *Repository) UpsertByRegNo(ctx context.Context, drug *models.RegisteredDrug) (created bool, err error) {
	if drug == nil {
		return false, fmt.Errorf("registered drug is required")
	}
	drug.RegNo = regno.Normalize(drug.RegNo)

	var existing models.RegisteredDrug
	err = r.db.WithContext(ctx).Where("reg_no = ?", drug.RegNo).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, r.db.WithContext(ctx).Create(drug).Error
	}
	if err != nil {
		return false, err
	}

	existing.Name = drug.Name
	existing.GenericName = drug.GenericName
	existing.Ingredients = drug.Ingredients
	existing.CompanyID = drug.CompanyID
	existing.ImportedAt = drug.ImportedAt
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return false, err
	}
	*drug = existing
	return false, nil
}
