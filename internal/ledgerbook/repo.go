package ledgerbook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
)

// Repository manages persistence for ledger entries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByKind returns entries of one kind within the half-open date range
// [from, to); zero times disable that bound.
func (r *Repository) ListByKind(ctx context.Context, kind enums.LedgerKind, from, to time.Time) ([]models.LedgerEntry, error) {
	query := r.db.WithContext(ctx).Where("kind = ?", kind)
	if !from.IsZero() {
		query = query.Where("entry_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("entry_date < ?", to)
	}
	var entries []models.LedgerEntry
	if err := query.Order("entry_date DESC, created_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if entry == nil {
		return fmt.Errorf("ledger entry is required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) Save(ctx context.Context, entry *models.LedgerEntry) error {
	if entry == nil {
		return fmt.Errorf("ledger entry is required")
	}
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.LedgerEntry{}, "id = ?", id).Error
}
