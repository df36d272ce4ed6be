package ledgerbook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
	pkgerrors "github.com/wyehealth/clinicbridge-backend/pkg/errors"
)

type ledgerRepository interface {
	ListByKind(ctx context.Context, kind enums.LedgerKind, from, to time.Time) ([]models.LedgerEntry, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error)
	Create(ctx context.Context, entry *models.LedgerEntry) error
	Save(ctx context.Context, entry *models.LedgerEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RecordEntryInput captures a new bookkeeping row.
type RecordEntryInput struct {
	Kind        enums.LedgerKind `json:"kind" validate:"required,oneof=expense income"`
	Description string           `json:"description" validate:"required"`
	Amount      decimal.Decimal  `json:"amount" validate:"required"`
	Category    string           `json:"category"`
	EntryDate   time.Time        `json:"entry_date" validate:"required"`
	VendorID    *uuid.UUID       `json:"vendor_id"`
}

// Service exposes expense/income bookkeeping operations.
type Service interface {
	ListByKind(ctx context.Context, kind enums.LedgerKind, from, to time.Time) ([]models.LedgerEntry, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error)
	Record(ctx context.Context, input RecordEntryInput) (*models.LedgerEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo ledgerRepository
}

func NewService(repo ledgerRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListByKind(ctx context.Context, kind enums.LedgerKind, from, to time.Time) ([]models.LedgerEntry, error) {
	if kind != enums.LedgerKindExpense && kind != enums.LedgerKindIncome {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kind must be expense or income")
	}
	entries, err := s.repo.ListByKind(ctx, kind, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return entries, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger entry")
	}
	if entry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ledger entry not found")
	}
	return entry, nil
}

func (s *service) Record(ctx context.Context, input RecordEntryInput) (*models.LedgerEntry, error) {
	if input.Kind != enums.LedgerKindExpense && input.Kind != enums.LedgerKindIncome {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kind must be expense or income")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be negative")
	}
	if input.EntryDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry date is required")
	}

	entry := &models.LedgerEntry{
		Kind:        input.Kind,
		Description: strings.TrimSpace(input.Description),
		Amount:      input.Amount,
		Category:    input.Category,
		EntryDate:   input.EntryDate,
		VendorID:    input.VendorID,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger entry")
	}
	return entry, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete ledger entry")
	}
	return nil
}
