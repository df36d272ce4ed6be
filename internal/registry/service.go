package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	pkgerrors "github.com/wyehealth/clinicbridge-backend/pkg/errors"
	"github.com/wyehealth/clinicbridge-backend/pkg/regno"
)

type registryRepository interface {
	List(ctx context.Context) ([]models.RegisteredDrug, error)
	FindByRegNo(ctx context.Context, reg string) (*models.RegisteredDrug, error)
	UpsertByRegNo(ctx context.Context, drug *models.RegisteredDrug) (bool, error)
	GetOrCreateCompany(ctx context.Context, name, address string) (*models.Company, bool, error)
}

// ImportDrugInput is one row of the periodic registry feed.
type ImportDrugInput struct {
	RegNo          string `json:"reg_no" validate:"required"`
	Name           string `json:"name" validate:"required"`
	GenericName    string `json:"generic_name"`
	Ingredients    string `json:"ingredients"`
	CompanyName    string `json:"company_name"`
	CompanyAddress string `json:"company_address"`
}

// ImportSummary reports the outcome of a registry feed batch.
type ImportSummary struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
}

// Service exposes registered-drug registry operations.
type Service interface {
	List(ctx context.Context) ([]models.RegisteredDrug, error)
	GetByRegNo(ctx context.Context, reg string) (*models.RegisteredDrug, error)
	Import(ctx context.Context, rows []ImportDrugInput) (*ImportSummary, error)
}

type service struct {
	repo registryRepository
	now  func() time.Time
}

func NewService(repo registryRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("registry repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) List(ctx context.Context) ([]models.RegisteredDrug, error) {
	drugs, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list registered drugs")
	}
	return drugs, nil
}

func (s *service) GetByRegNo(ctx context.Context, reg string) (*models.RegisteredDrug, error) {
	if regno.Empty(reg) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registration number is required")
	}
	drug, err := s.repo.FindByRegNo(ctx, reg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load registered drug")
	}
	if drug == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "registered drug not found")
	}
	return drug, nil
}

// Import upserts a batch of registry rows. Rows without a registration number
// or name are skipped and counted, never fatal.
func (s *service) Import(ctx context.Context, rows []ImportDrugInput) (*ImportSummary, error) {
	summary := &ImportSummary{}
	importedAt := s.now().UTC()

	for _, row := range rows {
		summary.Processed++
		if regno.Empty(row.RegNo) || strings.TrimSpace(row.Name) == "" {
			summary.Skipped++
			continue
		}

		var companyID *uuid.UUID
		if name := strings.TrimSpace(row.CompanyName); name != "" {
			company, _, err := s.repo.GetOrCreateCompany(ctx, name, row.CompanyAddress)
			if err != nil {
				return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve company")
			}
			companyID = &company.ID
		}

		drug := &models.RegisteredDrug{
			RegNo:       regno.Normalize(row.RegNo),
			Name:        strings.TrimSpace(row.Name),
			GenericName: strings.TrimSpace(row.GenericName),
			Ingredients: row.Ingredients,
			CompanyID:   companyID,
			ImportedAt:  importedAt,
		}
		created, err := s.repo.UpsertByRegNo(ctx, drug)
		if err != nil {
			return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert registered drug")
		}
		if created {
			summary.Created++
		} else {
			summary.Updated++
		}
	}
	return summary, nil
}
