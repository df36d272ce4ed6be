package registry

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	pkgerrors "github.com/wyehealth/clinicbridge-backend/pkg/errors"
)

type fakeRegistryRepo struct {
	listFn   func(ctx context.Context) ([]models.RegisteredDrug, error)
	findFn   func(ctx context.Context, reg string) (*models.RegisteredDrug, error)
	upsertFn func(ctx context.Context, drug *models.RegisteredDrug) (bool, error)
	getOrgFn func(ctx context.Context, name, address string) (*models.Company, bool, error)
}

func (f *fakeRegistryRepo) List(ctx context.Context) ([]models.RegisteredDrug, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeRegistryRepo) FindByRegNo(ctx context.Context, reg string) (*models.RegisteredDrug, error) {
	if f.findFn != nil {
		return f.findFn(ctx, reg)
	}
	return nil, nil
}

func (f *fakeRegistryRepo) UpsertByRegNo(ctx context.Context, drug *models.RegisteredDrug) (bool, error) {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, drug)
	}
	return true, nil
}

func (f *fakeRegistryRepo) GetOrCreateCompany(ctx context.Context, name, address string) (*models.Company, bool, error) {
	if f.getOrgFn != nil {
		return f.getOrgFn(ctx, name, address)
	}
	return &models.Company{ID: uuid.New(), Name: name, Address: address}, true, nil
}

func TestService_Import(t *testing.T) {
	repo := &fakeRegistryRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	companyID := uuid.New()
	repo.getOrgFn = func(ctx context.Context, name, address string) (*models.Company, bool, error) {
		if name != "Panacea Labs" {
			t.Fatalf("company name = %q", name)
		}
		return &models.Company{ID: companyID, Name: name, Address: address}, true, nil
	}

	var upserted []models.RegisteredDrug
	repo.upsertFn = func(ctx context.Context, drug *models.RegisteredDrug) (bool, error) {
		upserted = append(upserted, *drug)
		return len(upserted) == 1, nil
	}

	summary, err := svc.Import(context.Background(), []ImportDrugInput{
		{RegNo: " hk-12345 ", Name: " Amoxil 500 ", GenericName: " amoxicillin ", CompanyName: "Panacea Labs"},
		{RegNo: "HK-67890", Name: "Panadol"},
		{RegNo: "", Name: "No RegNo"},
		{RegNo: "HK-11111", Name: "   "},
	})
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if summary.Processed != 4 || summary.Created != 1 || summary.Updated != 1 || summary.Skipped != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(upserted) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(upserted))
	}
	first := upserted[0]
	if first.RegNo != "HK-12345" {
		t.Fatalf("reg no not normalized: %q", first.RegNo)
	}
	if first.Name != "Amoxil 500" || first.GenericName != "amoxicillin" {
		t.Fatalf("names not trimmed: %+v", first)
	}
	if first.CompanyID == nil || *first.CompanyID != companyID {
		t.Fatal("company not linked")
	}
	if upserted[1].CompanyID != nil {
		t.Fatal("row without company name should not link a company")
	}
}

func TestService_GetByRegNo(t *testing.T) {
	repo := &fakeRegistryRepo{
		findFn: func(ctx context.Context, reg string) (*models.RegisteredDrug, error) {
			if reg == "HK-12345" {
				return &models.RegisteredDrug{RegNo: reg, Name: "Amoxil"}, nil
			}
			return nil, nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	drug, err := svc.GetByRegNo(context.Background(), "HK-12345")
	if err != nil {
		t.Fatalf("GetByRegNo error: %v", err)
	}
	if drug.Name != "Amoxil" {
		t.Fatalf("unexpected drug: %+v", drug)
	}

	if _, err := svc.GetByRegNo(context.Background(), "HK-00000"); !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if _, err := svc.GetByRegNo(context.Background(), "   "); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
