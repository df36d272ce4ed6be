package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
	"github.com/wyehealth/clinicbridge-backend/pkg/logger"
	"github.com/wyehealth/clinicbridge-backend/pkg/regno"
)

// SupplierStore is the slice of the legacy store the supplier cleanup needs.
type SupplierStore interface {
	ListDrugs(ctx context.Context) ([]models.CMSDrug, error)
	SaveDrug(ctx context.Context, drug *models.CMSDrug) error
	ListSuppliers(ctx context.Context) ([]models.CMSSupplier, error)
	GetOrCreateSupplier(ctx context.Context, name, address string, typ enums.SupplierType) (*models.CMSSupplier, bool, error)
	DeleteSupplier(ctx context.Context, id int64) error
	CountDrugsBySupplier(ctx context.Context, supplierID int64) (int64, error)
	PurgeSupplierHistory(ctx context.Context) error
}

// SupplierRegistry resolves registry rows and their companies for the
// rebuild step.
type SupplierRegistry interface {
	MapByRegNo(ctx context.Context) (map[string]models.RegisteredDrug, error)
	FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

// SupplierCleanupParams configure the supplier utilization cleanup.
type SupplierCleanupParams struct {
	Store      SupplierStore
	Registry   SupplierRegistry
	Logger     *logger.Logger
	Authorizer Authorizer
}

// SupplierCleanupPass deletes suppliers no longer referenced by any drug,
// after parking registry-matched drugs on the placeholder supplier, then
// rebuilds certificate holders from registry company data. The whole pass is
// destructive for supplier transaction history and runs only when confirmed.
type SupplierCleanupPass struct {
	store      SupplierStore
	registry   SupplierRegistry
	logg       *logger.Logger
	authorizer Authorizer
}

// NewSupplierCleanupPass validates params and builds the pass.
func NewSupplierCleanupPass(params SupplierCleanupParams) (*SupplierCleanupPass, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("supplier store required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("registry required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	authorizer := params.Authorizer
	if authorizer == nil {
		authorizer = StaticToken("")
	}
	return &SupplierCleanupPass{
		store:      params.Store,
		registry:   params.Registry,
		logg:       params.Logger,
		authorizer: authorizer,
	}, nil
}

func (p *SupplierCleanupPass) Name() string { return "supplier-cleanup" }

func (p *SupplierCleanupPass) Run(ctx context.Context) (*Report, error) {
	report := NewReport(p.Name())

	drugs, err := p.store.ListDrugs(ctx)
	if err != nil {
		return report, fmt.Errorf("list drugs: %w", err)
	}
	suppliers, err := p.store.ListSuppliers(ctx)
	if err != nil {
		return report, fmt.Errorf("list suppliers: %w", err)
	}
	byRegNo, err := p.registry.MapByRegNo(ctx)
	if err != nil {
		return report, fmt.Errorf("load registry: %w", err)
	}

	matched, keep := classifyDrugs(drugs, byRegNo)
	report.Add("drugs_scanned", len(drugs))
	report.Add("registry_matched", len(matched))

	candidates := 0
	for _, supplier := range suppliers {
		if supplier.Name == models.PlaceholderSupplierName {
			continue
		}
		if _, referenced := keep[supplier.ID]; referenced {
			continue
		}
		report.Linef("supplier #%d (%s) has no remaining references", supplier.ID, supplier.Name)
		candidates++
	}

	effect := fmt.Sprintf(
		"Supplier cleanup will wipe all supplier transaction history, park %d registry-matched drugs on %q, and delete up to %d unreferenced suppliers. This cannot be undone.",
		len(matched), models.PlaceholderSupplierName, candidates)
	ok, err := p.authorizer.Authorize(ctx, effect, "Y")
	if err != nil {
		return report, fmt.Errorf("confirmation: %w", err)
	}
	if !ok {
		report.Linef("cleanup not confirmed; nothing changed")
		report.Add("cleanup_aborted", 1)
		return report, nil
	}

	if err := p.store.PurgeSupplierHistory(ctx); err != nil {
		return report, fmt.Errorf("purge supplier history: %w", err)
	}
	report.Add("history_purged", 1)

	placeholder, created, err := p.store.GetOrCreateSupplier(ctx,
		models.PlaceholderSupplierName, "", enums.SupplierTypeSupplier)
	if err != nil {
		return report, fmt.Errorf("placeholder supplier: %w", err)
	}
	if created {
		report.Add("placeholder_created", 1)
	}

	// Park every registry-matched drug on the placeholder so its old
	// certificate holder stops counting as referenced.
	for i := range matched {
		drug := &matched[i]
		if drug.CertHolderID != nil && *drug.CertHolderID == placeholder.ID {
			continue
		}
		drug.CertHolderID = &placeholder.ID
		if err := p.store.SaveDrug(ctx, drug); err != nil {
			return report, fmt.Errorf("park drug %d: %w", drug.ID, err)
		}
		report.Add("drugs_parked", 1)
	}

	for _, supplier := range suppliers {
		if supplier.ID == placeholder.ID || supplier.Name == models.PlaceholderSupplierName {
			continue
		}
		if _, referenced := keep[supplier.ID]; referenced {
			continue
		}
		// Re-check before deleting; the parking above may have raced with
		// concurrent edits from the CMS side.
		count, err := p.store.CountDrugsBySupplier(ctx, supplier.ID)
		if err != nil {
			return report, fmt.Errorf("recount supplier %d: %w", supplier.ID, err)
		}
		if count > 0 {
			report.Linef("supplier #%d (%s) regained %d references; keeping", supplier.ID, supplier.Name, count)
			report.Add("suppliers_skipped", 1)
			continue
		}
		if err := p.store.DeleteSupplier(ctx, supplier.ID); err != nil {
			return report, fmt.Errorf("delete supplier %d: %w", supplier.ID, err)
		}
		report.Linef("deleted supplier #%d (%s)", supplier.ID, supplier.Name)
		report.Add("suppliers_deleted", 1)
	}

	if err := p.rebuildCertHolders(ctx, report, matched, byRegNo); err != nil {
		return report, err
	}
	return report, nil
}

// classifyDrugs splits the inventory into registry-matched drugs and the set
// of certificate-holder ids still needed by unmatched drugs.
func classifyDrugs(drugs []models.CMSDrug, byRegNo map[string]models.RegisteredDrug) ([]models.CMSDrug, map[int64]struct{}) {
	var matched []models.CMSDrug
	keep := map[int64]struct{}{}
	for _, drug := range drugs {
		norm := regno.Normalize(drug.RegNo)
		if norm != "" {
			if _, ok := byRegNo[norm]; ok {
				matched = append(matched, drug)
				continue
			}
		}
		if drug.CertHolderID != nil {
			keep[*drug.CertHolderID] = struct{}{}
		}
	}
	return matched, keep
}

// rebuildCertHolders re-creates certificate-holder suppliers from registry
// company data and reassigns the parked drugs onto them.
func (p *SupplierCleanupPass) rebuildCertHolders(ctx context.Context, report *Report, matched []models.CMSDrug, byRegNo map[string]models.RegisteredDrug) error {
	companies := map[uuid.UUID]*models.Company{}
	for i := range matched {
		drug := &matched[i]
		reg, ok := byRegNo[regno.Normalize(drug.RegNo)]
		if !ok {
			continue
		}
		if reg.CompanyID == nil {
			report.Linef("drug #%d matches registry %s with no company; left on placeholder", drug.ID, reg.RegNo)
			report.Add("rebuild_skipped", 1)
			continue
		}
		company, cached := companies[*reg.CompanyID]
		if !cached {
			loaded, err := p.registry.FindCompany(ctx, *reg.CompanyID)
			if err != nil {
				return fmt.Errorf("load company %s: %w", reg.CompanyID, err)
			}
			company = loaded
			companies[*reg.CompanyID] = company
		}
		if company == nil {
			report.Linef("registry %s references missing company %s; left on placeholder", reg.RegNo, reg.CompanyID)
			report.Add("rebuild_skipped", 1)
			continue
		}

		supplier, created, err := p.store.GetOrCreateSupplier(ctx,
			company.Name, company.Address, enums.SupplierTypeCertificateHolder)
		if err != nil {
			return fmt.Errorf("certificate holder for %s: %w", company.Name, err)
		}
		if created {
			report.Add("suppliers_created", 1)
		}

		drugType := models.DrugTypeDrug
		drug.CertHolderID = &supplier.ID
		drug.DrugTypeID = &drugType
		if err := p.store.SaveDrug(ctx, drug); err != nil {
			return fmt.Errorf("reassign drug %d: %w", drug.ID, err)
		}
		report.Add("drugs_reassigned", 1)
	}
	return nil
}

var _ Pass = (*SupplierCleanupPass)(nil)
