package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
	"github.com/wyehealth/clinicbridge-backend/pkg/logger"
	"github.com/wyehealth/clinicbridge-backend/pkg/regno"
)

// CrossRefItems is the slice of the modern item store the sweep needs.
type CrossRefItems interface {
	ListWithCMSLink(ctx context.Context) ([]models.Item, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	Save(ctx context.Context, item *models.Item) error
}

// CrossRefCMS is the slice of the legacy store the sweep needs.
type CrossRefCMS interface {
	FindDrugByID(ctx context.Context, id int64) (*models.CMSDrug, error)
	FindDrugByRegNo(ctx context.Context, regNo string) (*models.CMSDrug, error)
	GetOrCreateSupplier(ctx context.Context, name, address string, typ enums.SupplierType) (*models.CMSSupplier, bool, error)
	CreateDrug(ctx context.Context, drug *models.CMSDrug) error
}

// CrossRefRegistry is the slice of the registry the sweep needs.
type CrossRefRegistry interface {
	List(ctx context.Context) ([]models.RegisteredDrug, error)
	MapByRegNo(ctx context.Context) (map[string]models.RegisteredDrug, error)
	Save(ctx context.Context, drug *models.RegisteredDrug) error
	FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

// CrossRefParams configure the cross-reference repair sweep.
type CrossRefParams struct {
	Items      CrossRefItems
	CMS        CrossRefCMS
	Registry   CrossRefRegistry
	Logger     *logger.Logger
	Authorizer Authorizer

	// Create enables the guarded creation phase: legacy drugs are rebuilt
	// for registry entries whose modern item lost its legacy counterpart.
	Create bool
}

// CrossRefPass is the bidirectional consistency sweep over modern item,
// legacy drug, and registry linkage. Dangling references are cleared, drifted
// registration-number copies resynced, and registry back references
// repointed; missing legacy rows are only recreated behind the confirmation
// gate.
type CrossRefPass struct {
	items      CrossRefItems
	cms        CrossRefCMS
	registry   CrossRefRegistry
	logg       *logger.Logger
	authorizer Authorizer
	create     bool
}

// NewCrossRefPass validates params and builds the pass.
func NewCrossRefPass(params CrossRefParams) (*CrossRefPass, error) {
	if params.Items == nil {
		return nil, fmt.Errorf("item store required")
	}
	if params.CMS == nil {
		return nil, fmt.Errorf("cms store required")
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
	return &CrossRefPass{
		items:      params.Items,
		cms:        params.CMS,
		registry:   params.Registry,
		logg:       params.Logger,
		authorizer: authorizer,
		create:     params.Create,
	}, nil
}

func (p *CrossRefPass) Name() string { return "fix-cross-references" }

func (p *CrossRefPass) Run(ctx context.Context) (*Report, error) {
	report := NewReport(p.Name())

	byRegNo, err := p.registry.MapByRegNo(ctx)
	if err != nil {
		return report, fmt.Errorf("load registry: %w", err)
	}

	items, err := p.items.ListWithCMSLink(ctx)
	if err != nil {
		return report, fmt.Errorf("list linked items: %w", err)
	}
	report.Add("items_scanned", len(items))

	for i := range items {
		if err := p.repairForward(ctx, report, &items[i], byRegNo); err != nil {
			return report, err
		}
	}

	missing, err := p.findMissingLegacyRows(ctx, report)
	if err != nil {
		return report, err
	}

	for i := range items {
		if err := p.repairReverse(ctx, report, &items[i], byRegNo); err != nil {
			return report, err
		}
	}

	if p.create && len(missing) > 0 {
		if err := p.createMissingLegacyRows(ctx, report, missing); err != nil {
			return report, err
		}
	}
	return report, nil
}

// repairForward walks item -> legacy drug -> registry and fixes the item's
// soft references.
func (p *CrossRefPass) repairForward(ctx context.Context, report *Report, item *models.Item, byRegNo map[string]models.RegisteredDrug) error {
	if item.CMSDrugID != nil {
		drug, err := p.cms.FindDrugByID(ctx, *item.CMSDrugID)
		if err != nil {
			return fmt.Errorf("load drug %d: %w", *item.CMSDrugID, err)
		}
		if drug == nil {
			report.Linef("item %s references missing drug #%d; clearing link", item.ID, *item.CMSDrugID)
			item.CMSDrugID = nil
			item.RegNo = nil
			if err := p.items.Save(ctx, item); err != nil {
				return fmt.Errorf("clear orphan item %s: %w", item.ID, err)
			}
			report.Add("orphans_cleared", 1)
			return nil
		}

		norm := regno.Normalize(drug.RegNo)
		if norm != "" {
			if _, known := byRegNo[norm]; known {
				if item.RegNo == nil || *item.RegNo != norm {
					item.RegNo = &norm
					if err := p.items.Save(ctx, item); err != nil {
						return fmt.Errorf("sync regno on item %s: %w", item.ID, err)
					}
					report.Add("regno_synced", 1)
				}
				return nil
			}
		}
		// Legacy registration no longer traces to a registry entry.
		if item.RegNo != nil {
			report.Linef("item %s: drug #%d registration %q unknown to registry; clearing copy", item.ID, drug.ID, drug.RegNo)
			item.RegNo = nil
			appendNote(item, "registration number removed: no registry match")
			if err := p.items.Save(ctx, item); err != nil {
				return fmt.Errorf("clear regno on item %s: %w", item.ID, err)
			}
			report.Add("regno_cleared", 1)
		}
		return nil
	}

	if item.RegNo == nil {
		return nil
	}
	norm := regno.Normalize(*item.RegNo)
	if norm != "" {
		drug, err := p.cms.FindDrugByRegNo(ctx, norm)
		if err != nil {
			return fmt.Errorf("find drug by regno %s: %w", norm, err)
		}
		if drug != nil {
			return nil
		}
	}
	report.Linef("item %s carries registration %q with no legacy counterpart; clearing", item.ID, *item.RegNo)
	item.RegNo = nil
	item.CMSDrugID = nil
	if err := p.items.Save(ctx, item); err != nil {
		return fmt.Errorf("clear stale item %s: %w", item.ID, err)
	}
	report.Add("stale_cleared", 1)
	return nil
}

// findMissingLegacyRows reports registry entries that are linked to a modern
// item but whose registration has no legacy drug row anymore. They become
// creation candidates for the guarded phase.
func (p *CrossRefPass) findMissingLegacyRows(ctx context.Context, report *Report) ([]models.RegisteredDrug, error) {
	entries, err := p.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registry: %w", err)
	}
	var missing []models.RegisteredDrug
	for _, reg := range entries {
		if reg.ItemID == nil {
			continue
		}
		norm := regno.Normalize(reg.RegNo)
		if norm == "" {
			continue
		}
		drug, err := p.cms.FindDrugByRegNo(ctx, norm)
		if err != nil {
			return nil, fmt.Errorf("find drug by regno %s: %w", norm, err)
		}
		if drug != nil {
			continue
		}
		report.Linef("registry %s is linked to item %s but has no legacy drug", reg.RegNo, reg.ItemID)
		report.Add("legacy_missing", 1)
		missing = append(missing, reg)
	}
	return missing, nil
}

// repairReverse keeps the registry's back reference pointing at the item
// that claims the registration number.
func (p *CrossRefPass) repairReverse(ctx context.Context, report *Report, item *models.Item, byRegNo map[string]models.RegisteredDrug) error {
	if item.RegNo == nil {
		return nil
	}
	norm := regno.Normalize(*item.RegNo)
	reg, known := byRegNo[norm]
	if !known {
		report.Linef("item %s registration %q unknown to registry; clearing copy", item.ID, *item.RegNo)
		item.RegNo = nil
		if err := p.items.Save(ctx, item); err != nil {
			return fmt.Errorf("clear unknown regno on item %s: %w", item.ID, err)
		}
		report.Add("regno_cleared", 1)
		return nil
	}

	itemID := item.ID
	switch {
	case reg.ItemID == nil:
		reg.ItemID = &itemID
		if err := p.registry.Save(ctx, &reg); err != nil {
			return fmt.Errorf("set back reference on %s: %w", reg.RegNo, err)
		}
		byRegNo[norm] = reg
		report.Add("backrefs_set", 1)
	case *reg.ItemID != itemID:
		warnCtx := p.logg.WithFields(ctx, map[string]any{
			"reg_no":   reg.RegNo,
			"old_item": reg.ItemID.String(),
			"new_item": itemID.String(),
		})
		p.logg.Warn(warnCtx, "two items claim the same registration number; repointing back reference")
		report.Linef("registry %s repointed from item %s to item %s", reg.RegNo, reg.ItemID, itemID)
		reg.ItemID = &itemID
		if err := p.registry.Save(ctx, &reg); err != nil {
			return fmt.Errorf("repoint back reference on %s: %w", reg.RegNo, err)
		}
		byRegNo[norm] = reg
		report.Add("backrefs_repointed", 1)
	}
	return nil
}

// createMissingLegacyRows rebuilds legacy drug rows for registry entries the
// forward pass flagged, once the operator confirms.
func (p *CrossRefPass) createMissingLegacyRows(ctx context.Context, report *Report, missing []models.RegisteredDrug) error {
	effect := fmt.Sprintf("About to create %d legacy drug rows (and any missing certificate-holder suppliers) from registry data.", len(missing))
	ok, err := p.authorizer.Authorize(ctx, effect)
	if err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	if !ok {
		report.Linef("creation not confirmed; no legacy rows created")
		report.Add("creation_aborted", 1)
		return nil
	}

	for _, reg := range missing {
		var certHolderID *int64
		if reg.CompanyID != nil {
			company, err := p.registry.FindCompany(ctx, *reg.CompanyID)
			if err != nil {
				return fmt.Errorf("load company %s: %w", reg.CompanyID, err)
			}
			if company != nil {
				supplier, created, err := p.cms.GetOrCreateSupplier(ctx,
					strings.ToUpper(company.Name), company.Address, enums.SupplierTypeCertificateHolder)
				if err != nil {
					return fmt.Errorf("certificate holder for %s: %w", company.Name, err)
				}
				if created {
					report.Add("suppliers_created", 1)
				}
				certHolderID = &supplier.ID
			}
		}

		drugType := models.DrugTypeDrug
		drug := &models.CMSDrug{
			RegNo:            regno.Normalize(reg.RegNo),
			ProductName:      reg.Name,
			LabelName:        reg.Name,
			GenericName:      strings.TrimSpace(reg.GenericName),
			Ingredients:      reg.Ingredients,
			CertHolderID:     certHolderID,
			DrugTypeID:       &drugType,
			Discontinue:      false,
			IsClinicDrugList: true,
			IsMasterDrugList: true,
		}
		if err := p.cms.CreateDrug(ctx, drug); err != nil {
			return fmt.Errorf("create drug for %s: %w", reg.RegNo, err)
		}
		report.Linef("created legacy drug #%d for registry %s", drug.ID, reg.RegNo)
		report.Add("drugs_created", 1)

		item, err := p.items.FindByID(ctx, *reg.ItemID)
		if err != nil {
			return fmt.Errorf("load item %s: %w", reg.ItemID, err)
		}
		if item == nil {
			report.Linef("registry %s back reference %s vanished mid-run", reg.RegNo, reg.ItemID)
			continue
		}
		norm := regno.Normalize(reg.RegNo)
		item.CMSDrugID = &drug.ID
		item.RegNo = &norm
		item.Active = true
		if err := p.items.Save(ctx, item); err != nil {
			return fmt.Errorf("relink item %s: %w", item.ID, err)
		}
		report.Add("items_relinked", 1)
	}
	return nil
}

func appendNote(item *models.Item, note string) {
	if item.Notes == nil || *item.Notes == "" {
		item.Notes = &note
		return
	}
	combined := *item.Notes + "\n" + note
	item.Notes = &combined
}

var _ Pass = (*CrossRefPass)(nil)
