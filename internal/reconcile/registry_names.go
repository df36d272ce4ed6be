package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/logger"
	"github.com/wyehealth/clinicbridge-backend/pkg/regno"
)

// NameStore is the slice of the legacy store the propagation pass needs.
type NameStore interface {
	ListDrugs(ctx context.Context) ([]models.CMSDrug, error)
	SaveDrug(ctx context.Context, drug *models.CMSDrug) error
}

// NameRegistry supplies the authoritative naming data.
type NameRegistry interface {
	MapByRegNo(ctx context.Context) (map[string]models.RegisteredDrug, error)
}

// RegistryNamesParams configure the name propagation pass.
type RegistryNamesParams struct {
	Store    NameStore
	Registry NameRegistry
	Logger   *logger.Logger
}

// RegistryNamesPass overwrites display fields on legacy drugs with the
// registry's values wherever a registration-number match exists. Writes only
// happen when a field actually changes, so a second run is a no-op.
type RegistryNamesPass struct {
	store    NameStore
	registry NameRegistry
	logg     *logger.Logger
}

// NewRegistryNamesPass validates params and builds the pass.
func NewRegistryNamesPass(params RegistryNamesParams) (*RegistryNamesPass, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("name store required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("registry required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &RegistryNamesPass{
		store:    params.Store,
		registry: params.Registry,
		logg:     params.Logger,
	}, nil
}

func (p *RegistryNamesPass) Name() string { return "propagate-registry-names" }

func (p *RegistryNamesPass) Run(ctx context.Context) (*Report, error) {
	report := NewReport(p.Name())

	drugs, err := p.store.ListDrugs(ctx)
	if err != nil {
		return report, fmt.Errorf("list drugs: %w", err)
	}
	byRegNo, err := p.registry.MapByRegNo(ctx)
	if err != nil {
		return report, fmt.Errorf("load registry: %w", err)
	}

	for i := range drugs {
		drug := &drugs[i]
		report.Add("drugs_processed", 1)

		norm := regno.Normalize(drug.RegNo)
		if norm == "" {
			report.Add("skipped_no_regno", 1)
			continue
		}
		reg, ok := byRegNo[norm]
		if !ok {
			report.Add("skipped_no_match", 1)
			continue
		}

		changes := propagateNames(drug, reg)
		if len(changes) == 0 {
			continue
		}
		if err := p.store.SaveDrug(ctx, drug); err != nil {
			return report, fmt.Errorf("save drug %d: %w", drug.ID, err)
		}
		for _, change := range changes {
			report.Linef("drug #%d %s: %q -> %q", drug.ID, change.field, change.before, change.after)
		}
		report.Add("drugs_updated", 1)
	}
	return report, nil
}

type fieldChange struct {
	field  string
	before string
	after  string
}

// propagateNames applies registry values to the drug in place and returns
// the fields that actually changed. The old product name is preserved as the
// alias when the alias slot is still free.
func propagateNames(drug *models.CMSDrug, reg models.RegisteredDrug) []fieldChange {
	var changes []fieldChange
	set := func(field string, current *string, next string) {
		if *current == next {
			return
		}
		changes = append(changes, fieldChange{field: field, before: *current, after: next})
		*current = next
	}

	if drug.Alias == "" && drug.ProductName != "" && drug.ProductName != reg.Name {
		set("alias", &drug.Alias, drug.ProductName)
	}
	set("product_name", &drug.ProductName, reg.Name)
	set("label_name", &drug.LabelName, reg.Name)
	set("ingredients", &drug.Ingredients, reg.Ingredients)
	set("generic_name", &drug.GenericName, strings.TrimSpace(reg.GenericName))
	return changes
}

var _ Pass = (*RegistryNamesPass)(nil)
