package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/logger"
)

// UtilizationStore is the slice of the legacy store the utilization pass
// needs.
type UtilizationStore interface {
	ListDrugs(ctx context.Context) ([]models.CMSDrug, error)
	ListTrashMarkedDrugs(ctx context.Context) ([]models.CMSDrug, error)
	SaveDrug(ctx context.Context, drug *models.CMSDrug) error
	DeleteDrugsByID(ctx context.Context, ids []int64) (int64, error)
	PrescribedDrugIDs(ctx context.Context) (map[int64]struct{}, error)
	ReceivedDrugIDs(ctx context.Context) (map[int64]struct{}, error)
	DepletedDrugIDs(ctx context.Context) (map[int64]struct{}, error)
}

// UtilizationParams configure the utilization and safe-deletion pass.
type UtilizationParams struct {
	Store      UtilizationStore
	Logger     *logger.Logger
	Authorizer Authorizer

	// Delete switches from mark mode to delete mode. Remove selects the
	// remove-marked path inside delete mode: deletion targets are re-scanned
	// from rows already bearing the trash marker instead of the computed set.
	Delete bool
	Remove bool

	Now func() time.Time
}

// UtilizationPass classifies unreferenced legacy drugs as deletable and,
// depending on mode, marks or deletes them.
type UtilizationPass struct {
	store      UtilizationStore
	logg       *logger.Logger
	authorizer Authorizer
	delete     bool
	remove     bool
	now        func() time.Time
}

// NewUtilizationPass validates params and builds the pass.
func NewUtilizationPass(params UtilizationParams) (*UtilizationPass, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("utilization store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	authorizer := params.Authorizer
	if authorizer == nil {
		authorizer = StaticToken("")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &UtilizationPass{
		store:      params.Store,
		logg:       params.Logger,
		authorizer: authorizer,
		delete:     params.Delete,
		remove:     params.Remove,
		now:        now,
	}, nil
}

func (p *UtilizationPass) Name() string { return "utilization-cleanup" }

// utilizationPlan is the pure classification result: which drugs the rule
// flags, which of those are still referenced, and the safe deletion targets.
// The utilized union is kept so delete mode can re-check any target set
// against it at deletion time.
type utilizationPlan struct {
	candidates []int64
	conflicts  []int64
	final      []int64
	utilized   map[int64]struct{}
}

// buildUtilizationPlan computes candidate, conflict, and final sets from
// loaded rows. No side effects; deletion never touches a utilized id.
func buildUtilizationPlan(drugs []models.CMSDrug, prescribed, received, depleted map[int64]struct{}) utilizationPlan {
	utilized := make(map[int64]struct{}, len(prescribed)+len(received)+len(depleted))
	for id := range prescribed {
		utilized[id] = struct{}{}
	}
	for id := range received {
		utilized[id] = struct{}{}
	}
	for id := range depleted {
		utilized[id] = struct{}{}
	}

	plan := utilizationPlan{utilized: utilized}
	for _, drug := range drugs {
		if !deletionCandidate(drug) {
			continue
		}
		plan.candidates = append(plan.candidates, drug.ID)
		if _, ok := utilized[drug.ID]; ok {
			plan.conflicts = append(plan.conflicts, drug.ID)
			continue
		}
		plan.final = append(plan.final, drug.ID)
	}
	sort.Slice(plan.final, func(i, j int) bool { return plan.final[i] < plan.final[j] })
	sort.Slice(plan.conflicts, func(i, j int) bool { return plan.conflicts[i] < plan.conflicts[j] })
	return plan
}

// deletionCandidate applies the never-touched rule: zero stock and no trace
// of a human ever editing the row.
func deletionCandidate(drug models.CMSDrug) bool {
	if drug.StockQty != 0 {
		return false
	}
	if drug.LastUpdated != nil {
		return false
	}
	if drug.ClinicDrugNo != nil {
		return false
	}
	if drug.UpdatedBy != nil && *drug.UpdatedBy != "" {
		return false
	}
	return true
}

func (p *UtilizationPass) Run(ctx context.Context) (*Report, error) {
	report := NewReport(p.Name())

	drugs, err := p.store.ListDrugs(ctx)
	if err != nil {
		return report, fmt.Errorf("list drugs: %w", err)
	}
	prescribed, err := p.store.PrescribedDrugIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("load prescribed ids: %w", err)
	}
	received, err := p.store.ReceivedDrugIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("load received ids: %w", err)
	}
	depleted, err := p.store.DepletedDrugIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("load depleted ids: %w", err)
	}

	plan := buildUtilizationPlan(drugs, prescribed, received, depleted)
	report.Add("drugs_scanned", len(drugs))
	report.Add("candidates", len(plan.candidates))
	for _, id := range plan.conflicts {
		report.Linef("drug #%d is flagged deletable but still referenced; keeping", id)
		report.Add("conflicts", 1)
	}

	if p.delete {
		return report, p.applyDelete(ctx, report, plan, indexDrugs(drugs))
	}
	return report, p.applyMark(ctx, report, plan, indexDrugs(drugs))
}

func indexDrugs(drugs []models.CMSDrug) map[int64]models.CMSDrug {
	byID := make(map[int64]models.CMSDrug, len(drugs))
	for _, drug := range drugs {
		byID[drug.ID] = drug
	}
	return byID
}

// applyMark writes the trash sentinel onto every safe target that does not
// already carry it.
func (p *UtilizationPass) applyMark(ctx context.Context, report *Report, plan utilizationPlan, byID map[int64]models.CMSDrug) error {
	if len(plan.final) == 0 {
		report.Linef("nothing to do")
		return nil
	}
	marker := fmt.Sprintf("marked for deletion %s", p.now().UTC().Format("2006-01-02 15:04:05"))
	for _, id := range plan.final {
		drug, ok := byID[id]
		if !ok {
			continue
		}
		if drug.Location == models.TrashLocation {
			report.Add("already_marked", 1)
			continue
		}
		drug.Location = models.TrashLocation
		if drug.Remarks == "" {
			drug.Remarks = marker
		} else {
			drug.Remarks = drug.Remarks + "\n" + marker
		}
		if err := p.store.SaveDrug(ctx, &drug); err != nil {
			return fmt.Errorf("mark drug %d: %w", id, err)
		}
		report.Linef("marked drug #%d (%s)", id, drug.ProductName)
		report.Add("drugs_marked", 1)
	}
	return nil
}

// applyDelete removes either the computed targets (skip-mark path) or the
// rows already bearing the trash sentinel (remove-marked path), after the
// confirmation gate.
func (p *UtilizationPass) applyDelete(ctx context.Context, report *Report, plan utilizationPlan, byID map[int64]models.CMSDrug) error {
	targets := plan.final
	if p.remove {
		marked, err := p.store.ListTrashMarkedDrugs(ctx)
		if err != nil {
			return fmt.Errorf("list trash-marked drugs: %w", err)
		}
		// A row marked by an earlier run may have gained a prescription,
		// receipt, or depletion since. Referenced rows are never deleted.
		targets = targets[:0:0]
		for _, drug := range marked {
			if _, used := plan.utilized[drug.ID]; used {
				report.Linef("drug #%d is trash-marked but now referenced; keeping", drug.ID)
				report.Add("conflicts", 1)
				continue
			}
			targets = append(targets, drug.ID)
			byID[drug.ID] = drug
		}
	}
	if len(targets) == 0 {
		report.Linef("nothing to do")
		return nil
	}

	for _, id := range targets {
		if drug, ok := byID[id]; ok {
			report.Linef("delete target: drug #%d (%s)", id, drug.ProductName)
		}
	}
	effect := fmt.Sprintf("About to permanently delete %d legacy drug rows.", len(targets))
	ok, err := p.authorizer.Authorize(ctx, effect)
	if err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	if !ok {
		report.Linef("deletion not confirmed; no rows removed")
		report.Add("deletion_aborted", 1)
		return nil
	}

	deleted, err := p.store.DeleteDrugsByID(ctx, targets)
	if err != nil {
		return fmt.Errorf("delete drugs: %w", err)
	}
	report.Add("drugs_deleted", int(deleted))
	p.logg.Info(p.logg.WithField(ctx, "deleted", deleted), "legacy drugs deleted")
	return nil
}

var _ Pass = (*UtilizationPass)(nil)
