package reconcile

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
)

func untouchedDrug(id int64, name string) models.CMSDrug {
	return models.CMSDrug{ID: id, ProductName: name, StockQty: 0}
}

func TestBuildUtilizationPlan_referencedCandidateNeverFinal(t *testing.T) {
	drugs := []models.CMSDrug{
		untouchedDrug(10, "Paracetamol"),
		untouchedDrug(11, "Ibuprofen"),
		{ID: 12, ProductName: "Amoxicillin", StockQty: 5},
		{ID: 13, ProductName: "Cetirizine", LastUpdated: ptrTime(time.Now())},
		{ID: 14, ProductName: "Loratadine", UpdatedBy: ptrStr("admin")},
	}
	received := map[int64]struct{}{10: {}}

	plan := buildUtilizationPlan(drugs, nil, received, nil)

	if len(plan.candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", plan.candidates)
	}
	if len(plan.conflicts) != 1 || plan.conflicts[0] != 10 {
		t.Fatalf("expected drug 10 as conflict, got %v", plan.conflicts)
	}
	if len(plan.final) != 1 || plan.final[0] != 11 {
		t.Fatalf("expected only drug 11 in final, got %v", plan.final)
	}
	for _, id := range plan.final {
		if _, ok := received[id]; ok {
			t.Fatalf("utilized drug %d made it into final set", id)
		}
	}
}

func TestBuildUtilizationPlan_emptyUpdatedByStillCandidate(t *testing.T) {
	drugs := []models.CMSDrug{{ID: 1, StockQty: 0, UpdatedBy: ptrStr("")}}
	plan := buildUtilizationPlan(drugs, nil, nil, nil)
	if len(plan.final) != 1 || plan.final[0] != 1 {
		t.Fatalf("expected drug 1 in final, got %v", plan.final)
	}
}

func TestUtilizationPass_markModeWritesSentinel(t *testing.T) {
	store := newFakeCMSStore()
	store.addDrug(untouchedDrug(1, "Paracetamol"))
	store.addDrug(untouchedDrug(2, "Ibuprofen"))
	store.prescribed[2] = struct{}{}

	pass, err := NewUtilizationPass(UtilizationParams{
		Store:  store,
		Logger: testLogger(),
		Now:    func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewUtilizationPass: %v", err)
	}
	report, err := pass.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Count("drugs_marked") != 1 {
		t.Fatalf("expected 1 marked drug, got %d", report.Count("drugs_marked"))
	}
	marked := store.drugs[1]
	if marked.Location != models.TrashLocation {
		t.Fatalf("expected trash location, got %q", marked.Location)
	}
	if !strings.Contains(marked.Remarks, "2026-03-01") {
		t.Fatalf("expected timestamped remark, got %q", marked.Remarks)
	}
	if store.drugs[2].Location == models.TrashLocation {
		t.Fatal("utilized drug must not be marked")
	}

	// Second run leaves the already-marked row alone.
	report, err = pass.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.Count("drugs_marked") != 0 {
		t.Fatalf("expected no new marks on rerun, got %d", report.Count("drugs_marked"))
	}
	if report.Count("already_marked") != 1 {
		t.Fatalf("expected 1 already-marked, got %d", report.Count("already_marked"))
	}
}

func TestUtilizationPass_deleteRequiresConfirmation(t *testing.T) {
	store := newFakeCMSStore()
	store.addDrug(untouchedDrug(1, "Paracetamol"))
	store.addDrug(untouchedDrug(2, "Ibuprofen"))

	pass, err := NewUtilizationPass(UtilizationParams{
		Store:      store,
		Logger:     testLogger(),
		Authorizer: StaticToken("yes"), // wrong case, must not authorize
		Delete:     true,
	})
	if err != nil {
		t.Fatalf("NewUtilizationPass: %v", err)
	}
	report, err := pass.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Count("drugs_deleted") != 0 {
		t.Fatalf("expected zero deletions without confirmation, got %d", report.Count("drugs_deleted"))
	}
	if report.Count("deletion_aborted") != 1 {
		t.Fatal("expected aborted deletion to be reported")
	}
	if len(store.drugs) != 2 {
		t.Fatalf("expected both drugs retained, got %d", len(store.drugs))
	}
	if report.Count("candidates") != 2 {
		t.Fatalf("non-destructive report should still be produced, got %d candidates", report.Count("candidates"))
	}
}

func TestUtilizationPass_deleteConfirmedRemovesOnlyFinalSet(t *testing.T) {
	store := newFakeCMSStore()
	store.addDrug(untouchedDrug(1, "Paracetamol"))
	store.addDrug(untouchedDrug(2, "Ibuprofen"))
	store.depleted[2] = struct{}{}

	pass, err := NewUtilizationPass(UtilizationParams{
		Store:      store,
		Logger:     testLogger(),
		Authorizer: StaticToken(ConfirmToken),
		Delete:     true,
	})
	if err != nil {
		t.Fatalf("NewUtilizationPass: %v", err)
	}
	report, err := pass.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Count("drugs_deleted") != 1 {
		t.Fatalf("expected 1 deletion, got %d", report.Count("drugs_deleted"))
	}
	if _, ok := store.drugs[1]; ok {
		t.Fatal("drug 1 should be deleted")
	}
	if _, ok := store.drugs[2]; !ok {
		t.Fatal("utilized drug 2 must survive")
	}
}

func reportHasLine(report *Report, fragment string) bool {
	for _, line := range report.Lines() {
		if strings.Contains(line, fragment) {
			return true
		}
	}
	return false
}

func TestUtilizationPass_removeMarkedPath(t *testing.T) {
	store := newFakeCMSStore()
	marked := untouchedDrug(1, "Paracetamol")
	marked.Location = models.TrashLocation
	store.addDrug(marked)
	fresh := untouchedDrug(2, "Ibuprofen")
	fresh.StockQty = 3 // not a candidate, not marked
	store.addDrug(fresh)

	pass, err := NewUtilizationPass(UtilizationParams{
		Store:      store,
		Logger:     testLogger(),
		Authorizer: Force(),
		Delete:     true,
		Remove:     true,
	})
	if err != nil {
		t.Fatalf("NewUtilizationPass: %v", err)
	}
	report, err := pass.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Count("drugs_deleted") != 1 {
		t.Fatalf("expected 1 deletion, got %d", report.Count("drugs_deleted"))
	}
	if _, ok := store.drugs[2]; !ok {
		t.Fatal("unmarked drug must survive the remove-marked path")
	}
}

func TestUtilizationPass_removeMarkedKeepsNewlyReferenced(t *testing.T) {
	store := newFakeCMSStore()
	stale := untouchedDrug(1, "Paracetamol")
	stale.Location = models.TrashLocation
	store.addDrug(stale)
	clean := untouchedDrug(2, "Ibuprofen")
	clean.Location = models.TrashLocation
	store.addDrug(clean)
	// Drug 1 was marked by an earlier run but has since been received.
	store.received[1] = struct{}{}

	pass, err := NewUtilizationPass(UtilizationParams{
		Store:      store,
		Logger:     testLogger(),
		Authorizer: Force(),
		Delete:     true,
		Remove:     true,
	})
	if err != nil {
		t.Fatalf("NewUtilizationPass: %v", err)
	}
	report, err := pass.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := store.drugs[1]; !ok {
		t.Fatal("referenced drug must survive even when trash-marked")
	}
	if _, ok := store.drugs[2]; ok {
		t.Fatal("unreferenced marked drug should be deleted")
	}
	if report.Count("drugs_deleted") != 1 {
		t.Fatalf("expected 1 deletion, got %d", report.Count("drugs_deleted"))
	}
	if report.Count("conflicts") == 0 {
		t.Fatal("kept drug should be reported as a conflict")
	}
	if !reportHasLine(report, "trash-marked but now referenced") {
		t.Fatalf("expected a keep line for drug 1, got %v", report.Lines())
	}
}

func TestUtilizationPass_reportsNothingToDo(t *testing.T) {
	store := newFakeCMSStore()
	stocked := untouchedDrug(1, "Paracetamol")
	stocked.StockQty = 4
	store.addDrug(stocked)

	pass, err := NewUtilizationPass(UtilizationParams{
		Store:  store,
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("NewUtilizationPass: %v", err)
	}
	report, err := pass.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Count("drugs_scanned") != 1 {
		t.Fatalf("expected 1 scanned drug, got %d", report.Count("drugs_scanned"))
	}
	if !reportHasLine(report, "nothing to do") {
		t.Fatalf("mark mode with no targets should say so, got %v", report.Lines())
	}

	deletePass, err := NewUtilizationPass(UtilizationParams{
		Store:      store,
		Logger:     testLogger(),
		Authorizer: Force(),
		Delete:     true,
		Remove:     true,
	})
	if err != nil {
		t.Fatalf("NewUtilizationPass: %v", err)
	}
	report, err = deletePass.Run(context.Background())
	if err != nil {
		t.Fatalf("delete Run: %v", err)
	}
	if report.Count("drugs_deleted") != 0 {
		t.Fatalf("expected no deletions, got %d", report.Count("drugs_deleted"))
	}
	if !reportHasLine(report, "nothing to do") {
		t.Fatalf("delete mode with no targets should say so, got %v", report.Lines())
	}
}
