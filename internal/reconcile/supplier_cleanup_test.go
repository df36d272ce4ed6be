package reconcile

import (
	"context"
	"testing"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
)

func createSupplierCleanupTest(t *testing.T, store *fakeCMSStore, registry *fakeRegistry, authorizer Authorizer) *SupplierCleanupPass {
	t.Helper()
	pass, err := NewSupplierCleanupPass(SupplierCleanupParams{
		Store:      store,
		Registry:   registry,
		Logger:     testLogger(),
		Authorizer: authorizer,
	})
	if err != nil {
		t.Fatalf("NewSupplierCleanupPass: %v", err)
	}
	return pass
}

func TestSupplierCleanupPass_withheldConfirmationChangesNothing(t *testing.T) {
	store := newFakeCMSStore()
	store.addSupplier(models.CMSSupplier{ID: 1, Name: "Acme Pharma"})
	store.addDrug(models.CMSDrug{ID: 1, RegNo: "MAL1", CertHolderID: ptrInt64(1)})
	registry := newFakeRegistry()

	pass := createSupplierCleanupTest(t, store, registry, StaticToken("no"))
	report, err := pass.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Count("cleanup_aborted") != 1 {
		t.Fatal("expected aborted cleanup to be reported")
	}
	if store.historyPurged {
		t.Fatal("history must not be purged without confirmation")
	}
	if len(store.suppliers) != 1 {
		t.Fatalf("expected supplier retained, got %d suppliers", len(store.suppliers))
	}
}

func TestSupplierCleanupPass_everySurvivorIsReferencedOrPlaceholder(t *testing.T) {
	store := newFakeCMSStore()
	store.addSupplier(models.CMSSupplier{ID: 1, Name: "Acme Pharma"})      // referenced only by registry-matched drug
	store.addSupplier(models.CMSSupplier{ID: 2, Name: "Orphan Supplies"})  // referenced by nothing
	store.addSupplier(models.CMSSupplier{ID: 3, Name: "Village Remedies"}) // referenced by unmatched drug
	store.addDrug(models.CMSDrug{ID: 1, RegNo: "MAL1", CertHolderID: ptrInt64(1)})
	store.addDrug(models.CMSDrug{ID: 2, RegNo: "", CertHolderID: ptrInt64(3)})

	registry := newFakeRegistry()
	companyID := registry.addCompany(models.Company{Name: "Panacea Labs", Address: "12 Mill Road"})
	registry.addEntry(models.RegisteredDrug{RegNo: "MAL1", Name: "Panacea", CompanyID: &companyID})

	pass := createSupplierCleanupTest(t, store, registry, StaticToken("Y"))
	report, err := pass.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !store.historyPurged {
		t.Fatal("expected transactional history purge")
	}
	if report.Count("suppliers_deleted") != 2 {
		t.Fatalf("expected suppliers 1 and 2 deleted, got %d: %s",
			report.Count("suppliers_deleted"), report.Summary())
	}

	ctx := context.Background()
	suppliers, _ := store.ListSuppliers(ctx)
	for _, supplier := range suppliers {
		if supplier.Name == models.PlaceholderSupplierName {
			continue
		}
		count, _ := store.CountDrugsBySupplier(ctx, supplier.ID)
		if count == 0 {
			t.Fatalf("supplier %q survived with zero references", supplier.Name)
		}
	}

	// The registry-matched drug ends up on a rebuilt certificate holder.
	drug := store.drugs[1]
	if drug.CertHolderID == nil {
		t.Fatal("matched drug lost its certificate holder")
	}
	holder := store.suppliers[*drug.CertHolderID]
	if holder == nil || holder.Name != "Panacea Labs" {
		t.Fatalf("expected rebuilt certificate holder, got %+v", holder)
	}
	if holder.Type != enums.SupplierTypeCertificateHolder {
		t.Fatalf("expected certificate-holder type, got %s", holder.Type)
	}
	if drug.DrugTypeID == nil || *drug.DrugTypeID != models.DrugTypeDrug {
		t.Fatal("matched drug should carry the fixed drug type")
	}

	// The unmatched drug keeps its original supplier untouched.
	if *store.drugs[2].CertHolderID != 3 {
		t.Fatalf("unmatched drug was reassigned to %d", *store.drugs[2].CertHolderID)
	}
}

func TestSupplierCleanupPass_skipsSupplierThatRegainedReferences(t *testing.T) {
	store := newFakeCMSStore()
	store.addSupplier(models.CMSSupplier{ID: 1, Name: "Acme Pharma"})
	// Supplier 1 holds both a registry-matched drug and an unmatched one. The
	// matched drug parks on the placeholder but the unmatched drug keeps the
	// supplier referenced.
	store.addDrug(models.CMSDrug{ID: 1, RegNo: "MAL1", CertHolderID: ptrInt64(1)})
	store.addDrug(models.CMSDrug{ID: 2, RegNo: "MAL2", CertHolderID: ptrInt64(1)})

	registry := newFakeRegistry()
	registry.addEntry(models.RegisteredDrug{RegNo: "MAL1", Name: "Panacea"})

	pass := createSupplierCleanupTest(t, store, registry, Force())
	report, err := pass.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Drug 2 has no registry match so supplier 1 stays in the keep set and is
	// never a candidate; nothing is deleted.
	if report.Count("suppliers_deleted") != 0 {
		t.Fatalf("expected no deletions, got %d", report.Count("suppliers_deleted"))
	}
	if _, ok := store.suppliers[1]; !ok {
		t.Fatal("referenced supplier must survive")
	}
}
