package reconcile

import (
	"context"
	"testing"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
)

func createRegistryNamesTest(t *testing.T, store *fakeCMSStore, registry *fakeRegistry) *RegistryNamesPass {
	t.Helper()
	pass, err := NewRegistryNamesPass(RegistryNamesParams{
		Store:    store,
		Registry: registry,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("NewRegistryNamesPass: %v", err)
	}
	return pass
}

func TestRegistryNamesPass_overwritesFromRegistry(t *testing.T) {
	store := newFakeCMSStore()
	store.addDrug(models.CMSDrug{
		ID:          1,
		RegNo:       "mal19990099a",
		ProductName: "Old Brand Name",
		LabelName:   "Old Label",
		GenericName: "paracetamol ",
		Ingredients: "old text",
	})
	registry := newFakeRegistry()
	registry.addEntry(models.RegisteredDrug{
		RegNo:       "MAL19990099A",
		Name:        "PANADOL TABLET 500MG",
		GenericName: " Paracetamol 500mg ",
		Ingredients: "PARACETAMOL 500MG",
	})

	pass := createRegistryNamesTest(t, store, registry)
	report, err := pass.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Count("drugs_updated") != 1 {
		t.Fatalf("expected 1 updated drug, got %d", report.Count("drugs_updated"))
	}

	drug := store.drugs[1]
	if drug.Alias != "Old Brand Name" {
		t.Fatalf("expected old product name preserved as alias, got %q", drug.Alias)
	}
	if drug.ProductName != "PANADOL TABLET 500MG" || drug.LabelName != "PANADOL TABLET 500MG" {
		t.Fatalf("names not propagated: %q / %q", drug.ProductName, drug.LabelName)
	}
	if drug.GenericName != "Paracetamol 500mg" {
		t.Fatalf("expected trimmed generic name, got %q", drug.GenericName)
	}
	if drug.Ingredients != "PARACETAMOL 500MG" {
		t.Fatalf("ingredients not propagated: %q", drug.Ingredients)
	}
}

func TestRegistryNamesPass_secondRunIsNoop(t *testing.T) {
	store := newFakeCMSStore()
	store.addDrug(models.CMSDrug{ID: 1, RegNo: "MAL123", ProductName: "Old"})
	store.addDrug(models.CMSDrug{ID: 2, RegNo: "", ProductName: "No RegNo"})
	store.addDrug(models.CMSDrug{ID: 3, RegNo: "MAL999", ProductName: "Unmatched"})
	registry := newFakeRegistry()
	registry.addEntry(models.RegisteredDrug{RegNo: "MAL123", Name: "New", GenericName: "gen"})

	pass := createRegistryNamesTest(t, store, registry)
	first, err := pass.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.Count("drugs_updated") != 1 {
		t.Fatalf("expected 1 update on first run, got %d", first.Count("drugs_updated"))
	}
	if first.Count("skipped_no_regno") != 1 || first.Count("skipped_no_match") != 1 {
		t.Fatalf("unexpected skip counts: %s", first.Summary())
	}

	second, err := pass.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Count("drugs_updated") != 0 {
		t.Fatalf("expected zero updates on second run, got %d", second.Count("drugs_updated"))
	}
	if store.drugs[1].Alias != "Old" || store.drugs[1].ProductName != "New" {
		t.Fatalf("field values drifted on rerun: alias=%q product=%q",
			store.drugs[1].Alias, store.drugs[1].ProductName)
	}
}
