package reconcile

import (
	"strings"
	"testing"
)

func TestReport_renderIncludesLinesAndCounters(t *testing.T) {
	report := NewReport("demo")
	report.Linef("drug #%d marked", 7)
	report.Add("drugs_marked", 1)
	report.Add("drugs_scanned", 3)

	var sb strings.Builder
	report.Render(&sb)
	out := sb.String()
	if !strings.Contains(out, "drug #7 marked") {
		t.Fatalf("missing per-record line: %q", out)
	}
	if !strings.Contains(out, "drugs_marked: 1") || !strings.Contains(out, "drugs_scanned: 3") {
		t.Fatalf("missing counters: %q", out)
	}
}

func TestReport_emptyRendersNothingToDo(t *testing.T) {
	var sb strings.Builder
	NewReport("demo").Render(&sb)
	if !strings.Contains(sb.String(), "nothing to do") {
		t.Fatalf("expected nothing-to-do summary, got %q", sb.String())
	}
}

func TestReport_mutationsSumsWriteCounters(t *testing.T) {
	report := NewReport("demo")
	report.Add("drugs_scanned", 100)
	report.Add("drugs_marked", 2)
	report.Add("orphans_cleared", 3)
	report.Add("items_created", 1)
	if got := report.Mutations(); got != 6 {
		t.Fatalf("expected 6 mutations, got %d", got)
	}
}
