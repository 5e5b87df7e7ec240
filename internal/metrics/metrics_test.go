package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordArticle(t *testing.T) {
	before := testutil.ToFloat64(ArticlesTotal.WithLabelValues("ok"))
	claimsBefore := testutil.ToFloat64(ClaimsExtracted)

	RecordArticle("ok", 3)

	if got := testutil.ToFloat64(ArticlesTotal.WithLabelValues("ok")) - before; got != 1 {
		t.Errorf("expected articles counter +1, got %v", got)
	}
	if got := testutil.ToFloat64(ClaimsExtracted) - claimsBefore; got != 3 {
		t.Errorf("expected claims counter +3, got %v", got)
	}
}

func TestRecordLabels(t *testing.T) {
	before := testutil.ToFloat64(LabelsTotal.WithLabelValues("truth", "False"))

	RecordLabels("False", "High")

	if got := testutil.ToFloat64(LabelsTotal.WithLabelValues("truth", "False")) - before; got != 1 {
		t.Errorf("expected truth label counter +1, got %v", got)
	}
}

func TestRecordBatch(t *testing.T) {
	saved := testutil.ToFloat64(ClaimsSaved)
	warnings := testutil.ToFloat64(StoreWarnings)

	RecordBatch(4, 1, 0.2)

	if got := testutil.ToFloat64(ClaimsSaved) - saved; got != 4 {
		t.Errorf("expected saved counter +4, got %v", got)
	}
	if got := testutil.ToFloat64(StoreWarnings) - warnings; got != 1 {
		t.Errorf("expected warnings counter +1, got %v", got)
	}
}
