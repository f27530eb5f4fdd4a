package scoring

import (
	"math"
	"strings"
	"testing"

	"mark-risk-eval/internal/registry"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(DefaultPolicy(), nil, nil)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	return e
}

func TestNewEvaluatorRejectsBadPolicy(t *testing.T) {
	p := DefaultPolicy()
	p.RedThreshold = 20 // below the yellow threshold
	if _, err := NewEvaluator(p, nil, nil); err == nil {
		t.Fatal("expected policy validation error")
	}
}

func TestEvaluateProhibitedProduct(t *testing.T) {
	e := newTestEvaluator(t)
	product := Product{
		Article: "A-100",
		Name:    "Nike Sport",
		Classes: []int{25},
		TrademarkResults: []registry.CheckResult{{
			Source:          "local trademark registry",
			Query:           "Nike Sport",
			Checked:         true,
			ExactMatch:      true,
			SimilarityScore: 1.0,
			InScopeCount:    1,
		}},
	}

	got := e.Evaluate(product)

	// unknown source (100*1.5*1.2) + exact mark (100*2.0*1.5) +
	// image check skipped (50*0.7*1.0) over the matching weight sum.
	want := (180.0 + 300.0 + 35.0) / (1.8 + 3.0 + 0.7)
	if math.Abs(got.OverallScore-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", got.OverallScore, want)
	}
	if got.OverallStatus != SeverityRed {
		t.Fatalf("status = %s, want red", got.OverallStatus)
	}
	if !got.RequiresManualCheck {
		t.Fatal("red assessment must require manual checks")
	}
	if len(got.Recommendations) == 0 || !strings.HasPrefix(got.Recommendations[0], "PROHIBITED") {
		t.Fatalf("recommendations must open with the red banner: %v", got.Recommendations)
	}
	legal := false
	for _, rec := range got.Recommendations {
		if strings.Contains(rec, "legal counsel") {
			legal = true
		}
	}
	if !legal {
		t.Fatalf("an exact trademark hit must recommend legal review: %v", got.Recommendations)
	}
	if !strings.Contains(got.Summary, "PROHIBITED") {
		t.Fatalf("summary = %q", got.Summary)
	}
}

func TestEvaluateClearedProduct(t *testing.T) {
	e := newTestEvaluator(t)
	product := Product{
		Article: "A-200",
		Name:    "Лесная сказка",
		Classes: []int{16},
		// A low-tier source clears without documents on file.
		Source: &Provenance{SourceType: SourceInternalDesigner},
		TrademarkResults: []registry.CheckResult{{
			Source:  "local trademark registry",
			Query:   "Лесная сказка",
			Checked: true,
		}},
		ImageSearchResults: []ImageSearchSummary{{Source: "reverse image search", Checked: true}},
	}

	got := e.Evaluate(product)

	if got.OverallScore != 0 {
		t.Fatalf("score = %v, want 0", got.OverallScore)
	}
	if got.OverallStatus != SeverityGreen {
		t.Fatalf("status = %s, want green", got.OverallStatus)
	}
	if got.RequiresManualCheck {
		t.Fatal("cleared assessment must not require manual checks")
	}
	if len(got.ManualCheckItems) != 0 {
		t.Fatalf("unexpected manual check items: %v", got.ManualCheckItems)
	}
	if len(got.Recommendations) == 0 || !strings.HasPrefix(got.Recommendations[0], "CLEARED") {
		t.Fatalf("recommendations must open with the green banner: %v", got.Recommendations)
	}
}

func TestEvaluateAttentionProduct(t *testing.T) {
	e := newTestEvaluator(t)
	product := Product{
		Article:         "A-300",
		Name:            "Морской бриз",
		Classes:         []int{25},
		Source:          &Provenance{SourceType: SourceStockPaid, HasLicense: true},
		RecognizedTexts: []TextOnImage{{Text: "Sea Breeze", Confidence: 0.92}},
	}

	got := e.Evaluate(product)

	// trademark check skipped (50*0.8*1.5) + image check skipped (50*0.7*1.0)
	// + licensed stock (0*0.5*1.2) + text on product (50*0.8*0.8).
	want := (60.0 + 35.0 + 0.0 + 32.0) / (1.2 + 0.7 + 0.6 + 0.64)
	if math.Abs(got.OverallScore-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", got.OverallScore, want)
	}
	if got.OverallStatus != SeverityYellow {
		t.Fatalf("status = %s, want yellow", got.OverallStatus)
	}
	if !got.RequiresManualCheck {
		t.Fatal("yellow assessment must require manual checks")
	}
	if len(got.ManualCheckItems) == 0 {
		t.Fatal("yellow assessment must list manual check items")
	}
}

func TestEvaluateGreenNeedsExplicitGreenFactor(t *testing.T) {
	// With lifted thresholds an all-yellow factor set scores 50 and the
	// classifier alone would call it green; without a single passed check
	// the verdict must stay yellow.
	p := DefaultPolicy()
	p.RedThreshold = 80
	p.YellowThreshold = 60
	e, err := NewEvaluator(p, nil, nil)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	got := e.Evaluate(Product{
		Article: "A-700",
		Name:    "Безымянный",
		Source:  &Provenance{SourceType: SourceContractor},
	})

	if got.OverallScore >= p.YellowThreshold {
		t.Fatalf("scenario must score below the yellow threshold, got %v", got.OverallScore)
	}
	for _, f := range got.Factors {
		if f.Severity == SeverityGreen {
			t.Fatalf("scenario must not produce a green factor: %+v", f)
		}
	}
	if got.OverallStatus != SeverityYellow {
		t.Fatalf("status = %s, want yellow despite the sub-threshold score", got.OverallStatus)
	}
}

func TestEvaluateFactorOrderIsStable(t *testing.T) {
	e := newTestEvaluator(t)
	product := Product{
		Article: "A-400",
		Name:    "Something",
		Source:  &Provenance{SourceType: SourceContractor, HasContract: true},
		TrademarkResults: []registry.CheckResult{{
			Source: "local trademark registry", Checked: true,
		}},
		ImageSearchResults: []ImageSearchSummary{{Source: "reverse image search", Checked: true, TotalResults: 2}},
		TextOnProduct:      []string{"something"},
	}
	got := e.Evaluate(product)
	categories := make([]Category, 0, len(got.Factors))
	for _, f := range got.Factors {
		categories = append(categories, f.Category)
	}
	want := []Category{CategorySource, CategoryTrademark, CategoryImageSearch, CategoryTextOnImage}
	if len(categories) != len(want) {
		t.Fatalf("factors = %v, want categories %v", categories, want)
	}
	for i := range want {
		if categories[i] != want[i] {
			t.Fatalf("factor %d category = %s, want %s", i, categories[i], want[i])
		}
	}
}

func TestEvaluateRunsDetectorWhenFindingsMissing(t *testing.T) {
	detector := newTestDetector(t)
	e, err := NewEvaluator(DefaultPolicy(), detector, nil)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	product := Product{
		Article: "A-500",
		Name:    "Футболка Nike",
		Source:  &Provenance{SourceType: SourceStockPaid, HasLicense: true},
		TrademarkResults: []registry.CheckResult{{
			Source: "local trademark registry", Checked: true,
		}},
		ImageSearchResults: []ImageSearchSummary{{Source: "reverse image search", Checked: true}},
	}

	got := e.Evaluate(product)

	// A single brand hit against otherwise clean checks lands in the
	// attention band: 260 / (0.6 + 0.45 + 0.3 + 2.6).
	if got.OverallStatus != SeverityYellow {
		t.Fatalf("status = %s, want yellow from brand detection", got.OverallStatus)
	}
	found := false
	for _, f := range got.Factors {
		if f.Category == CategoryCopyright && f.Severity == SeverityRed {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a red copyright factor, got %+v", got.Factors)
	}
}

func TestEvaluatePreComputedFindingsSkipDetector(t *testing.T) {
	detector := newTestDetector(t)
	e, err := NewEvaluator(DefaultPolicy(), detector, nil)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	product := Product{
		Article:          "A-600",
		Name:             "Футболка Nike", // would trip the detector
		Source:           &Provenance{SourceType: SourceStockPaid, HasLicense: true},
		CopyrightResults: []CopyrightFinding{{Checked: true}},
		TrademarkResults: []registry.CheckResult{{
			Source: "local trademark registry", Checked: true,
		}},
		ImageSearchResults: []ImageSearchSummary{{Source: "reverse image search", Checked: true}},
	}

	got := e.Evaluate(product)

	for _, f := range got.Factors {
		if f.Category == CategoryCopyright {
			t.Fatalf("pre-computed clean finding must yield no copyright factor: %+v", f)
		}
	}
	if got.OverallStatus != SeverityGreen {
		t.Fatalf("status = %s, want green", got.OverallStatus)
	}
}
