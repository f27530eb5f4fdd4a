package scoring

import (
	"strings"
	"testing"

	"mark-risk-eval/internal/registry"
)

func TestTrademarkFactorsNotPerformed(t *testing.T) {
	factors := TrademarkFactors(nil, DefaultPolicy())
	if len(factors) != 1 {
		t.Fatalf("expected 1 factor, got %d", len(factors))
	}
	f := factors[0]
	if f.Severity != SeverityYellow || f.Weight != 0.8 {
		t.Fatalf("not-performed factor = %s/%v, want yellow/0.8", f.Severity, f.Weight)
	}
	if f.Category != CategoryTrademark {
		t.Fatalf("category = %s, want trademark", f.Category)
	}
}

func TestTrademarkFactorCases(t *testing.T) {
	p := DefaultPolicy()
	cases := []struct {
		name       string
		result     registry.CheckResult
		wantSev    Severity
		wantWeight float64
	}{
		{
			name:       "source unavailable",
			result:     registry.CheckResult{Source: "local registry", Checked: false},
			wantSev:    SeverityYellow,
			wantWeight: 0.8,
		},
		{
			name: "exact match",
			result: registry.CheckResult{
				Source: "local registry", Checked: true,
				ExactMatch: true, SimilarityScore: 1.0, InScopeCount: 1,
				RegistrationNumbers: []string{"RU100500"},
			},
			wantSev:    SeverityRed,
			wantWeight: 2.0,
		},
		{
			name: "near exact match",
			result: registry.CheckResult{
				Source: "local registry", Checked: true,
				SimilarMatch: true, SimilarityScore: 0.92, InScopeCount: 1,
			},
			wantSev:    SeverityRed,
			wantWeight: 1.8,
		},
		{
			name: "similar in scope",
			result: registry.CheckResult{
				Source: "local registry", Checked: true,
				SimilarMatch: true, SimilarityScore: 0.84, InScopeCount: 2,
			},
			wantSev:    SeverityYellow,
			wantWeight: 1.0,
		},
		{
			name: "analysis required without similar flag",
			result: registry.CheckResult{
				Source: "local registry", Checked: true,
				SimilarityScore: 0.55, InScopeCount: 1,
			},
			wantSev:    SeverityYellow,
			wantWeight: 1.0,
		},
		{
			name: "clean pass",
			result: registry.CheckResult{
				Source: "local registry", Checked: true,
				OutOfScopeCount: 5,
			},
			wantSev:    SeverityGreen,
			wantWeight: 0.3,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			factors := TrademarkFactors([]registry.CheckResult{tc.result}, p)
			if len(factors) != 1 {
				t.Fatalf("expected 1 factor, got %d", len(factors))
			}
			f := factors[0]
			if f.Severity != tc.wantSev {
				t.Fatalf("severity = %s, want %s", f.Severity, tc.wantSev)
			}
			if f.Weight != tc.wantWeight {
				t.Fatalf("weight = %v, want %v", f.Weight, tc.wantWeight)
			}
		})
	}
}

func TestTrademarkFactorIncludesRegistrations(t *testing.T) {
	res := registry.CheckResult{
		Source: "local registry", Checked: true,
		ExactMatch: true, SimilarityScore: 1.0, InScopeCount: 1,
		RegistrationNumbers: []string{"RU1", "RU2", "RU3", "RU4"},
	}
	f := TrademarkFactors([]registry.CheckResult{res}, DefaultPolicy())[0]
	if !strings.Contains(f.Description, "RU1") {
		t.Fatalf("description should name registrations, got %q", f.Description)
	}
	if strings.Contains(f.Description, "RU4") {
		t.Fatalf("description should cap at 3 registrations, got %q", f.Description)
	}
}

func TestTrademarkFactorsOnePerSource(t *testing.T) {
	results := []registry.CheckResult{
		{Source: "local registry", Checked: true},
		{Source: "external registry", Checked: false},
	}
	factors := TrademarkFactors(results, DefaultPolicy())
	if len(factors) != 2 {
		t.Fatalf("expected one factor per source, got %d", len(factors))
	}
	if factors[0].Severity != SeverityGreen || factors[1].Severity != SeverityYellow {
		t.Fatalf("unexpected severities: %s, %s", factors[0].Severity, factors[1].Severity)
	}
}
