package scoring

import "testing"

func TestDefaultPolicyIsValid(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy must validate: %v", err)
	}
}

func TestPolicyValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"red below yellow", func(p *Policy) { p.RedThreshold = 20 }},
		{"red above 100", func(p *Policy) { p.RedThreshold = 150 }},
		{"zero yellow", func(p *Policy) { p.YellowThreshold = 0 }},
		{"similarity above one", func(p *Policy) { p.SimilarityThreshold = 1.5 }},
		{"near exact below threshold", func(p *Policy) { p.NearExact = 0.5 }},
		{"zero partial cap", func(p *Policy) { p.PartialWordCap = 0 }},
		{"zero image hit limit", func(p *Policy) { p.ImageHitLimit = 0 }},
		{"zero max matches", func(p *Policy) { p.MaxMatches = 0 }},
		{"negative trademark weight", func(p *Policy) { p.TrademarkWeight = -1 }},
		{"zero copyright weight", func(p *Policy) { p.CopyrightWeight = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultPolicy()
			tc.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCategoryWeights(t *testing.T) {
	p := DefaultPolicy()
	cases := []struct {
		category Category
		want     float64
	}{
		{CategoryTrademark, 1.5},
		{CategoryCopyright, 1.3},
		{CategorySource, 1.2},
		{CategoryImageSearch, 1.0},
		{CategoryTextOnImage, 0.8},
	}
	for _, tc := range cases {
		if got := p.CategoryWeight(tc.category); got != tc.want {
			t.Fatalf("weight(%s) = %v, want %v", tc.category, got, tc.want)
		}
	}
}

func TestPolicyScorerCarriesThresholds(t *testing.T) {
	p := DefaultPolicy()
	p.SimilarityThreshold = 0.75
	scorer := p.Scorer()
	if scorer.Threshold != 0.75 {
		t.Fatalf("scorer threshold = %v, want 0.75", scorer.Threshold)
	}
	if scorer.NearExact != p.NearExact {
		t.Fatalf("scorer near exact = %v, want %v", scorer.NearExact, p.NearExact)
	}
}
