package scoring

import (
	"math"
	"testing"
)

func TestClassifyBoundaries(t *testing.T) {
	p := DefaultPolicy()
	cases := []struct {
		score float64
		want  Severity
	}{
		{100, SeverityRed},
		{70, SeverityRed},
		{69.999, SeverityYellow},
		{50, SeverityYellow},
		{30, SeverityYellow},
		{29.999, SeverityGreen},
		{0, SeverityGreen},
	}
	for _, tc := range cases {
		if got := Classify(tc.score, p); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestAggregateEmptyFactors(t *testing.T) {
	if got := Aggregate(nil, DefaultPolicy()); got != 0 {
		t.Fatalf("Aggregate(nil) = %v, want 0", got)
	}
}

func TestAggregateWeightedMean(t *testing.T) {
	p := DefaultPolicy()
	factors := []RiskFactor{
		{Category: CategoryTrademark, Severity: SeverityRed, Weight: 2.0},
		{Category: CategoryImageSearch, Severity: SeverityYellow, Weight: 0.7},
	}
	// red: 100 * 2.0 * 1.5 = 300; yellow: 50 * 0.7 * 1.0 = 35
	// total weight: 3.0 + 0.7 = 3.7
	want := 335.0 / 3.7
	got := Aggregate(factors, p)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("Aggregate = %v, want %v", got, want)
	}
}

func TestAggregateAllGreenIsZero(t *testing.T) {
	p := DefaultPolicy()
	factors := []RiskFactor{
		{Category: CategoryTrademark, Severity: SeverityGreen, Weight: 0.3},
		{Category: CategorySource, Severity: SeverityGreen, Weight: 0.5},
	}
	if got := Aggregate(factors, p); got != 0 {
		t.Fatalf("all-green Aggregate = %v, want 0", got)
	}
}

func TestAggregateMonotonicInSeverity(t *testing.T) {
	p := DefaultPolicy()
	base := []RiskFactor{
		{Category: CategoryTrademark, Severity: SeverityGreen, Weight: 0.3},
		{Category: CategorySource, Severity: SeverityYellow, Weight: 1.0},
	}
	escalated := []RiskFactor{
		{Category: CategoryTrademark, Severity: SeverityRed, Weight: 0.3},
		{Category: CategorySource, Severity: SeverityYellow, Weight: 1.0},
	}
	if Aggregate(escalated, p) <= Aggregate(base, p) {
		t.Fatalf("escalating a factor severity must raise the score: %v <= %v",
			Aggregate(escalated, p), Aggregate(base, p))
	}
}

func TestAggregateStaysInRange(t *testing.T) {
	p := DefaultPolicy()
	factors := []RiskFactor{
		{Category: CategoryTrademark, Severity: SeverityRed, Weight: 2.0},
		{Category: CategoryCopyright, Severity: SeverityRed, Weight: 2.0},
		{Category: CategorySource, Severity: SeverityRed, Weight: 1.5},
	}
	got := Aggregate(factors, p)
	if got < 0 || got > 100 {
		t.Fatalf("score %v out of [0, 100]", got)
	}
	if got != 100 {
		t.Fatalf("all-red score = %v, want 100", got)
	}
}

func TestSeverityOrdering(t *testing.T) {
	if !(SeverityGreen < SeverityYellow && SeverityYellow < SeverityRed) {
		t.Fatal("severity ordering must be green < yellow < red")
	}
}

func TestSeverityTextRoundTrip(t *testing.T) {
	for _, s := range []Severity{SeverityGreen, SeverityYellow, SeverityRed} {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("marshal %s: %v", s, err)
		}
		var back Severity
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("unmarshal %q: %v", text, err)
		}
		if back != s {
			t.Fatalf("round trip %s -> %q -> %s", s, text, back)
		}
	}
	var invalid Severity
	if err := invalid.UnmarshalText([]byte("purple")); err == nil {
		t.Fatal("expected error for unknown severity")
	}
}
